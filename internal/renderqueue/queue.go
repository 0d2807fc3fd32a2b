// Package renderqueue re-renders document PDFs in the background.
// Approval and upload paths publish the document id; a single subscriber
// assembles the approved content and stores the fresh PDF on the
// document row. Producers never wait for rendering.
package renderqueue

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/geoscribe/report-backend/internal/entity"
	"github.com/geoscribe/report-backend/internal/pkg/formatter"
	"github.com/geoscribe/report-backend/internal/repository"
	"go.uber.org/zap"
)

const renderTopic = "document.render"

// Assembler builds the renderer-facing projection of a document.
type Assembler interface {
	AssemblyData(ctx context.Context, documentID string, approvedOnly bool) (*entity.AssemblyData, error)
}

// Queue is the in-process render pipeline.
type Queue struct {
	pubSub       *gochannel.GoChannel
	documentRepo repository.DocumentRepository
	assembler    Assembler
	pdf          formatter.Formatter
	logger       *zap.Logger
}

func NewQueue(documentRepo repository.DocumentRepository, assembler Assembler, logger *zap.Logger) *Queue {
	return &Queue{
		pubSub:       gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false)),
		documentRepo: documentRepo,
		assembler:    assembler,
		pdf:          formatter.NewPDFFormatter(),
		logger:       logger,
	}
}

// NotifyRender queues a re-render for the document.
func (q *Queue) NotifyRender(_ context.Context, documentID string) error {
	msg := message.NewMessage(watermill.NewUUID(), []byte(documentID))
	if err := q.pubSub.Publish(renderTopic, msg); err != nil {
		return fmt.Errorf("publish render request: %w", err)
	}
	return nil
}

// Start launches the subscriber loop. It returns immediately; the loop
// runs until the context is cancelled or Close is called.
func (q *Queue) Start(ctx context.Context) error {
	messages, err := q.pubSub.Subscribe(ctx, renderTopic)
	if err != nil {
		return fmt.Errorf("subscribe to render topic: %w", err)
	}

	go func() {
		for msg := range messages {
			documentID := string(msg.Payload)
			if err := q.render(ctx, documentID); err != nil {
				q.logger.Warn("document render failed",
					zap.String("document_id", documentID),
					zap.Error(err),
				)
			}
			// rendering is best-effort; the next approval publishes again
			msg.Ack()
		}
	}()

	return nil
}

func (q *Queue) render(ctx context.Context, documentID string) error {
	data, err := q.assembler.AssemblyData(ctx, documentID, true)
	if err != nil {
		return fmt.Errorf("assemble document: %w", err)
	}

	rendered, err := q.pdf.Format(data)
	if err != nil {
		return fmt.Errorf("render PDF: %w", err)
	}

	if err := q.documentRepo.SetPDF(ctx, documentID, rendered); err != nil {
		return fmt.Errorf("store PDF: %w", err)
	}

	q.logger.Info("document PDF rendered",
		zap.String("document_id", documentID),
		zap.Int("bytes", len(rendered)),
		zap.Int("populated_sections", data.PopulatedSections),
	)

	return nil
}

// Close shuts the queue down; pending messages are dropped.
func (q *Queue) Close() error {
	return q.pubSub.Close()
}
