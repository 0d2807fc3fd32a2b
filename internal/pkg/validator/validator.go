package validator

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/geoscribe/report-backend/internal/config"
	"github.com/geoscribe/report-backend/internal/entity"
)

var AllowedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".txt":  true,
	".csv":  true,
	".json": true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Validator validates incoming requests and file uploads
type Validator struct {
	cfg config.FileUploadConfig
}

func NewValidator(cfg config.FileUploadConfig) *Validator {
	return &Validator{cfg: cfg}
}

func (v *Validator) ValidateCreateProject(req *entity.CreateProjectRequest) error {
	if req.Name == "" {
		return fmt.Errorf("%w: name", entity.ErrMissingField)
	}
	if req.Topic == "" {
		return fmt.Errorf("%w: topic", entity.ErrMissingField)
	}

	return nil
}

func (v *Validator) ValidateSelectSubsection(req *entity.SelectSubsectionRequest) error {
	if req.Section == "" {
		return fmt.Errorf("%w: section", entity.ErrMissingField)
	}
	if req.Subsection == "" {
		return fmt.Errorf("%w: subsection", entity.ErrMissingField)
	}

	return nil
}

func (v *Validator) ValidateStartConversation(req *entity.StartConversationRequest) error {
	if req.Section == "" {
		return fmt.Errorf("%w: section", entity.ErrMissingField)
	}
	if req.Subsection == "" {
		return fmt.Errorf("%w: subsection", entity.ErrMissingField)
	}

	return nil
}

func (v *Validator) ValidateReply(req *entity.ReplyRequest) error {
	if strings.TrimSpace(req.Message) == "" {
		return fmt.Errorf("%w: message", entity.ErrMissingField)
	}

	return nil
}

func (v *Validator) ValidateApprove(req *entity.ApproveRequest) error {
	if req.Section == "" {
		return fmt.Errorf("%w: section", entity.ErrMissingField)
	}
	if req.Subsection == "" {
		return fmt.Errorf("%w: subsection", entity.ErrMissingField)
	}

	return nil
}

// ValidateUpload validates multiple file uploads
func (v *Validator) ValidateUpload(files []*multipart.FileHeader) error {
	if len(files) == 0 {
		return fmt.Errorf("%w: files", entity.ErrMissingField)
	}

	if len(files) > v.cfg.MaxFileCount {
		return fmt.Errorf("%w: maximum %d files allowed, got %d", entity.ErrTooManyFiles, v.cfg.MaxFileCount, len(files))
	}

	var totalSize int64
	for _, fh := range files {
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if _, ok := AllowedExtensions[ext]; !ok {
			return fmt.Errorf("%w: %s (allowed: pdf, docx, txt, csv, json, jpg, png)", entity.ErrInvalidExtension, ext)
		}

		if fh.Size > v.cfg.MaxFileSize {
			return fmt.Errorf("%w: file '%s' is %d bytes (max %d)", entity.ErrFileTooLarge, fh.Filename, fh.Size, v.cfg.MaxFileSize)
		}

		totalSize += fh.Size
	}

	if totalSize > v.cfg.MaxTotalSize {
		return fmt.Errorf("%w: total size is %d bytes (max %d)", entity.ErrTotalSizeTooLarge, totalSize, v.cfg.MaxTotalSize)
	}

	return nil
}

// SanitizeFilename sanitizes a filename for safe storage
func SanitizeFilename(filename string) string {
	filename = filepath.Base(filename)
	replacer := strings.NewReplacer(
		" ", "_",
		"(", "",
		")", "",
		"[", "",
		"]", "",
		"{", "",
		"}", "",
	)
	return replacer.Replace(filename)
}
