package sections

import (
	"context"
	"testing"
	"time"

	"github.com/geoscribe/report-backend/internal/entity"
	"github.com/geoscribe/report-backend/internal/taxonomy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testDocID = "7b9e1de1-5a55-4f2a-a6a3-0af683f3fd1c"

type fakeSectionRepo struct {
	data map[string]map[string]any // section -> draft
}

func newFakeSectionRepo() *fakeSectionRepo {
	return &fakeSectionRepo{data: make(map[string]map[string]any)}
}

func (f *fakeSectionRepo) Get(_ context.Context, documentID, section string) (*entity.SectionDraft, error) {
	draft, ok := f.data[section]
	if !ok {
		return nil, nil
	}
	return &entity.SectionDraft{DocumentID: documentID, Section: section, Data: draft}, nil
}

func (f *fakeSectionRepo) Upsert(_ context.Context, documentID, section string, data map[string]any) (*entity.SectionDraft, error) {
	f.data[section] = data
	return &entity.SectionDraft{DocumentID: documentID, Section: section, Data: data}, nil
}

func (f *fakeSectionRepo) ListByDocument(_ context.Context, documentID string) ([]*entity.SectionDraft, error) {
	drafts := make([]*entity.SectionDraft, 0, len(f.data))
	for section, data := range f.data {
		drafts = append(drafts, &entity.SectionDraft{DocumentID: documentID, Section: section, Data: data})
	}
	return drafts, nil
}

type fakeApprovedRepo struct {
	values map[string]map[string]string // section -> subsection -> value
}

func newFakeApprovedRepo() *fakeApprovedRepo {
	return &fakeApprovedRepo{values: make(map[string]map[string]string)}
}

func (f *fakeApprovedRepo) Upsert(_ context.Context, documentID, section, subsection, value string) (*entity.ApprovedSubsection, error) {
	if f.values[section] == nil {
		f.values[section] = make(map[string]string)
	}
	f.values[section][subsection] = value
	return &entity.ApprovedSubsection{
		DocumentID:    documentID,
		Section:       section,
		Subsection:    subsection,
		ApprovedValue: value,
		ApprovedAt:    time.Now(),
	}, nil
}

func (f *fakeApprovedRepo) Get(_ context.Context, documentID, section, subsection string) (*entity.ApprovedSubsection, error) {
	value, ok := f.values[section][subsection]
	if !ok {
		return nil, nil
	}
	return &entity.ApprovedSubsection{DocumentID: documentID, Section: section, Subsection: subsection, ApprovedValue: value}, nil
}

func (f *fakeApprovedRepo) ListByDocument(_ context.Context, documentID string) ([]*entity.ApprovedSubsection, error) {
	approved := make([]*entity.ApprovedSubsection, 0)
	for section, subs := range f.values {
		for subsection, value := range subs {
			approved = append(approved, &entity.ApprovedSubsection{
				DocumentID: documentID, Section: section, Subsection: subsection, ApprovedValue: value,
			})
		}
	}
	return approved, nil
}

func newTestStores() (*DraftStore, *ApprovalStore, *fakeSectionRepo, *fakeApprovedRepo) {
	sectionRepo := newFakeSectionRepo()
	approvedRepo := newFakeApprovedRepo()
	drafts := NewDraftStore(sectionRepo, zap.NewNop())
	tax := taxonomy.New(
		[]string{"Baugrundgutachten"},
		map[string][]taxonomy.Section{
			"Baugrundgutachten": {
				{Name: "Feldarbeiten", Subsections: []string{"Bohrungen", "Sondierungen"}},
			},
		},
	)
	approvals := NewApprovalStore(drafts, approvedRepo, tax, zap.NewNop())
	return drafts, approvals, sectionRepo, approvedRepo
}

func TestMergeSectionDataKeepsUntouchedKeys(t *testing.T) {
	drafts, _, _, _ := newTestStores()
	ctx := context.Background()

	err := drafts.MergeSectionData(ctx, testDocID, map[string]any{
		"Feldarbeiten": map[string]any{"Bohrungen": "3 Kernbohrungen", "Sondierungen": "2 Rammsondierungen"},
	})
	require.NoError(t, err)

	err = drafts.MergeSectionData(ctx, testDocID, map[string]any{
		"Feldarbeiten": map[string]any{"Bohrungen": "5 Kernbohrungen"},
	})
	require.NoError(t, err)

	data, err := drafts.SectionData(ctx, testDocID, "Feldarbeiten")
	require.NoError(t, err)
	assert.Equal(t, "5 Kernbohrungen", data["Bohrungen"])
	assert.Equal(t, "2 Rammsondierungen", data["Sondierungen"], "untouched keys must survive a merge")
}

func TestMergeSectionDataIdempotent(t *testing.T) {
	drafts, _, repo, _ := newTestStores()
	ctx := context.Background()

	payload := map[string]any{"Feldarbeiten": map[string]any{"Bohrungen": "3 Kernbohrungen"}}
	require.NoError(t, drafts.MergeSectionData(ctx, testDocID, payload))
	require.NoError(t, drafts.MergeSectionData(ctx, testDocID, payload))

	assert.Equal(t, map[string]any{"Bohrungen": "3 Kernbohrungen"}, repo.data["Feldarbeiten"])
}

func TestMergeSectionDataSkipsNonMappingPayload(t *testing.T) {
	drafts, _, repo, _ := newTestStores()
	ctx := context.Background()

	err := drafts.MergeSectionData(ctx, testDocID, map[string]any{
		"Feldarbeiten":  "nur ein String",
		"Laborversuche": map[string]any{"Kornverteilung": "durchgeführt"},
	})
	require.NoError(t, err)

	_, ok := repo.data["Feldarbeiten"]
	assert.False(t, ok, "non-mapping payload must be skipped, not stored")
	assert.Equal(t, "durchgeführt", repo.data["Laborversuche"]["Kornverteilung"])
}

func TestSectionDataEmptySentinel(t *testing.T) {
	drafts, _, _, _ := newTestStores()

	data, err := drafts.SectionData(context.Background(), testDocID, "Feldarbeiten")
	require.NoError(t, err)
	assert.NotNil(t, data)
	assert.Empty(t, data)
}

func TestAppendToSubsection(t *testing.T) {
	drafts, _, _, _ := newTestStores()
	ctx := context.Background()

	require.NoError(t, drafts.AppendToSubsection(ctx, testDocID, "Anlagen", "Dokumente", "--- bericht.pdf ---\n\nInhalt A"))
	require.NoError(t, drafts.AppendToSubsection(ctx, testDocID, "Anlagen", "Dokumente", "--- foto.png ---\n\nInhalt B"))

	value, ok, err := drafts.SubsectionValue(ctx, testDocID, "Anlagen", "Dokumente")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "--- bericht.pdf ---\n\nInhalt A\n\n--- foto.png ---\n\nInhalt B", value)
}

func TestApproveFromDraft(t *testing.T) {
	drafts, approvals, _, _ := newTestStores()
	ctx := context.Background()

	require.NoError(t, drafts.MergeSectionData(ctx, testDocID, map[string]any{
		"Feldarbeiten": map[string]any{"Bohrungen": "3 Kernbohrungen"},
	}))

	approved, err := approvals.ApproveFromDraft(ctx, testDocID, "Feldarbeiten", "Bohrungen")
	require.NoError(t, err)
	assert.Equal(t, "3 Kernbohrungen", approved.ApprovedValue)
}

func TestApproveFromDraftWithoutData(t *testing.T) {
	_, approvals, _, _ := newTestStores()

	_, err := approvals.ApproveFromDraft(context.Background(), testDocID, "Feldarbeiten", "Bohrungen")
	require.ErrorIs(t, err, entity.ErrNoDraftValue)
}

func TestApproveValueReplacesWholesale(t *testing.T) {
	_, approvals, _, repo := newTestStores()
	ctx := context.Background()

	_, err := approvals.ApproveValue(ctx, testDocID, "Feldarbeiten", "Bohrungen", "erste Fassung")
	require.NoError(t, err)
	_, err = approvals.ApproveValue(ctx, testDocID, "Feldarbeiten", "Bohrungen", "korrigierte Fassung")
	require.NoError(t, err)

	assert.Equal(t, "korrigierte Fassung", repo.values["Feldarbeiten"]["Bohrungen"])
}

func TestApprovedSingleRead(t *testing.T) {
	_, approvals, _, _ := newTestStores()
	ctx := context.Background()

	_, err := approvals.Approved(ctx, testDocID, "Feldarbeiten", "Bohrungen")
	require.ErrorIs(t, err, entity.ErrNotApproved)

	_, err = approvals.ApproveValue(ctx, testDocID, "Feldarbeiten", "Bohrungen", "3 Kernbohrungen")
	require.NoError(t, err)

	approved, err := approvals.Approved(ctx, testDocID, "Feldarbeiten", "Bohrungen")
	require.NoError(t, err)
	assert.Equal(t, "3 Kernbohrungen", approved.ApprovedValue)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"nil becomes empty", nil, ""},
		{"string passes through", "Schluff, sandig", "Schluff, sandig"},
		{
			"map becomes key-value lines",
			map[string]any{"Tiefe": "12 m", "Anzahl": 3},
			"Anzahl: 3\nTiefe: 12 m",
		},
		{
			"list becomes bullets",
			[]any{"BK 1", "BK 2"},
			"• BK 1\n• BK 2",
		},
		{"number via Sprint", 42.5, "42.5"},
		{
			"nested list in map",
			map[string]any{"Bohrungen": []any{"BK 1", "BK 2"}},
			"Bohrungen: • BK 1\n• BK 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.value))
		})
	}
}

func TestStatusJoinsBothStores(t *testing.T) {
	drafts, approvals, _, _ := newTestStores()
	ctx := context.Background()

	require.NoError(t, drafts.MergeSectionData(ctx, testDocID, map[string]any{
		"Feldarbeiten": map[string]any{"Bohrungen": "3 Kernbohrungen"},
	}))
	_, err := approvals.ApproveFromDraft(ctx, testDocID, "Feldarbeiten", "Bohrungen")
	require.NoError(t, err)

	status, err := approvals.Status(ctx, testDocID, "Baugrundgutachten")
	require.NoError(t, err)

	bohrungen := status["Feldarbeiten"]["Bohrungen"]
	assert.True(t, bohrungen.HasData)
	assert.True(t, bohrungen.IsApproved)
	assert.Equal(t, "3 Kernbohrungen", bohrungen.ApprovedValue)

	sondierungen := status["Feldarbeiten"]["Sondierungen"]
	assert.False(t, sondierungen.HasData)
	assert.False(t, sondierungen.IsApproved)
	assert.Empty(t, sondierungen.ApprovedValue)
}

func TestStatusUnknownTopic(t *testing.T) {
	_, approvals, _, _ := newTestStores()

	_, err := approvals.Status(context.Background(), testDocID, "Unbekannt")
	require.ErrorIs(t, err, entity.ErrUnknownTopic)
}
