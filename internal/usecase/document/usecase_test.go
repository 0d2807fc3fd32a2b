package document

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/geoscribe/report-backend/internal/config"
	"github.com/geoscribe/report-backend/internal/entity"
	"github.com/geoscribe/report-backend/internal/pkg/validator"
	"github.com/geoscribe/report-backend/internal/taxonomy"
	"github.com/geoscribe/report-backend/internal/usecase/sections"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProjectRepo struct {
	projects map[string]*entity.Project
}

func (f *fakeProjectRepo) Create(_ context.Context, p entity.Project) (*entity.Project, error) {
	for _, existing := range f.projects {
		if existing.DocumentID == p.DocumentID {
			return nil, entity.ErrDocumentLinked
		}
	}
	p.CreatedAt = time.Now()
	f.projects[p.ID] = &p
	return &p, nil
}

func (f *fakeProjectRepo) Get(_ context.Context, id string) (*entity.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, entity.ErrProjectNotFound
	}
	return p, nil
}

func (f *fakeProjectRepo) List(_ context.Context, _, _ int) ([]*entity.Project, error) {
	out := make([]*entity.Project, 0, len(f.projects))
	for _, p := range f.projects {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProjectRepo) Rename(_ context.Context, id, name string) (*entity.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, entity.ErrProjectNotFound
	}
	p.Name = name
	return p, nil
}

func (f *fakeProjectRepo) Delete(_ context.Context, id string) error {
	delete(f.projects, id)
	return nil
}

type fakeDocumentRepo struct {
	docs map[string]*entity.Document
}

func (f *fakeDocumentRepo) Create(_ context.Context, d entity.Document) (*entity.Document, error) {
	d.CreatedAt = time.Now()
	f.docs[d.ID] = &d
	return &d, nil
}

func (f *fakeDocumentRepo) Get(_ context.Context, id string) (*entity.Document, error) {
	d, ok := f.docs[id]
	if !ok {
		return nil, entity.ErrDocumentNotFound
	}
	return d, nil
}

func (f *fakeDocumentRepo) SetThreadID(_ context.Context, id, threadID string) error {
	f.docs[id].ThreadID = &threadID
	return nil
}

func (f *fakeDocumentRepo) SetPDF(_ context.Context, id string, pdf []byte) error {
	f.docs[id].PDFData = pdf
	return nil
}

func (f *fakeDocumentRepo) Delete(_ context.Context, id string) error {
	delete(f.docs, id)
	return nil
}

type fakeSectionRepo struct {
	data map[string]map[string]any
}

func (f *fakeSectionRepo) Get(_ context.Context, documentID, section string) (*entity.SectionDraft, error) {
	d, ok := f.data[section]
	if !ok {
		return nil, nil
	}
	return &entity.SectionDraft{DocumentID: documentID, Section: section, Data: d}, nil
}

func (f *fakeSectionRepo) Upsert(_ context.Context, documentID, section string, data map[string]any) (*entity.SectionDraft, error) {
	f.data[section] = data
	return &entity.SectionDraft{DocumentID: documentID, Section: section, Data: data}, nil
}

func (f *fakeSectionRepo) ListByDocument(_ context.Context, documentID string) ([]*entity.SectionDraft, error) {
	out := make([]*entity.SectionDraft, 0, len(f.data))
	for section, data := range f.data {
		out = append(out, &entity.SectionDraft{DocumentID: documentID, Section: section, Data: data})
	}
	return out, nil
}

type fakeApprovedRepo struct {
	values map[string]map[string]string
}

func (f *fakeApprovedRepo) Upsert(_ context.Context, documentID, section, subsection, value string) (*entity.ApprovedSubsection, error) {
	if f.values[section] == nil {
		f.values[section] = make(map[string]string)
	}
	f.values[section][subsection] = value
	return &entity.ApprovedSubsection{DocumentID: documentID, Section: section, Subsection: subsection, ApprovedValue: value}, nil
}

func (f *fakeApprovedRepo) Get(_ context.Context, documentID, section, subsection string) (*entity.ApprovedSubsection, error) {
	v, ok := f.values[section][subsection]
	if !ok {
		return nil, nil
	}
	return &entity.ApprovedSubsection{DocumentID: documentID, Section: section, Subsection: subsection, ApprovedValue: v}, nil
}

func (f *fakeApprovedRepo) ListByDocument(_ context.Context, documentID string) ([]*entity.ApprovedSubsection, error) {
	out := make([]*entity.ApprovedSubsection, 0)
	for section, subs := range f.values {
		for subsection, value := range subs {
			out = append(out, &entity.ApprovedSubsection{
				DocumentID: documentID, Section: section, Subsection: subsection, ApprovedValue: value,
			})
		}
	}
	return out, nil
}

type fakeChatRepo struct{ count int }

func (f *fakeChatRepo) Append(_ context.Context, m entity.ChatMessage) (*entity.ChatMessage, error) {
	f.count++
	return &m, nil
}

func (f *fakeChatRepo) ListBySubsection(_ context.Context, _, _, _ string, _, _ int) ([]*entity.ChatMessage, error) {
	return nil, nil
}

func (f *fakeChatRepo) LatestAssistant(_ context.Context, _, _, _ string) (*entity.ChatMessage, error) {
	return nil, nil
}

func (f *fakeChatRepo) CountByDocument(_ context.Context, _ string) (int, error) {
	return f.count, nil
}

type fakeFileRepo struct {
	files []*entity.DocumentFile
}

func (f *fakeFileRepo) Create(_ context.Context, file entity.DocumentFile) (*entity.DocumentFile, error) {
	f.files = append(f.files, &file)
	return &file, nil
}

func (f *fakeFileRepo) ListByDocument(_ context.Context, _ string) ([]*entity.DocumentFile, error) {
	return f.files, nil
}

type fakeCoverRepo struct {
	pages map[string]map[string]map[string]any
}

func (f *fakeCoverRepo) Get(_ context.Context, documentID string) (*entity.CoverPage, error) {
	data, ok := f.pages[documentID]
	if !ok {
		return nil, nil
	}
	return &entity.CoverPage{DocumentID: documentID, Data: data}, nil
}

func (f *fakeCoverRepo) Upsert(_ context.Context, documentID string, data map[string]map[string]any) (*entity.CoverPage, error) {
	f.pages[documentID] = data
	return &entity.CoverPage{DocumentID: documentID, Data: data}, nil
}

func (f *fakeCoverRepo) Delete(_ context.Context, documentID string) error {
	delete(f.pages, documentID)
	return nil
}

type fakeNotifier struct {
	notified []string
}

func (f *fakeNotifier) NotifyRender(_ context.Context, documentID string) error {
	f.notified = append(f.notified, documentID)
	return nil
}

type fixture struct {
	uc       *Usecase
	docs     *fakeDocumentRepo
	projects *fakeProjectRepo
	section  *fakeSectionRepo
	approved *fakeApprovedRepo
	cover    *fakeCoverRepo
	files    *fakeFileRepo
	notifier *fakeNotifier
}

func newFixture() *fixture {
	f := &fixture{
		docs:     &fakeDocumentRepo{docs: make(map[string]*entity.Document)},
		projects: &fakeProjectRepo{projects: make(map[string]*entity.Project)},
		section:  &fakeSectionRepo{data: make(map[string]map[string]any)},
		approved: &fakeApprovedRepo{values: make(map[string]map[string]string)},
		cover:    &fakeCoverRepo{pages: make(map[string]map[string]map[string]any)},
		files:    &fakeFileRepo{},
		notifier: &fakeNotifier{},
	}

	tax := taxonomy.New(
		[]string{"Baugrundgutachten"},
		map[string][]taxonomy.Section{
			"Baugrundgutachten": {
				{Name: "Feldarbeiten", Subsections: []string{"Bohrungen", "Sondierungen"}},
				{Name: "Anlagen", Subsections: []string{"Dokumente"}},
			},
		},
	)

	logger := zap.NewNop()
	drafts := sections.NewDraftStore(f.section, logger)
	approvals := sections.NewApprovalStore(drafts, f.approved, tax, logger)
	v := validator.NewValidator(config.FileUploadConfig{
		MaxFileSize:  1 << 20,
		MaxTotalSize: 4 << 20,
		MaxFileCount: 8,
	})

	f.uc = NewUsecase(
		f.projects, f.docs, f.files, &fakeChatRepo{}, f.section,
		f.cover, drafts, approvals, tax, v, f.notifier, logger,
	)
	return f
}

func (f *fixture) createProject(t *testing.T) *entity.ProjectSummary {
	t.Helper()
	summary, err := f.uc.CreateProject(context.Background(), &entity.CreateProjectRequest{
		Name: "Neubau Lagerhalle", Topic: "Baugrundgutachten",
	})
	require.NoError(t, err)
	return summary
}

func TestCreateProject(t *testing.T) {
	f := newFixture()

	summary := f.createProject(t)
	assert.Equal(t, "Neubau Lagerhalle", summary.Name)
	assert.Equal(t, "Baugrundgutachten", summary.Topic)
	assert.NotEmpty(t, summary.DocumentID)
	assert.False(t, summary.HasPDF)
}

func TestCreateProjectUnknownTopic(t *testing.T) {
	f := newFixture()

	_, err := f.uc.CreateProject(context.Background(), &entity.CreateProjectRequest{
		Name: "X", Topic: "Marsmission",
	})
	require.ErrorIs(t, err, entity.ErrUnknownTopic)
}

func TestCreateProjectMissingName(t *testing.T) {
	f := newFixture()

	_, err := f.uc.CreateProject(context.Background(), &entity.CreateProjectRequest{Topic: "Baugrundgutachten"})
	require.ErrorIs(t, err, entity.ErrMissingField)
}

func TestApproveTriggersRender(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	summary := f.createProject(t)

	f.section.data["Feldarbeiten"] = map[string]any{"Bohrungen": "3 Kernbohrungen"}

	approved, err := f.uc.Approve(ctx, summary.DocumentID, &entity.ApproveRequest{
		Section: "Feldarbeiten", Subsection: "Bohrungen",
	})
	require.NoError(t, err)
	assert.Equal(t, "3 Kernbohrungen", approved.ApprovedValue)
	assert.Equal(t, []string{summary.DocumentID}, f.notifier.notified)
}

func TestApproveWithoutDraft(t *testing.T) {
	f := newFixture()
	summary := f.createProject(t)

	_, err := f.uc.Approve(context.Background(), summary.DocumentID, &entity.ApproveRequest{
		Section: "Feldarbeiten", Subsection: "Bohrungen",
	})
	require.ErrorIs(t, err, entity.ErrNoDraftValue)
	assert.Empty(t, f.notifier.notified)
}

func TestApproveValueNormalizes(t *testing.T) {
	f := newFixture()
	summary := f.createProject(t)

	approved, err := f.uc.ApproveValue(context.Background(), summary.DocumentID, &entity.ApproveValueRequest{
		Section: "Feldarbeiten", Subsection: "Bohrungen",
		Value: []any{"BK 1", "BK 2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "• BK 1\n• BK 2", approved.ApprovedValue)
}

func TestAssemblyDataModes(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	summary := f.createProject(t)

	f.section.data["Feldarbeiten"] = map[string]any{
		"Bohrungen":    "3 Kernbohrungen",
		"Sondierungen": "2 Rammsondierungen",
	}
	_, err := f.uc.Approve(ctx, summary.DocumentID, &entity.ApproveRequest{
		Section: "Feldarbeiten", Subsection: "Bohrungen",
	})
	require.NoError(t, err)

	all, err := f.uc.AssemblyData(ctx, summary.DocumentID, false)
	require.NoError(t, err)
	assert.Len(t, all.Sections["Feldarbeiten"], 2)
	assert.Equal(t, 1, all.PopulatedSections)

	approvedOnly, err := f.uc.AssemblyData(ctx, summary.DocumentID, true)
	require.NoError(t, err)
	assert.Len(t, approvedOnly.Sections["Feldarbeiten"], 1)
	assert.Equal(t, "3 Kernbohrungen", approvedOnly.Sections["Feldarbeiten"]["Bohrungen"])

	// both modes expose the identical shape
	assert.IsType(t, all.Sections, approvedOnly.Sections)
	assert.Equal(t, all.Topic, approvedOnly.Topic)
}

func TestPDFWithoutRender(t *testing.T) {
	f := newFixture()
	summary := f.createProject(t)

	_, err := f.uc.PDF(context.Background(), summary.DocumentID)
	require.ErrorIs(t, err, entity.ErrNoPDF)
}

func TestExportMarkdown(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	summary := f.createProject(t)

	f.section.data["Feldarbeiten"] = map[string]any{"Bohrungen": "3 Kernbohrungen"}

	rendered, contentType, filename, err := f.uc.Export(ctx, summary.DocumentID, entity.FormatMarkdown, false)
	require.NoError(t, err)

	assert.Contains(t, contentType, "text/markdown")
	assert.True(t, strings.HasSuffix(filename, ".md"))
	assert.Contains(t, string(rendered), "# Baugrundgutachten")
	assert.Contains(t, string(rendered), "### Bohrungen")
}

func TestExportUnknownFormat(t *testing.T) {
	f := newFixture()
	summary := f.createProject(t)

	_, _, _, err := f.uc.Export(context.Background(), summary.DocumentID, entity.ResultFormat("odt"), false)
	require.ErrorIs(t, err, entity.ErrInvalidParameter)
}

func TestProjectStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	summary := f.createProject(t)

	f.section.data["Feldarbeiten"] = map[string]any{
		"Bohrungen":    "3 Kernbohrungen",
		"Sondierungen": "2 Rammsondierungen",
	}
	for _, sub := range []string{"Bohrungen", "Sondierungen"} {
		_, err := f.uc.Approve(ctx, summary.DocumentID, &entity.ApproveRequest{
			Section: "Feldarbeiten", Subsection: sub,
		})
		require.NoError(t, err)
	}

	status, err := f.uc.ProjectStatus(ctx, summary.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, status.SectionsCompleted, "Feldarbeiten fully approved")
	assert.Equal(t, 2, status.TotalSections)
	assert.InDelta(t, 100.0*2/3, status.CompletionPercentage, 0.01)
}

func TestCoverPageStructure(t *testing.T) {
	f := newFixture()
	summary := f.createProject(t)

	structure, err := f.uc.CoverPageStructure(context.Background(), summary.DocumentID)
	require.NoError(t, err)

	assert.Equal(t, "Baugrundgutachten", structure.Topic)
	require.Contains(t, structure.Categories, "PROJEKTBESCHREIBUNG")
	require.Contains(t, structure.Categories, "AUFTRAGGEBER")
	require.Contains(t, structure.Categories, "AUFTRAG")
	assert.True(t, structure.Categories["PROJEKTBESCHREIBUNG"]["project_name"].Required)
	assert.Equal(t, "date", structure.Categories["AUFTRAG"]["creation_date"].Type)
}

func TestCoverPageDataFillsDefaults(t *testing.T) {
	f := newFixture()
	summary := f.createProject(t)

	page, err := f.uc.CoverPageData(context.Background(), summary.DocumentID)
	require.NoError(t, err)

	assert.Equal(t, "Baugrundgutachten", page.Topic)
	assert.Equal(t, "NACH DIN 4020", page.Data["PROJEKTBESCHREIBUNG"]["document_subtitle"])
	assert.Equal(t, "", page.Data["AUFTRAG"]["order_number"])
}

// minimalCoverData carries every required field of the shared layout so
// tests can vary single fields without tripping full-layout validation.
func minimalCoverData() map[string]map[string]any {
	return map[string]map[string]any{
		"PROJEKTBESCHREIBUNG": {"project_name": "Neubau Lagerhalle"},
		"AUFTRAGGEBER":        {"client_company": "Mustermann Bau GmbH", "client_name": "Max Mustermann"},
		"AUFTRAG":             {"order_number": "2024-117"},
	}
}

func TestUpdateCoverPageTriggersRender(t *testing.T) {
	f := newFixture()
	summary := f.createProject(t)

	page, err := f.uc.UpdateCoverPage(context.Background(), summary.DocumentID, &entity.CoverPageUpdateRequest{
		Data: minimalCoverData(),
	})
	require.NoError(t, err)
	assert.Equal(t, "Neubau Lagerhalle", page.Data["PROJEKTBESCHREIBUNG"]["project_name"])
	assert.Equal(t, []string{summary.DocumentID}, f.notifier.notified)
}

func TestUpdateCoverPageAllowsEmptyRequired(t *testing.T) {
	f := newFixture()
	summary := f.createProject(t)

	data := minimalCoverData()
	data["AUFTRAG"]["order_number"] = ""

	_, err := f.uc.UpdateCoverPage(context.Background(), summary.DocumentID, &entity.CoverPageUpdateRequest{
		Data: data,
	})
	require.NoError(t, err, "empty strings pass required validation")
}

func TestUpdateCoverPageRejectsMissingRequired(t *testing.T) {
	f := newFixture()
	summary := f.createProject(t)

	data := minimalCoverData()
	data["PROJEKTBESCHREIBUNG"]["project_name"] = nil
	delete(data["AUFTRAGGEBER"], "client_name")

	_, err := f.uc.UpdateCoverPage(context.Background(), summary.DocumentID, &entity.CoverPageUpdateRequest{
		Data: data,
	})

	var coverErr *entity.CoverPageValidationError
	require.ErrorAs(t, err, &coverErr)
	assert.Contains(t, coverErr.Fields, "PROJEKTBESCHREIBUNG.project_name")
	assert.Contains(t, coverErr.Fields, "AUFTRAGGEBER.client_name")
	assert.Empty(t, f.notifier.notified)
}

func TestUpdateCoverPageDateFormats(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	summary := f.createProject(t)

	for _, date := range []string{"2024-03-15", "15.03.2024", "03/15/2024"} {
		data := minimalCoverData()
		data["AUFTRAG"]["creation_date"] = date
		_, err := f.uc.UpdateCoverPage(ctx, summary.DocumentID, &entity.CoverPageUpdateRequest{Data: data})
		require.NoError(t, err, date)
	}

	data := minimalCoverData()
	data["AUFTRAG"]["creation_date"] = "15. März 2024"
	_, err := f.uc.UpdateCoverPage(ctx, summary.DocumentID, &entity.CoverPageUpdateRequest{Data: data})

	var coverErr *entity.CoverPageValidationError
	require.ErrorAs(t, err, &coverErr)
	assert.Contains(t, coverErr.Fields, "AUFTRAG.creation_date")
}

func TestUpdateCoverCategoryMerges(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	summary := f.createProject(t)

	_, err := f.uc.UpdateCoverPage(ctx, summary.DocumentID, &entity.CoverPageUpdateRequest{
		Data: minimalCoverData(),
	})
	require.NoError(t, err)

	page, err := f.uc.UpdateCoverPageCategory(ctx, summary.DocumentID, "AUFTRAG", map[string]any{
		"order_number": "2024-118",
	})
	require.NoError(t, err)

	assert.Equal(t, "2024-118", page.Data["AUFTRAG"]["order_number"])
	assert.Equal(t, "Mustermann Bau GmbH", page.Data["AUFTRAGGEBER"]["client_company"],
		"other categories survive a category patch")
}

func TestUpdateCoverCategoryUnknown(t *testing.T) {
	f := newFixture()
	summary := f.createProject(t)

	_, err := f.uc.UpdateCoverPageCategory(context.Background(), summary.DocumentID, "RECHNUNG", map[string]any{
		"x": "y",
	})
	require.ErrorIs(t, err, entity.ErrUnknownCoverCategory)
}

func TestCoverPagePreviewFlattens(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	summary := f.createProject(t)

	empty, err := f.uc.CoverPagePreview(ctx, summary.DocumentID)
	require.NoError(t, err)
	assert.Empty(t, empty.PreviewData)

	_, err = f.uc.UpdateCoverPage(ctx, summary.DocumentID, &entity.CoverPageUpdateRequest{
		Data: minimalCoverData(),
	})
	require.NoError(t, err)

	preview, err := f.uc.CoverPagePreview(ctx, summary.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "Neubau Lagerhalle", preview.PreviewData["project_name"])
	assert.Equal(t, "2024-117", preview.PreviewData["order_number"])
	assert.Equal(t, "2024-117", preview.StructuredData["AUFTRAG"]["order_number"])
}

func TestResetCoverPage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	summary := f.createProject(t)

	_, err := f.uc.UpdateCoverPage(ctx, summary.DocumentID, &entity.CoverPageUpdateRequest{
		Data: minimalCoverData(),
	})
	require.NoError(t, err)

	require.NoError(t, f.uc.ResetCoverPage(ctx, summary.DocumentID))

	page, err := f.uc.CoverPageData(ctx, summary.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "", page.Data["AUFTRAG"]["order_number"])
}

func TestAssemblyDataCarriesCoverPage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	summary := f.createProject(t)

	_, err := f.uc.UpdateCoverPage(ctx, summary.DocumentID, &entity.CoverPageUpdateRequest{
		Data: minimalCoverData(),
	})
	require.NoError(t, err)

	data, err := f.uc.AssemblyData(ctx, summary.DocumentID, false)
	require.NoError(t, err)
	assert.Equal(t, "Neubau Lagerhalle", data.CoverPage["PROJEKTBESCHREIBUNG"]["project_name"])
}

func TestApprovedSubsectionRead(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	summary := f.createProject(t)

	f.section.data["Feldarbeiten"] = map[string]any{"Bohrungen": "3 Kernbohrungen"}
	_, err := f.uc.Approve(ctx, summary.DocumentID, &entity.ApproveRequest{
		Section: "Feldarbeiten", Subsection: "Bohrungen",
	})
	require.NoError(t, err)

	approved, err := f.uc.ApprovedSubsection(ctx, summary.DocumentID, "Feldarbeiten", "Bohrungen")
	require.NoError(t, err)
	assert.Equal(t, "3 Kernbohrungen", approved.ApprovedValue)

	_, err = f.uc.ApprovedSubsection(ctx, summary.DocumentID, "Feldarbeiten", "Sondierungen")
	require.ErrorIs(t, err, entity.ErrNotApproved)

	_, err = f.uc.ApprovedSubsection(ctx, summary.DocumentID, "Feldarbeiten", "Brunnen")
	require.ErrorIs(t, err, entity.ErrUnknownSubsection)
}

func TestDocumentFiles(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	summary := f.createProject(t)

	f.files.files = []*entity.DocumentFile{
		{ID: "f1", DocumentID: summary.DocumentID, Filename: "bohrprofil.pdf"},
		{ID: "f2", DocumentID: summary.DocumentID, Filename: "lageplan.pdf"},
	}

	files, err := f.uc.DocumentFiles(ctx, summary.DocumentID)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "bohrprofil.pdf", files[0].Filename)

	_, err = f.uc.DocumentFiles(ctx, "00000000-0000-0000-0000-000000000000")
	require.ErrorIs(t, err, entity.ErrDocumentNotFound)
}

func TestDeleteProjectRemovesDocument(t *testing.T) {
	f := newFixture()
	summary := f.createProject(t)

	require.NoError(t, f.uc.DeleteProject(context.Background(), summary.ID))

	_, err := f.docs.Get(context.Background(), summary.DocumentID)
	require.ErrorIs(t, err, entity.ErrDocumentNotFound)
}
