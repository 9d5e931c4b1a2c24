package transcript

import (
	"context"
	"testing"

	"github.com/campus-connect/campus-bot/internal/domain/marks"
	"github.com/campus-connect/campus-bot/internal/domain/shared"
	"github.com/campus-connect/campus-bot/internal/domain/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─────────────────────────────────────────────────────────────────────────────
// Test doubles
// ─────────────────────────────────────────────────────────────────────────────

type fakeMarksRepo struct {
	uploads     map[string]*marks.Upload
	saved       []marks.Record
	savedSGPA   float64
	saveCalls   int
	saveErr     error
	sgpaHistory []float64
}

func newFakeMarksRepo() *fakeMarksRepo {
	return &fakeMarksRepo{uploads: make(map[string]*marks.Upload)}
}

func (f *fakeMarksRepo) FindUpload(_ context.Context, userID int64, fileRef string) (*marks.Upload, error) {
	if up, ok := f.uploads[fileRef]; ok {
		return up, nil
	}
	return nil, shared.NewDomainError("marks", "FindUpload", shared.ErrNotFound, "marks card not ingested")
}

func (f *fakeMarksRepo) SemesterSGPAs(_ context.Context, userID int64) ([]float64, error) {
	return f.sgpaHistory, nil
}

func (f *fakeMarksRepo) SaveIngestion(_ context.Context, userID int64, fileRef string, sgpa float64, records []marks.Record) error {
	f.saveCalls++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = records
	f.savedSGPA = sgpa
	f.uploads[fileRef] = &marks.Upload{UserID: userID, FileRef: fileRef, SGPA: sgpa}
	return nil
}

func (f *fakeMarksRepo) RecordsForUser(_ context.Context, userID int64) ([]marks.Record, error) {
	return f.saved, nil
}

type fakeUserRepo struct {
	user.Repository
	users map[int64]*user.User
	cgpas map[int64]float64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*user.User), cgpas: make(map[int64]float64)}
}

func (f *fakeUserRepo) FindByID(_ context.Context, id int64) (*user.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, shared.ErrUserNotFound
}

func (f *fakeUserRepo) UpdateCGPA(_ context.Context, id int64, cgpa float64) error {
	f.cgpas[id] = cgpa
	return nil
}

type fakeConverter struct {
	text  string
	err   error
	calls int
}

func (f *fakeConverter) ToText(context.Context, string, []byte) (string, error) {
	f.calls++
	return f.text, f.err
}

// ─────────────────────────────────────────────────────────────────────────────
// Ingest
// ─────────────────────────────────────────────────────────────────────────────

const sampleTable = "Subject Code\tSubject Name\tInternal\tExternal\n" +
	"21CS51\tComputer Networks\t45\t45\n" + // 90 -> 10 gp, 3 credits
	"21CS52\tWeb Technology\t40\t40\n" // 80 -> 9 gp, 4 credits

func TestIngest_ComputesAndPersistsSGPA(t *testing.T) {
	repo := newFakeMarksRepo()
	conv := &fakeConverter{text: sampleTable}
	p := NewPipeline(repo, newFakeUserRepo(), conv, nil, nil)

	result, err := p.Ingest(context.Background(), 1, "file-1", "marks.pdf", "application/pdf", []byte("%PDF"))
	require.NoError(t, err)

	// (10*3 + 9*4) / 7
	assert.InDelta(t, 66.0/7.0, result.SGPA, 1e-9)
	assert.False(t, result.AlreadyIngested)
	assert.Equal(t, 2, result.Subjects)

	require.Len(t, repo.saved, 2)
	assert.Equal(t, "21CS51", repo.saved[0].SubjectCode)
	assert.Equal(t, 90, repo.saved[0].Total)
	assert.Equal(t, 10, repo.saved[0].GradePoints)
	assert.Equal(t, 3, repo.saved[0].Credits)
}

func TestIngest_RejectsNonPDF(t *testing.T) {
	repo := newFakeMarksRepo()
	conv := &fakeConverter{text: sampleTable}
	p := NewPipeline(repo, newFakeUserRepo(), conv, nil, nil)

	_, err := p.Ingest(context.Background(), 1, "file-1", "notes.docx",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document", []byte("x"))

	require.ErrorIs(t, err, shared.ErrUnsupportedMedia)
	assert.Zero(t, conv.calls)
	assert.Zero(t, repo.saveCalls)
}

func TestIngest_RepeatUploadReturnsStoredSGPAWithoutReparsing(t *testing.T) {
	repo := newFakeMarksRepo()
	conv := &fakeConverter{text: sampleTable}
	p := NewPipeline(repo, newFakeUserRepo(), conv, nil, nil)
	ctx := context.Background()

	first, err := p.Ingest(ctx, 1, "file-1", "marks.pdf", "application/pdf", []byte("%PDF"))
	require.NoError(t, err)

	second, err := p.Ingest(ctx, 1, "file-1", "marks.pdf", "application/pdf", []byte("%PDF"))
	require.NoError(t, err)

	assert.True(t, second.AlreadyIngested)
	assert.Equal(t, first.SGPA, second.SGPA)
	assert.Equal(t, 1, conv.calls)
	assert.Equal(t, 1, repo.saveCalls)
}

func TestIngest_ConversionFailureWritesNothing(t *testing.T) {
	repo := newFakeMarksRepo()
	conv := &fakeConverter{err: shared.ErrConversionFailed}
	p := NewPipeline(repo, newFakeUserRepo(), conv, nil, nil)

	_, err := p.Ingest(context.Background(), 1, "file-1", "marks.pdf", "application/pdf", []byte("%PDF"))

	require.Error(t, err)
	assert.True(t, shared.IsExternalService(err))
	assert.Zero(t, repo.saveCalls)
}

func TestIngest_SkipsMalformedRowsAndDefaultsScores(t *testing.T) {
	text := "Code\tName\tInt\tExt\n" +
		"21CS51\tComputer Networks\t45\t45\n" +
		"ragged row without columns\n" +
		"21CS52\tWeb Technology\tabsent\t70\n" // internal defaults to 0 -> total 70 -> 8 gp

	repo := newFakeMarksRepo()
	p := NewPipeline(repo, newFakeUserRepo(), &fakeConverter{text: text}, nil, nil)

	result, err := p.Ingest(context.Background(), 1, "file-1", "marks.pdf", "application/pdf", []byte("%PDF"))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Subjects)
	require.Len(t, repo.saved, 2)
	assert.Equal(t, 0, repo.saved[1].Internal)
	assert.Equal(t, 70, repo.saved[1].Total)
	assert.Equal(t, 8, repo.saved[1].GradePoints)
}

func TestIngest_UnknownSubjectCodesCarryZeroCredits(t *testing.T) {
	text := "Code\tName\tInt\tExt\n" +
		"NOPE999\tMystery Elective\t50\t50\n"

	repo := newFakeMarksRepo()
	p := NewPipeline(repo, newFakeUserRepo(), &fakeConverter{text: text}, nil, nil)

	result, err := p.Ingest(context.Background(), 1, "file-1", "marks.pdf", "application/pdf", []byte("%PDF"))
	require.NoError(t, err)

	// Row is recorded but contributes no weight, so SGPA guards to 0.
	assert.Zero(t, result.SGPA)
	require.Len(t, repo.saved, 1)
	assert.Equal(t, 0, repo.saved[0].Credits)
}

// ─────────────────────────────────────────────────────────────────────────────
// CGPA
// ─────────────────────────────────────────────────────────────────────────────

func TestCGPA_SingleSemesterIsExact(t *testing.T) {
	repo := newFakeMarksRepo()
	repo.sgpaHistory = []float64{8.5}
	users := newFakeUserRepo()
	p := NewPipeline(repo, users, &fakeConverter{}, nil, nil)

	cgpa, err := p.CGPA(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 8.5, cgpa)
	assert.Equal(t, 8.5, users.cgpas[1])
}

func TestCGPA_MeanOfSemesters(t *testing.T) {
	repo := newFakeMarksRepo()
	repo.sgpaHistory = []float64{8.0, 9.0}
	users := newFakeUserRepo()
	p := NewPipeline(repo, users, &fakeConverter{}, nil, nil)

	cgpa, err := p.CGPA(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 8.5, cgpa)
}

func TestCGPA_NoUploadsIsNotFound(t *testing.T) {
	p := NewPipeline(newFakeMarksRepo(), newFakeUserRepo(), &fakeConverter{}, nil, nil)

	_, err := p.CGPA(context.Background(), 1)

	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

// ─────────────────────────────────────────────────────────────────────────────
// Parser
// ─────────────────────────────────────────────────────────────────────────────

func TestParseRows_SpaceSeparatedFallback(t *testing.T) {
	text := "Code  Name  Int  Ext\n" +
		"BCS301  Mathematics for CS  44  46\n"

	rows := ParseRows(text)

	require.Len(t, rows, 1)
	assert.Equal(t, "BCS301", rows[0].SubjectCode)
	assert.Equal(t, "Mathematics for CS", rows[0].SubjectName)
	assert.Equal(t, 44, rows[0].Internal)
	assert.Equal(t, 46, rows[0].External)
}

func TestParseRows_EmptyTextYieldsNoRows(t *testing.T) {
	assert.Empty(t, ParseRows(""))
	assert.Empty(t, ParseRows("Header Only\n"))
}
