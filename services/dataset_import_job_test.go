package services

import (
	"context"
	"errors"
	"testing"

	"research-registry-api/models"

	"github.com/stretchr/testify/require"
)

const (
	sampleFaculty = `[
		{"_id": "f1", "name": "Jane Q. Doe", "dois": ["10.1/abc"]},
		{"_id": "f2", "name": "Alex Kim", "categories": ["AI", "ai"]},
		{"_id": "", "name": "Skipped"}
	]`
	samplePapers = `[
		{"doi": "10.1/abc", "title": "A Study"},
		{"doi": "10.2/def", "title": ["Part A", "Part B"], "faculty_members": ["alex kim"]},
		{"title": "No identifier"},
		{"id": "W9", "title": "Late paper", "faculty_members": ["Jane Q. Doe"]}
	]`
)

func newSampleInput(t *testing.T) *DatasetImportInput {
	t.Helper()
	return &DatasetImportInput{
		FacultyPath:   writeDataset(t, "faculty.json", sampleFaculty),
		PapersPath:    writeDataset(t, "papers.json", samplePapers),
		LockName:      DefaultDatasetImportLockName,
		TriggerSource: "test",
	}
}

func TestDatasetImportEndToEndDOICrosswalk(t *testing.T) {
	store := newMemStore()
	svc := NewDatasetImportJobServiceWithStore(store)

	outcome, err := svc.Run(context.Background(), &DatasetImportInput{
		FacultyPath: writeDataset(t, "faculty.json", `[{"_id":"f1","name":"Jane Q. Doe","dois":["10.1/abc"]}]`),
		PapersPath:  writeDataset(t, "papers.json", `[{"doi":"10.1/abc","title":"A Study"}]`),
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeCommitted, outcome.Kind)
	require.Equal(t, 1, outcome.Summary.FacultyCreated)
	require.Equal(t, 1, outcome.Summary.PapersCreated)
	require.Equal(t, 1, outcome.Summary.DOILinkAttempts)
	require.Equal(t, 1, outcome.Summary.LinksCreated)

	f, ok := store.facultyBySlug("f1")
	require.True(t, ok)
	require.Equal(t, "Jane Q.", f.FirstName)
	require.Equal(t, "Doe", f.LastName)

	p, ok := store.paperByDOI("10.1/abc")
	require.True(t, ok)
	a, ok := store.authorship(p.ID, f.ID)
	require.True(t, ok)
	require.Equal(t, models.AuthorshipStatusPending, a.Status)
	require.Nil(t, a.DecidedAt)
}

func TestDatasetImportRerunIsIdempotent(t *testing.T) {
	store := newMemStore()
	svc := NewDatasetImportJobServiceWithStore(store)
	input := newSampleInput(t)

	first, err := svc.Run(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, 2, first.Summary.FacultyCreated)
	require.Equal(t, 0, first.Summary.FacultyUpdated)
	require.Equal(t, 1, first.Summary.FacultySkipped)
	require.Equal(t, 3, first.Summary.PapersCreated)
	require.Equal(t, 1, first.Summary.PapersSkipped)
	require.Equal(t, 3, first.Summary.LinksCreated)
	_, _, authorshipsBefore, _ := store.counts()

	second, err := svc.Run(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, 0, second.Summary.FacultyCreated)
	require.Equal(t, 2, second.Summary.FacultyUpdated)
	require.Equal(t, 0, second.Summary.PapersCreated)
	require.Equal(t, 3, second.Summary.PapersUpdated)
	require.Equal(t, first.Summary.LinkAttempts, second.Summary.LinkAttempts)
	require.Equal(t, 0, second.Summary.LinksCreated)

	faculty, papers, authorships, members := store.counts()
	require.Equal(t, 2, faculty)
	require.Equal(t, 3, papers)
	require.Equal(t, authorshipsBefore, authorships)
	require.Equal(t, authorships, members)
}

func TestDatasetImportDryRunLeavesStoreUnchanged(t *testing.T) {
	store := newMemStore()
	svc := NewDatasetImportJobServiceWithStore(store)

	seed := newSampleInput(t)
	_, err := svc.Run(context.Background(), seed)
	require.NoError(t, err)
	fBefore, pBefore, aBefore, mBefore := store.counts()

	dry := &DatasetImportInput{
		FacultyPath: writeDataset(t, "faculty2.json", `[{"_id":"f3","name":"New Person","dois":["10.5/new"]}]`),
		PapersPath:  writeDataset(t, "papers2.json", `[{"doi":"10.5/new","title":"New"}]`),
		DryRun:      true,
		Reset:       true,
	}
	outcome, err := svc.Run(context.Background(), dry)
	require.NoError(t, err)
	require.Equal(t, OutcomeDryRunCompleted, outcome.Kind)
	require.True(t, outcome.DryRun())
	require.Nil(t, outcome.Summary.Reset, "reset must not run during a dry run")
	require.Equal(t, 1, outcome.Summary.FacultyCreated)
	require.Equal(t, 1, outcome.Summary.PapersCreated)
	require.Equal(t, 1, outcome.Summary.LinksCreated)

	fAfter, pAfter, aAfter, mAfter := store.counts()
	require.Equal(t, []int{fBefore, pBefore, aBefore, mBefore}, []int{fAfter, pAfter, aAfter, mAfter})
	_, found := store.facultyBySlug("f3")
	require.False(t, found)
}

func TestDatasetImportDryRunMatchesRealRunCounts(t *testing.T) {
	input := newSampleInput(t)

	dryInput := *input
	dryInput.DryRun = true
	dry, err := NewDatasetImportJobServiceWithStore(newMemStore()).Run(context.Background(), &dryInput)
	require.NoError(t, err)

	committed, err := NewDatasetImportJobServiceWithStore(newMemStore()).Run(context.Background(), input)
	require.NoError(t, err)

	dry.Summary.Duration, committed.Summary.Duration = 0, 0
	require.Equal(t, committed.Summary, dry.Summary)
}

func TestDatasetImportResetRecreatesEverything(t *testing.T) {
	store := newMemStore()
	svc := NewDatasetImportJobServiceWithStore(store)
	input := newSampleInput(t)

	_, err := svc.Run(context.Background(), input)
	require.NoError(t, err)

	reset := *input
	reset.Reset = true
	outcome, err := svc.Run(context.Background(), &reset)
	require.NoError(t, err)
	require.NotNil(t, outcome.Summary.Reset)
	require.Equal(t, int64(2), outcome.Summary.Reset.Faculty)
	require.Equal(t, int64(3), outcome.Summary.Reset.Papers)
	require.Equal(t, int64(3), outcome.Summary.Reset.Authorships)
	require.Equal(t, 2, outcome.Summary.FacultyCreated)
	require.Equal(t, 0, outcome.Summary.FacultyUpdated)
	require.Equal(t, 3, outcome.Summary.PapersCreated)
	require.Equal(t, 0, outcome.Summary.PapersUpdated)
}

func TestDatasetImportMaxCutsPapersButNotNameMatching(t *testing.T) {
	store := newMemStore()
	svc := NewDatasetImportJobServiceWithStore(store)
	input := newSampleInput(t)
	input.Max = 2

	outcome, err := svc.Run(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, 2, outcome.Summary.PapersCreated)
	require.Equal(t, 2, outcome.Summary.PapersCutOff)
	_, found := store.paperByDOI("W9")
	require.False(t, found)

	p, _ := store.paperByDOI("10.2/def")
	require.Equal(t, "Part A Part B", p.Title)
	kim, _ := store.facultyBySlug("f2")
	_, linked := store.authorship(p.ID, kim.ID)
	require.True(t, linked)
}

func TestDatasetImportInvalidFileHasNoSideEffects(t *testing.T) {
	store := newMemStore()
	svc := NewDatasetImportJobServiceWithStore(store)

	_, err := svc.Run(context.Background(), &DatasetImportInput{
		FacultyPath: writeDataset(t, "faculty.json", `{"_id":"f1"}`),
		PapersPath:  writeDataset(t, "papers.json", `[]`),
		LockName:    DefaultDatasetImportLockName,
	})
	require.ErrorIs(t, err, ErrInvalidDataset)
	require.Zero(t, store.begins)
	require.Empty(t, store.locks)
}

func TestDatasetImportRejectsConcurrentRun(t *testing.T) {
	store := newMemStore()
	release, err := store.AcquireLock(context.Background(), DefaultDatasetImportLockName)
	require.NoError(t, err)

	_, err = NewDatasetImportJobServiceWithStore(store).Run(context.Background(), newSampleInput(t))
	require.True(t, errors.Is(err, ErrDatasetImportAlreadyRunning), "got %v", err)
	require.Zero(t, store.begins)

	require.NoError(t, release())
	outcome, err := NewDatasetImportJobServiceWithStore(store).Run(context.Background(), newSampleInput(t))
	require.NoError(t, err)
	require.Equal(t, OutcomeCommitted, outcome.Kind)
	require.Empty(t, store.locks)
}

func TestDatasetImportStoreErrorRollsBack(t *testing.T) {
	store := newMemStore()
	store.failSave = errors.New("disk full")

	_, err := NewDatasetImportJobServiceWithStore(store).Run(context.Background(), newSampleInput(t))
	require.ErrorContains(t, err, "disk full")
	require.Equal(t, 1, store.rollbacks)
	require.Zero(t, store.commits)
	faculty, _, _, _ := store.counts()
	require.Zero(t, faculty)
}

type recordingRuns struct {
	started  *DatasetImportInput
	finished string
	summary  *DatasetImportSummary
	err      error
}

func (r *recordingRuns) Start(_ context.Context, input *DatasetImportInput) (*models.DatasetImportRun, error) {
	r.started = input
	return &models.DatasetImportRun{ID: 42}, nil
}

func (r *recordingRuns) MarkSuccess(_ context.Context, _ uint, s *DatasetImportSummary) error {
	r.finished, r.summary = models.DatasetImportRunStatusSuccess, s
	return nil
}

func (r *recordingRuns) MarkDryRun(_ context.Context, _ uint, s *DatasetImportSummary) error {
	r.finished, r.summary = models.DatasetImportRunStatusDryRun, s
	return nil
}

func (r *recordingRuns) MarkFailure(_ context.Context, _ uint, s *DatasetImportSummary, err error) error {
	r.finished, r.summary, r.err = models.DatasetImportRunStatusFailed, s, err
	return nil
}

func TestDatasetImportRecordsRunAndSendsReport(t *testing.T) {
	runs := &recordingRuns{}
	var mailed []string
	var subject string
	prev := sendReportMail
	sendReportMail = func(to []string, subj, html string) error {
		mailed, subject = to, subj
		return nil
	}
	defer func() { sendReportMail = prev }()

	svc := &DatasetImportJobService{
		store:      newMemStore(),
		runService: runs,
		reporter:   NewDatasetImportReporter([]string{"ops@example.edu"}),
	}
	input := newSampleInput(t)
	input.RecordRun = true

	outcome, err := svc.Run(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, uint(42), outcome.RunID)
	require.Equal(t, models.DatasetImportRunStatusSuccess, runs.finished)
	require.Same(t, outcome.Summary, runs.summary)
	require.Equal(t, []string{"ops@example.edu"}, mailed)
	require.Equal(t, "[registry] dataset import committed", subject)

	input.DryRun = true
	outcome, err = svc.Run(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, models.DatasetImportRunStatusDryRun, runs.finished)
	require.Equal(t, "[registry] dataset import dry-run", subject)
}

func TestDatasetImportMarksRunFailed(t *testing.T) {
	runs := &recordingRuns{}
	store := newMemStore()
	store.failSave = errors.New("boom")
	svc := &DatasetImportJobService{store: store, runService: runs}
	input := newSampleInput(t)
	input.RecordRun = true

	_, err := svc.Run(context.Background(), input)
	require.Error(t, err)
	require.Equal(t, models.DatasetImportRunStatusFailed, runs.finished)
	require.ErrorContains(t, runs.err, "boom")
}
