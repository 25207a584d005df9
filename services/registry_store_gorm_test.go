package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type stepKind int

const (
	kindQuery stepKind = iota
	kindExec
)

type queryStep struct {
	kind    stepKind
	pattern *regexp.Regexp
	args    []driver.Value
	delay   time.Duration
	columns []string
	rows    [][]driver.Value
	err     error
	result  driver.Result
}

type scriptedDB struct {
	mu    sync.Mutex
	steps []*queryStep
}

func (db *scriptedDB) next(kind stepKind, query string, args []driver.NamedValue) (*queryStep, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if len(db.steps) == 0 {
		return nil, fmt.Errorf("unexpected query: %s", query)
	}
	step := db.steps[0]
	if step.kind != kind {
		return nil, fmt.Errorf("unexpected kind for query %s: got %v want %v", query, kind, step.kind)
	}
	if !step.pattern.MatchString(query) {
		return nil, fmt.Errorf("unexpected query: %s", query)
	}
	if len(step.args) != len(args) {
		return nil, fmt.Errorf("unexpected arg count for %s: got %d want %d", query, len(args), len(step.args))
	}
	for i := range args {
		if args[i].Value != step.args[i] {
			return nil, fmt.Errorf("unexpected arg %d for %s: got %v want %v", i, query, args[i].Value, step.args[i])
		}
	}
	db.steps = db.steps[1:]
	return step, nil
}

func (db *scriptedDB) verifyComplete() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if len(db.steps) != 0 {
		return fmt.Errorf("unmet expectations: %d", len(db.steps))
	}
	return nil
}

type scriptedDriver struct {
	db *scriptedDB
}

func (d *scriptedDriver) Open(string) (driver.Conn, error) {
	return &scriptedConn{db: d.db}, nil
}

type scriptedConn struct {
	db *scriptedDB
}

func (c *scriptedConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}

func (c *scriptedConn) Close() error { return nil }

func (c *scriptedConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions not supported")
}

func (c *scriptedConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	step, err := c.db.next(kindQuery, query, args)
	if err != nil {
		return nil, err
	}
	if step.delay > 0 {
		select {
		case <-time.After(step.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if step.err != nil {
		if errors.Is(step.err, context.Canceled) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, step.err
	}
	return &scriptedRows{columns: step.columns, rows: step.rows}, nil
}

func (c *scriptedConn) Query(query string, args []driver.Value) (driver.Rows, error) {
	named := make([]driver.NamedValue, len(args))
	for i, v := range args {
		named[i] = driver.NamedValue{Ordinal: i + 1, Value: v}
	}
	return c.QueryContext(context.Background(), query, named)
}

func (c *scriptedConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	step, err := c.db.next(kindExec, query, args)
	if err != nil {
		return nil, err
	}
	if step.err != nil {
		return nil, step.err
	}
	if step.result != nil {
		return step.result, nil
	}
	return scriptedResult{}, nil
}

func (c *scriptedConn) Exec(query string, args []driver.Value) (driver.Result, error) {
	named := make([]driver.NamedValue, len(args))
	for i, v := range args {
		named[i] = driver.NamedValue{Ordinal: i + 1, Value: v}
	}
	return c.ExecContext(context.Background(), query, named)
}

type scriptedResult struct {
	lastInsertID int64
	rowsAffected int64
}

func (r scriptedResult) LastInsertId() (int64, error) { return r.lastInsertID, nil }

func (r scriptedResult) RowsAffected() (int64, error) { return r.rowsAffected, nil }

type scriptedRows struct {
	columns []string
	rows    [][]driver.Value
	idx     int
}

func (r *scriptedRows) Columns() []string { return r.columns }

func (r *scriptedRows) Close() error { return nil }

func (r *scriptedRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		return io.EOF
	}
	row := r.rows[r.idx]
	for i := range dest {
		dest[i] = nil
	}
	for i := range row {
		dest[i] = row[i]
	}
	r.idx++
	return nil
}

func newScriptedGormDB(t *testing.T, steps []*queryStep) (*gorm.DB, *scriptedDB, func()) {
	t.Helper()
	state := &scriptedDB{steps: steps}
	driverName := fmt.Sprintf("scripted_%d", time.Now().UnixNano())
	sql.Register(driverName, &scriptedDriver{db: state})

	sqlDB, err := sql.Open(driverName, "")
	if err != nil {
		t.Fatalf("failed to open sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("failed to create gorm db: %v", err)
	}

	cleanup := func() {
		_ = sqlDB.Close()
	}
	return gormDB, state, cleanup
}

func TestAcquireLockReleasesOnSameConnection(t *testing.T) {
	steps := []*queryStep{
		{
			pattern: regexp.MustCompile(`SELECT GET_LOCK\(\?, 0\)`),
			args:    []driver.Value{"dataset_import_job"},
			columns: []string{"status"},
			rows:    [][]driver.Value{{int64(1)}},
		},
		{
			pattern: regexp.MustCompile(`SELECT RELEASE_LOCK\(\?\)`),
			args:    []driver.Value{"dataset_import_job"},
			columns: []string{"status"},
			rows:    [][]driver.Value{{int64(1)}},
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	release, err := NewGormRegistryStore(db).AcquireLock(ctx, " dataset_import_job ")
	require.NoError(t, err)
	require.NotNil(t, release)

	cancel()
	require.NoError(t, release())
	require.NoError(t, state.verifyComplete())
}

func TestAcquireLockReportsHeldLock(t *testing.T) {
	steps := []*queryStep{
		{
			pattern: regexp.MustCompile(`SELECT GET_LOCK`),
			args:    []driver.Value{"dataset_import_job"},
			columns: []string{"status"},
			rows:    [][]driver.Value{{int64(0)}},
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	release, err := NewGormRegistryStore(db).AcquireLock(context.Background(), "dataset_import_job")
	require.ErrorIs(t, err, ErrDatasetImportAlreadyRunning)
	require.Nil(t, release)
	require.NoError(t, state.verifyComplete())
}

func TestAcquireLockSkipsBlankName(t *testing.T) {
	db, state, cleanup := newScriptedGormDB(t, nil)
	defer cleanup()

	release, err := NewGormRegistryStore(db).AcquireLock(context.Background(), "  ")
	require.NoError(t, err)
	require.Nil(t, release)
	require.NoError(t, state.verifyComplete())
}

func TestFindPaperByDOIFoldLowercasesLookup(t *testing.T) {
	steps := []*queryStep{
		{
			pattern: regexp.MustCompile("SELECT \\* FROM `?papers`? WHERE LOWER\\(doi\\) = \\? ORDER BY id ASC LIMIT \\?"),
			args:    []driver.Value{"10.1/abc", int64(1)},
			columns: []string{"id", "doi", "title"},
			rows:    [][]driver.Value{{int64(7), "10.1/ABC", "A Study"}},
		},
		{
			pattern: regexp.MustCompile("SELECT \\* FROM `?papers`? WHERE doi = \\? ORDER BY id ASC LIMIT \\?"),
			args:    []driver.Value{"10.1/abc", int64(1)},
			columns: []string{"id", "doi", "title"},
			rows:    [][]driver.Value{},
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()
	store := NewGormRegistryStore(db)

	paper, err := store.FindPaperByDOIFold(context.Background(), "10.1/ABC")
	require.NoError(t, err)
	require.NotNil(t, paper)
	require.Equal(t, uint(7), paper.ID)
	require.Equal(t, "10.1/ABC", paper.DOI)

	missing, err := store.FindPaperByDOI(context.Background(), "10.1/abc")
	require.NoError(t, err)
	require.Nil(t, missing)
	require.NoError(t, state.verifyComplete())
}

func TestListFacultyDecodesJSONColumns(t *testing.T) {
	steps := []*queryStep{
		{
			pattern: regexp.MustCompile("SELECT \\* FROM `?faculties`? ORDER BY id ASC"),
			columns: []string{"id", "faculty_id", "name", "dois"},
			rows: [][]driver.Value{
				{int64(1), "f1", "Jane Q. Doe", []byte(`["10.1/abc","10.2/def"]`)},
				{int64(2), "f2", "Alex Kim", []byte(`[]`)},
			},
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	faculty, err := NewGormRegistryStore(db).ListFaculty(context.Background())
	require.NoError(t, err)
	require.Len(t, faculty, 2)
	require.Equal(t, []string{"10.1/abc", "10.2/def"}, []string(faculty[0].DOIs))
	require.Empty(t, faculty[1].DOIs)
	require.NoError(t, state.verifyComplete())
}

func TestResetDeletesChildTablesFirst(t *testing.T) {
	steps := []*queryStep{
		{kind: kindExec, pattern: regexp.MustCompile("DELETE FROM `?paper_authorships`?"), result: scriptedResult{rowsAffected: 4}},
		{kind: kindExec, pattern: regexp.MustCompile("DELETE FROM `?paper_authors`?"), result: scriptedResult{rowsAffected: 5}},
		{kind: kindExec, pattern: regexp.MustCompile("DELETE FROM `?papers`?"), result: scriptedResult{rowsAffected: 3}},
		{kind: kindExec, pattern: regexp.MustCompile("DELETE FROM `?faculties`?"), result: scriptedResult{rowsAffected: 2}},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	summary := &DatasetImportSummary{}
	require.NoError(t, resetRegistry(context.Background(), NewGormRegistryStore(db), summary))
	require.Equal(t, &DatasetResetSummary{Authorships: 4, PaperAuthors: 5, Papers: 3, Faculty: 2}, summary.Reset)
	require.NoError(t, state.verifyComplete())
}

func TestResetStopsOnFirstFailure(t *testing.T) {
	steps := []*queryStep{
		{kind: kindExec, pattern: regexp.MustCompile("DELETE FROM `?paper_authorships`?"), err: errors.New("lock wait timeout")},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	summary := &DatasetImportSummary{}
	err := resetRegistry(context.Background(), NewGormRegistryStore(db), summary)
	require.ErrorContains(t, err, "reset authorships")
	require.Nil(t, summary.Reset)
	require.NoError(t, state.verifyComplete())
}

func TestBeginSurfacesDriverError(t *testing.T) {
	db, _, cleanup := newScriptedGormDB(t, nil)
	defer cleanup()

	_, err := NewGormRegistryStore(db).Begin(context.Background())
	require.ErrorContains(t, err, "begin import transaction")
}

func TestDatasetImportRunListClampsLimit(t *testing.T) {
	steps := []*queryStep{
		{
			pattern: regexp.MustCompile("SELECT \\* FROM `?dataset_import_runs`? ORDER BY id DESC LIMIT \\?"),
			args:    []driver.Value{int64(50)},
			columns: []string{"id", "status", "trigger_source"},
			rows: [][]driver.Value{
				{int64(8), "success", "cron"},
				{int64(7), "failed", "cli"},
			},
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	runs, err := NewDatasetImportRunService(db).List(context.Background(), 5000)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, uint(8), runs[0].ID)
	require.Equal(t, "cli", runs[1].TriggerSource)
	require.NoError(t, state.verifyComplete())
}
