package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"research-registry-api/models"
)

type memPair struct {
	paperID   uint
	facultyID uint
}

type memState struct {
	faculty     map[uint]models.Faculty
	papers      map[uint]models.Paper
	members     map[memPair]struct{}
	authorships map[memPair]models.PaperAuthorship
	nextID      uint
}

func newMemState() *memState {
	return &memState{
		faculty:     map[uint]models.Faculty{},
		papers:      map[uint]models.Paper{},
		members:     map[memPair]struct{}{},
		authorships: map[memPair]models.PaperAuthorship{},
	}
}

func (s *memState) clone() *memState {
	out := newMemState()
	out.nextID = s.nextID
	for k, v := range s.faculty {
		out.faculty[k] = v
	}
	for k, v := range s.papers {
		out.papers[k] = v
	}
	for k := range s.members {
		out.members[k] = struct{}{}
	}
	for k, v := range s.authorships {
		out.authorships[k] = v
	}
	return out
}

// memStore is an in-memory ImportStore. Transactions work on a copy that
// replaces the committed state on Commit.
type memStore struct {
	mu        sync.Mutex
	committed *memState
	locks     map[string]bool
	begins    int
	commits   int
	rollbacks int
	failSave  error
}

func newMemStore() *memStore {
	return &memStore{committed: newMemState(), locks: map[string]bool{}}
}

func (m *memStore) Begin(ctx context.Context) (TxStore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.begins++
	return &memTx{parent: m, state: m.committed.clone()}, nil
}

func (m *memStore) AcquireLock(ctx context.Context, name string) (func() error, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[name] {
		return nil, ErrDatasetImportAlreadyRunning
	}
	m.locks[name] = true
	return func() error {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.locks, name)
		return nil
	}, nil
}

func (m *memStore) counts() (faculty, papers, authorships, members int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.committed.faculty), len(m.committed.papers), len(m.committed.authorships), len(m.committed.members)
}

func (m *memStore) facultyBySlug(slug string) (models.Faculty, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.committed.faculty {
		if f.FacultyID == slug {
			return f, true
		}
	}
	return models.Faculty{}, false
}

func (m *memStore) paperByDOI(doi string) (models.Paper, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.committed.papers {
		if p.DOI == doi {
			return p, true
		}
	}
	return models.Paper{}, false
}

func (m *memStore) authorship(paperID, facultyID uint) (models.PaperAuthorship, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.committed.authorships[memPair{paperID, facultyID}]
	return a, ok
}

func (m *memStore) setAuthorshipStatus(paperID, facultyID uint, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memPair{paperID, facultyID}
	a := m.committed.authorships[key]
	a.Status = status
	m.committed.authorships[key] = a
}

type memTx struct {
	parent *memStore
	state  *memState
	done   bool
}

func (t *memTx) Commit() error {
	if t.done {
		return errors.New("transaction already finished")
	}
	t.done = true
	t.parent.mu.Lock()
	defer t.parent.mu.Unlock()
	t.parent.committed = t.state
	t.parent.commits++
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return errors.New("transaction already finished")
	}
	t.done = true
	t.parent.mu.Lock()
	defer t.parent.mu.Unlock()
	t.parent.rollbacks++
	return nil
}

func (t *memTx) GetOrCreateFaculty(ctx context.Context, facultyID, name string) (*models.Faculty, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	for _, f := range t.state.faculty {
		if f.FacultyID == facultyID {
			out := f
			return &out, false, nil
		}
	}
	t.state.nextID++
	f := models.Faculty{ID: t.state.nextID, FacultyID: facultyID, Name: name, ProfileVisibility: true}
	t.state.faculty[f.ID] = f
	out := f
	return &out, true, nil
}

func (t *memTx) SaveFaculty(ctx context.Context, faculty *models.Faculty) error {
	if t.parent.failSave != nil {
		return t.parent.failSave
	}
	t.state.faculty[faculty.ID] = *faculty
	return nil
}

func (t *memTx) ListFaculty(ctx context.Context) ([]models.Faculty, error) {
	out := make([]models.Faculty, 0, len(t.state.faculty))
	for _, f := range t.state.faculty {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) GetOrCreatePaper(ctx context.Context, doi, title string) (*models.Paper, bool, error) {
	if p, _ := t.FindPaperByDOI(ctx, doi); p != nil {
		return p, false, nil
	}
	t.state.nextID++
	p := models.Paper{ID: t.state.nextID, DOI: doi, Title: title}
	t.state.papers[p.ID] = p
	out := p
	return &out, true, nil
}

func (t *memTx) SavePaper(ctx context.Context, paper *models.Paper) error {
	t.state.papers[paper.ID] = *paper
	return nil
}

func (t *memTx) FindPaperByDOI(ctx context.Context, doi string) (*models.Paper, error) {
	return t.findPaper(func(p models.Paper) bool { return p.DOI == doi }), nil
}

func (t *memTx) FindPaperByDOIFold(ctx context.Context, doi string) (*models.Paper, error) {
	return t.findPaper(func(p models.Paper) bool { return strings.EqualFold(p.DOI, doi) }), nil
}

func (t *memTx) findPaper(match func(models.Paper) bool) *models.Paper {
	var found *models.Paper
	for _, p := range t.state.papers {
		if match(p) && (found == nil || p.ID < found.ID) {
			cp := p
			found = &cp
		}
	}
	return found
}

func (t *memTx) EnsureAuthorship(ctx context.Context, paperID, facultyID uint) (bool, error) {
	key := memPair{paperID, facultyID}
	t.state.members[key] = struct{}{}
	if _, ok := t.state.authorships[key]; ok {
		return false, nil
	}
	t.state.nextID++
	t.state.authorships[key] = models.PaperAuthorship{
		ID:        t.state.nextID,
		PaperID:   paperID,
		FacultyID: facultyID,
		Status:    models.AuthorshipStatusPending,
	}
	return true, nil
}

func (t *memTx) DeleteAllAuthorships(ctx context.Context) (int64, error) {
	n := int64(len(t.state.authorships))
	t.state.authorships = map[memPair]models.PaperAuthorship{}
	return n, nil
}

func (t *memTx) DeleteAllPaperAuthors(ctx context.Context) (int64, error) {
	n := int64(len(t.state.members))
	t.state.members = map[memPair]struct{}{}
	return n, nil
}

func (t *memTx) DeleteAllPapers(ctx context.Context) (int64, error) {
	n := int64(len(t.state.papers))
	t.state.papers = map[uint]models.Paper{}
	return n, nil
}

func (t *memTx) DeleteAllFaculty(ctx context.Context) (int64, error) {
	n := int64(len(t.state.faculty))
	t.state.faculty = map[uint]models.Faculty{}
	return n, nil
}
