package services

import (
	"context"
	"sort"
	"strings"

	"research-registry-api/config"
	"research-registry-api/models"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// LinkSummary counts authorship links made by one linker pass.
// Attempts counts every (paper, faculty) add, Created only new authorship rows.
type LinkSummary struct {
	DOIAttempts   int `json:"doi_attempts"`
	NameAttempts  int `json:"name_attempts"`
	Attempts      int `json:"attempts"`
	Created       int `json:"created"`
	UnknownDOIs   int `json:"unknown_dois"`
	UnknownPapers int `json:"unknown_papers"`
}

// AuthorshipLinker attaches papers to faculty through the DOI crosswalk and name matching.
// Namesakes are all linked.
type AuthorshipLinker struct {
	store  RegistryStore
	byName map[string][]models.Faculty
	byDOI  map[string]map[uint]struct{}
}

// NewAuthorshipLinker indexes the persisted faculty set. Call it only after
// every faculty upsert of the batch has run.
func NewAuthorshipLinker(ctx context.Context, store RegistryStore) (*AuthorshipLinker, error) {
	faculty, err := store.ListFaculty(ctx)
	if err != nil {
		return nil, err
	}
	l := &AuthorshipLinker{
		store:  store,
		byName: make(map[string][]models.Faculty),
		byDOI:  make(map[string]map[uint]struct{}),
	}
	for _, f := range faculty {
		if key := normalizeName(f.Name); key != "" {
			l.byName[key] = append(l.byName[key], f)
		}
		for _, doi := range f.DOIs {
			key := strings.ToLower(strings.TrimSpace(doi))
			if key == "" {
				continue
			}
			if l.byDOI[key] == nil {
				l.byDOI[key] = make(map[uint]struct{})
			}
			l.byDOI[key][f.ID] = struct{}{}
		}
	}
	return l, nil
}

// Run executes the DOI crosswalk and then the name match over records.
func (l *AuthorshipLinker) Run(ctx context.Context, records []Record) (*LinkSummary, error) {
	summary := &LinkSummary{}
	if err := l.linkByDOI(ctx, summary); err != nil {
		return summary, err
	}
	if err := l.linkByName(ctx, records, summary); err != nil {
		return summary, err
	}
	summary.Attempts = summary.DOIAttempts + summary.NameAttempts
	return summary, nil
}

func (l *AuthorshipLinker) linkByDOI(ctx context.Context, summary *LinkSummary) error {
	dois := make([]string, 0, len(l.byDOI))
	for doi := range l.byDOI {
		dois = append(dois, doi)
	}
	sort.Strings(dois)

	for _, doi := range dois {
		paper, err := l.store.FindPaperByDOIFold(ctx, doi)
		if err != nil {
			return err
		}
		if paper == nil {
			summary.UnknownDOIs++
			continue
		}
		for _, facultyID := range sortedIDs(l.byDOI[doi]) {
			created, err := l.store.EnsureAuthorship(ctx, paper.ID, facultyID)
			if err != nil {
				return err
			}
			summary.DOIAttempts++
			if created {
				summary.Created++
			}
		}
	}
	config.Logger.Debug("doi crosswalk finished",
		zap.Int("dois", len(dois)),
		zap.Int("attempts", summary.DOIAttempts),
		zap.Int("unknown_dois", summary.UnknownDOIs))
	return nil
}

func (l *AuthorshipLinker) linkByName(ctx context.Context, records []Record, summary *LinkSummary) error {
	for _, rec := range records {
		doi := PaperIdentifier(rec)
		if doi == "" {
			continue
		}
		paper, err := l.store.FindPaperByDOI(ctx, doi)
		if err != nil {
			return err
		}
		if paper == nil {
			summary.UnknownPapers++
			continue
		}
		for _, member := range StringList(rec["faculty_members"]) {
			for _, f := range l.byName[normalizeName(member)] {
				created, err := l.store.EnsureAuthorship(ctx, paper.ID, f.ID)
				if err != nil {
					return err
				}
				summary.NameAttempts++
				if created {
					summary.Created++
				}
			}
		}
	}
	config.Logger.Debug("name match finished",
		zap.Int("records", len(records)),
		zap.Int("attempts", summary.NameAttempts),
		zap.Int("unknown_papers", summary.UnknownPapers))
	return nil
}

// normalizeName folds case after NFC composition so decomposed accents match.
func normalizeName(name string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(name)))
}

func sortedIDs(set map[uint]struct{}) []uint {
	ids := make([]uint, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
