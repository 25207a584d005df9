package services

import (
	"context"
	"strings"

	"gorm.io/datatypes"
)

// UpsertFaculty creates or refreshes one faculty profile from a dataset record.
// Records without an _id or name are skipped.
func UpsertFaculty(ctx context.Context, store RegistryStore, rec Record) (created bool, skipped bool, err error) {
	facultyID := strings.TrimSpace(rec.String("_id"))
	name := strings.TrimSpace(rec.String("name"))
	if facultyID == "" || name == "" {
		return false, true, nil
	}

	faculty, created, err := store.GetOrCreateFaculty(ctx, facultyID, name)
	if err != nil {
		return false, false, err
	}

	faculty.Name = name
	faculty.TotalCitations = rec.Int("total_citations")
	faculty.ArticleCount = rec.Int("article_count")
	faculty.AverageCitations = rec.Float("average_citations")
	faculty.DepartmentAffiliations = datatypes.JSONSlice[string](StringList(rec["department_affiliations"]))
	faculty.DOIs = datatypes.JSONSlice[string](StringList(rec["dois"]))
	faculty.Titles = datatypes.JSONSlice[string](StringList(rec["titles"]))
	faculty.Categories = datatypes.JSONSlice[string](StringList(rec["categories"]))
	faculty.Keywords = datatypes.JSONSlice[string](MergeKeywords(rec))

	if strings.TrimSpace(faculty.FirstName) == "" && strings.TrimSpace(faculty.LastName) == "" {
		faculty.FirstName, faculty.LastName = SplitDisplayName(name)
	}

	if err := store.SaveFaculty(ctx, faculty); err != nil {
		return false, false, err
	}
	return created, false, nil
}

// SplitDisplayName splits on whitespace: a single token is the last name,
// otherwise the last token is the last name and the rest the first name.
func SplitDisplayName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
	}
}
