package services

import (
	"context"
	"strings"

	"research-registry-api/models"

	"gorm.io/datatypes"
)

// UpsertPaper creates or refreshes one paper keyed by DOI (falling back to id).
// Records without an identifier or title are skipped.
func UpsertPaper(ctx context.Context, store RegistryStore, rec Record) (created bool, skipped bool, err error) {
	doi := PaperIdentifier(rec)
	if doi == "" {
		return false, true, nil
	}
	title := paperTitle(rec["title"])
	if title == "" {
		return false, true, nil
	}
	title = truncateRunes(title, models.PaperTitleMaxLength)

	paper, created, err := store.GetOrCreatePaper(ctx, doi, title)
	if err != nil {
		return false, false, err
	}

	paper.Title = title
	paper.Abstract = optionalString(rec, "abstract")
	paper.Journal = optionalString(rec, "journal")
	paper.LicenseURL = optionalString(rec, "license_url")
	paper.DownloadURL = optionalString(rec, "download_url")
	paper.URL = optionalString(rec, "url")
	paper.TCCount = rec.Int("tc_count")
	paper.DatePublishedOnline = ParseFlexibleDate(rec["date_published_online"])
	paper.DatePublishedPrint = ParseFlexibleDate(rec["date_published_print"])
	paper.Themes = datatypes.JSONSlice[string](StringList(rec["themes"]))
	paper.Keywords = datatypes.JSONSlice[string](MergeKeywords(rec))

	if err := store.SavePaper(ctx, paper); err != nil {
		return false, false, err
	}
	return created, false, nil
}

// PaperIdentifier resolves doi, else id; list values use their first element.
func PaperIdentifier(rec Record) string {
	for _, key := range []string{"doi", "id"} {
		value := rec[key]
		if list, ok := value.([]any); ok {
			if len(list) == 0 {
				continue
			}
			value = list[0]
		}
		if s := strings.TrimSpace(scalarString(value)); s != "" {
			return s
		}
	}
	return ""
}

func paperTitle(value any) string {
	if list, ok := value.([]any); ok {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			parts = append(parts, scalarString(item))
		}
		return strings.TrimSpace(strings.Join(parts, " "))
	}
	return strings.TrimSpace(scalarString(value))
}

func optionalString(rec Record, key string) *string {
	s := strings.TrimSpace(rec.String(key))
	if s == "" {
		return nil
	}
	return &s
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
