// Package scanner finds recently published chapters of a title in a parsed listing.
package scanner

import (
	"errors"
	"fmt"
	"time"

	"manga_bot/internal/listing"
	"manga_bot/internal/model"
	"manga_bot/internal/timeago"
)

const (
	// MaxChaptersPerBlock caps how many matching rows are read from one title block.
	MaxChaptersPerBlock = 3
	// RecencyWindow is the age under which a chapter counts as new.
	RecencyWindow = time.Hour
)

// Scan returns up to MaxChaptersPerBlock results per title block for slug.
// Rows that fail to parse are skipped and reported through the joined error;
// the results gathered so far are returned alongside it.
func Scan(page *listing.Page, slug string) ([]model.ScanResult, error) {
	if page == nil || slug == "" {
		return nil, nil
	}

	var (
		results []model.ScanResult
		errs    []error
	)

	for _, block := range page.Blocks {
		processed := 0
		for _, row := range block.Rows {
			entry, ok, err := page.FindChapterRow(row, slug)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if !ok {
				continue
			}

			recent, err := IsRecent(entry.RelativeTimeText)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", entry.ChapterLabel, err))
				continue
			}

			results = append(results, model.ScanResult{
				ChapterLabel:     entry.ChapterLabel,
				ChapterURL:       entry.ChapterURL,
				RelativeTimeText: entry.RelativeTimeText,
				CoverImageURL:    entry.CoverImageURL,
				IsRecent:         recent,
			})

			processed++
			if processed == MaxChaptersPerBlock {
				break
			}
		}
	}

	return results, errors.Join(errs...)
}

// IsRecent reports whether a relative time text describes an age below
// RecencyWindow. Text without a recognizable time is not recent.
func IsRecent(text string) (bool, error) {
	d, err := timeago.Parse(text)
	if errors.Is(err, timeago.ErrNotMatched) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return d < RecencyWindow, nil
}

// Recent filters results down to the ones marked recent.
func Recent(results []model.ScanResult) []model.ScanResult {
	var out []model.ScanResult
	for _, r := range results {
		if r.IsRecent {
			out = append(out, r)
		}
	}
	return out
}
