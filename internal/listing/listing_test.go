package listing

import (
	"errors"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"

	"manga_bot/internal/model"
)

const baseURL = "https://asuracomic.net"

func loadFixture(t *testing.T) *Page {
	t.Helper()
	f, err := os.Open("../../testdata/listing.html")
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer func() { _ = f.Close() }()

	page, err := Parse(f, baseURL)
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return page
}

func TestParseBlocks(t *testing.T) {
	page := loadFixture(t)

	var rowCounts []int
	for _, b := range page.Blocks {
		rowCounts = append(rowCounts, len(b.Rows))
	}
	if diff := cmp.Diff([]int{3, 5, 2, 2}, rowCounts); diff != "" {
		t.Errorf("rows per block mismatch (-want +got):\n%s", diff)
	}

	want := Row{
		Links: []Link{{
			Href:     "/series/attack-on-titan-8a1f2e/chapter/140",
			Label:    "Chapter 140",
			HasLabel: true,
		}},
		FirstHref: "/series/attack-on-titan-8a1f2e/chapter/140",
		TimeAgo:   "10 minutes ago",
	}
	if diff := cmp.Diff(want, page.Blocks[0].Rows[0]); diff != "" {
		t.Errorf("first row mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff("", page.Blocks[3].Rows[1].TimeAgo); diff != "" {
		t.Errorf("missing time node should be empty (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("59 minutes ago", page.Blocks[3].Rows[0].TimeAgo); diff != "" {
		t.Errorf("time text should be trimmed (-want +got):\n%s", diff)
	}
}

func TestParseCovers(t *testing.T) {
	page := loadFixture(t)

	tests := []struct {
		slug string
		want string
	}{
		{"attack-on-titan", "https://gg.asuracomic.net/storage/media/aot/cover.webp"},
		{"solo-leveling", "https://gg.asuracomic.net/storage/media/solo/cover.webp"},
		{"one-piece", model.NoImage},
		{"unknown-title", model.NoImage},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, page.CoverImage(tt.slug)); diff != "" {
				t.Errorf("CoverImage(%q) mismatch (-want +got):\n%s", tt.slug, diff)
			}
		})
	}
}

func TestParseEmptyDocument(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{name: "empty", html: ""},
		{name: "no blocks", html: "<html><body><div class=\"other\">nothing</div></body></html>"},
		{name: "malformed", html: "<div class=\"w-full p-1\"><a href=<<<"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := ParseString(tt.html, baseURL)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(0, len(page.Blocks)); diff != "" {
				t.Errorf("block count mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFindChapterRow(t *testing.T) {
	page := loadFixture(t)

	tests := []struct {
		name      string
		row       Row
		slug      string
		want      model.ListingEntry
		wantMatch bool
		wantErr   bool
	}{
		{
			name:      "matching row",
			row:       page.Blocks[0].Rows[0],
			slug:      "attack-on-titan",
			wantMatch: true,
			want: model.ListingEntry{
				TitleSlugCandidate: "attack-on-titan",
				ChapterLabel:       "Chapter 140",
				ChapterURL:         "https://asuracomic.net/series/attack-on-titan-8a1f2e/chapter/140",
				RelativeTimeText:   "10 minutes ago",
				CoverImageURL:      "https://gg.asuracomic.net/storage/media/aot/cover.webp",
			},
		},
		{
			name: "other title",
			row:  page.Blocks[0].Rows[0],
			slug: "solo-leveling",
		},
		{
			name:    "label missing",
			row:     page.Blocks[2].Rows[0],
			slug:    "one-piece",
			wantErr: true,
		},
		{
			name:      "trimmed label without cover",
			row:       page.Blocks[2].Rows[1],
			slug:      "one-piece",
			wantMatch: true,
			want: model.ListingEntry{
				TitleSlugCandidate: "one-piece",
				ChapterLabel:       "Chapter 1129",
				ChapterURL:         "https://asuracomic.net/series/one-piece-0b9e44/chapter/1129",
				RelativeTimeText:   "1 hour ago",
				CoverImageURL:      model.NoImage,
			},
		},
		{
			name:      "absolute href kept",
			row:       Row{Links: []Link{{Href: "https://mirror.example.com/x-y/1", Label: "Ch 1", HasLabel: true}}, FirstHref: "https://mirror.example.com/x-y/1"},
			slug:      "x-y",
			wantMatch: true,
			want: model.ListingEntry{
				TitleSlugCandidate: "x-y",
				ChapterLabel:       "Ch 1",
				ChapterURL:         "https://mirror.example.com/x-y/1",
				CoverImageURL:      model.NoImage,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := page.FindChapterRow(tt.row, tt.slug)
			if tt.wantErr {
				var se *StructuralError
				if !errors.As(err, &se) {
					t.Fatalf("expected *StructuralError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.wantMatch, ok); diff != "" {
				t.Errorf("match mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("entry mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		base string
		href string
		want string
	}{
		{"https://asuracomic.net", "/series/a/chapter/1", "https://asuracomic.net/series/a/chapter/1"},
		{"https://asuracomic.net", "series/a", "https://asuracomic.net/series/a"},
		{"https://asuracomic.net", "https://cdn.example.com/a", "https://cdn.example.com/a"},
		{"https://asuracomic.net", "", "https://asuracomic.net"},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, resolveURL(tt.base, tt.href)); diff != "" {
				t.Errorf("resolveURL mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
