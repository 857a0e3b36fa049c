// Package listing parses the source site's latest-updates page.
package listing

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"manga_bot/internal/model"
)

// Selectors for the source's markup. The time node class keeps the double space.
const (
	blockSelector = `div[class="w-full p-1 pt-1 pb-3 border-b-[1px] border-b-[#312f40]"]`
	rowSelector   = `div[class*="flex flex-row justify-between rounded-sm"]`
	timeSelector  = `p[class*="flex items-end  ml-2 text-[12px] text-[#555555]"]`
)

// Page is the parsed listing.
type Page struct {
	BaseURL string
	Blocks  []TitleBlock
	Covers  []Link
}

// TitleBlock groups the chapter rows of one manga.
type TitleBlock struct {
	Rows []Row
}

// Row is a single chapter row of a title block.
type Row struct {
	Links     []Link
	FirstHref string
	TimeAgo   string
}

// Link is an anchor found in the listing. Label holds the text of its span
// child and Src the src of its img child.
type Link struct {
	Href     string
	Label    string
	HasLabel bool
	Src      string
}

// StructuralError reports a matched row that lacks a required node.
type StructuralError struct {
	Slug string
	Node string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("chapter row for %q: missing %s node", e.Slug, e.Node)
}

// Parse reads an HTML document. Markup that lacks title blocks yields an
// empty page rather than an error.
func Parse(r io.Reader, baseURL string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	page := &Page{BaseURL: baseURL}

	doc.Find(blockSelector).Each(func(_ int, block *goquery.Selection) {
		var tb TitleBlock
		block.Find(rowSelector).Each(func(_ int, row *goquery.Selection) {
			tb.Rows = append(tb.Rows, parseRow(row))
		})
		page.Blocks = append(page.Blocks, tb)
	})

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		img := a.ChildrenFiltered("img").First()
		if img.Length() == 0 {
			return
		}
		href, _ := a.Attr("href")
		src, ok := img.Attr("src")
		if !ok {
			src = model.NoImage
		}
		page.Covers = append(page.Covers, Link{Href: href, Src: src})
	})

	return page, nil
}

// ParseString is Parse for an in-memory document.
func ParseString(html, baseURL string) (*Page, error) {
	return Parse(strings.NewReader(html), baseURL)
}

func parseRow(row *goquery.Selection) Row {
	var r Row
	if first := row.Find("a").First(); first.Length() > 0 {
		r.FirstHref, _ = first.Attr("href")
	}
	row.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		l := Link{Href: href}
		if span := a.ChildrenFiltered("span").First(); span.Length() > 0 {
			l.Label = strings.TrimSpace(span.Text())
			l.HasLabel = true
		}
		r.Links = append(r.Links, l)
	})
	r.TimeAgo = strings.TrimSpace(row.Find(timeSelector).First().Text())
	return r
}

// FindChapterRow turns row into a ListingEntry when one of its links points
// at slug. The row's first link is used as the chapter URL.
func (p *Page) FindChapterRow(row Row, slug string) (model.ListingEntry, bool, error) {
	for _, l := range row.Links {
		if !strings.Contains(l.Href, slug) {
			continue
		}
		if !l.HasLabel {
			return model.ListingEntry{}, false, &StructuralError{Slug: slug, Node: "label"}
		}
		return model.ListingEntry{
			TitleSlugCandidate: slug,
			ChapterLabel:       l.Label,
			ChapterURL:         resolveURL(p.BaseURL, row.FirstHref),
			RelativeTimeText:   row.TimeAgo,
			CoverImageURL:      p.CoverImage(slug),
		}, true, nil
	}
	return model.ListingEntry{}, false, nil
}

// CoverImage returns the src of the first cover link for slug, or model.NoImage.
func (p *Page) CoverImage(slug string) string {
	for _, c := range p.Covers {
		if strings.Contains(c.Href, slug) {
			return c.Src
		}
	}
	return model.NoImage
}

func resolveURL(baseURL, href string) string {
	if href == "" {
		return baseURL
	}

	u, err := url.Parse(href)
	if err != nil {
		return baseURL + href
	}
	if u.IsAbs() {
		return u.String()
	}

	b, err := url.Parse(baseURL)
	if err != nil {
		return baseURL + href
	}

	return b.ResolveReference(u).String()
}
