package scrapers

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/litchar/models"
)

const cliffsNotesRoot = "https://www.cliffsnotes.com/"

var cliffsNotesSummaryPages = []string{"book-summary", "play-summary", "poem-summary"}

// CliffsNotes scrapes cliffsnotes.com literature notes. Its character list
// markup varies between guides, so descriptions try several layouts.
type CliffsNotes struct {
	base
}

func (c *CliffsNotes) Supports(kind models.Kind) bool {
	switch kind {
	case models.KindDescription, models.KindAnalysis, models.KindSummary:
		return true
	}
	return false
}

func (c *CliffsNotes) Characters(ctx context.Context, book models.Book, kind models.Kind) ([]models.Character, error) {
	switch kind {
	case models.KindDescription:
		return c.descriptions(ctx, book)
	case models.KindAnalysis:
		return c.analyses(ctx, book)
	}
	return nil, c.unsupported(kind)
}

func (c *CliffsNotes) descriptions(ctx context.Context, book models.Book) ([]models.Character, error) {
	link := joinURL(book.URL, "character-list")
	doc, err := c.fetchArchived(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch character list: %w", err)
	}

	var out []models.Character
	add := func(name, desc string) {
		out = append(out, c.character(book, name, desc, models.KindDescription, link))
	}

	// Layout 1: a "Major Characters" heading followed by one paragraph
	// per character, the name in <strong>.
	major := doc.Find("p.litNoteTextHeading").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.TrimSpace(s.Text()) == "Major Characters"
	}).First()
	if major.Length() > 0 {
		major.NextAllFiltered("p.litNoteText").Each(func(_ int, p *goquery.Selection) {
			strong := findNext(p, "strong")
			if strong.Length() == 0 {
				return
			}
			name := strong.Text()
			add(strings.TrimSpace(name), strings.TrimSpace(strings.ReplaceAll(p.Text(), name, "")))
		})
		return out, nil
	}

	// Layout 2: plain note paragraphs with a bold name.
	if paras := doc.Find("p.litNoteText"); paras.Length() > 0 {
		paras.Each(func(_ int, p *goquery.Selection) {
			var name string
			if strong := p.Find("strong").First(); strong.Length() > 0 {
				name = strong.Text()
			} else if b := findNext(p, "b"); b.Length() > 0 {
				name = b.Text()
			} else {
				return
			}
			add(strings.TrimSpace(name), strings.TrimSpace(strings.Replace(p.Text(), name, "", 1)))
		})
		return out, nil
	}

	// Layout 3: one heading per character, description in the next paragraph.
	doc.Find("p.litNoteTextHeading").Each(func(_ int, h *goquery.Selection) {
		desc := findNext(h, "p")
		if desc.Length() == 0 {
			return
		}
		add(strings.TrimSpace(h.Text()), strings.TrimSpace(desc.Text()))
	})
	return out, nil
}

func (c *CliffsNotes) analyses(ctx context.Context, book models.Book) ([]models.Character, error) {
	doc, err := c.fetch(ctx, joinURL(book.URL, "character-list"))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch character list: %w", err)
	}

	var links []string
	doc.Find("li").Each(func(_ int, li *goquery.Selection) {
		a := findNext(li, "a")
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		if slices.Contains(strings.Split(href, "/"), "character-analysis") {
			links = append(links, resolve(book.URL, href))
		}
	})

	var out []models.Character
	for _, link := range dedupe(links) {
		page, err := c.fetchArchived(ctx, link)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch character analysis: %w", err)
		}
		article := page.Find("article").First()
		if article.Length() == 0 {
			c.logger.Debug("No article on analysis page", "url", link)
			continue
		}

		name := strings.TrimSpace(article.Find("h2").First().Text())
		if _, after, ok := strings.Cut(name, "Character Analysis"); ok {
			name = strings.TrimSpace(after)
		}

		var paras []string
		article.Find("p.litNoteText").Each(func(_ int, p *goquery.Selection) {
			if t := strings.TrimSpace(p.Text()); t != "" {
				paras = append(paras, t)
			}
		})
		out = append(out, c.character(book, name, strings.Join(paras, "\n\n"), models.KindAnalysis, link))
	}
	return out, nil
}

func (c *CliffsNotes) Summary(ctx context.Context, book models.Book) (string, error) {
	var doc *goquery.Document
	for _, suffix := range cliffsNotesSummaryPages {
		d, err := c.fetch(ctx, joinURL(book.URL, suffix))
		if err == nil {
			doc = d
			break
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	if doc == nil {
		d, err := c.fetch(ctx, book.URL)
		if err != nil {
			return "", fmt.Errorf("failed to fetch summary: %w", err)
		}
		doc = d
	}

	wrapper := doc.Find("div.gts-placeholder-wrapper.float.left.middle-for-small-only").First()
	if wrapper.Length() == 0 {
		return "", nil
	}
	var paras []string
	findAllNext(wrapper, "p.litNoteText").Each(func(_ int, p *goquery.Selection) {
		if t := strings.TrimSpace(p.Text()); t != "" {
			paras = append(paras, t)
		}
	})
	return strings.Join(paras, "\n\n"), nil
}

func (c *CliffsNotes) Catalog(ctx context.Context) ([]models.Book, error) {
	page := withSlash(c.root(cliffsNotesRoot)) + "literature?filter=ShowAll&sort=TITLE"
	doc, err := c.fetch(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}

	var books []models.Book
	doc.Find("a.clear-padding").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		author := "N/A"
		if p := a.Find("p").First(); p.Length() > 0 {
			author = strings.TrimSpace(p.Text())
		}
		books = append(books, models.Book{
			Title:  strings.TrimSpace(a.Find("h4").First().Text()),
			Author: author,
			URL:    resolve(page, href),
		})
	})
	return books, nil
}
