package scrapers

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/litchar/models"
)

const sparkNotesRoot = "https://www.sparknotes.com/"

// SparkNotes scrapes sparknotes.com study guides.
type SparkNotes struct {
	base
}

func (s *SparkNotes) Supports(kind models.Kind) bool {
	switch kind {
	case models.KindDescription, models.KindAnalysis, models.KindSummary:
		return true
	}
	return false
}

func (s *SparkNotes) Characters(ctx context.Context, book models.Book, kind models.Kind) ([]models.Character, error) {
	switch kind {
	case models.KindDescription:
		return s.descriptions(ctx, book)
	case models.KindAnalysis:
		return s.analyses(ctx, book)
	}
	return nil, s.unsupported(kind)
}

func (s *SparkNotes) descriptions(ctx context.Context, book models.Book) ([]models.Character, error) {
	link := joinURL(book.URL, "characters")
	doc, err := s.fetch(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch character list: %w", err)
	}

	var out []models.Character
	main := doc.Find("div.mainTextContent.main-container").First()
	if main.Length() > 0 {
		main.Find("h3").Each(func(_ int, h *goquery.Selection) {
			p := h.NextAllFiltered("p").First()
			if p.Length() == 0 {
				return
			}
			name := strings.TrimSpace(h.Text())
			out = append(out, s.character(book, name, normalizeText(p.Text()), models.KindDescription, link))
		})
		return out, nil
	}

	doc.Find("ul.mainTextContent__list-content").First().Find("li").Each(func(_ int, li *goquery.Selection) {
		h := li.Find("h3").First()
		if h.Length() == 0 {
			return
		}
		desc := strings.ReplaceAll(li.Find("p").First().Text(), "\n", "")
		out = append(out, s.character(book, strings.TrimSpace(h.Text()), strings.TrimSpace(desc), models.KindDescription, link))
	})
	return out, nil
}

func (s *SparkNotes) analyses(ctx context.Context, book models.Book) ([]models.Character, error) {
	doc, err := s.fetch(ctx, joinURL(book.URL, "characters"))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch character list: %w", err)
	}

	var links []string
	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		if !strings.Contains(a.Text(), "in-depth") {
			return
		}
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		slug := path.Base(withoutSlash(href))
		links = append(links, withSlash(book.URL)+"character/"+slug)
	})

	var out []models.Character
	for _, link := range dedupe(links) {
		page, err := s.fetch(ctx, link)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch character analysis: %w", err)
		}
		name := strings.TrimSpace(page.Find("span.interior-sticky-nav__title__section").First().Text())
		if name == "" {
			s.logger.Debug("No character name on analysis page", "url", link)
			continue
		}
		out = append(out, s.character(book, name, sparkNotesBody(page), models.KindAnalysis, link))
	}
	return out, nil
}

func sparkNotesBody(doc *goquery.Document) string {
	if main := doc.Find("div.mainTextContent.main-container").First(); main.Length() > 0 {
		return joinContents(main)
	}
	var paras []string
	doc.Find("div.content_txt p").Each(func(_ int, p *goquery.Selection) {
		if t := strings.TrimSpace(p.Text()); t != "" {
			paras = append(paras, t)
		}
	})
	return strings.Join(paras, "\n")
}

func (s *SparkNotes) Summary(ctx context.Context, book models.Book) (string, error) {
	page, doc, err := s.fetchPage(ctx, joinURL(book.URL, "summary"))
	if err != nil {
		return "", fmt.Errorf("failed to fetch summary: %w", err)
	}

	main := doc.Find("div.mainTextContent.main-container").First()
	if main.Length() == 0 {
		main = doc.Find("div.studyGuideText.hack-to-hide-first-h2").First()
	}
	if main.Length() == 0 {
		return s.readable(page), nil
	}
	return joinContents(main), nil
}

func (s *SparkNotes) Catalog(ctx context.Context) ([]models.Book, error) {
	root := s.root(sparkNotesRoot)
	page := joinURL(withSlash(root), "lit/")
	doc, err := s.fetch(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}

	var books []models.Book
	doc.Find("a.hub-AZ-list__card__title__link.hub-AZ-list__card__title__link--full-card-link.no-link").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		author := "N/A"
		if next := a.Parent().Next(); next.Length() > 0 {
			author = strings.TrimSpace(next.Text())
		}
		books = append(books, models.Book{
			Title:  strings.TrimSpace(a.Text()),
			Author: author,
			URL:    resolve(page, href),
		})
	})
	return books, nil
}
