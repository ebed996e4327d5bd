package scrapers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/litchar/models"
)

const litChartsRoot = "https://www.litcharts.com/"

// LitCharts scrapes litcharts.com. Each character has its own page, which
// is fetched under the per-item retry policy.
type LitCharts struct {
	base
}

func (l *LitCharts) Supports(kind models.Kind) bool {
	return kind == models.KindDescription || kind == models.KindSummary
}

func (l *LitCharts) Characters(ctx context.Context, book models.Book, kind models.Kind) ([]models.Character, error) {
	if kind != models.KindDescription {
		return nil, l.unsupported(kind)
	}

	doc, err := l.fetch(ctx, withSlash(book.URL)+"characters/")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch character list: %w", err)
	}

	all := doc.Find("a.subcomponent.tappable").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.TrimSpace(s.Text()) == "All Characters"
	}).First()
	if all.Length() == 0 {
		return nil, nil
	}

	var names, links []string
	all.NextAllFiltered("a.subcomponent.tappable").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		names = append(names, strings.TrimSpace(a.Text()))
		links = append(links, resolve(book.URL, href))
	})

	return l.eachItem(ctx, links, func(ctx context.Context, i int, link string) ([]models.Character, error) {
		page, err := l.fetch(ctx, link)
		if err != nil {
			return nil, err
		}
		node := page.Find("div.highlightable-content").First()
		if node.Length() == 0 {
			return nil, errNoContent
		}
		return []models.Character{
			l.character(book, names[i], strings.TrimSpace(node.Text()), models.KindDescription, link),
		}, nil
	})
}

func (l *LitCharts) Summary(ctx context.Context, book models.Book) (string, error) {
	doc, err := l.fetch(ctx, withoutSlash(book.URL)+"/summary")
	if err != nil {
		return "", fmt.Errorf("failed to fetch summary: %w", err)
	}
	var paras []string
	doc.Find("p.plot-text").Each(func(_ int, p *goquery.Selection) {
		paras = append(paras, strings.TrimLeft(p.Text(), " \t\r\n"))
	})
	return strings.Join(paras, "\n\n"), nil
}

type litChartsGuides struct {
	Guides []struct {
		Title      string `json:"title"`
		AuthorName string `json:"author_name"`
		URL        string `json:"url"`
	} `json:"guides"`
}

func (l *LitCharts) Catalog(ctx context.Context) ([]models.Book, error) {
	page := withSlash(l.root(litChartsRoot)) + "lit"
	doc, err := l.fetch(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}

	props, ok := doc.Find("div#all").First().Find("div").First().Attr("data-react-props")
	if !ok {
		return nil, fmt.Errorf("failed to find guide list on %s", page)
	}
	var guides litChartsGuides
	if err := json.Unmarshal([]byte(props), &guides); err != nil {
		return nil, fmt.Errorf("failed to decode guide list: %w", err)
	}

	books := make([]models.Book, 0, len(guides.Guides))
	for _, g := range guides.Guides {
		books = append(books, models.Book{Title: g.Title, Author: g.AuthorName, URL: resolve(page, g.URL)})
	}
	return books, nil
}
