package scrapers

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/litchar/models"
)

const gradeSaverRoot = "https://www.gradesaver.com/"

// GradeSaver scrapes gradesaver.com study guides.
type GradeSaver struct {
	base
}

func (g *GradeSaver) Supports(kind models.Kind) bool {
	return kind == models.KindDescription || kind == models.KindSummary
}

func (g *GradeSaver) Characters(ctx context.Context, book models.Book, kind models.Kind) ([]models.Character, error) {
	if kind != models.KindDescription {
		return nil, g.unsupported(kind)
	}

	link := withoutSlash(book.URL) + "/study-guide/character-list"
	doc, err := g.fetch(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch character list: %w", err)
	}

	var out []models.Character
	doc.Find("h2.toc_header").Each(func(_ int, h *goquery.Selection) {
		name := strings.ReplaceAll(strings.TrimSpace(h.Text()), ":", "")
		desc := strings.TrimSpace(findNext(h, "p").Text())
		out = append(out, g.character(book, name, desc, models.KindDescription, link))
	})
	return out, nil
}

func (g *GradeSaver) Summary(ctx context.Context, book models.Book) (string, error) {
	doc, err := g.fetch(ctx, withoutSlash(book.URL)+"/study-guide/summary")
	if err != nil {
		return "", fmt.Errorf("failed to fetch summary: %w", err)
	}
	var paras []string
	doc.Find("article.section__article p").Each(func(_ int, p *goquery.Selection) {
		if t := strings.TrimSpace(p.Text()); t != "" {
			paras = append(paras, t)
		}
	})
	return strings.Join(paras, "\n\n"), nil
}

func (g *GradeSaver) Catalog(ctx context.Context) ([]models.Book, error) {
	root := withSlash(g.root(gradeSaverRoot))

	var books []models.Book
	for letter := 'A'; letter <= 'Z'; letter++ {
		page := root + "study-guides/" + string(letter)
		doc, err := g.fetch(ctx, page)
		if err != nil {
			return books, fmt.Errorf("failed to fetch catalog page %c: %w", letter, err)
		}
		doc.Find("a.columnList__link").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			books = append(books, models.Book{
				Title:  strings.TrimSpace(a.Text()),
				Author: strings.TrimSpace(findNext(a, "a").Text()),
				URL:    resolve(page, href),
			})
		})
	}
	return books, nil
}
