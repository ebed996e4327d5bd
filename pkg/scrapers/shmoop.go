package scrapers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/litchar/models"
)

// Shmoop is offline; its guides are only reachable through the archive.
const (
	shmoopIndexPages = 96
	shmoopIndex      = "https://web.archive.org/web/20230330202918/https://www.shmoop.com/study-guides/literature/index/?p="
)

// Shmoop scrapes archived shmoop.com guides.
type Shmoop struct {
	base
	catalogPages int
}

func (s *Shmoop) Supports(kind models.Kind) bool {
	return kind == models.KindAnalysis || kind == models.KindSummary
}

func (s *Shmoop) Characters(ctx context.Context, book models.Book, kind models.Kind) ([]models.Character, error) {
	if kind != models.KindAnalysis {
		return nil, s.unsupported(kind)
	}

	doc, err := s.fetch(ctx, withoutSlash(book.URL)+"/characters/")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch character list: %w", err)
	}

	// Names and links come from the same node so they stay paired.
	var names, links []string
	seen := make(map[string]bool)
	doc.Find(`div[data-content-type="text"]`).First().Children().Each(func(_ int, n *goquery.Selection) {
		a := n.Find("a").First()
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		link := resolve(book.URL, href)
		if seen[link] {
			return
		}
		seen[link] = true
		names = append(names, strings.TrimSpace(n.Text()))
		links = append(links, link)
	})

	return s.eachItem(ctx, links, func(ctx context.Context, i int, link string) ([]models.Character, error) {
		page, err := s.fetchArchived(ctx, link)
		if err != nil {
			return nil, err
		}
		title := page.Find("h2.title").First()
		if title.Length() == 0 {
			return nil, errNoContent
		}
		var paras []string
		title.NextAllFiltered("h3, p").Each(func(_ int, p *goquery.Selection) {
			if t := collapseSpace(p.Text()); t != "" {
				paras = append(paras, t)
			}
		})
		return []models.Character{
			s.character(book, names[i], strings.Join(paras, "\n\n"), models.KindAnalysis, link),
		}, nil
	})
}

func (s *Shmoop) Summary(ctx context.Context, book models.Book) (string, error) {
	doc, err := s.fetch(ctx, withoutSlash(book.URL)+"/summary")
	if err != nil {
		return "", fmt.Errorf("failed to fetch summary: %w", err)
	}
	title := doc.Find("h2.title").First()
	if title.Length() == 0 {
		return "", nil
	}
	var paras []string
	title.NextAllFiltered("p, h2, h3").Each(func(_ int, p *goquery.Selection) {
		if t := strings.TrimSpace(strings.ReplaceAll(p.Text(), "\n", " ")); t != "" {
			paras = append(paras, t)
		}
	})
	return strings.Join(paras, "\n\n"), nil
}

func (s *Shmoop) Catalog(ctx context.Context) ([]models.Book, error) {
	index := s.root(shmoopIndex)

	var books []models.Book
	for i := 1; i <= s.catalogPages; i++ {
		page := index + strconv.Itoa(i)
		doc, err := s.fetch(ctx, page)
		if err != nil {
			return books, fmt.Errorf("failed to fetch catalog page %d: %w", i, err)
		}
		doc.Find("a.details").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			books = append(books, models.Book{
				Title:  collapseSpace(a.Find("div.item-info").First().Text()),
				Author: "N/A",
				URL:    resolve(page, href),
			})
		})
		s.logger.Debug("Read catalog page", "page", i, "total", len(books))
	}
	return books, nil
}
