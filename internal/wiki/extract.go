package wiki

import (
	"hoyocodes/internal/codes"
	"hoyocodes/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	// WikitableSelector matches the code tables of the Genshin Impact and
	// Honkai: Star Rail pages.
	WikitableSelector = "div.mw-parser-output table.wikitable"
	// ContentTableSelector matches every table of an article.
	ContentTableSelector = "div.mw-parser-output table"
)

// Tables returns every table of doc matching selector, in document order.
func Tables(doc *goquery.Document, selector string) []*goquery.Selection {
	tables := []*goquery.Selection{}
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		tables = append(tables, s)
	})
	return tables
}

// ExtractRows returns the body rows of table, the first row is always treated
// as the header and skipped.
func ExtractRows(table *goquery.Selection) []codes.Row {
	rows := []codes.Row{}
	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		if i == 0 {
			return
		}
		row := codes.Row{}
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			row.Cells = append(row.Cells, extractCell(td))
		})
		rows = append(rows, row)
	})
	return rows
}

func texts(sel *goquery.Selection) []string {
	out := []string{}
	sel.Each(func(_ int, s *goquery.Selection) {
		text := htmlutil.CleanText(s.Text())
		if text != "" {
			out = append(out, text)
		}
	})
	return out
}

func imageSource(sel *goquery.Selection) string {
	img := sel.Find("img").First()
	if img.Length() == 0 {
		return ""
	}
	if src, ok := img.Attr("data-src"); ok && src != "" {
		return src
	}
	src, _ := img.Attr("src")
	return src
}

func extractRewards(td *goquery.Selection) []codes.RawReward {
	rewards := []codes.RawReward{}
	td.Find("span.item").Each(func(_ int, item *goquery.Selection) {
		rewards = append(rewards, codes.RawReward{
			Name:     htmlutil.CleanText(item.Find("span.item-text").Text()),
			ImageSrc: imageSource(item),
		})
	})
	if len(rewards) > 0 {
		return rewards
	}
	td.Find("div.infobox-half").Each(func(_ int, item *goquery.Selection) {
		rewards = append(rewards, codes.RawReward{
			Name:     htmlutil.CleanText(item.Find("b").First().Text()),
			ImageSrc: imageSource(item),
		})
	})
	return rewards
}

func extractCell(td *goquery.Selection) codes.Cell {
	links := []string{}
	for _, a := range htmlutil.GetAnchors(td.Find("a")) {
		links = append(links, a.Href)
	}

	return codes.Cell{
		Text:     htmlutil.CleanText(htmlutil.SelectionText(td)),
		Tokens:   texts(td.Find("code")),
		Bold:     texts(td.Find("b")),
		Links:    links,
		Footnote: td.Find("sup").Length() > 0,
		Rewards:  extractRewards(td),
	}
}
