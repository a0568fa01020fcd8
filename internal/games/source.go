package games

import (
	"time"

	"hoyocodes/internal/codes"
	"hoyocodes/internal/wiki"

	"github.com/PuerkitoBio/goquery"
)

// Page is a single wiki page a Source reads codes from.
type Page struct {
	URL      string
	Selector string
	// Label is the status every code on the page takes, empty means the
	// status is resolved per row from its duration.
	Label codes.Status
	// FirstTableOnly restricts parsing to the first table matched by Selector.
	FirstTableOnly bool
}

// Source knows where a game's codes are published and how its tables are laid
// out.
type Source interface {
	Game() Game
	Pages() []Page
	Parse(doc *goquery.Document, page Page, now time.Time) []codes.Code
}

const (
	GenshinBaseURL  = "https://genshin-impact.fandom.com"
	StarRailBaseURL = "https://honkai-star-rail.fandom.com"
	HonkaiBaseURL   = "https://honkaiimpact3.fandom.com"
)

func tables(doc *goquery.Document, page Page) []*goquery.Selection {
	found := wiki.Tables(doc, page.Selector)
	if page.FirstTableOnly && len(found) > 1 {
		return found[:1]
	}
	return found
}

// standardSource handles the four column code tables of Genshin Impact and
// Honkai: Star Rail.
type standardSource struct {
	game       Game
	pages      []Page
	normalizer codes.Normalizer
}

func (s standardSource) Game() Game {
	return s.game
}

func (s standardSource) Pages() []Page {
	return s.pages
}

func (s standardSource) Parse(doc *goquery.Document, page Page, now time.Time) []codes.Code {
	out := []codes.Code{}
	for _, table := range tables(doc, page) {
		for _, row := range wiki.ExtractRows(table) {
			out = append(out, s.normalizer.NormalizeRow(row, page.Label, now)...)
		}
	}
	return out
}

// NewGenshinSource reads the current codes page, then the history page. All
// codes of the first are active, all codes of the second expired.
func NewGenshinSource(game Game, baseURL string, normalizer codes.Normalizer) Source {
	if baseURL == "" {
		baseURL = GenshinBaseURL
	}
	return standardSource{
		game:       game,
		normalizer: normalizer,
		pages: []Page{
			{
				URL:            baseURL + "/wiki/Promotional_Code",
				Selector:       wiki.WikitableSelector,
				Label:          codes.StatusActive,
				FirstTableOnly: true,
			},
			{
				URL:            baseURL + "/wiki/Promotional_Code/History",
				Selector:       wiki.WikitableSelector,
				Label:          codes.StatusExpired,
				FirstTableOnly: true,
			},
		},
	}
}

// NewStarRailSource reads a single page holding both active and expired codes.
func NewStarRailSource(game Game, baseURL string, normalizer codes.Normalizer) Source {
	if baseURL == "" {
		baseURL = StarRailBaseURL
	}
	return standardSource{
		game:       game,
		normalizer: normalizer,
		pages: []Page{{
			URL:      baseURL + "/wiki/Redemption_Code",
			Selector: wiki.WikitableSelector,
		}},
	}
}

type exchangeSource struct {
	game       Game
	pages      []Page
	normalizer codes.Normalizer
}

// NewHonkaiSource reads every table of the exchange rewards page.
func NewHonkaiSource(game Game, baseURL string, normalizer codes.Normalizer) Source {
	if baseURL == "" {
		baseURL = HonkaiBaseURL
	}
	return exchangeSource{
		game:       game,
		normalizer: normalizer,
		pages: []Page{{
			URL:      baseURL + "/wiki/Exchange_Rewards",
			Selector: wiki.ContentTableSelector,
		}},
	}
}

func (s exchangeSource) Game() Game {
	return s.game
}

func (s exchangeSource) Pages() []Page {
	return s.pages
}

func (s exchangeSource) Parse(doc *goquery.Document, page Page, _ time.Time) []codes.Code {
	out := []codes.Code{}
	for _, table := range tables(doc, page) {
		for _, row := range wiki.ExtractRows(table) {
			out = append(out, s.normalizer.NormalizeExchangeRow(row)...)
		}
	}
	return out
}

// NewSource returns the Source of game. baseURLs optionally overrides the wiki
// host per game id.
func NewSource(game Game, baseURLs map[string]string, normalizer codes.Normalizer) (Source, error) {
	baseURL := baseURLs[string(game.ID)]
	switch game.ID {
	case Genshin:
		return NewGenshinSource(game, baseURL, normalizer), nil
	case StarRail:
		return NewStarRailSource(game, baseURL, normalizer), nil
	case Honkai:
		return NewHonkaiSource(game, baseURL, normalizer), nil
	}
	return nil, ErrUnknownGame
}
