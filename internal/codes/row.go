package codes

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"hoyocodes/internal/components/telemetry"
)

// RawReward is a reward as it appears in the page, before normalization.
type RawReward struct {
	Name     string
	ImageSrc string
}

// Cell is the pre-extracted content of a single table cell.
type Cell struct {
	// Text is the visible text of the cell, fragments joined by single spaces.
	Text string
	// Tokens holds the text of every <code> element.
	Tokens []string
	// Bold holds the text of every <b> element.
	Bold []string
	// Links holds every anchor href in document order.
	Links []string
	// Footnote is set when the cell carries a <sup> reference.
	Footnote bool
	Rewards  []RawReward
}

type Row struct {
	Cells []Cell
}

const (
	standardMinCells = 4
	exchangeMinCells = 5

	// ExchangeServer is the server scope of every Honkai Impact 3rd exchange code.
	ExchangeServer = "Global only (NA/EU)"
)

// CleanCode uppercases token and drops every character that is not an ASCII
// letter or digit.
func CleanCode(token string) string {
	var out strings.Builder
	for _, c := range strings.ToUpper(token) {
		if c < unicode.MaxASCII && (unicode.IsUpper(c) || unicode.IsDigit(c)) {
			out.WriteRune(c)
		}
	}
	return out.String()
}

var imageExtRegex = regexp.MustCompile(`\.(png|jpe?g|gif|bmp|svg|webp).*`)

// NormalizeImageURL strips the scaling/query suffix of a wiki image url and
// points it at the latest full resolution revision.
func NormalizeImageURL(src string) string {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}
	if imageExtRegex.MatchString(src) {
		src = imageExtRegex.ReplaceAllString(src, ".$1")
	} else if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}
	return src + "/revision/latest"
}

func pickLink(cell Cell) *string {
	var links []string
	for _, l := range cell.Links {
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		links = append(links, l)
	}
	if len(links) == 0 {
		return nil
	}
	// the first anchor of a footnoted cell is the citation itself, unless it
	// was an in-page reference that got dropped above
	if cell.Footnote && len(links) == len(cell.Links) && len(links) > 1 {
		return str(links[1])
	}
	return str(links[0])
}

func normalizeRewards(raw []RawReward) []Reward {
	rewards := []Reward{}
	for _, r := range raw {
		name := strings.TrimSpace(innerWhitespace.ReplaceAllString(r.Name, " "))
		if name == "" {
			continue
		}
		rewards = append(rewards, Reward{
			Name:  name,
			Image: NormalizeImageURL(r.ImageSrc),
		})
	}
	return rewards
}

var rewardSeparatorRegex = regexp.MustCompile(`,|&|\+`)

func rewardsFromText(text string) []Reward {
	rewards := []Reward{}
	for _, item := range rewardSeparatorRegex.Split(text, -1) {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		rewards = append(rewards, Reward{Name: item})
	}
	return rewards
}

func cleanTokens(tokens []string) []string {
	var out []string
	for _, t := range tokens {
		code := CleanCode(t)
		if code == "" {
			continue
		}
		out = append(out, code)
	}
	return out
}

func optional(text string) *string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return str(text)
}

// Normalizer maps extracted table rows onto Codes.
type Normalizer struct {
	resolver Resolver
}

func NewNormalizer(tel telemetry.API) Normalizer {
	return Normalizer{resolver: NewResolver(tel)}
}

// NormalizeRow handles the four column layout used by the Genshin Impact and
// Honkai: Star Rail pages: codes, server, rewards, duration.
//
// When label is empty the status of the row is resolved from its duration,
// otherwise every code of the row takes label. A row with too few cells or no
// usable code token yields nil.
func (n Normalizer) NormalizeRow(row Row, label Status, now time.Time) []Code {
	if len(row.Cells) < standardMinCells {
		return nil
	}
	tokens := cleanTokens(row.Cells[0].Tokens)
	if len(tokens) == 0 {
		return nil
	}

	link := pickLink(row.Cells[0])
	server := strings.TrimSpace(row.Cells[1].Text)
	rewards := normalizeRewards(row.Cells[2].Rewards)
	rawDuration := row.Cells[3].Text
	duration := ParseDuration(rawDuration)

	status := label
	if status == "" {
		status = Collapse(n.resolver.Resolve(duration, now), rawDuration)
	}

	out := make([]Code, 0, len(tokens))
	for _, token := range tokens {
		out = append(out, Code{
			Code:     token,
			Link:     link,
			Server:   server,
			Status:   status,
			Rewards:  rewards,
			Duration: duration,
		})
	}
	return out
}

// NormalizeExchangeRow handles the Honkai Impact 3rd exchange reward tables:
// code, discovered, note, rewards, expired ("Yes"/"No").
func (n Normalizer) NormalizeExchangeRow(row Row) []Code {
	if len(row.Cells) < exchangeMinCells {
		return nil
	}

	first := row.Cells[0]
	tokens := cleanTokens(first.Bold)
	if len(tokens) == 0 {
		tokens = cleanTokens(first.Tokens)
	}
	if len(tokens) == 0 {
		tokens = cleanTokens([]string{first.Text})
	}
	if len(tokens) == 0 {
		return nil
	}

	rewards := normalizeRewards(row.Cells[3].Rewards)
	if len(rewards) == 0 {
		rewards = rewardsFromText(row.Cells[3].Text)
	}

	status := StatusActive
	if strings.Contains(row.Cells[4].Text, "Yes") {
		status = StatusExpired
	}

	duration := Duration{
		Discovered: optional(row.Cells[1].Text),
		Notes:      optional(row.Cells[2].Text),
	}

	out := make([]Code, 0, len(tokens))
	for _, token := range tokens {
		out = append(out, Code{
			Code:     token,
			Link:     pickLink(first),
			Server:   ExchangeServer,
			Status:   status,
			Rewards:  rewards,
			Duration: duration,
		})
	}
	return out
}
