package games

import (
	"errors"
	"fmt"
	"strings"

	"hoyocodes/lib/textutil"
)

var ErrUnknownGame = errors.New("unknown game")

type ID string

const (
	Genshin  ID = "genshin"
	StarRail ID = "starrail"
	Honkai   ID = "honkai"
)

// Game is the static description of a supported title. ID doubles as the name
// of the game's snapshot folder.
type Game struct {
	ID    ID
	Name  string
	Color int
	// Image is attached to every notification, empty means no image.
	Image string
}

var catalog = []Game{
	{
		ID:    Genshin,
		Name:  "Genshin Impact",
		Color: 0x3B82F6,
	},
	{
		ID:    StarRail,
		Name:  "Honkai Star Rail",
		Color: 0xFF00FF,
		Image: "https://i.ibb.co.com/Nng6s2rR/starrail.jpg",
	},
	{
		ID:    Honkai,
		Name:  "Honkai Impact 3rd",
		Color: 0x00FFFF,
		Image: "https://i.ibb.co.com/mryQSWvT/honkai.jpg",
	},
}

// All returns every supported game in a stable order.
func All() []Game {
	out := make([]Game, len(catalog))
	copy(out, catalog)
	return out
}

func IDs() []string {
	out := make([]string, len(catalog))
	for i, g := range catalog {
		out[i] = string(g.ID)
	}
	return out
}

// Lookup returns the game whose id is exactly id.
func Lookup(id string) (Game, error) {
	for _, g := range catalog {
		if string(g.ID) == id {
			return g, nil
		}
	}
	return Game{}, fmt.Errorf("%w: %q", ErrUnknownGame, id)
}

// Resolve is a forgiving Lookup for user input: it accepts ids or display
// names in any case and tolerates small typos ("star rail", "Genshn").
func Resolve(input string) (Game, error) {
	normalized := textutil.NormalizeName(input)
	for _, g := range catalog {
		if normalized == string(g.ID) || normalized == textutil.NormalizeName(g.Name) {
			return g, nil
		}
	}

	candidates := []string{}
	byCandidate := map[string]Game{}
	for _, g := range catalog {
		for _, c := range []string{string(g.ID), g.Name} {
			candidates = append(candidates, c)
			byCandidate[c] = g
		}
	}
	best, ok := textutil.ClosestName(input, candidates, 0.85)
	if !ok {
		return Game{}, fmt.Errorf("%w: %q (expected one of %s)", ErrUnknownGame, input, strings.Join(IDs(), ", "))
	}
	return byCandidate[best], nil
}

// ResolveAll resolves every input, an empty list means every game.
func ResolveAll(inputs []string) ([]Game, error) {
	if len(inputs) == 0 {
		return All(), nil
	}
	seen := map[ID]bool{}
	out := []Game{}
	for _, input := range inputs {
		g, err := Resolve(input)
		if err != nil {
			return nil, err
		}
		if seen[g.ID] {
			continue
		}
		seen[g.ID] = true
		out = append(out, g)
	}
	return out, nil
}

// WithImages returns games with their image replaced by overrides[id] when set.
func WithImages(list []Game, overrides map[string]string) []Game {
	out := make([]Game, len(list))
	for i, g := range list {
		if image, ok := overrides[string(g.ID)]; ok {
			g.Image = image
		}
		out[i] = g
	}
	return out
}
