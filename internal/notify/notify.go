package notify

import (
	"context"
	"errors"
	"strings"
	"time"

	"hoyocodes/internal/codes"
	"hoyocodes/internal/games"
)

// Notification announces a single newly active code.
type Notification struct {
	Game games.Game
	Code codes.Code
	// At is the time the code was found.
	At time.Time
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Multi delivers every notification to all of its notifiers, a failure of one
// does not prevent delivery to the others.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) error {
	errlist := []error{}
	for _, notifier := range m {
		err := notifier.Notify(ctx, n)
		if err != nil {
			errlist = append(errlist, err)
		}
	}
	return errors.Join(errlist...)
}

// Combine returns nil when no notifier is given, the notifier itself when
// there is only one and a Multi otherwise.
func Combine(notifiers ...Notifier) Notifier {
	list := Multi{}
	for _, n := range notifiers {
		if n != nil {
			list = append(list, n)
		}
	}
	switch len(list) {
	case 0:
		return nil
	case 1:
		return list[0]
	}
	return list
}

func valueOr(s *string, fallback string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return fallback
	}
	return *s
}

// describe renders the human readable body shared by every notifier. bold
// wraps a label in the notifier's markup.
func describe(c codes.Code, bold func(string) string) string {
	var b strings.Builder
	line := func(label, value string) {
		b.WriteString(bold(label + ":"))
		b.WriteString(" ")
		b.WriteString(value)
		b.WriteString("\n")
	}

	line("Server", c.Server)
	line("Link", valueOr(c.Link, "N/A"))

	if len(c.Rewards) == 0 {
		line("Rewards", "N/A")
	} else {
		b.WriteString(bold("Rewards:"))
		b.WriteString("\n")
		for _, r := range c.Rewards {
			b.WriteString("- ")
			b.WriteString(r.Name)
			b.WriteString("\n")
		}
	}

	d := c.Duration
	if d.Notes != nil {
		line("Notes", *d.Notes)
	}
	if d.Discovered != nil {
		line("Discovered", *d.Discovered)
	}
	if d.Valid != nil {
		line("Valid Until", *d.Valid)
	}
	if d.Expired != nil {
		line("Expired", *d.Expired)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
