package history

import (
	"context"
	"database/sql"
	_ "embed"
	"strings"
	"time"

	"hoyocodes/internal/codes"
	"hoyocodes/internal/components/assert"
)

//go:embed schema.sql
var Schema string

// Entry is a code that was announced at least once.
type Entry struct {
	Game      string
	Code      string
	FirstSeen time.Time
	Server    string
	Rewards   string
}

// Store is an append only ledger of announced codes. It is informational,
// deciding whether a code is new is done against the snapshot files.
type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	assert.NotNil(database)
	return Store{db: database}
}

// Migrate creates the tables if they do not exist yet.
func (s Store) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(Schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err := s.db.ExecContext(ctx, stmt)
		if err != nil {
			return err
		}
	}
	return nil
}

func rewardNames(rewards []codes.Reward) string {
	names := make([]string, len(rewards))
	for i, r := range rewards {
		names[i] = r.Name
	}
	return strings.Join(names, ", ")
}

// Record adds every code to the ledger of game in one transaction. Codes that
// are already present keep their original first_seen.
func (s Store) Record(ctx context.Context, game string, list []codes.Code, seen time.Time) error {
	if len(list) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, c := range list {
		_, err := tx.ExecContext(
			ctx,
			`insert into notified_code (game, code, first_seen, server, rewards)
			values (?, ?, ?, ?, ?)
			on conflict (game, code) do nothing`,
			game, c.Code, seen.Unix(), c.Server, rewardNames(c.Rewards),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// List returns the ledger of game, most recent first.
func (s Store) List(ctx context.Context, game string) ([]Entry, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`select game, code, first_seen, server, rewards from notified_code
		where game = ?
		order by first_seen desc, code asc`,
		game,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var e Entry
		var firstSeen int64
		err := rows.Scan(&e.Game, &e.Code, &firstSeen, &e.Server, &e.Rewards)
		if err != nil {
			return nil, err
		}
		e.FirstSeen = time.Unix(firstSeen, 0)
		out = append(out, e)
	}
	return out, rows.Err()
}
