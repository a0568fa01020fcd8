package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"hoyocodes/internal/codes"
	"hoyocodes/internal/components/assert"
	"hoyocodes/internal/components/telemetry"
)

const (
	report_store_read_active = "store.read-active"
	report_store_write       = "store.write"
)

var ErrUnknownKind = errors.New("unknown snapshot kind")

// Kind names one of the three lists kept per game.
type Kind string

const (
	KindAll     Kind = "all"
	KindActive  Kind = "active"
	KindExpired Kind = "expired"
)

var Kinds = []Kind{KindAll, KindActive, KindExpired}

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Store keeps one folder per game below root, each holding
// {all,active,expired}.{json,txt}.
type Store struct {
	root string
	tel  telemetry.API
}

func NewStore(root string, tel telemetry.API) Store {
	assert.NotEmptyStr(root)
	assert.NotNil(tel)
	return Store{
		root: root,
		tel:  telemetry.NewScopedAPI("snapshot", tel),
	}
}

func (s Store) Dir(game string) string {
	return filepath.Join(s.root, game)
}

func (s Store) path(game string, kind Kind, ext string) string {
	return filepath.Join(s.Dir(game), fmt.Sprintf("%s.%s", kind, ext))
}

// ReadActiveCodes returns the set of codes in the game's active.json. A missing
// or unreadable snapshot yields an empty set, never an error.
func (s Store) ReadActiveCodes(game string) map[string]struct{} {
	set := map[string]struct{}{}

	list, err := s.Read(game, KindActive)
	if errors.Is(err, os.ErrNotExist) {
		return set
	}
	if err != nil {
		s.tel.ReportWarning(report_store_read_active, err, game)
		return set
	}
	for _, c := range list {
		set[c.Code] = struct{}{}
	}
	return set
}

// Read decodes one JSON snapshot of game.
func (s Store) Read(game string, kind Kind) ([]codes.Code, error) {
	contents, err := os.ReadFile(s.path(game, kind, "json"))
	if err != nil {
		return nil, err
	}
	var list []codes.Code
	err = json.Unmarshal(contents, &list)
	if err != nil {
		return nil, fmt.Errorf("decode %s snapshot of %s: %w", kind, game, err)
	}
	return list, nil
}

// Write replaces the six snapshot files of game. Every file is written to a
// temporary sibling first and renamed into place.
func (s Store) Write(game string, all []codes.Code) error {
	active, expired := codes.Split(all)
	lists := map[Kind][]codes.Code{
		KindAll:     all,
		KindActive:  active,
		KindExpired: expired,
	}

	err := os.MkdirAll(s.Dir(game), 0755)
	if err != nil {
		s.tel.ReportBroken(report_store_write, err, game)
		return err
	}

	for _, kind := range Kinds {
		list := lists[kind]
		if list == nil {
			list = []codes.Code{}
		}

		encoded, err := encodeJSON(list)
		if err != nil {
			s.tel.ReportBroken(report_store_write, err, game, kind)
			return err
		}
		err = writeAtomic(s.path(game, kind, "json"), encoded)
		if err != nil {
			s.tel.ReportBroken(report_store_write, err, game, kind)
			return err
		}

		text := strings.Join(codes.Strings(list), "\n")
		err = writeAtomic(s.path(game, kind, "txt"), []byte(text))
		if err != nil {
			s.tel.ReportBroken(report_store_write, err, game, kind)
			return err
		}
	}
	return nil
}

// Reset deletes the game folder and recreates it empty.
func (s Store) Reset(game string) error {
	err := os.RemoveAll(s.Dir(game))
	if err != nil {
		return err
	}
	return os.MkdirAll(s.Dir(game), 0755)
}

func encodeJSON(list []codes.Code) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "    ")
	err := encoder.Encode(list)
	if err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func writeAtomic(path string, contents []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(contents)
	if err != nil {
		tmp.Close()
		return err
	}
	err = tmp.Close()
	if err != nil {
		return err
	}
	err = os.Chmod(tmp.Name(), 0644)
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
