package configlibsql

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Struct points at a database, File is either a local sqlite path, ":memory:"
// or a libsql:// / https:// url of a remote libsql server.
type Struct struct {
	File      string `json:"file"`
	AuthToken string `json:"auth_token"`
}

func (config Struct) remote() bool {
	return strings.HasPrefix(config.File, "libsql://") ||
		strings.HasPrefix(config.File, "https://") ||
		strings.HasPrefix(config.File, "http://")
}

func (config Struct) OpenDB() (*sql.DB, error) {
	if config.File == "" {
		return nil, fmt.Errorf("a path was not specified")
	}

	if config.remote() {
		dsn := config.File
		if config.AuthToken != "" {
			dsn = fmt.Sprintf("%s?authToken=%s", dsn, config.AuthToken)
		}
		return sql.Open("libsql", dsn)
	}

	dbpath := config.File
	if dbpath != ":memory:" {
		err := os.MkdirAll(filepath.Dir(dbpath), 0755)
		if err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", dbpath)
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" databases alive and avoids
	// SQLITE_BUSY on concurrent writers.
	db.SetMaxOpenConns(1)
	if dbpath != ":memory:" {
		_, err = db.Exec("PRAGMA journal_mode=WAL")
		if err != nil {
			db.Close()
			return nil, err
		}
	}

	return db, nil
}
