package store

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// BootstrapOptions describes the empty database pair created by Bootstrap.
type BootstrapOptions struct {
	Addressing Addressing
	Contexts   []string
	Folders    []string
}

// Bootstrap creates a fresh primary store and search index in the layout
// vimango uses, seeded with the reserved "none" containers plus the named
// ones. It is meant for trying the bridge out and for tests; it refuses to
// touch existing files.
func Bootstrap(cfg Config, opts BootstrapOptions) error {
	if cfg.MainDB == "" || cfg.IndexDB == "" {
		return fmt.Errorf("bootstrap: both database paths are required")
	}
	for _, p := range []string{cfg.MainDB, cfg.IndexDB} {
		if _, err := os.Stat(p); err == nil {
			return fmt.Errorf("bootstrap: %s already exists", p)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("bootstrap: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return fmt.Errorf("bootstrap: create dir: %w", err)
		}
	}

	if err := bootstrapPrimary(cfg.MainDB, opts); err != nil {
		return fmt.Errorf("bootstrap primary store: %w", err)
	}
	if err := bootstrapIndex(cfg.IndexDB); err != nil {
		return fmt.Errorf("bootstrap search index: %w", err)
	}
	return nil
}

func bootstrapPrimary(path string, opts BootstrapOptions) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(primarySchema(opts.Addressing)); err != nil {
		return err
	}

	for _, kind := range []ContainerKind{KindContext, KindFolder} {
		names := opts.Contexts
		if kind == KindFolder {
			names = opts.Folders
		}
		if err := seedContainers(db, kind, opts.Addressing, names); err != nil {
			return err
		}
	}
	return nil
}

func seedContainers(db *sql.DB, kind ContainerKind, a Addressing, names []string) error {
	all := append([]string{NoneTitle}, names...)
	for i, name := range all {
		if i > 0 && name == NoneTitle {
			continue
		}
		tid := int64(i) + NoneTID
		id := NoneUUID
		if i > 0 {
			id = uuid.NewString()
		}

		var err error
		if a.usesUUID() {
			_, err = db.Exec(
				fmt.Sprintf(`INSERT INTO %s (tid, uuid, title, star, created, modified, deleted)
				 VALUES (?, ?, ?, 0, datetime('now'), datetime('now'), 0)`, kind.table()),
				tid, id, name,
			)
		} else {
			_, err = db.Exec(
				fmt.Sprintf(`INSERT INTO %s (tid, title, star, created, modified, deleted)
				 VALUES (?, ?, 0, datetime('now'), datetime('now'), 0)`, kind.table()),
				tid, name,
			)
		}
		if err != nil {
			return fmt.Errorf("seed %s %q: %w", kind, name, err)
		}
	}
	return nil
}

func primarySchema(a Addressing) string {
	containerKey := ""
	if a.usesUUID() {
		containerKey = "uuid TEXT UNIQUE,"
	}

	var taskRefs []string
	if a.usesTID() {
		taskRefs = append(taskRefs,
			"context_tid INTEGER DEFAULT 1,",
			"folder_tid  INTEGER DEFAULT 1,",
		)
	}
	if a.usesUUID() {
		taskRefs = append(taskRefs,
			"context_uuid TEXT,",
			"folder_uuid  TEXT,",
		)
	}

	var b strings.Builder
	for _, table := range []string{"context", "folder"} {
		fmt.Fprintf(&b, `
		CREATE TABLE IF NOT EXISTS %s (
			id       INTEGER PRIMARY KEY,
			tid      INTEGER UNIQUE,
			%s
			title    TEXT NOT NULL,
			star     BOOLEAN DEFAULT FALSE,
			created  TEXT,
			modified TEXT,
			deleted  BOOLEAN DEFAULT FALSE
		);
		`, table, containerKey)
	}
	fmt.Fprintf(&b, `
		CREATE TABLE IF NOT EXISTS task (
			id        INTEGER PRIMARY KEY,
			tid       INTEGER UNIQUE,
			title     TEXT NOT NULL,
			note      TEXT,
			%s
			star      BOOLEAN DEFAULT FALSE,
			added     TEXT,
			modified  TEXT,
			completed TEXT,
			deleted   BOOLEAN DEFAULT FALSE,
			archived  BOOLEAN DEFAULT FALSE
		);

		CREATE INDEX IF NOT EXISTS idx_task_tid ON task(tid);
		CREATE INDEX IF NOT EXISTS idx_task_modified ON task(modified DESC);
	`, strings.Join(taskRefs, "\n\t\t\t"))
	return b.String()
}

func bootstrapIndex(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec(`CREATE VIRTUAL TABLE IF NOT EXISTS fts USING fts5(title, note, tag, tid UNINDEXED)`)
	return err
}
