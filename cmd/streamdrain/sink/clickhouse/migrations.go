package clickhouse

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ch "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const tablePlaceholder = "__TABLE_FULL__"

// renderMigrations returns every embedded migration with the table name filled in, keyed by file name.
func renderMigrations(fullTable string) (map[string]string, error) {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		b, err := migrationFS.ReadFile("migrations/" + e.Name())
		if err != nil {
			return nil, err
		}
		out[e.Name()] = strings.ReplaceAll(string(b), tablePlaceholder, fullTable)
	}
	return out, nil
}

// runMigrations writes the rendered migrations to a temp dir and applies them via goose.
func runMigrations(opts *ch.Options, fullTable string) error {
	db := ch.OpenDB(opts)
	defer func() { _ = db.Close() }()
	if err := db.Ping(); err != nil {
		return err
	}

	rendered, err := renderMigrations(fullTable)
	if err != nil {
		return err
	}
	tmpDir, err := os.MkdirTemp("", "streamdrain_ch_mig_*")
	if err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()
	for name, content := range rendered {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte(content), 0o600); err != nil {
			return err
		}
	}

	// the rendered files live on disk, not in any embedded FS
	goose.SetBaseFS(nil)
	if err := goose.SetDialect("clickhouse"); err != nil {
		return err
	}
	goose.SetTableName("streamdrain_db_version")
	if err := goose.Up(db, tmpDir); err != nil {
		return fmt.Errorf("goose up failed: %w", err)
	}
	return nil
}
