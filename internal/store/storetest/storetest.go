// Package storetest opens throwaway in-memory databases with the real
// migration SQL applied, for use in tests across packages.
package storetest

import (
	"database/sql"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// OpenDB returns an in-memory sqlite database with the full schema
// applied, closed automatically when the test finishes.
func OpenDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	// Every pooled connection would get its own :memory: database;
	// pin the pool to a single connection so the schema is shared.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	for _, path := range migrationFiles(t) {
		schema, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading migration %s: %v", path, err)
		}
		if _, err := db.Exec(string(schema)); err != nil {
			t.Fatalf("applying migration %s: %v", path, err)
		}
	}
	return db
}

func migrationFiles(t *testing.T) []string {
	t.Helper()

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot locate migrations directory")
	}
	dir := filepath.Join(filepath.Dir(file), "..", "..", "db", "migrations")

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading migrations directory: %v", err)
	}

	var files []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files
}
