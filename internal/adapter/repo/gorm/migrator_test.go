package gormrepo

import (
	"testing"
	"testing/fstest"

	"villagelife/db"
)

func TestMigrationFiles_SortedSQLOnly(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_more.sql":   {Data: []byte("SELECT 1;")},
		"0001_init.sql":   {Data: []byte("SELECT 1;")},
		"README.md":       {Data: []byte("notes")},
		"nested/0003.sql": {Data: []byte("SELECT 1;")},
	}
	got, err := migrationFiles(fsys)
	if err != nil {
		t.Fatalf("migration files: %v", err)
	}
	if len(got) != 2 || got[0] != "0001_init.sql" || got[1] != "0002_more.sql" {
		t.Fatalf("unexpected files: %v", got)
	}
}

func TestEmbeddedMigrationsAreListed(t *testing.T) {
	got, err := migrationFiles(db.Migrations())
	if err != nil {
		t.Fatalf("embedded migrations: %v", err)
	}
	if len(got) == 0 || got[0] != "0001_init.sql" {
		t.Fatalf("expected 0001_init.sql first, got %v", got)
	}
}
