package postgres

import (
	"strings"
	"testing"
	"testing/fstest"
)

func migrationFS(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, body := range files {
		fsys["sql/migrations/"+name] = &fstest.MapFile{Data: []byte(body)}
	}
	return fsys
}

func TestLoadMigrations_Embedded(t *testing.T) {
	migrations, err := loadMigrations(migrationsFS)
	if err != nil {
		t.Fatalf("load embedded migrations: %v", err)
	}
	if len(migrations) == 0 {
		t.Fatal("expected at least one embedded migration")
	}

	for i, m := range migrations {
		if m.UpSQL == "" || m.DownSQL == "" {
			t.Fatalf("migration %d_%s missing up or down body", m.Version, m.Name)
		}
		if i > 0 && migrations[i-1].Version >= m.Version {
			t.Fatalf("migrations not sorted: %d before %d", migrations[i-1].Version, m.Version)
		}
	}

	if !strings.Contains(migrations[0].UpSQL, "beer_orders") {
		t.Fatal("first migration should create beer_orders")
	}
}

func TestLoadMigrations_PairsUpAndDown(t *testing.T) {
	fsys := migrationFS(map[string]string{
		"0002_add_index.up.sql":      "CREATE INDEX idx_t ON t (c);",
		"0001_create_table.up.sql":   "CREATE TABLE t (c INT);",
		"0001_create_table.down.sql": "DROP TABLE t;",
		"0002_add_index.down.sql":    "DROP INDEX idx_t;",
	})

	migrations, err := loadMigrations(fsys)
	if err != nil {
		t.Fatalf("load migrations: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[0].Name != "create_table" {
		t.Fatalf("unexpected first migration: %+v", migrations[0])
	}
	if migrations[1].Version != 2 {
		t.Fatalf("unexpected ordering: %+v", migrations[1])
	}
}

func TestLoadMigrations_Errors(t *testing.T) {
	cases := map[string]map[string]string{
		"missing down": {
			"0001_create_table.up.sql": "CREATE TABLE t (c INT);",
		},
		"invalid file name": {
			"create_table.sql": "CREATE TABLE t (c INT);",
		},
		"empty body": {
			"0001_create_table.up.sql":   "   ",
			"0001_create_table.down.sql": "DROP TABLE t;",
		},
		"name mismatch": {
			"0001_create_table.up.sql": "CREATE TABLE t (c INT);",
			"0001_other_name.down.sql": "DROP TABLE t;",
		},
		"no files": {},
	}

	for name, files := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := loadMigrations(migrationFS(files)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
