package db

import (
	"context"
	"strings"
	"testing"
)

func TestParseDialect(t *testing.T) {
	cases := map[string]Dialect{
		"":           SQLite,
		"sqlite3":    SQLite,
		"Postgres":   Postgres,
		"postgresql": Postgres,
		"mariadb":    MySQL,
		"mysql":      MySQL,
	}
	for in, want := range cases {
		got, err := ParseDialect(in)
		if err != nil {
			t.Errorf("ParseDialect(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseDialect(%q): got %q, want %q", in, got, want)
		}
	}
	if _, err := ParseDialect("oracle"); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestDialect_Rebind(t *testing.T) {
	q := "SELECT a FROM t WHERE b = ? AND c = ?"
	if got := SQLite.Rebind(q); got != q {
		t.Errorf("sqlite rebind changed query: %q", got)
	}
	if got := MySQL.Rebind(q); got != q {
		t.Errorf("mysql rebind changed query: %q", got)
	}
	want := "SELECT a FROM t WHERE b = $1 AND c = $2"
	if got := Postgres.Rebind(q); got != want {
		t.Errorf("postgres rebind: got %q, want %q", got, want)
	}
}

func TestDialect_Contains(t *testing.T) {
	if got := SQLite.Contains("company_name"); got != "instr(company_name, ?) > 0" {
		t.Errorf("sqlite: %q", got)
	}
	if got := Postgres.Contains("company_name"); got != "strpos(company_name, ?) > 0" {
		t.Errorf("postgres: %q", got)
	}
	if got := MySQL.Contains("company_name"); got != "LOCATE(BINARY ?, company_name) > 0" {
		t.Errorf("mysql: %q", got)
	}
}

func TestSplitStatements(t *testing.T) {
	src := "-- comment\nCREATE TABLE a (x INT);\n\nCREATE INDEX i ON a (x);\n"
	got := splitStatements(src)
	if len(got) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(got), got)
	}
	if got[0] != "CREATE TABLE a (x INT)" {
		t.Errorf("first statement: %q", got[0])
	}
}

func TestSplitStatements_SemicolonInComment(t *testing.T) {
	src := "-- snapshot; replaced on every run.\nCREATE TABLE a (x INT);\n  -- trailing; note\nCREATE INDEX i ON a (x);"
	got := splitStatements(src)
	want := []string{"CREATE TABLE a (x INT)", "CREATE INDEX i ON a (x)"}
	if len(got) != len(want) {
		t.Fatalf("expected %d statements, got %d: %q", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("statement %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSplitStatements_EmbeddedMigrations(t *testing.T) {
	for _, d := range []Dialect{SQLite, Postgres, MySQL} {
		t.Run(string(d), func(t *testing.T) {
			b, err := migrationsFS.ReadFile("migrations/" + string(d) + ".sql")
			if err != nil {
				t.Fatalf("read migration: %v", err)
			}
			stmts := splitStatements(string(b))
			if len(stmts) == 0 {
				t.Fatal("no statements")
			}
			for i, stmt := range stmts {
				if !strings.HasPrefix(stmt, "CREATE ") {
					t.Errorf("statement %d does not start with CREATE: %q", i, stmt)
				}
			}
		})
	}
}

func TestConnectAndMigrate_SQLiteMemory(t *testing.T) {
	database, err := Connect(SQLite, ":memory:", Options{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	if err := Migrate(ctx, database, SQLite); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	// Idempotent on a second run.
	if err := Migrate(ctx, database, SQLite); err != nil {
		t.Fatalf("Migrate again: %v", err)
	}

	var n int
	if err := database.QueryRowContext(ctx, "SELECT COUNT(*) FROM ipo_schedules").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("expected empty table, got %d rows", n)
	}
}
