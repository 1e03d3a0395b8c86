package migrate_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/itqan-platform/itqan-backend/pkg/config"
	"github.com/itqan-platform/itqan-backend/pkg/migrate"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file matching %s", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestMigrationsContainConstraints(t *testing.T) {
	cases := map[string][]string{
		"*_create_accounts.sql": {
			"CONSTRAINT accounts_user_id_key UNIQUE (user_id)",
			"CHECK (balance >= 0)",
			"DROP TABLE IF EXISTS accounts",
		},
		"*_create_ledger_entries.sql": {
			"CONSTRAINT ledger_entries_account_seq_key UNIQUE (account_id, seq)",
			"FOREIGN KEY (account_id) REFERENCES accounts(id)",
			"DROP TABLE IF EXISTS ledger_entries",
		},
		"*_create_ledger_entries_reference_key.sql": {
			"ON ledger_entries (account_id, kind, reference_id)",
			"WHERE reference_id IS NOT NULL",
		},
		"*_create_document_sequences.sql": {
			"CONSTRAINT document_sequences_pkey PRIMARY KEY (prefix)",
		},
		"*_create_invoices.sql": {
			"CONSTRAINT invoices_number_key UNIQUE (number)",
			"tax_rate NUMERIC(5,4) NOT NULL",
		},
		"*_create_badges.sql": {
			"CONSTRAINT badges_subject_type_key UNIQUE (subject_id, type)",
		},
		"*_create_favorites.sql": {
			"CONSTRAINT favorites_user_target_key UNIQUE (user_id, target_id, target_kind)",
		},
	}
	for pattern, checks := range cases {
		content := readMigration(t, pattern)
		for _, sub := range checks {
			if !strings.Contains(content, sub) {
				t.Errorf("%s: missing expected statement %q", pattern, sub)
			}
		}
	}
}

func TestValidateDir(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir: %v", err)
	}
}

func TestValidateDirReportsEveryProblem(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"bad-name.sql":                    "-- +goose Up\n-- +goose Down\n",
		"20250101000000_missing_down.sql": "-- +goose Up\nSELECT 1;\n",
		"20250101000001_unbalanced.sql":   "-- +goose Up\n-- +goose StatementBegin\n-- +goose Down\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	err := migrate.ValidateDir(dir)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"bad-name.sql", "missing_down", "unbalanced"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %s: %v", want, err)
		}
	}
}

func TestCreateSQLMigrationSortsAfterExisting(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "20300101000000_future.sql")
	if err := os.WriteFile(existing, []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	path, err := migrate.CreateSQLMigration(dir, "Add Invoice Notes!", time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("CreateSQLMigration: %v", err)
	}
	if got := filepath.Base(path); got != "20300101000001_add_invoice_notes.sql" {
		t.Fatalf("unexpected file name %s", got)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("created migration should validate: %v", err)
	}
	if _, err := migrate.CreateSQLMigration(dir, "!!!", time.Now()); err == nil {
		t.Fatal("expected empty sanitized name to fail")
	}
}

func TestMigrationsApplyOnSQLite(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "migrate.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	dialect := migrate.Dialect(config.DBConfig{Driver: config.DriverSQLite})
	if err := migrate.RunEmbedded(ctx, db, dialect, "up"); err != nil {
		t.Fatalf("goose up: %v", err)
	}

	for _, table := range []string{"accounts", "ledger_entries", "document_sequences", "invoices", "freelancer_profiles", "badges", "favorites"} {
		var name string
		if err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name); err != nil {
			t.Fatalf("table %s missing after up: %v", table, err)
		}
	}

	if _, err := db.Exec(`INSERT INTO accounts (id, user_id, balance) VALUES ('a1', 'u1', -1)`); err == nil {
		t.Fatal("expected negative balance to violate the check constraint")
	}

	if err := migrate.Run(ctx, db, dialect, "migrations", "reset"); err != nil {
		t.Fatalf("goose reset: %v", err)
	}
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'accounts'`).Scan(&count); err != nil {
		t.Fatalf("count tables: %v", err)
	}
	if count != 0 {
		t.Fatal("expected accounts table to be dropped by reset")
	}
}
