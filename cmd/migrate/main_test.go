package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"cryptoview/internal/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestLoadMigrations(t *testing.T) {
	migrations, err := loadMigrations(migrationsFS)
	if err != nil {
		t.Fatalf("unexpected error loading embedded migrations: %v", err)
	}
	if len(migrations) < 2 {
		t.Fatalf("expected at least 2 migrations, got %d", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[0].Name != "create_candles" {
		t.Fatalf("unexpected first migration %d %s", migrations[0].Version, migrations[0].Name)
	}
	if migrations[1].Version != 2 {
		t.Fatalf("expected second migration version 2, got %d", migrations[1].Version)
	}
	if !strings.Contains(migrations[0].UpSQL, "CREATE TABLE IF NOT EXISTS candles") || migrations[0].DownSQL == "" {
		t.Fatal("expected candles table in first migration")
	}
}

func TestLoadMigrationsRejectsBadSets(t *testing.T) {
	cases := map[string]fstest.MapFS{
		"missing down": {
			"migrations/0001_a.up.sql": {Data: []byte("SELECT 1")},
		},
		"bad name": {
			"migrations/first.up.sql": {Data: []byte("SELECT 1")},
		},
		"empty file": {
			"migrations/0001_a.up.sql":   {Data: []byte("  ")},
			"migrations/0001_a.down.sql": {Data: []byte("SELECT 1")},
		},
		"conflicting names": {
			"migrations/0001_a.up.sql":   {Data: []byte("SELECT 1")},
			"migrations/0001_b.down.sql": {Data: []byte("SELECT 1")},
		},
		"no files": {},
	}
	for name, fsys := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := loadMigrations(fsys); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParseArgs(t *testing.T) {
	cases := []struct {
		args  []string
		want  command
		isErr bool
	}{
		{args: []string{"up"}, want: command{name: "up", steps: 1}},
		{args: []string{"down"}, want: command{name: "down", steps: 1}},
		{args: []string{"down", "3"}, want: command{name: "down", steps: 3}},
		{args: []string{"version"}, want: command{name: "version", steps: 1}},
		{args: []string{"down", "0"}, isErr: true},
		{args: []string{"sideways"}, isErr: true},
		{args: nil, isErr: true},
	}
	for _, tc := range cases {
		got, err := parseArgs(tc.args)
		if tc.isErr {
			if err == nil {
				t.Fatalf("%v: expected error", tc.args)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("%v: got %+v, %v", tc.args, got, err)
		}
	}
}

func TestApplyUpSkipsApplied(t *testing.T) {
	conn := &fakeDB{applied: []int64{1}}
	migrations := []migration{
		{Version: 1, Name: "one", UpSQL: "UP 1", DownSQL: "DOWN 1"},
		{Version: 2, Name: "two", UpSQL: "UP 2", DownSQL: "DOWN 2"},
	}

	n, err := applyUp(context.Background(), conn, migrations)
	if err != nil {
		t.Fatalf("applyUp: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 applied, got %d", n)
	}
	if len(conn.execs) != 2 || conn.execs[0] != "UP 2" || !strings.HasPrefix(conn.execs[1], "INSERT INTO schema_migrations") {
		t.Fatalf("unexpected statements: %v", conn.execs)
	}
	if conn.commits != 1 || conn.rollbacks != 0 {
		t.Fatalf("expected one commit, got %d commits %d rollbacks", conn.commits, conn.rollbacks)
	}
}

func TestApplyUpRollsBackOnFailure(t *testing.T) {
	conn := &fakeDB{failOn: "UP 1"}
	migrations := []migration{{Version: 1, Name: "one", UpSQL: "UP 1", DownSQL: "DOWN 1"}}

	n, err := applyUp(context.Background(), conn, migrations)
	if err == nil || n != 0 {
		t.Fatalf("expected failure, got n=%d err=%v", n, err)
	}
	if conn.rollbacks != 1 || conn.commits != 0 {
		t.Fatalf("expected rollback, got %d commits %d rollbacks", conn.commits, conn.rollbacks)
	}
}

func TestApplyDown(t *testing.T) {
	conn := &fakeDB{applied: []int64{2}}
	migrations := []migration{
		{Version: 1, Name: "one", UpSQL: "UP 1", DownSQL: "DOWN 1"},
		{Version: 2, Name: "two", UpSQL: "UP 2", DownSQL: "DOWN 2"},
	}

	n, err := applyDown(context.Background(), conn, migrations, 1)
	if err != nil || n != 1 {
		t.Fatalf("applyDown: n=%d err=%v", n, err)
	}
	if conn.execs[0] != "DOWN 2" {
		t.Fatalf("expected version 2 rolled back, got %v", conn.execs)
	}

	if _, err := applyDown(context.Background(), &fakeDB{applied: []int64{9}}, migrations, 1); err == nil {
		t.Fatal("expected error for unknown applied version")
	}
}

func TestCurrentVersionEmpty(t *testing.T) {
	v, name, err := currentVersion(context.Background(), &fakeDB{})
	if err != nil || v != 0 || name != "" {
		t.Fatalf("expected no version, got %d %q %v", v, name, err)
	}
}

func TestRunRequiresDatabaseURL(t *testing.T) {
	origLoadEnv, origLoadConfig := loadEnvFunc, loadConfigFunc
	defer func() { loadEnvFunc, loadConfigFunc = origLoadEnv, origLoadConfig }()
	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config { return &config.Config{} }

	err := run(context.Background(), []string{"up"})
	if err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("expected missing url error, got %v", err)
	}
}

func TestRunVersion(t *testing.T) {
	origLoadEnv, origLoadConfig, origOpen := loadEnvFunc, loadConfigFunc, openDBFunc
	defer func() { loadEnvFunc, loadConfigFunc, openDBFunc = origLoadEnv, origLoadConfig, origOpen }()
	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config { return &config.Config{DatabaseURL: "postgres://test"} }
	conn := &fakeDB{}
	closed := false
	openDBFunc = func(context.Context, string) (migrationDB, func(), error) {
		return conn, func() { closed = true }, nil
	}

	if err := run(context.Background(), []string{"version"}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !closed {
		t.Fatal("expected connection closed")
	}
	if len(conn.execs) != 1 || !strings.Contains(conn.execs[0], "schema_migrations") {
		t.Fatalf("expected schema_migrations bootstrap, got %v", conn.execs)
	}
}

type fakeDB struct {
	applied   []int64
	failOn    string
	execs     []string
	commits   int
	rollbacks int
}

func (d *fakeDB) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	d.execs = append(d.execs, sql)
	if d.failOn != "" && sql == d.failOn {
		return pgconn.CommandTag{}, errors.New("syntax error")
	}
	return pgconn.CommandTag{}, nil
}

func (d *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return &fakeRows{versions: d.applied}, nil
}

func (d *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return fakeRow{}
}

func (d *fakeDB) Begin(context.Context) (pgx.Tx, error) {
	return &fakeTx{db: d}, nil
}

type fakeTx struct {
	pgx.Tx
	db *fakeDB
}

func (tx *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return tx.db.Exec(ctx, sql, args...)
}

func (tx *fakeTx) Commit(context.Context) error {
	tx.db.commits++
	return nil
}

func (tx *fakeTx) Rollback(context.Context) error {
	tx.db.rollbacks++
	return nil
}

type fakeRows struct {
	pgx.Rows
	versions []int64
	i        int
}

func (r *fakeRows) Next() bool {
	r.i++
	return r.i <= len(r.versions)
}

func (r *fakeRows) Scan(dest ...any) error {
	*dest[0].(*int64) = r.versions[r.i-1]
	return nil
}

func (r *fakeRows) Err() error { return nil }
func (r *fakeRows) Close()     {}

type fakeRow struct{}

func (fakeRow) Scan(...any) error { return pgx.ErrNoRows }
