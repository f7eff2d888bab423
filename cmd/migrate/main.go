package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"cryptoview/internal/config"
	"cryptoview/internal/db"

	"github.com/charmbracelet/log"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/joho/godotenv"
)

const usage = "usage: migrate [up|down|version] [steps]"

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	loadEnvFunc    = godotenv.Load
	loadConfigFunc = config.Load
	openDBFunc     = func(ctx context.Context, url string) (migrationDB, func(), error) {
		pool, err := db.InitPostgres(ctx, url, 2)
		if err != nil {
			return nil, nil, err
		}
		return pool, pool.Close, nil
	}
)

var migrationName = regexp.MustCompile(`^migrations/([0-9]+)_([a-z0-9_]+)\.(up|down)\.sql$`)

// migrationDB is the part of *pgxpool.Pool the migrator needs.
type migrationDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type migration struct {
	Version int64
	Name    string
	UpSQL   string
	DownSQL string
}

type command struct {
	name  string
	steps int
}

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		log.Error("migrate failed", "err", err)
		os.Exit(1)
	}
}

func parseArgs(args []string) (command, error) {
	if len(args) == 0 {
		return command{}, errors.New(usage)
	}
	cmd := command{name: args[0], steps: 1}
	switch cmd.name {
	case "up", "version":
		return cmd, nil
	case "down":
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				return command{}, fmt.Errorf("invalid down steps %q", args[1])
			}
			cmd.steps = n
		}
		return cmd, nil
	}
	return command{}, fmt.Errorf("unknown command %q; %s", cmd.name, usage)
}

func run(ctx context.Context, args []string) error {
	cmd, err := parseArgs(args)
	if err != nil {
		return err
	}
	if err := loadEnvFunc(); err != nil {
		log.Debug("no .env file loaded", "err", err)
	}
	cfg := loadConfigFunc()
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return errors.New("DATABASE_URL is required")
	}

	migrations, err := loadMigrations(migrationsFS)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	conn, closeConn, err := openDBFunc(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer closeConn()

	if err := ensureMigrationTable(ctx, conn); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	switch cmd.name {
	case "up":
		n, err := applyUp(ctx, conn, migrations)
		if err != nil {
			return err
		}
		log.Info("migrations applied", "count", n)
	case "down":
		n, err := applyDown(ctx, conn, migrations, cmd.steps)
		if err != nil {
			return err
		}
		log.Info("migrations rolled back", "count", n)
	case "version":
		version, name, err := currentVersion(ctx, conn)
		if err != nil {
			return fmt.Errorf("read current version: %w", err)
		}
		if version == 0 {
			log.Info("no migrations applied")
			return nil
		}
		log.Info("current version", "version", version, "name", name)
	}
	return nil
}

func ensureMigrationTable(ctx context.Context, conn migrationDB) error {
	_, err := conn.Exec(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version     BIGINT PRIMARY KEY,
    name        TEXT NOT NULL,
    applied_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`)
	return err
}

// loadMigrations pairs NNNN_name.up.sql with NNNN_name.down.sql and returns
// them in version order.
func loadMigrations(fsys fs.FS) ([]migration, error) {
	paths, err := fs.Glob(fsys, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, errors.New("no migration files found")
	}

	byVersion := make(map[int64]*migration)
	for _, p := range paths {
		parts := migrationName.FindStringSubmatch(p)
		if parts == nil {
			return nil, fmt.Errorf("invalid migration filename: %s", p)
		}
		version, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse version in %s: %w", p, err)
		}
		raw, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		body := strings.TrimSpace(string(raw))
		if body == "" {
			return nil, fmt.Errorf("empty migration file: %s", p)
		}

		m, ok := byVersion[version]
		if !ok {
			m = &migration{Version: version, Name: parts[2]}
			byVersion[version] = m
		} else if m.Name != parts[2] {
			return nil, fmt.Errorf("version %d has two names: %s and %s", version, m.Name, parts[2])
		}

		target := &m.UpSQL
		if parts[3] == "down" {
			target = &m.DownSQL
		}
		if *target != "" {
			return nil, fmt.Errorf("duplicate %s migration for version %d", parts[3], version)
		}
		*target = body
	}

	out := make([]migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.UpSQL == "" || m.DownSQL == "" {
			return nil, fmt.Errorf("migration %d needs both up and down files", m.Version)
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func queryVersions(ctx context.Context, conn migrationDB, sql string, args ...any) ([]int64, error) {
	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int64
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// inTx runs the statements in one transaction, rolling back on the first
// failure.
func inTx(ctx context.Context, conn migrationDB, stmts ...func(pgx.Tx) error) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if err := stmt(tx); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
	}
	return tx.Commit(ctx)
}

func applyUp(ctx context.Context, conn migrationDB, migrations []migration) (int, error) {
	versions, err := queryVersions(ctx, conn, `SELECT version FROM schema_migrations`)
	if err != nil {
		return 0, err
	}
	applied := make(map[int64]bool, len(versions))
	for _, v := range versions {
		applied[v] = true
	}

	count := 0
	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		err := inTx(ctx, conn,
			func(tx pgx.Tx) error {
				if _, err := tx.Exec(ctx, m.UpSQL); err != nil {
					return fmt.Errorf("version %d up: %w", m.Version, err)
				}
				return nil
			},
			func(tx pgx.Tx) error {
				_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.Version, m.Name)
				return err
			},
		)
		if err != nil {
			return count, err
		}
		log.Debug("applied migration", "version", m.Version, "name", m.Name)
		count++
	}
	return count, nil
}

func applyDown(ctx context.Context, conn migrationDB, migrations []migration, steps int) (int, error) {
	if steps <= 0 {
		return 0, errors.New("steps must be positive")
	}
	byVersion := make(map[int64]migration, len(migrations))
	for _, m := range migrations {
		byVersion[m.Version] = m
	}

	versions, err := queryVersions(ctx, conn, `SELECT version FROM schema_migrations ORDER BY version DESC LIMIT $1`, steps)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, v := range versions {
		m, ok := byVersion[v]
		if !ok {
			return count, fmt.Errorf("no source for applied version %d", v)
		}
		err := inTx(ctx, conn,
			func(tx pgx.Tx) error {
				if _, err := tx.Exec(ctx, m.DownSQL); err != nil {
					return fmt.Errorf("version %d down: %w", m.Version, err)
				}
				return nil
			},
			func(tx pgx.Tx) error {
				_, err := tx.Exec(ctx, `DELETE FROM schema_migrations WHERE version = $1`, m.Version)
				return err
			},
		)
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func currentVersion(ctx context.Context, conn migrationDB) (int64, string, error) {
	var version int64
	var name string
	err := conn.QueryRow(ctx, `SELECT version, name FROM schema_migrations ORDER BY version DESC LIMIT 1`).Scan(&version, &name)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, "", nil
	}
	return version, name, err
}
