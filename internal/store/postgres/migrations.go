package postgres

import (
	"cmp"
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"slices"
	"strconv"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Schema files are named <version>_<description>.sql and applied in version
// order, each in its own transaction. Applied versions are recorded in
// schema_migrations, which the first file creates.
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrationLockKey identifies the advisory lock held while migrating, so
// replicas starting together apply each file once.
const migrationLockKey int64 = 0x6f7270756c7365 // "orpulse"

var migrationName = regexp.MustCompile(`^(\d+)_[a-z0-9_]+\.sql$`)

type migration struct {
	version int
	file    string
	sql     string
}

// loadMigrations reads the schema files at the root of fsys sorted by version.
// Misnamed files and duplicate versions are errors.
func loadMigrations(fsys fs.FS) ([]migration, error) {
	files, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}

	seen := make(map[int]string, len(files))
	migrations := make([]migration, 0, len(files))
	for _, file := range files {
		match := migrationName.FindStringSubmatch(file)
		if match == nil {
			return nil, fmt.Errorf("migration %q: name must be <version>_<description>.sql", file)
		}
		version, err := strconv.Atoi(match[1])
		if err != nil {
			return nil, fmt.Errorf("migration %q: %w", file, err)
		}
		if other, dup := seen[version]; dup {
			return nil, fmt.Errorf("migrations %q and %q share version %d", other, file, version)
		}
		seen[version] = file

		body, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %q: %w", file, err)
		}
		migrations = append(migrations, migration{version: version, file: file, sql: string(body)})
	}

	slices.SortFunc(migrations, func(a, b migration) int { return cmp.Compare(a.version, b.version) })
	return migrations, nil
}

// runMigrations applies the embedded schema files not yet recorded in
// schema_migrations.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	dir, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}
	migrations, err := loadMigrations(dir)
	if err != nil {
		return err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire migration connection: %w", mapPostgresError(err))
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock($1)`, migrationLockKey); err != nil {
		return fmt.Errorf("failed to take migration lock: %w", mapPostgresError(err))
	}
	defer func() {
		if _, err := conn.Exec(context.WithoutCancel(ctx), `SELECT pg_advisory_unlock($1)`, migrationLockKey); err != nil {
			log.Warn().Err(err).Msg("Failed to release migration lock")
		}
	}()

	applied, err := appliedVersions(ctx, conn)
	if err != nil {
		return err
	}

	pending := 0
	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		if err := applyMigration(ctx, conn, m); err != nil {
			return err
		}
		pending++
	}

	log.Info().Int("applied", pending).Int("total", len(migrations)).Msg("Database schema up to date")
	return nil
}

// appliedVersions returns the recorded versions. A database without
// schema_migrations has none.
func appliedVersions(ctx context.Context, conn *pgxpool.Conn) (map[int]bool, error) {
	rows, err := conn.Query(ctx, `SELECT version FROM schema_migrations`)
	if isUndefinedTable(err) {
		return map[int]bool{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", mapPostgresError(err))
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan schema_migrations: %w", err)
		}
		applied[version] = true
	}

	if err := rows.Err(); isUndefinedTable(err) {
		return map[int]bool{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", mapPostgresError(err))
	}
	return applied, nil
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable
}

func applyMigration(ctx context.Context, conn *pgxpool.Conn, m migration) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("migration %s: %w", m.file, mapPostgresError(err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx, m.sql); err != nil {
		return fmt.Errorf("migration %s: %w", m.file, mapPostgresError(err))
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.version); err != nil {
		return fmt.Errorf("migration %s: failed to record version: %w", m.file, mapPostgresError(err))
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("migration %s: %w", m.file, mapPostgresError(err))
	}

	log.Info().Int("version", m.version).Str("file", m.file).Msg("Applied migration")
	return nil
}
