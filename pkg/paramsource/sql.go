package paramsource

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	_ "github.com/lib/pq"              // postgres driver
	_ "modernc.org/sqlite"             // sqlite driver
)

// DefaultTable is the table SQLSource reads when none is configured.
const DefaultTable = "model_params"

// SQLSource reads parameter files from a versioned SQL table. Several versions
// of the same file may be stored; Get serves the highest semantic version.
// Rows whose version does not parse are ignored.
type SQLSource struct {
	db     *sql.DB
	driver string
	table  string
}

// NewSQLSource wraps an open database. driver is "sqlite", "postgres" (lib/pq)
// or "pgx" and selects the placeholder and column syntax.
func NewSQLSource(db *sql.DB, driver, table string) *SQLSource {
	if table == "" {
		table = DefaultTable
	}
	return &SQLSource{db: db, driver: driver, table: table}
}

// OpenSQLSource opens dsn with driver and returns a source over it.
func OpenSQLSource(driver, dsn, table string) (*SQLSource, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sql dsn is required")
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	return NewSQLSource(db, driver, table), nil
}

func (s *SQLSource) Name() string { return "sql:" + s.driver + "/" + s.table }

func (s *SQLSource) postgres() bool {
	return s.driver == "postgres" || s.driver == "pgx"
}

func (s *SQLSource) ph(n int) string {
	if s.postgres() {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// Migrate creates the parameter table if it does not exist.
func (s *SQLSource) Migrate(ctx context.Context) error {
	blob := "BLOB"
	if s.postgres() {
		blob = "BYTEA"
	}
	schema := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	name TEXT NOT NULL,
	version TEXT NOT NULL,
	data %s NOT NULL,
	created_at TIMESTAMP NOT NULL,
	PRIMARY KEY (name, version)
)`, s.table, blob)
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate %s: %w", s.table, err)
	}
	return nil
}

// Put stores data as the given version of file, replacing an existing row
// with the same name and version.
func (s *SQLSource) Put(ctx context.Context, file, version string, data []byte) error {
	if _, err := semver.NewVersion(version); err != nil {
		return fmt.Errorf("invalid version %q: %w", version, err)
	}
	name, err := cleanFile(file)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (name, version, data, created_at)
		VALUES (%s, %s, %s, %s)
		ON CONFLICT (name, version) DO UPDATE
		SET data = excluded.data, created_at = excluded.created_at`,
		s.table, s.ph(1), s.ph(2), s.ph(3), s.ph(4))
	_, err = s.db.ExecContext(ctx, query, name, version, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("put %s@%s: %w", name, version, err)
	}
	return nil
}

func (s *SQLSource) Get(ctx context.Context, file string) ([]byte, error) {
	name, err := cleanFile(file)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT version, data FROM %s WHERE name = %s", s.table, s.ph(1))
	rows, err := s.db.QueryContext(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", name, err)
	}
	defer func() { _ = rows.Close() }()

	type versioned struct {
		v    *semver.Version
		data []byte
	}
	var found []versioned
	for rows.Next() {
		var verStr string
		var data []byte
		if err := rows.Scan(&verStr, &data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", name, err)
		}
		v, err := semver.NewVersion(strings.TrimSpace(verStr))
		if err != nil {
			continue
		}
		found = append(found, versioned{v: v, data: data})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query %s: %w", name, err)
	}
	if len(found) == 0 {
		return nil, notFound(s.Name(), name)
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].v.GreaterThan(found[j].v)
	})
	return found[0].data, nil
}

// Close closes the underlying database.
func (s *SQLSource) Close() error {
	return s.db.Close()
}
