// Package store implements the EAV storage backend for gridbase over
// SQLite, PostgreSQL and MySQL. Bases, tables, columns, rows and views are
// ordinary relational rows; cell values live in grid_cell keyed by
// (row_id, column_id) with one text slot and one numeric slot.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/gridbase/internal/query"
	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// DatabaseFile is the SQLite database created inside Config.DataDir.
const DatabaseFile = "gridbase.db"

const sqlitePragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

var _ types.Engine = (*Backend)(nil)

// Backend implements types.Engine on a SQL database.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	dialect  query.Dialect
	db       *sqlx.DB
	log      *logrus.Entry

	// seed returns the faker seed for a generation run.
	seed func() uint64

	// chunkHook runs inside each generation chunk transaction before commit.
	chunkHook func(chunk int) error
}

// NewBackend creates a detached backend. Call Attach with a Config to
// connect it.
func NewBackend() *Backend {
	return &Backend{
		log:  logrus.NewEntry(logrus.StandardLogger()),
		seed: func() uint64 { return uint64(time.Now().UnixNano()) },
	}
}

// SetLogger replaces the backend's logger.
func (b *Backend) SetLogger(log *logrus.Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.log = log
}

// Attach opens the database named by config and creates the schema if it
// does not exist. Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	dialect, err := query.DialectFor(config.Backend)
	if err != nil {
		return err
	}

	dsn, err := dataSourceName(dialect, config)
	if err != nil {
		return err
	}
	db, err := sqlx.Open(dialect.DriverName(), dsn)
	if err != nil {
		return fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == query.SQLite {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("connect %s: %w", dialect, classify(err))
	}
	if err := createSchema(db, dialect); err != nil {
		db.Close()
		return fmt.Errorf("create schema: %w", err)
	}

	b.db = db
	b.dialect = dialect
	b.config = config
	b.attached = true
	b.log.WithField("backend", dialect.String()).Debug("attached")
	return nil
}

// Detach closes the database. Idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	b.attached = false
	db := b.db
	b.db = nil
	if err := db.Close(); err != nil {
		return err
	}
	return nil
}

// conn returns the database handle, or ErrDetached.
func (b *Backend) conn() (*sqlx.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}
	return b.db, nil
}

func (b *Backend) logger() *logrus.Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.log
}

// dataSourceName builds the driver DSN. SQLite opens DatabaseFile inside
// DataDir, creating the directory. MySQL DSNs are parsed so a malformed one
// fails before the first connection.
func dataSourceName(d query.Dialect, config types.Config) (string, error) {
	switch d {
	case query.SQLite:
		dataDir := config.DataDir
		if dataDir == "" {
			dataDir = "."
		}
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return "", fmt.Errorf("create data dir: %w", err)
		}
		return filepath.Join(dataDir, DatabaseFile) + sqlitePragmas, nil
	case query.MySQL:
		cfg, err := mysql.ParseDSN(config.DSN)
		if err != nil {
			return "", fmt.Errorf("parse mysql dsn: %w", err)
		}
		return cfg.FormatDSN(), nil
	default:
		return config.DSN, nil
	}
}
