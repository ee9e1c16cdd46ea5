package types

import (
	"errors"
	"fmt"
	"time"
)

// Config holds backend selection and parameters for Engine.Attach.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// DSN is the connection string for postgres and mysql. SQLite ignores it
	// and opens gridbase.db inside DataDir.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`

	// StrictNumbers rejects unparseable input for NUMBER cells with
	// ErrInvalidNumber instead of clearing the cell.
	StrictNumbers bool `json:"strict_numbers,omitempty" yaml:"strict_numbers,omitempty"`

	// Generate is the default batch policy for GenerateRows.
	Generate BatchPolicy `json:"generate" yaml:"generate"`
}

// Supported backend names.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMySQL    = "mysql"
)

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
	ErrDSNRequired    = errors.New("dsn is required for this backend")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite:   true,
	BackendPostgres: true,
	BackendMySQL:    true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Backend != BackendSQLite && c.DSN == "" {
		return ErrDSNRequired
	}
	return c.Generate.WithDefaults().Validate()
}

// Default batch policy values for bulk row generation.
const (
	DefaultChunkSize     = 250
	DefaultCellBatchSize = 500
	DefaultChunkTimeout  = 30 * time.Second

	// Upper bounds keep a single multi-row INSERT under every supported
	// driver's bind parameter limit.
	MaxChunkSize     = 10000
	MaxCellBatchSize = 5000
)

// BatchPolicy tunes bulk row generation. Zero fields take the defaults.
type BatchPolicy struct {
	ChunkSize     int           `json:"chunk_size" yaml:"chunk_size"`           // rows per transaction
	CellBatchSize int           `json:"cell_batch_size" yaml:"cell_batch_size"` // cells per INSERT statement
	ChunkTimeout  time.Duration `json:"chunk_timeout" yaml:"chunk_timeout"`     // per-chunk transaction timeout
}

// WithDefaults returns a copy with zero fields replaced by defaults.
func (p BatchPolicy) WithDefaults() BatchPolicy {
	if p.ChunkSize == 0 {
		p.ChunkSize = DefaultChunkSize
	}
	if p.CellBatchSize == 0 {
		p.CellBatchSize = DefaultCellBatchSize
	}
	if p.ChunkTimeout == 0 {
		p.ChunkTimeout = DefaultChunkTimeout
	}
	return p
}

// Validate rejects non-positive values and sizes above the maximums.
func (p BatchPolicy) Validate() error {
	if p.ChunkSize <= 0 || p.ChunkSize > MaxChunkSize {
		return fmt.Errorf("%w: chunk size %d (must be 1..%d)", ErrInvalidBatchPolicy, p.ChunkSize, MaxChunkSize)
	}
	if p.CellBatchSize <= 0 || p.CellBatchSize > MaxCellBatchSize {
		return fmt.Errorf("%w: cell batch size %d (must be 1..%d)", ErrInvalidBatchPolicy, p.CellBatchSize, MaxCellBatchSize)
	}
	if p.ChunkTimeout <= 0 {
		return fmt.Errorf("%w: chunk timeout %s", ErrInvalidBatchPolicy, p.ChunkTimeout)
	}
	return nil
}
