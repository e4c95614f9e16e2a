package sql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-velar/velar/dialect"
)

// Driver adapts a database/sql.DB (or a *sql.DB wrapped by an external
// telemetry driver) to dialect.Driver. It is the concrete collaborator the
// query builder (package sql) and the schema synchronizer
// (dialect/sql/schema) both run against; everything below exists to
// satisfy that one interface, nothing more.
type Driver struct {
	Conn
	name string
}

// NewDriver builds a Driver from an already-open connection and the
// dialect name it speaks.
func NewDriver(name string, c Conn) *Driver {
	return &Driver{name: name, Conn: c}
}

// Open is a thin wrapper over database/sql.Open that returns a
// dialect.Driver instead of a bare *sql.DB.
func Open(name, dataSourceName string) (*Driver, error) {
	db, err := sql.Open(name, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: open %s: %w", name, err)
	}
	return NewDriver(name, Conn{db, name}), nil
}

// OpenDB wraps an already-open *sql.DB, useful when the caller configured
// the pool itself or is handing in a sqlmock-backed DB under test.
func OpenDB(name string, db *sql.DB) *Driver {
	return NewDriver(name, Conn{db, name})
}

// DB returns the underlying *sql.DB. Panics if the driver was built over
// something else, which cannot happen through Open/OpenDB.
func (d Driver) DB() *sql.DB {
	return d.ExecQuerier.(*sql.DB)
}

// Dialect reports the dialect name, tolerating a telemetry wrapper having
// prefixed it (e.g. "postgres+instrumented").
func (d Driver) Dialect() string {
	for _, known := range []string{dialect.Postgres, dialect.MySQL, dialect.SQLite} {
		if strings.HasPrefix(d.name, known) {
			return known
		}
	}
	return d.name
}

// Tx opens a transaction with the default options.
func (d *Driver) Tx(ctx context.Context) (dialect.Tx, error) {
	return d.BeginTx(ctx, nil)
}

// BeginTx opens a transaction with explicit *sql.TxOptions.
func (d *Driver) BeginTx(ctx context.Context, opts *TxOptions) (dialect.Tx, error) {
	tx, err := d.DB().BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: begin tx: %w", err)
	}
	return &Tx{Conn: Conn{tx, d.name}, Tx: tx}, nil
}

// Close releases the underlying pool.
func (d *Driver) Close() error { return d.DB().Close() }

var _ dialect.Driver = (*Driver)(nil)

// Tx is a dialect.Tx scoped to one database/sql.Tx.
type Tx struct {
	Conn
	driver.Tx
}

// gucSetting is one Postgres session setting queued by WithGUC to be
// applied with SET before the next statement runs on whatever connection
// ultimately serves it.
type gucSetting struct{ name, value string }

// gucContextKey is the context key under which queued settings travel.
type gucContextKey struct{}

// WithGUC queues a Postgres session setting (a "GUC", in Postgres's own
// terminology) to be applied with SET immediately before the next
// statement Conn runs with this context. On a pooled connection the
// setting is reverted with RESET (or SET ... = NULL on MySQL) once that
// statement's rows are released; inside a transaction it is applied on the
// transaction and no reset is issued. Stacking WithGUC calls on the same context
// queues multiple settings; the same name queued twice applies the later
// value and resets it only once.
func WithGUC(ctx context.Context, name, value string) context.Context {
	queued, _ := ctx.Value(gucContextKey{}).([]gucSetting)
	queued = append(queued, gucSetting{name: name, value: value})
	return context.WithValue(ctx, gucContextKey{}, queued)
}

// WithIntGUC is WithGUC for an integer-valued setting such as
// statement_timeout.
func WithIntGUC(ctx context.Context, name string, value int) context.Context {
	return WithGUC(ctx, name, strconv.Itoa(value))
}

// GUCFromContext returns the most recently queued value for name, if any.
func GUCFromContext(ctx context.Context, name string) (string, bool) {
	queued, _ := ctx.Value(gucContextKey{}).([]gucSetting)
	for i := len(queued) - 1; i >= 0; i-- {
		if queued[i].name == name {
			return queued[i].value, true
		}
	}
	return "", false
}

// gucNameRe restricts setting names to what Postgres accepts unquoted,
// since they are interpolated directly into a SET statement.
var gucNameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

func isValidGUCName(s string) bool {
	return s != "" && len(s) <= 128 && gucNameRe.MatchString(s)
}

// escapeGUCLiteral doubles embedded single quotes and backslashes so a
// setting's value can be interpolated into a SET statement's literal.
func escapeGUCLiteral(s string) string {
	if !strings.ContainsAny(s, `'\`) {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `''`)
	return r.Replace(s)
}

// ExecQuerier is the subset of *sql.DB / *sql.Tx / *sql.Conn that Conn
// needs to run a statement.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Conn implements dialect.ExecQuerier over an ExecQuerier, applying any
// GUCs queued on the context around each statement.
type Conn struct {
	ExecQuerier
	dialectName string
}

// Exec runs a statement that does not return rows.
func (c Conn) Exec(ctx context.Context, query string, args, v any) (rerr error) {
	argv, ok := args.([]any)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T, expected []any for args", args)
	}
	runner, revert, err := c.withGUCs(ctx)
	if err != nil {
		return fmt.Errorf("dialect/sql: exec: apply session settings: %w", err)
	}
	if revert != nil {
		defer func() { rerr = errors.Join(rerr, revert()) }()
	}
	switch dst := v.(type) {
	case nil:
		if _, err := runner.ExecContext(ctx, query, argv...); err != nil {
			return fmt.Errorf("dialect/sql: exec: %w", err)
		}
	case *sql.Result:
		res, err := runner.ExecContext(ctx, query, argv...)
		if err != nil {
			return fmt.Errorf("dialect/sql: exec: %w", err)
		}
		*dst = res
	default:
		return fmt.Errorf("dialect/sql: invalid type %T, expected *sql.Result", v)
	}
	return nil
}

// Query runs a statement that returns rows, decoding into *Rows.
func (c Conn) Query(ctx context.Context, query string, args, v any) error {
	dst, ok := v.(*Rows)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T, expected *sql.Rows", v)
	}
	argv, ok := args.([]any)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T, expected []any for args", args)
	}
	runner, revert, err := c.withGUCs(ctx)
	if err != nil {
		return fmt.Errorf("dialect/sql: query: apply session settings: %w", err)
	}
	rows, err := runner.QueryContext(ctx, query, argv...)
	if err != nil {
		if revert != nil {
			err = errors.Join(err, revert())
		}
		return fmt.Errorf("dialect/sql: query: %w", err)
	}
	*dst = Rows{rows}
	if revert != nil {
		dst.ColumnScanner = rowsWithCloser{rows, revert}
	}
	return nil
}

// withGUCs checks out whatever connection the pending statement needs
// (dedicating one from the pool if c wraps a *sql.DB, reusing the
// transaction if it wraps a *sql.Tx), applies every setting queued on ctx
// in order, and returns a revert func that resets them and releases the
// dedicated connection. revert is nil when nothing was queued.
func (c Conn) withGUCs(ctx context.Context) (ExecQuerier, func() error, error) {
	queued, _ := ctx.Value(gucContextKey{}).([]gucSetting)
	if len(queued) == 0 {
		return c, nil, nil
	}

	var (
		runner       ExecQuerier
		releaseConn  func() error
		resetStmts   []string
		alreadyReset = make(map[string]struct{}, len(queued))
	)
	switch conn := c.ExecQuerier.(type) {
	case *sql.Tx:
		runner = conn
	case *sql.DB:
		dedicated, err := conn.Conn(ctx)
		if err != nil {
			return nil, nil, err
		}
		runner, releaseConn = dedicated, dedicated.Close
	default:
		return nil, nil, fmt.Errorf("dialect/sql: cannot apply session settings on %T", c.ExecQuerier)
	}

	for _, s := range queued {
		if !isValidGUCName(s.name) {
			if releaseConn != nil {
				_ = releaseConn()
			}
			return nil, nil, fmt.Errorf("invalid session variable name: %q", s.name)
		}
		if _, done := alreadyReset[s.name]; !done {
			switch c.dialectName {
			case dialect.Postgres:
				resetStmts = append(resetStmts, fmt.Sprintf("RESET %s", s.name))
			case dialect.MySQL:
				resetStmts = append(resetStmts, fmt.Sprintf("SET %s = NULL", s.name))
			}
			alreadyReset[s.name] = struct{}{}
		}
		stmt := fmt.Sprintf("SET %s = '%s'", s.name, escapeGUCLiteral(s.value))
		if _, err := runner.ExecContext(ctx, stmt); err != nil {
			if releaseConn != nil {
				err = errors.Join(err, releaseConn())
			}
			return nil, nil, err
		}
	}

	if releaseConn == nil || len(resetStmts) == 0 {
		return runner, releaseConn, nil
	}
	// A dedicated connection is going back to the pool: the settings must
	// not leak onto whoever borrows it next, even if ctx was canceled by
	// the time the caller is done with the rows.
	release := releaseConn
	revert := func() error {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, stmt := range resetStmts {
			if _, err := runner.ExecContext(cleanupCtx, stmt); err != nil {
				return errors.Join(err, release())
			}
		}
		return release()
	}
	return runner, revert, nil
}

type (
	// Rows adapts database/sql.Rows (or a wrapper with a custom Close) to
	// the ColumnScanner interface the query builder decodes against.
	Rows struct{ ColumnScanner }
	// Result aliases database/sql.Result.
	Result = sql.Result
	// NullBool aliases database/sql.NullBool.
	NullBool = sql.NullBool
	// NullInt64 aliases database/sql.NullInt64.
	NullInt64 = sql.NullInt64
	// NullString aliases database/sql.NullString.
	NullString = sql.NullString
	// NullFloat64 aliases database/sql.NullFloat64.
	NullFloat64 = sql.NullFloat64
	// NullTime aliases database/sql.NullTime.
	NullTime = sql.NullTime
	// TxOptions aliases database/sql.TxOptions.
	TxOptions = sql.TxOptions
)

// NullScanner adapts any sql.Scanner to tolerate a NULL column, recording
// whether the last Scan saw one.
type NullScanner struct {
	S     sql.Scanner
	Valid bool
}

// Scan implements sql.Scanner.
func (n *NullScanner) Scan(value any) error {
	n.Valid = value != nil
	if n.Valid {
		return n.S.Scan(value)
	}
	return nil
}

// ColumnScanner is the subset of *database/sql.Rows that decodeRow needs.
type ColumnScanner interface {
	Close() error
	ColumnTypes() ([]*sql.ColumnType, error)
	Columns() ([]string, error)
	Err() error
	Next() bool
	NextResultSet() bool
	Scan(dest ...any) error
}

// rowsWithCloser overrides a ColumnScanner's Close so that Conn can run
// its GUC-reset cleanup exactly once the caller is done reading rows.
type rowsWithCloser struct {
	ColumnScanner
	closer func() error
}

func (r rowsWithCloser) Close() error {
	return errors.Join(r.ColumnScanner.Close(), r.closer())
}
