package sql

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-velar/velar/dialect"
)

// Counters accumulates query/exec statistics across the lifetime of an
// InstrumentedDriver. Every field is safe for concurrent use.
type Counters struct {
	Queries  atomic.Int64
	Execs    atomic.Int64
	Duration atomic.Int64 // nanoseconds, queries and execs combined
	Slow     atomic.Int64
	Failed   atomic.Int64
}

// Snapshot copies the current counter values.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Queries:  c.Queries.Load(),
		Execs:    c.Execs.Load(),
		Duration: time.Duration(c.Duration.Load()),
		Slow:     c.Slow.Load(),
		Failed:   c.Failed.Load(),
	}
}

// Reset zeroes every counter.
func (c *Counters) Reset() {
	c.Queries.Store(0)
	c.Execs.Store(0)
	c.Duration.Store(0)
	c.Slow.Store(0)
	c.Failed.Store(0)
}

// Snapshot is a point-in-time read of Counters.
type Snapshot struct {
	Queries  int64
	Execs    int64
	Duration time.Duration
	Slow     int64
	Failed   int64
}

// Mean returns the average duration per statement (query or exec), or
// zero if none have run yet.
func (s Snapshot) Mean() time.Duration {
	n := s.Queries + s.Execs
	if n == 0 {
		return 0
	}
	return s.Duration / time.Duration(n)
}

func (s Snapshot) String() string {
	return fmt.Sprintf("queries=%d execs=%d duration=%s mean=%s slow=%d failed=%d",
		s.Queries, s.Execs, s.Duration, s.Mean(), s.Slow, s.Failed)
}

// SlowStatementFunc is called synchronously, after the statement has run
// and before Query/Exec returns, whenever a statement's runtime exceeds the
// configured threshold.
type SlowStatementFunc func(ctx context.Context, query string, args []any, took time.Duration)

// InstrumentedDriver wraps a Driver to accumulate Counters and optionally
// flag slow statements, the way an ent-style client wraps its driver with
// an observability layer before handing it to the generated client.
type InstrumentedDriver struct {
	*Driver
	counters  Counters
	mu        sync.RWMutex
	threshold time.Duration
	onSlow    SlowStatementFunc
}

// InstrumentOption configures an InstrumentedDriver.
type InstrumentOption func(*InstrumentedDriver)

// SlowThreshold sets the statement duration above which a statement counts
// as slow and triggers onSlow, if set. Default is 100ms.
func SlowThreshold(d time.Duration) InstrumentOption {
	return func(d2 *InstrumentedDriver) { d2.threshold = d }
}

// OnSlowStatement registers a callback invoked for every slow statement.
func OnSlowStatement(fn SlowStatementFunc) InstrumentOption {
	return func(d *InstrumentedDriver) { d.onSlow = fn }
}

// LogSlowStatements is a convenience OnSlowStatement that warns through
// log/slog instead of a caller-supplied callback.
func LogSlowStatements() InstrumentOption {
	return OnSlowStatement(func(_ context.Context, query string, args []any, took time.Duration) {
		slog.Warn("slow statement", "took", took, "query", query, "args", args)
	})
}

// Instrument wraps drv with statistics collection.
func Instrument(drv *Driver, opts ...InstrumentOption) *InstrumentedDriver {
	d := &InstrumentedDriver{Driver: drv, threshold: 100 * time.Millisecond}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Counters exposes the running totals for reading or resetting.
func (d *InstrumentedDriver) Counters() *Counters { return &d.counters }

// SlowThreshold returns the currently configured slow-statement threshold.
func (d *InstrumentedDriver) SlowThreshold() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.threshold
}

// SetSlowThreshold updates the slow-statement threshold at runtime.
func (d *InstrumentedDriver) SetSlowThreshold(threshold time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.threshold = threshold
}

// Query runs the statement and folds its outcome into Counters.
func (d *InstrumentedDriver) Query(ctx context.Context, query string, args, v any) error {
	started := time.Now()
	err := d.Driver.Query(ctx, query, args, v)
	d.observe(ctx, query, args, started, err, &d.counters.Queries)
	return err
}

// Exec runs the statement and folds its outcome into Counters.
func (d *InstrumentedDriver) Exec(ctx context.Context, query string, args, v any) error {
	started := time.Now()
	err := d.Driver.Exec(ctx, query, args, v)
	d.observe(ctx, query, args, started, err, &d.counters.Execs)
	return err
}

func (d *InstrumentedDriver) observe(ctx context.Context, query string, args any, started time.Time, err error, kind *atomic.Int64) {
	took := time.Since(started)
	kind.Add(1)
	d.counters.Duration.Add(int64(took))
	if err != nil {
		d.counters.Failed.Add(1)
	}

	d.mu.RLock()
	threshold, onSlow := d.threshold, d.onSlow
	d.mu.RUnlock()

	if took <= threshold {
		return
	}
	d.counters.Slow.Add(1)
	if onSlow != nil {
		argv, _ := args.([]any)
		onSlow(ctx, query, argv, took)
	}
}

// Tx opens a transaction whose statements also feed Counters.
func (d *InstrumentedDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &instrumentedTx{Tx: tx, parent: d}, nil
}

type instrumentedTx struct {
	dialect.Tx
	parent *InstrumentedDriver
}

func (tx *instrumentedTx) Query(ctx context.Context, query string, args, v any) error {
	started := time.Now()
	err := tx.Tx.Query(ctx, query, args, v)
	tx.parent.observe(ctx, query, args, started, err, &tx.parent.counters.Queries)
	return err
}

func (tx *instrumentedTx) Exec(ctx context.Context, query string, args, v any) error {
	started := time.Now()
	err := tx.Tx.Exec(ctx, query, args, v)
	tx.parent.observe(ctx, query, args, started, err, &tx.parent.counters.Execs)
	return err
}

// StatementLogFunc receives one rendered log line per statement or
// transaction lifecycle event.
type StatementLogFunc func(ctx context.Context, line string)

// LoggingDriver wraps a Driver to log every statement it runs, the
// equivalent of ent's debug driver.
type LoggingDriver struct {
	*Driver
	log StatementLogFunc
}

// LogOption configures a LoggingDriver.
type LogOption func(*LoggingDriver)

// LogWith overrides where log lines go; the default logs through
// log/slog at info level.
func LogWith(fn StatementLogFunc) LogOption {
	return func(d *LoggingDriver) { d.log = fn }
}

// Log wraps drv so every statement (and transaction begin/commit/rollback)
// is logged before it runs.
func Log(drv *Driver, opts ...LogOption) *LoggingDriver {
	d := &LoggingDriver{
		Driver: drv,
		log: func(_ context.Context, line string) {
			slog.Info(line)
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *LoggingDriver) Query(ctx context.Context, query string, args, v any) error {
	d.log(ctx, fmt.Sprintf("query: %s args: %v", query, args))
	return d.Driver.Query(ctx, query, args, v)
}

func (d *LoggingDriver) Exec(ctx context.Context, query string, args, v any) error {
	d.log(ctx, fmt.Sprintf("exec: %s args: %v", query, args))
	return d.Driver.Exec(ctx, query, args, v)
}

func (d *LoggingDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	d.log(ctx, "begin transaction")
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &loggingTx{Tx: tx, log: d.log}, nil
}

type loggingTx struct {
	dialect.Tx
	log StatementLogFunc
}

func (tx *loggingTx) Query(ctx context.Context, query string, args, v any) error {
	tx.log(ctx, fmt.Sprintf("tx query: %s args: %v", query, args))
	return tx.Tx.Query(ctx, query, args, v)
}

func (tx *loggingTx) Exec(ctx context.Context, query string, args, v any) error {
	tx.log(ctx, fmt.Sprintf("tx exec: %s args: %v", query, args))
	return tx.Tx.Exec(ctx, query, args, v)
}

func (tx *loggingTx) Commit() error {
	tx.log(context.Background(), "commit transaction")
	return tx.Tx.Commit()
}

func (tx *loggingTx) Rollback() error {
	tx.log(context.Background(), "rollback transaction")
	return tx.Tx.Rollback()
}

var (
	_ dialect.Driver = (*InstrumentedDriver)(nil)
	_ dialect.Tx     = (*instrumentedTx)(nil)
	_ dialect.Driver = (*LoggingDriver)(nil)
	_ dialect.Tx     = (*loggingTx)(nil)
)
