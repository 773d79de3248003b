package sql

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/syssam/recordgen/dialect"
)

// DefaultSlowThreshold is the duration after which a statement counts as
// slow.
const DefaultSlowThreshold = 100 * time.Millisecond

// Statement kinds counted by a StatsDriver.
const (
	KindSelect = "select"
	KindInsert = "insert"
	KindUpdate = "update"
	KindOther  = "other"
)

// StatementKind classifies a statement by its leading keyword.
func StatementKind(query string) string {
	verb, _, _ := strings.Cut(strings.TrimSpace(query), " ")
	switch strings.ToUpper(verb) {
	case "SELECT", "WITH":
		return KindSelect
	case "INSERT":
		return KindInsert
	case "UPDATE":
		return KindUpdate
	}
	return KindOther
}

// FlushStats counts the statements and transactions that went through a
// StatsDriver.
type FlushStats struct {
	selects   atomic.Int64
	inserts   atomic.Int64
	updates   atomic.Int64
	other     atomic.Int64
	commits   atomic.Int64
	rollbacks atomic.Int64
	failed    atomic.Int64
	slow      atomic.Int64
	elapsed   atomic.Int64
}

// Snapshot returns the current counters.
func (s *FlushStats) Snapshot() Snapshot {
	return Snapshot{
		Selects:   s.selects.Load(),
		Inserts:   s.inserts.Load(),
		Updates:   s.updates.Load(),
		Other:     s.other.Load(),
		Commits:   s.commits.Load(),
		Rollbacks: s.rollbacks.Load(),
		Failed:    s.failed.Load(),
		Slow:      s.slow.Load(),
		Elapsed:   time.Duration(s.elapsed.Load()),
	}
}

// Reset zeroes the counters.
func (s *FlushStats) Reset() {
	for _, c := range []*atomic.Int64{
		&s.selects, &s.inserts, &s.updates, &s.other,
		&s.commits, &s.rollbacks, &s.failed, &s.slow, &s.elapsed,
	} {
		c.Store(0)
	}
}

func (s *FlushStats) count(kind string) {
	switch kind {
	case KindSelect:
		s.selects.Add(1)
	case KindInsert:
		s.inserts.Add(1)
	case KindUpdate:
		s.updates.Add(1)
	default:
		s.other.Add(1)
	}
}

// Snapshot is a point-in-time copy of FlushStats.
type Snapshot struct {
	Selects   int64
	Inserts   int64
	Updates   int64
	Other     int64
	Commits   int64
	Rollbacks int64
	Failed    int64
	Slow      int64
	Elapsed   time.Duration
}

// Statements returns the number of statements of every kind.
func (s Snapshot) Statements() int64 {
	return s.Selects + s.Inserts + s.Updates + s.Other
}

// Avg returns the mean statement duration.
func (s Snapshot) Avg() time.Duration {
	n := s.Statements()
	if n == 0 {
		return 0
	}
	return s.Elapsed / time.Duration(n)
}

func (s Snapshot) String() string {
	return fmt.Sprintf("select=%d insert=%d update=%d other=%d commit=%d rollback=%d failed=%d slow=%d avg=%s",
		s.Selects, s.Inserts, s.Updates, s.Other, s.Commits, s.Rollbacks, s.Failed, s.Slow, s.Avg())
}

// StatsDriver wraps a dialect.Driver and counts what the store sends
// through it. Statements slower than the threshold are logged at warn
// level.
type StatsDriver struct {
	dialect.Driver
	stats     *FlushStats
	threshold atomic.Int64
	log       *zap.Logger
}

// StatsOption configures a StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the slow statement threshold. A negative value
// reports every statement as slow.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) { s.threshold.Store(int64(d)) }
}

// WithSlowQueryLog sets the logger receiving slow statements.
func WithSlowQueryLog(log *zap.Logger) StatsOption {
	return func(s *StatsDriver) { s.log = log }
}

// NewStatsDriver wraps drv.
//
//	drv, _ := sql.Open("postgres", dsn)
//	stats := sql.NewStatsDriver(drv, sql.WithSlowQueryLog(log))
//	store := sql.NewStore(stats)
func NewStatsDriver(drv dialect.Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{Driver: drv, stats: &FlushStats{}, log: zap.NewNop()}
	s.threshold.Store(int64(DefaultSlowThreshold))
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stats returns the live counters.
func (d *StatsDriver) Stats() *FlushStats { return d.stats }

// SlowThreshold returns the slow statement threshold.
func (d *StatsDriver) SlowThreshold() time.Duration {
	return time.Duration(d.threshold.Load())
}

// SetSlowThreshold changes the slow statement threshold.
func (d *StatsDriver) SetSlowThreshold(t time.Duration) { d.threshold.Store(int64(t)) }

// Query implements dialect.ExecQuerier.
func (d *StatsDriver) Query(ctx context.Context, query string, args, v any) error {
	return d.observe(query, args, func() error { return d.Driver.Query(ctx, query, args, v) })
}

// Exec implements dialect.ExecQuerier.
func (d *StatsDriver) Exec(ctx context.Context, query string, args, v any) error {
	return d.observe(query, args, func() error { return d.Driver.Exec(ctx, query, args, v) })
}

// Tx implements dialect.Driver.
func (d *StatsDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		d.stats.failed.Add(1)
		return nil, err
	}
	return &statsTx{Tx: tx, d: d}, nil
}

func (d *StatsDriver) observe(query string, args any, run func() error) error {
	start := time.Now()
	err := run()
	elapsed := time.Since(start)
	d.stats.count(StatementKind(query))
	d.stats.elapsed.Add(int64(elapsed))
	if err != nil {
		d.stats.failed.Add(1)
	}
	if elapsed > d.SlowThreshold() {
		d.stats.slow.Add(1)
		d.log.Warn("slow statement",
			zap.Duration("duration", elapsed),
			zap.String("sql", query),
			zap.Any("args", args),
		)
	}
	return err
}

type statsTx struct {
	dialect.Tx
	d *StatsDriver
}

func (tx *statsTx) Query(ctx context.Context, query string, args, v any) error {
	return tx.d.observe(query, args, func() error { return tx.Tx.Query(ctx, query, args, v) })
}

func (tx *statsTx) Exec(ctx context.Context, query string, args, v any) error {
	return tx.d.observe(query, args, func() error { return tx.Tx.Exec(ctx, query, args, v) })
}

func (tx *statsTx) Commit() error {
	err := tx.Tx.Commit()
	if err != nil {
		tx.d.stats.failed.Add(1)
		return err
	}
	tx.d.stats.commits.Add(1)
	return nil
}

func (tx *statsTx) Rollback() error {
	tx.d.stats.rollbacks.Add(1)
	return tx.Tx.Rollback()
}

// DebugDriver logs every statement the store issues at debug level, under
// the "sql" logger name.
type DebugDriver struct {
	dialect.Driver
	log *zap.Logger
}

// NewDebugDriver wraps drv.
func NewDebugDriver(drv dialect.Driver, log *zap.Logger) *DebugDriver {
	if log == nil {
		log = zap.NewNop()
	}
	return &DebugDriver{Driver: drv, log: log.Named("sql")}
}

// Query implements dialect.ExecQuerier.
func (d *DebugDriver) Query(ctx context.Context, query string, args, v any) error {
	logStatement(d.log, query, args, false)
	return d.Driver.Query(ctx, query, args, v)
}

// Exec implements dialect.ExecQuerier.
func (d *DebugDriver) Exec(ctx context.Context, query string, args, v any) error {
	logStatement(d.log, query, args, false)
	return d.Driver.Exec(ctx, query, args, v)
}

// Tx implements dialect.Driver.
func (d *DebugDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	d.log.Debug("begin")
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &debugTx{Tx: tx, log: d.log}, nil
}

type debugTx struct {
	dialect.Tx
	log *zap.Logger
}

func (tx *debugTx) Query(ctx context.Context, query string, args, v any) error {
	logStatement(tx.log, query, args, true)
	return tx.Tx.Query(ctx, query, args, v)
}

func (tx *debugTx) Exec(ctx context.Context, query string, args, v any) error {
	logStatement(tx.log, query, args, true)
	return tx.Tx.Exec(ctx, query, args, v)
}

func (tx *debugTx) Commit() error {
	tx.log.Debug("commit")
	return tx.Tx.Commit()
}

func (tx *debugTx) Rollback() error {
	tx.log.Debug("rollback")
	return tx.Tx.Rollback()
}

func logStatement(log *zap.Logger, query string, args any, inTx bool) {
	log.Debug(StatementKind(query),
		zap.String("sql", query),
		zap.Any("args", args),
		zap.Bool("tx", inTx),
	)
}

var (
	_ dialect.Driver = (*StatsDriver)(nil)
	_ dialect.Driver = (*DebugDriver)(nil)
)
