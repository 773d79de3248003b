package sql

import (
	"context"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/syssam/recordgen"
	"github.com/syssam/recordgen/dialect"
)

// Store is a recordgen.Store backed by a SQL driver. Staged entities are
// written in one transaction per Flush.
type Store struct {
	drv   dialect.Driver
	log   *zap.Logger
	clock func() time.Time

	mu        sync.Mutex
	pending   []recordgen.Entity
	staged    map[recordgen.Entity]bool
	snapshots map[recordgen.Entity]map[string]any
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreLogger sets the logger of the store.
func WithStoreLogger(log *zap.Logger) StoreOption {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock sets the clock used for lifecycle timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.clock = now }
}

// NewStore returns a store writing through drv.
func NewStore(drv dialect.Driver, opts ...StoreOption) *Store {
	s := &Store{
		drv:       drv,
		log:       zap.NewNop(),
		clock:     time.Now,
		staged:    make(map[recordgen.Entity]bool),
		snapshots: make(map[recordgen.Entity]map[string]any),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now implements recordgen.Clock.
func (s *Store) Now() time.Time { return s.clock() }

// Persist stages e and, along associations that cascade persist, its
// associated entities. Targets of owning to-one associations are staged
// before e so their keys are known when e is inserted.
func (s *Store) Persist(_ context.Context, e recordgen.Entity) error {
	if e == nil {
		return errors.New("dialect/sql: persist nil entity")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stage(e, true)
	return nil
}

func (s *Store) stage(e recordgen.Entity, root bool) {
	if s.staged[e] {
		return
	}
	s.staged[e] = true
	if !root {
		s.touch(e)
	}
	d := e.Descriptor()
	for _, r := range d.Relations {
		if len(r.Columns) > 0 && r.Cascade.Has(recordgen.CascadePersist) && r.Targets != nil {
			for _, t := range r.Targets(e) {
				s.stage(t, false)
			}
		}
	}
	s.pending = append(s.pending, e)
	for _, r := range d.Relations {
		if len(r.Columns) == 0 && r.Cascade.Has(recordgen.CascadePersist) && r.Targets != nil {
			for _, t := range r.Targets(e) {
				s.stage(t, false)
			}
		}
	}
}

// touch runs the lifecycle stamping for entities reached by cascade, which
// never pass through recordgen.Save.
func (s *Store) touch(e recordgen.Entity) {
	m := e.Base()
	now := s.clock()
	if !m.IsPersisted() {
		m.InitCreatedAt(now)
	} else if !m.IsArchived() {
		m.SetUpdatedAt(now)
	}
	if m.Store() == nil {
		m.Bind(s)
	}
}

// Flush writes every staged entity in a single transaction. New entities
// are inserted and receive their generated key; persisted entities are
// updated with the columns that changed since the last flush.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil
	}
	pending := s.pending
	s.pending = nil
	clear(s.staged)

	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return errors.Wrap(err, "dialect/sql: begin flush")
	}
	inserted := make(map[recordgen.Entity]bool, len(pending))
	for _, e := range pending {
		if e.Base().IsPersisted() {
			err = s.update(ctx, tx, e)
		} else {
			err = s.insert(ctx, tx, e)
			inserted[e] = true
		}
		if err != nil {
			return rollback(tx, e.Descriptor().Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "dialect/sql: commit flush")
	}
	for _, e := range pending {
		m := e.Base()
		m.MarkPersisted()
		if m.Store() == nil {
			m.Bind(s)
		}
		s.snapshots[e] = snapshot(e)
	}
	s.log.Debug("flushed",
		zap.Int("entities", len(pending)),
		zap.Int("inserted", len(inserted)),
	)
	return nil
}

func rollback(tx dialect.Tx, entity string, err error) error {
	return &recordgen.FlushError{Entity: entity, Err: err, Rollback: tx.Rollback()}
}

func (s *Store) insert(ctx context.Context, tx dialect.Tx, e recordgen.Entity) error {
	d := e.Descriptor()
	syncForeignKeys(e)
	pk, pkAccessor, single := primaryKey(d)
	if single && d.Strategy == recordgen.StrategyUUID {
		if _, ok := pkAccessor.Get(e); !ok {
			load(pkAccessor, e, uuid.NewString())
		}
	}

	ins := Insert(d.Table)
	ins.SetDialect(s.drv.Dialect())
	for _, f := range d.FieldNames() {
		a := d.Accessors[f]
		if a.Column == "" || a.Get == nil {
			continue
		}
		if v, ok := a.Get(e); ok {
			ins.Set(a.Column, v)
		}
	}

	_, hasKey := pkAccessor.Get(e)
	needKey := single && !hasKey && (d.Strategy == recordgen.StrategyIdentity || d.Strategy == recordgen.StrategySequence)
	if needKey && s.drv.Dialect() == dialect.Postgres {
		ins.Returning(pkAccessor.Column)
		query, args := ins.Query()
		rows := &Rows{}
		if err := tx.Query(ctx, query, args, rows); err != nil {
			return errors.Wrapf(err, "dialect/sql: insert %s", d.Name)
		}
		var id any
		found, err := rows.One(&id)
		switch {
		case err != nil:
			return errors.Wrapf(err, "dialect/sql: scan %s key", d.Name)
		case !found:
			return errors.Newf("dialect/sql: insert %s returned no key", d.Name)
		}
		load(pkAccessor, e, id)
		s.log.Debug("inserted", zap.String("entity", d.Name), zap.String("key", pk), zap.Any("value", id))
		return nil
	}

	query, args := ins.Query()
	var res Result
	if err := tx.Exec(ctx, query, args, &res); err != nil {
		return errors.Wrapf(err, "dialect/sql: insert %s", d.Name)
	}
	if needKey {
		id, err := res.LastInsertId()
		if err != nil {
			return errors.Wrapf(err, "dialect/sql: last insert id of %s", d.Name)
		}
		load(pkAccessor, e, id)
	}
	s.log.Debug("inserted", zap.String("entity", d.Name))
	return nil
}

func (s *Store) update(ctx context.Context, tx dialect.Tx, e recordgen.Entity) error {
	d := e.Descriptor()
	syncForeignKeys(e)
	_, pkAccessor, single := primaryKey(d)
	if !single {
		return errors.Newf("dialect/sql: update %s: composite primary keys are not supported", d.Name)
	}
	key, ok := pkAccessor.Get(e)
	if !ok {
		return errors.Newf("dialect/sql: update %s: persisted entity without key", d.Name)
	}
	before := s.snapshots[e]
	upd := Update(d.Table)
	upd.SetDialect(s.drv.Dialect())
	for _, f := range d.FieldNames() {
		a := d.Accessors[f]
		if a.Column == "" || a.Get == nil || a.Column == pkAccessor.Column {
			continue
		}
		v, _ := a.Get(e)
		if old, seen := before[f]; seen && sameValue(old, v) {
			continue
		}
		upd.Set(a.Column, v)
	}
	if upd.Empty() {
		return nil
	}
	upd.Where(EQ(pkAccessor.Column, key))
	query, args := upd.Query()
	if err := tx.Exec(ctx, query, args, nil); err != nil {
		return errors.Wrapf(err, "dialect/sql: update %s", d.Name)
	}
	s.log.Debug("updated", zap.String("entity", d.Name), zap.Any("key", key))
	return nil
}

// Select implements recordgen.Store.
func (s *Store) Select(ctx context.Context, d *recordgen.Descriptor, scope recordgen.Scope) ([]recordgen.Entity, error) {
	fields := make([]string, 0, len(d.Accessors))
	columns := make([]string, 0, len(d.Accessors))
	for _, f := range d.FieldNames() {
		if a := d.Accessors[f]; a.Column != "" {
			fields = append(fields, f)
			columns = append(columns, a.Column)
		}
	}
	sel, err := s.selector(d, scope, Select(columns...))
	if err != nil {
		return nil, err
	}
	query, args := sel.Query()
	rows := &Rows{}
	if err := s.drv.Query(ctx, query, args, rows); err != nil {
		return nil, errors.Wrapf(err, "dialect/sql: select %s", d.Name)
	}
	defer rows.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []recordgen.Entity
	for rows.Next() {
		values, err := rows.Values(len(columns))
		if err != nil {
			return nil, errors.Wrapf(err, "dialect/sql: scan %s", d.Name)
		}
		e := d.New()
		for i, f := range fields {
			load(d.Accessors[f], e, values[i])
		}
		e.Base().MarkPersisted()
		e.Base().Bind(s)
		s.snapshots[e] = snapshot(e)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "dialect/sql: select %s", d.Name)
	}
	return out, nil
}

// Count implements recordgen.Store.
func (s *Store) Count(ctx context.Context, d *recordgen.Descriptor, scope recordgen.Scope) (int, error) {
	scope.OrderBy, scope.Limit = nil, 0
	sel, err := s.selector(d, scope, Select().Count())
	if err != nil {
		return 0, err
	}
	query, args := sel.Query()
	rows := &Rows{}
	if err := s.drv.Query(ctx, query, args, rows); err != nil {
		return 0, errors.Wrapf(err, "dialect/sql: count %s", d.Name)
	}
	var n int
	if _, err := rows.One(&n); err != nil {
		return 0, errors.Wrapf(err, "dialect/sql: count %s", d.Name)
	}
	return n, nil
}

func (s *Store) selector(d *recordgen.Descriptor, scope recordgen.Scope, sel *Selector) (*Selector, error) {
	sel.SetDialect(s.drv.Dialect())
	sel.From(d.Table)
	if col, ok := d.ArchiveColumn(); ok && !scope.IncludeArchived {
		sel.Where(IsNull(col))
	}
	for _, f := range slices.Sorted(maps.Keys(scope.Where)) {
		col, ok := d.Column(f)
		if !ok {
			return nil, errors.Wrapf(recordgen.ErrUnknownField, "%s.%s", d.Name, f)
		}
		if v := scope.Where[f]; v == nil {
			sel.Where(IsNull(col))
		} else {
			sel.Where(EQ(col, v))
		}
	}
	for _, term := range scope.OrderBy {
		f, dir, _ := strings.Cut(term, ":")
		col, ok := d.Column(f)
		if !ok {
			return nil, errors.Wrapf(recordgen.ErrUnknownField, "%s.%s", d.Name, f)
		}
		if strings.EqualFold(dir, "desc") {
			col += " DESC"
		}
		sel.OrderBy(col)
	}
	sel.Limit(scope.Limit)
	return sel, nil
}

// OriginalFieldValues implements recordgen.Store.
func (s *Store) OriginalFieldValues(e recordgen.Entity) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap, ok := s.snapshots[e]; ok {
		return maps.Clone(snap)
	}
	return nil
}

// syncForeignKeys copies the keys of owning to-one targets into the join
// column fields of e.
func syncForeignKeys(e recordgen.Entity) {
	d := e.Descriptor()
	for _, r := range d.Relations {
		if len(r.Columns) != 1 || r.Kind.ToMany() || r.Targets == nil {
			continue
		}
		targets := r.Targets(e)
		if len(targets) != 1 {
			continue
		}
		td := targets[0].Descriptor()
		_, ta, ok := primaryKey(td)
		if !ok {
			continue
		}
		key, ok := ta.Get(targets[0])
		if !ok {
			continue
		}
		for _, a := range d.Accessors {
			if a.Column == r.Columns[0] {
				setField(a, e, key)
			}
		}
	}
}

func primaryKey(d *recordgen.Descriptor) (string, recordgen.Accessor, bool) {
	if len(d.PrimaryKey) != 1 {
		return "", recordgen.Accessor{Get: func(recordgen.Entity) (any, bool) { return nil, false }}, false
	}
	f := d.PrimaryKey[0]
	a := d.Accessors[f]
	if a.Get == nil {
		a.Get = func(recordgen.Entity) (any, bool) { return nil, false }
	}
	return f, a, true
}

// load writes a value read from storage, preferring the Load capability.
func load(a recordgen.Accessor, e recordgen.Entity, v any) {
	switch {
	case a.Load != nil:
		a.Load(e, v)
	case a.Set != nil:
		a.Set(e, v)
	}
}

func setField(a recordgen.Accessor, e recordgen.Entity, v any) {
	switch {
	case a.Set != nil:
		a.Set(e, v)
	case a.Load != nil:
		a.Load(e, v)
	}
}

func snapshot(e recordgen.Entity) map[string]any {
	d := e.Descriptor()
	snap := make(map[string]any, len(d.Accessors))
	for f, a := range d.Accessors {
		if a.Column == "" || a.Get == nil {
			continue
		}
		v, _ := a.Get(e)
		snap[f] = v
	}
	return snap
}

func sameValue(a, b any) bool {
	ta, okA := a.(time.Time)
	tb, okB := b.(time.Time)
	if okA && okB {
		return ta.Equal(tb)
	}
	return reflect.DeepEqual(a, b)
}

var _ recordgen.Store = (*Store)(nil)
