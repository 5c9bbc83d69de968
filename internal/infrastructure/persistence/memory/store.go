package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/erp/jobcost/internal/domain/audit"
	"github.com/erp/jobcost/internal/domain/costing"
	"github.com/erp/jobcost/internal/domain/expense"
	"github.com/erp/jobcost/internal/domain/shared"
	"github.com/erp/jobcost/internal/domain/subcontract"
	"github.com/google/uuid"
)

// ErrReadOnly is returned when a write is attempted through a read view
var ErrReadOnly = errors.New("memory store: write attempted in read-only view")

// collection keeps records by id in insertion order
type collection[T any] struct {
	byID  map[uuid.UUID]T
	order []uuid.UUID
}

func newCollection[T any]() collection[T] {
	return collection[T]{byID: make(map[uuid.UUID]T)}
}

func (c collection[T]) clone() collection[T] {
	out := collection[T]{
		byID:  make(map[uuid.UUID]T, len(c.byID)),
		order: append([]uuid.UUID(nil), c.order...),
	}
	for k, v := range c.byID {
		out.byID[k] = v
	}
	return out
}

func (c collection[T]) get(id uuid.UUID) (T, bool) {
	v, ok := c.byID[id]
	return v, ok
}

func (c *collection[T]) put(id uuid.UUID, v T) {
	if _, exists := c.byID[id]; !exists {
		c.order = append(c.order, id)
	}
	c.byID[id] = v
}

func (c *collection[T]) remove(id uuid.UUID) bool {
	if _, exists := c.byID[id]; !exists {
		return false
	}
	delete(c.byID, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// each visits records in insertion order until fn returns false
func (c collection[T]) each(fn func(v T) bool) {
	for _, id := range c.order {
		if !fn(c.byID[id]) {
			return
		}
	}
}

func (c collection[T]) len() int {
	return len(c.byID)
}

// tables is one version of every collection. A committed version is never
// mutated; transactions write to a staged copy. Records are shared between
// versions because repositories replace them instead of modifying them.
type tables struct {
	costCodes    collection[*costing.CostCode]
	budgets      collection[*costing.CostCodeBudget]
	subcontracts collection[*subcontract.Subcontract]
	certificates collection[*subcontract.ProgressCertificate]
	expenses     collection[*expense.Expense]
	auditLog     []*audit.Entry
}

func newTables() *tables {
	return &tables{
		costCodes:    newCollection[*costing.CostCode](),
		budgets:      newCollection[*costing.CostCodeBudget](),
		subcontracts: newCollection[*subcontract.Subcontract](),
		certificates: newCollection[*subcontract.ProgressCertificate](),
		expenses:     newCollection[*expense.Expense](),
	}
}

func (t *tables) clone() *tables {
	return &tables{
		costCodes:    t.costCodes.clone(),
		budgets:      t.budgets.clone(),
		subcontracts: t.subcontracts.clone(),
		certificates: t.certificates.clone(),
		expenses:     t.expenses.clone(),
		auditLog:     append([]*audit.Entry(nil), t.auditLog...),
	}
}

type txKey struct{}

// tx is the state of one transaction; the staged copy is made on first write
type tx struct {
	base     *tables
	staged   *tables
	readOnly bool
}

func (t *tx) forRead() *tables {
	if t.staged != nil {
		return t.staged
	}
	return t.base
}

func (t *tx) forWrite() (*tables, error) {
	if t.readOnly {
		return nil, ErrReadOnly
	}
	if t.staged == nil {
		t.staged = t.base.clone()
	}
	return t.staged, nil
}

// Store is the in-process database backing every repository. Transactions
// are serialized; readers see the last committed version without waiting.
type Store struct {
	writeMu sync.Mutex
	mu      sync.RWMutex
	current *tables
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{current: newTables()}
}

func (s *Store) committed() *tables {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Execute runs fn in a transaction. Every write made with the ctx passed to fn
// is committed when fn returns nil and discarded otherwise. A ctx that already
// carries a transaction joins it.
func (s *Store) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if current, ok := ctx.Value(txKey{}).(*tx); ok && !current.readOnly {
		return fn(ctx)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	t := &tx{base: s.committed()}
	if err := fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		return err
	}
	if t.staged != nil {
		s.mu.Lock()
		s.current = t.staged
		s.mu.Unlock()
	}
	return nil
}

// View runs fn against one consistent committed version of the store
func (s *Store) View(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*tx); ok {
		return fn(ctx)
	}
	return fn(context.WithValue(ctx, txKey{}, &tx{base: s.committed(), readOnly: true}))
}

func (s *Store) read(ctx context.Context) *tables {
	if t, ok := ctx.Value(txKey{}).(*tx); ok {
		return t.forRead()
	}
	return s.committed()
}

// write applies fn inside the caller's transaction, or in its own when there is none
func (s *Store) write(ctx context.Context, fn func(t *tables) error) error {
	if t, ok := ctx.Value(txKey{}).(*tx); ok {
		staged, err := t.forWrite()
		if err != nil {
			return err
		}
		return fn(staged)
	}
	return s.Execute(ctx, func(ctx context.Context) error {
		return s.write(ctx, fn)
	})
}

var _ shared.TransactionScope = (*Store)(nil)
