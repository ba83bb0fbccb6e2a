package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"lua-assistant/internal/models"
)

// Memory is an in-process store used by unit tests and dev mode.
// It honors the same predicate semantics as Postgres.
type Memory struct {
	mu     sync.RWMutex
	data   map[string]map[int64]any
	nextID map[string]int64
}

func NewMemory() *Memory {
	data := make(map[string]map[int64]any, len(entities))
	nextID := make(map[string]int64, len(entities))
	for entity := range entities {
		data[entity] = make(map[int64]any)
		nextID[entity] = 1
	}
	return &Memory{data: data, nextID: nextID}
}

func (m *Memory) FindOne(_ context.Context, entity string, id int64) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return findOne(m.data, entity, id)
}

func (m *Memory) FindMany(_ context.Context, entity string, pred Predicate, opts Options) ([]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return findMany(m.data, entity, pred, opts)
}

func (m *Memory) Count(_ context.Context, entity string, pred Predicate) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return count(m.data, entity, pred)
}

func (m *Memory) Create(_ context.Context, entity string, record any) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return create(m.data, m.nextID, entity, record)
}

func (m *Memory) Update(_ context.Context, entity string, id int64, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return update(m.data, entity, id, fields)
}

func (m *Memory) Delete(_ context.Context, entity string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return del(m.data, entity, id)
}

// Begin snapshots the current state. Mutations apply to the snapshot and
// replace the live state only on Commit.
func (m *Memory) Begin(_ context.Context) (Tx, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data := make(map[string]map[int64]any, len(m.data))
	for entity, records := range m.data {
		clone := make(map[int64]any, len(records))
		for id, record := range records {
			clone[id] = record
		}
		data[entity] = clone
	}
	nextID := make(map[string]int64, len(m.nextID))
	for entity, id := range m.nextID {
		nextID[entity] = id
	}
	return &memTx{store: m, data: data, nextID: nextID}, nil
}

type memTx struct {
	store  *Memory
	data   map[string]map[int64]any
	nextID map[string]int64
	done   bool
}

func (t *memTx) FindOne(_ context.Context, entity string, id int64) (any, error) {
	if t.done {
		return nil, ErrTxClosed
	}
	return findOne(t.data, entity, id)
}

func (t *memTx) FindMany(_ context.Context, entity string, pred Predicate, opts Options) ([]any, error) {
	if t.done {
		return nil, ErrTxClosed
	}
	return findMany(t.data, entity, pred, opts)
}

func (t *memTx) Count(_ context.Context, entity string, pred Predicate) (int64, error) {
	if t.done {
		return 0, ErrTxClosed
	}
	return count(t.data, entity, pred)
}

func (t *memTx) Create(_ context.Context, entity string, record any) (int64, error) {
	if t.done {
		return 0, ErrTxClosed
	}
	return create(t.data, t.nextID, entity, record)
}

func (t *memTx) Update(_ context.Context, entity string, id int64, fields map[string]any) error {
	if t.done {
		return ErrTxClosed
	}
	return update(t.data, entity, id, fields)
}

func (t *memTx) Delete(_ context.Context, entity string, id int64) error {
	if t.done {
		return ErrTxClosed
	}
	return del(t.data, entity, id)
}

func (t *memTx) Commit() error {
	if t.done {
		return ErrTxClosed
	}
	t.done = true
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.data = t.data
	t.store.nextID = t.nextID
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return ErrTxClosed
	}
	t.done = true
	return nil
}

func findOne(data map[string]map[int64]any, entity string, id int64) (any, error) {
	records, ok := data[entity]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
	record, ok := records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s id=%d", ErrNotFound, entity, id)
	}
	return record, nil
}

func findMany(data map[string]map[int64]any, entity string, pred Predicate, opts Options) ([]any, error) {
	records, ok := data[entity]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
	var out []any
	for _, record := range records {
		match, err := matches(entity, record, pred)
		if err != nil {
			return nil, err
		}
		if match {
			out = append(out, record)
		}
	}

	orderBy := opts.OrderBy
	if orderBy == "" {
		orderBy = "id"
	}
	sort.SliceStable(out, func(i, j int) bool {
		less := fieldLess(entity, out[i], out[j], orderBy)
		if opts.Descending {
			return !less
		}
		return less
	})
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func count(data map[string]map[int64]any, entity string, pred Predicate) (int64, error) {
	records, err := findMany(data, entity, pred, Options{})
	if err != nil {
		return 0, err
	}
	return int64(len(records)), nil
}

func create(data map[string]map[int64]any, nextID map[string]int64, entity string, record any) (int64, error) {
	records, ok := data[entity]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
	id := nextID[entity]
	nextID[entity] = id + 1
	records[id] = withID(entity, record, id)
	return id, nil
}

func update(data map[string]map[int64]any, entity string, id int64, fields map[string]any) error {
	records, ok := data[entity]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
	record, ok := records[id]
	if !ok {
		return fmt.Errorf("%w: %s id=%d", ErrNotFound, entity, id)
	}
	updated, err := applyFields(entity, record, fields)
	if err != nil {
		return err
	}
	records[id] = updated
	return nil
}

func del(data map[string]map[int64]any, entity string, id int64) error {
	records, ok := data[entity]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
	if _, ok := records[id]; !ok {
		return fmt.Errorf("%w: %s id=%d", ErrNotFound, entity, id)
	}
	delete(records, id)
	return nil
}

func matches(entity string, record any, pred Predicate) (bool, error) {
	for col, want := range pred {
		got, err := fieldValue(entity, record, col)
		if err != nil {
			return false, err
		}
		switch w := want.(type) {
		case Range:
			ts, ok := got.(time.Time)
			if !ok || ts.Before(w.From) || !ts.Before(w.To) {
				return false, nil
			}
		case Compare:
			num, ok := asFloat(got)
			if !ok {
				return false, nil
			}
			switch w.Op {
			case ">":
				if !(num > w.Value) {
					return false, nil
				}
			case "<":
				if !(num < w.Value) {
					return false, nil
				}
			default:
				if num != w.Value {
					return false, nil
				}
			}
		default:
			if !looseEqual(got, want) {
				return false, nil
			}
		}
	}
	return true, nil
}

func looseEqual(a, b any) bool {
	if fa, ok := asFloat(a); ok {
		if fb, ok := asFloat(b); ok {
			return fa == fb
		}
	}
	return a == b
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func fieldLess(entity string, a, b any, col string) bool {
	av, errA := fieldValue(entity, a, col)
	bv, errB := fieldValue(entity, b, col)
	if errA != nil || errB != nil {
		return false
	}
	if fa, ok := asFloat(av); ok {
		fb, _ := asFloat(bv)
		return fa < fb
	}
	if ta, ok := av.(time.Time); ok {
		tb, _ := bv.(time.Time)
		return ta.Before(tb)
	}
	if sa, ok := av.(string); ok {
		sb, _ := bv.(string)
		return sa < sb
	}
	return false
}

func fieldValue(entity string, record any, col string) (any, error) {
	switch r := record.(type) {
	case models.Employee:
		switch col {
		case "id":
			return r.ID, nil
		case "name":
			return r.Name, nil
		case "role":
			return r.Role, nil
		case "salary":
			return r.Salary, nil
		case "active":
			return r.Active, nil
		}
	case models.Customer:
		switch col {
		case "id":
			return r.ID, nil
		case "name":
			return r.Name, nil
		case "phone":
			return r.Phone, nil
		case "email":
			return r.Email, nil
		}
	case models.Vale:
		switch col {
		case "id":
			return r.ID, nil
		case "employee_id":
			return r.EmployeeID, nil
		case "amount":
			return r.Amount, nil
		case "reason":
			return r.Reason, nil
		case "status":
			return r.Status, nil
		case "created_at":
			return r.CreatedAt, nil
		}
	case models.Order:
		switch col {
		case "id":
			return r.ID, nil
		case "customer_id":
			return r.CustomerID, nil
		case "total_price":
			return r.TotalPrice, nil
		case "status":
			return r.Status, nil
		case "created_at":
			return r.CreatedAt, nil
		}
	case models.Jewelry:
		switch col {
		case "id":
			return r.ID, nil
		case "name":
			return r.Name, nil
		case "category":
			return r.Category, nil
		case "price":
			return r.Price, nil
		}
	case models.InventoryItem:
		switch col {
		case "id":
			return r.ID, nil
		case "name":
			return r.Name, nil
		case "quantity":
			return r.Quantity, nil
		case "min_quantity":
			return r.MinQuantity, nil
		}
	case models.CashTransaction:
		switch col {
		case "id":
			return r.ID, nil
		case "type":
			return r.Type, nil
		case "amount":
			return r.Amount, nil
		case "description":
			return r.Description, nil
		case "category_id":
			return r.CategoryID, nil
		case "created_at":
			return r.CreatedAt, nil
		}
	case models.Note:
		switch col {
		case "id":
			return r.ID, nil
		case "title":
			return r.Title, nil
		case "content":
			return r.Content, nil
		case "created_at":
			return r.CreatedAt, nil
		}
	}
	return nil, fmt.Errorf("%w: no column %s on %s", ErrUnknownEntity, col, entity)
}

func withID(entity string, record any, id int64) any {
	switch r := record.(type) {
	case models.Employee:
		r.ID = id
		return r
	case models.Customer:
		r.ID = id
		return r
	case models.Vale:
		r.ID = id
		return r
	case models.Order:
		r.ID = id
		return r
	case models.Jewelry:
		r.ID = id
		return r
	case models.InventoryItem:
		r.ID = id
		return r
	case models.CashTransaction:
		r.ID = id
		return r
	case models.Note:
		r.ID = id
		return r
	}
	return record
}

func applyFields(entity string, record any, fields map[string]any) (any, error) {
	switch r := record.(type) {
	case models.Employee:
		for col, v := range fields {
			switch col {
			case "name":
				r.Name = v.(string)
			case "role":
				r.Role = v.(string)
			case "salary":
				f, _ := asFloat(v)
				r.Salary = f
			case "active":
				r.Active = v.(bool)
			default:
				return nil, fmt.Errorf("%w: no column %s on %s", ErrUnknownEntity, col, entity)
			}
		}
		return r, nil
	case models.Customer:
		for col, v := range fields {
			switch col {
			case "name":
				r.Name = v.(string)
			case "phone":
				r.Phone = v.(string)
			case "email":
				r.Email = v.(string)
			default:
				return nil, fmt.Errorf("%w: no column %s on %s", ErrUnknownEntity, col, entity)
			}
		}
		return r, nil
	case models.Vale:
		for col, v := range fields {
			switch col {
			case "status":
				r.Status = v.(string)
			case "amount":
				f, _ := asFloat(v)
				r.Amount = f
			case "reason":
				r.Reason = v.(string)
			case "paid_at":
				t := v.(time.Time)
				r.PaidAt = &t
			default:
				return nil, fmt.Errorf("%w: no column %s on %s", ErrUnknownEntity, col, entity)
			}
		}
		return r, nil
	case models.Order:
		for col, v := range fields {
			switch col {
			case "status":
				r.Status = v.(string)
			case "total_price":
				f, _ := asFloat(v)
				r.TotalPrice = f
			default:
				return nil, fmt.Errorf("%w: no column %s on %s", ErrUnknownEntity, col, entity)
			}
		}
		return r, nil
	case models.Jewelry:
		for col, v := range fields {
			switch col {
			case "name":
				r.Name = v.(string)
			case "category":
				r.Category = v.(string)
			case "price":
				f, _ := asFloat(v)
				r.Price = f
			default:
				return nil, fmt.Errorf("%w: no column %s on %s", ErrUnknownEntity, col, entity)
			}
		}
		return r, nil
	case models.InventoryItem:
		for col, v := range fields {
			switch col {
			case "name":
				r.Name = v.(string)
			case "quantity":
				f, _ := asFloat(v)
				r.Quantity = int(f)
			case "min_quantity":
				f, _ := asFloat(v)
				r.MinQuantity = int(f)
			default:
				return nil, fmt.Errorf("%w: no column %s on %s", ErrUnknownEntity, col, entity)
			}
		}
		return r, nil
	case models.CashTransaction:
		for col, v := range fields {
			switch col {
			case "description":
				r.Description = v.(string)
			case "amount":
				f, _ := asFloat(v)
				r.Amount = f
			default:
				return nil, fmt.Errorf("%w: no column %s on %s", ErrUnknownEntity, col, entity)
			}
		}
		return r, nil
	case models.Note:
		for col, v := range fields {
			switch col {
			case "title":
				r.Title = v.(string)
			case "content":
				r.Content = v.(string)
			default:
				return nil, fmt.Errorf("%w: no column %s on %s", ErrUnknownEntity, col, entity)
			}
		}
		return r, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
}
