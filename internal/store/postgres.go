package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"lua-assistant/internal/common/logger"
	"lua-assistant/internal/models"
)

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type entityMeta struct {
	table   string
	columns []string
	scan    func(scan func(dest ...any) error) (any, error)
	values  func(record any) ([]any, error)
}

var entities = map[string]entityMeta{
	models.EntityEmployee: {
		table:   "employees",
		columns: []string{"id", "name", "role", "salary", "active"},
		scan: func(scan func(dest ...any) error) (any, error) {
			var e models.Employee
			if err := scan(&e.ID, &e.Name, &e.Role, &e.Salary, &e.Active); err != nil {
				return nil, err
			}
			return e, nil
		},
		values: func(record any) ([]any, error) {
			e, ok := record.(models.Employee)
			if !ok {
				return nil, fmt.Errorf("%w: expected Employee, got %T", ErrUnknownEntity, record)
			}
			return []any{e.Name, e.Role, e.Salary, e.Active}, nil
		},
	},
	models.EntityCustomer: {
		table:   "customers",
		columns: []string{"id", "name", "phone", "email"},
		scan: func(scan func(dest ...any) error) (any, error) {
			var c models.Customer
			if err := scan(&c.ID, &c.Name, &c.Phone, &c.Email); err != nil {
				return nil, err
			}
			return c, nil
		},
		values: func(record any) ([]any, error) {
			c, ok := record.(models.Customer)
			if !ok {
				return nil, fmt.Errorf("%w: expected Customer, got %T", ErrUnknownEntity, record)
			}
			return []any{c.Name, c.Phone, c.Email}, nil
		},
	},
	models.EntityVale: {
		table:   "vales",
		columns: []string{"id", "employee_id", "amount", "reason", "status", "created_at", "paid_at"},
		scan: func(scan func(dest ...any) error) (any, error) {
			var v models.Vale
			var paidAt sql.NullTime
			if err := scan(&v.ID, &v.EmployeeID, &v.Amount, &v.Reason, &v.Status, &v.CreatedAt, &paidAt); err != nil {
				return nil, err
			}
			if paidAt.Valid {
				t := paidAt.Time
				v.PaidAt = &t
			}
			return v, nil
		},
		values: func(record any) ([]any, error) {
			v, ok := record.(models.Vale)
			if !ok {
				return nil, fmt.Errorf("%w: expected Vale, got %T", ErrUnknownEntity, record)
			}
			var paidAt any
			if v.PaidAt != nil {
				paidAt = *v.PaidAt
			}
			return []any{v.EmployeeID, v.Amount, v.Reason, v.Status, v.CreatedAt, paidAt}, nil
		},
	},
	models.EntityOrder: {
		table:   "orders",
		columns: []string{"id", "customer_id", "total_price", "status", "created_at"},
		scan: func(scan func(dest ...any) error) (any, error) {
			var o models.Order
			if err := scan(&o.ID, &o.CustomerID, &o.TotalPrice, &o.Status, &o.CreatedAt); err != nil {
				return nil, err
			}
			return o, nil
		},
		values: func(record any) ([]any, error) {
			o, ok := record.(models.Order)
			if !ok {
				return nil, fmt.Errorf("%w: expected Order, got %T", ErrUnknownEntity, record)
			}
			return []any{o.CustomerID, o.TotalPrice, o.Status, o.CreatedAt}, nil
		},
	},
	models.EntityJewelry: {
		table:   "jewelry",
		columns: []string{"id", "name", "category", "price"},
		scan: func(scan func(dest ...any) error) (any, error) {
			var j models.Jewelry
			if err := scan(&j.ID, &j.Name, &j.Category, &j.Price); err != nil {
				return nil, err
			}
			return j, nil
		},
		values: func(record any) ([]any, error) {
			j, ok := record.(models.Jewelry)
			if !ok {
				return nil, fmt.Errorf("%w: expected Jewelry, got %T", ErrUnknownEntity, record)
			}
			return []any{j.Name, j.Category, j.Price}, nil
		},
	},
	models.EntityInventoryItem: {
		table:   "inventory",
		columns: []string{"id", "name", "quantity", "min_quantity"},
		scan: func(scan func(dest ...any) error) (any, error) {
			var it models.InventoryItem
			if err := scan(&it.ID, &it.Name, &it.Quantity, &it.MinQuantity); err != nil {
				return nil, err
			}
			return it, nil
		},
		values: func(record any) ([]any, error) {
			it, ok := record.(models.InventoryItem)
			if !ok {
				return nil, fmt.Errorf("%w: expected InventoryItem, got %T", ErrUnknownEntity, record)
			}
			return []any{it.Name, it.Quantity, it.MinQuantity}, nil
		},
	},
	models.EntityCashTransaction: {
		table:   "cash_transactions",
		columns: []string{"id", "type", "amount", "description", "category_id", "created_at"},
		scan: func(scan func(dest ...any) error) (any, error) {
			var t models.CashTransaction
			if err := scan(&t.ID, &t.Type, &t.Amount, &t.Description, &t.CategoryID, &t.CreatedAt); err != nil {
				return nil, err
			}
			return t, nil
		},
		values: func(record any) ([]any, error) {
			t, ok := record.(models.CashTransaction)
			if !ok {
				return nil, fmt.Errorf("%w: expected CashTransaction, got %T", ErrUnknownEntity, record)
			}
			return []any{t.Type, t.Amount, t.Description, t.CategoryID, t.CreatedAt}, nil
		},
	},
	models.EntityNote: {
		table:   "notes",
		columns: []string{"id", "title", "content", "created_at"},
		scan: func(scan func(dest ...any) error) (any, error) {
			var n models.Note
			if err := scan(&n.ID, &n.Title, &n.Content, &n.CreatedAt); err != nil {
				return nil, err
			}
			return n, nil
		},
		values: func(record any) ([]any, error) {
			n, ok := record.(models.Note)
			if !ok {
				return nil, fmt.Errorf("%w: expected Note, got %T", ErrUnknownEntity, record)
			}
			return []any{n.Title, n.Content, n.CreatedAt}, nil
		},
	},
}

// Postgres is the production store backed by lib/pq.
type Postgres struct {
	pgOps
	db  *sql.DB
	log logger.Logger
}

func NewPostgres(db *sql.DB, log logger.Logger) *Postgres {
	return &Postgres{pgOps: pgOps{q: db}, db: db, log: log}
}

func (p *Postgres) Begin(ctx context.Context) (Tx, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &pgTx{pgOps: pgOps{q: tx}, tx: tx}, nil
}

type pgTx struct {
	pgOps
	tx   *sql.Tx
	done bool
}

func (t *pgTx) Commit() error {
	if t.done {
		return ErrTxClosed
	}
	t.done = true
	return t.tx.Commit()
}

func (t *pgTx) Rollback() error {
	if t.done {
		return ErrTxClosed
	}
	t.done = true
	return t.tx.Rollback()
}

// pgOps implements Reader and Writer over either *sql.DB or *sql.Tx.
type pgOps struct {
	q querier
}

func (o pgOps) FindOne(ctx context.Context, entity string, id int64) (any, error) {
	meta, ok := entities[entity]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", strings.Join(meta.columns, ", "), meta.table)
	row := o.q.QueryRowContext(ctx, query, id)
	record, err := meta.scan(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s id=%d", ErrNotFound, entity, id)
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", entity, err)
	}
	return record, nil
}

func (o pgOps) FindMany(ctx context.Context, entity string, pred Predicate, opts Options) ([]any, error) {
	meta, ok := entities[entity]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(meta.columns, ", "), meta.table)
	where, args := buildWhere(pred)
	query += where
	if opts.OrderBy != "" {
		query += " ORDER BY " + opts.OrderBy
		if opts.Descending {
			query += " DESC"
		}
	}
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	rows, err := o.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", entity, err)
	}
	defer rows.Close()

	var records []any
	for rows.Next() {
		record, err := meta.scan(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", entity, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", entity, err)
	}
	return records, nil
}

func (o pgOps) Count(ctx context.Context, entity string, pred Predicate) (int64, error) {
	meta, ok := entities[entity]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
	where, args := buildWhere(pred)
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", meta.table, where)
	var count int64
	if err := o.q.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", entity, err)
	}
	return count, nil
}

func (o pgOps) Create(ctx context.Context, entity string, record any) (int64, error) {
	meta, ok := entities[entity]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
	values, err := meta.values(record)
	if err != nil {
		return 0, err
	}
	cols := meta.columns[1:]
	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		meta.table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	var id int64
	if err := o.q.QueryRowContext(ctx, query, values...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert %s: %w", entity, err)
	}
	return id, nil
}

func (o pgOps) Update(ctx context.Context, entity string, id int64, fields map[string]any) error {
	meta, ok := entities[entity]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
	cols := make([]string, 0, len(fields))
	for col := range fields {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, col := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", col, i+1)
		args = append(args, fields[col])
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", meta.table, strings.Join(sets, ", "), len(cols)+1)

	result, err := o.q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", entity, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("%w: %s id=%d", ErrNotFound, entity, id)
	}
	return nil
}

func (o pgOps) Delete(ctx context.Context, entity string, id int64) error {
	meta, ok := entities[entity]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
	result, err := o.q.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", meta.table), id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", entity, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("%w: %s id=%d", ErrNotFound, entity, id)
	}
	return nil
}

// buildWhere renders pred into a WHERE clause with positional args.
// Keys are sorted so the generated SQL is stable.
func buildWhere(pred Predicate) (string, []any) {
	if len(pred) == 0 {
		return "", nil
	}
	keys := make([]string, 0, len(pred))
	for k := range pred {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var conds []string
	var args []any
	n := 1
	for _, col := range keys {
		switch v := pred[col].(type) {
		case Range:
			conds = append(conds, fmt.Sprintf("%s >= $%d AND %s < $%d", col, n, col, n+1))
			args = append(args, v.From, v.To)
			n += 2
		case Compare:
			op := v.Op
			if op != ">" && op != "<" {
				op = "="
			}
			conds = append(conds, fmt.Sprintf("%s %s $%d", col, op, n))
			args = append(args, v.Value)
			n++
		default:
			conds = append(conds, fmt.Sprintf("%s = $%d", col, n))
			args = append(args, v)
			n++
		}
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
