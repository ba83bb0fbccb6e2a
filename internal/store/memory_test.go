package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lua-assistant/internal/models"
)

func TestMemoryCreateAssignsSequentialIDs(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	first, err := m.Create(ctx, models.EntityEmployee, models.Employee{Name: "Josemir", Active: true})
	require.NoError(t, err)
	second, err := m.Create(ctx, models.EntityEmployee, models.Employee{Name: "Darvin", Active: true})
	require.NoError(t, err)

	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)

	record, err := m.FindOne(ctx, models.EntityEmployee, second)
	require.NoError(t, err)
	assert.Equal(t, "Darvin", record.(models.Employee).Name)
}

func TestMemoryFindManyPredicates(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	seed := []models.Vale{
		{EmployeeID: 1, Amount: 200, Status: models.ValeStatusPending, CreatedAt: base},
		{EmployeeID: 1, Amount: 80, Status: models.ValeStatusPaid, CreatedAt: base.Add(time.Hour)},
		{EmployeeID: 2, Amount: 350, Status: models.ValeStatusPending, CreatedAt: base.Add(2 * time.Hour)},
	}
	for _, v := range seed {
		_, err := m.Create(ctx, models.EntityVale, v)
		require.NoError(t, err)
	}

	tests := []struct {
		name string
		pred Predicate
		want int
	}{
		{name: "by status", pred: Predicate{"status": models.ValeStatusPending}, want: 2},
		{name: "by employee and status", pred: Predicate{"employee_id": int64(1), "status": models.ValeStatusPending}, want: 1},
		{name: "amount above threshold", pred: Predicate{"amount": Compare{Op: ">", Value: 100}}, want: 2},
		{name: "created in window", pred: Predicate{"created_at": Range{From: base, To: base.Add(90 * time.Minute)}}, want: 2},
		{name: "no match", pred: Predicate{"status": "cancelled"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := m.FindMany(ctx, models.EntityVale, tt.pred, Options{})
			require.NoError(t, err)
			assert.Len(t, records, tt.want)
		})
	}
}

func TestMemoryOrderingAndLimit(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for _, amount := range []float64{50, 300, 120} {
		_, err := m.Create(ctx, models.EntityVale, models.Vale{Amount: amount, Status: models.ValeStatusPending})
		require.NoError(t, err)
	}

	records, err := m.FindMany(ctx, models.EntityVale, nil, Options{OrderBy: "amount", Descending: true, Limit: 2})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 300.0, records[0].(models.Vale).Amount)
	assert.Equal(t, 120.0, records[1].(models.Vale).Amount)
}

func TestMemoryUpdateAndDelete(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id, err := m.Create(ctx, models.EntityVale, models.Vale{Amount: 200, Status: models.ValeStatusPending})
	require.NoError(t, err)

	paidAt := time.Date(2026, 8, 31, 11, 0, 0, 0, time.UTC)
	err = m.Update(ctx, models.EntityVale, id, map[string]any{"status": models.ValeStatusPaid, "paid_at": paidAt})
	require.NoError(t, err)

	record, err := m.FindOne(ctx, models.EntityVale, id)
	require.NoError(t, err)
	vale := record.(models.Vale)
	assert.Equal(t, models.ValeStatusPaid, vale.Status)
	require.NotNil(t, vale.PaidAt)
	assert.Equal(t, paidAt, *vale.PaidAt)

	require.NoError(t, m.Delete(ctx, models.EntityVale, id))
	_, err = m.FindOne(ctx, models.EntityVale, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryTransactionRollbackDiscardsChanges(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id, err := m.Create(ctx, models.EntityVale, models.Vale{Amount: 200, Status: models.ValeStatusPending})
	require.NoError(t, err)

	tx, err := m.Begin(ctx)
	require.NoError(t, err)

	require.NoError(t, tx.Update(ctx, models.EntityVale, id, map[string]any{"status": models.ValeStatusApproved}))
	_, err = tx.Create(ctx, models.EntityCashTransaction, models.CashTransaction{Type: models.CashOut, Amount: 200})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	record, err := m.FindOne(ctx, models.EntityVale, id)
	require.NoError(t, err)
	assert.Equal(t, models.ValeStatusPending, record.(models.Vale).Status)

	n, err := m.Count(ctx, models.EntityCashTransaction, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryTransactionCommitApplies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id, err := m.Create(ctx, models.EntityVale, models.Vale{Amount: 200, Status: models.ValeStatusApproved})
	require.NoError(t, err)

	tx, err := m.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Update(ctx, models.EntityVale, id, map[string]any{"status": models.ValeStatusPaid}))
	_, err = tx.Create(ctx, models.EntityCashTransaction, models.CashTransaction{Type: models.CashOut, Amount: 200})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	record, err := m.FindOne(ctx, models.EntityVale, id)
	require.NoError(t, err)
	assert.Equal(t, models.ValeStatusPaid, record.(models.Vale).Status)

	n, err := m.Count(ctx, models.EntityCashTransaction, Predicate{"type": models.CashOut})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.ErrorIs(t, tx.Commit(), ErrTxClosed)
}
