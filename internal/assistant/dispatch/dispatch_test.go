package dispatch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lua-assistant/internal/common/logger"
	"lua-assistant/internal/models"
	"lua-assistant/internal/nlp/interpret"
	"lua-assistant/internal/store"
)

var testNow = time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

func testDispatcher(t *testing.T) (*Dispatcher, *store.Memory) {
	t.Helper()
	m := store.NewMemory()
	d := New(Deps{
		Store:  m,
		Logger: logger.NewTestLogger(t),
		Clock:  func() time.Time { return testNow },
	})
	return d, m
}

func seedEmployees(t *testing.T, m *store.Memory) {
	t.Helper()
	ctx := context.Background()
	for _, e := range []models.Employee{
		{Name: "Josemir", Role: "vendedor", Salary: 2500, Active: true},
		{Name: "Antonio Darvin", Role: "ourives", Salary: 3200, Active: true},
		{Name: "Maria Lucia", Role: "gerente", Salary: 4000, Active: true},
	} {
		_, err := m.Create(ctx, models.EntityEmployee, e)
		require.NoError(t, err)
	}
}

func dispatchText(t *testing.T, d *Dispatcher, text string) Result {
	t.Helper()
	intent := interpret.NewWithClock(func() time.Time { return testNow }).Interpret(text)
	return d.Dispatch(context.Background(), intent)
}

func TestCreateValePersistsPending(t *testing.T) {
	d, m := testDispatcher(t)
	seedEmployees(t, m)

	result := dispatchText(t, d, "criar vale de 200 para Josemir")
	require.True(t, result.Success, result.Message)
	assert.Equal(t, "created", result.Action)
	assert.Equal(t, "vales", result.Module)
	assert.Equal(t, "Josemir", result.Data["employee"])

	records, err := m.FindMany(context.Background(), models.EntityVale, nil, store.Options{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	vale := records[0].(models.Vale)
	assert.Equal(t, models.ValeStatusPending, vale.Status)
	assert.Equal(t, 200.0, vale.Amount)
}

func TestCreateValeReasonInference(t *testing.T) {
	d, m := testDispatcher(t)
	seedEmployees(t, m)

	result := dispatchText(t, d, "criar vale almoço de 50 para Josemir")
	require.True(t, result.Success, result.Message)
	assert.Equal(t, "Vale almoço", result.Data["reason"])
}

func TestCreateValeMissingSlots(t *testing.T) {
	d, m := testDispatcher(t)
	seedEmployees(t, m)

	result := dispatchText(t, d, "criar vale")
	require.False(t, result.Success)
	assert.Equal(t, "request_info", result.Action)
	assert.Contains(t, result.RequiredFields, "employee_name")
	assert.Contains(t, result.RequiredFields, "amount")
	assert.Equal(t, "MISSING_REQUIRED_SLOT", result.Data["error_code"])

	result = dispatchText(t, d, "criar vale para Josemir")
	require.False(t, result.Success)
	assert.Equal(t, []string{"amount"}, result.RequiredFields)
	assert.Equal(t, "MISSING_REQUIRED_SLOT", result.Data["error_code"])
}

func TestCreateValeUnknownEmployeeSuggests(t *testing.T) {
	d, m := testDispatcher(t)
	seedEmployees(t, m)

	result := dispatchText(t, d, "criar vale de 200 para Zebedeu")
	require.False(t, result.Success)
	assert.NotEmpty(t, result.Suggestions)
	assert.Equal(t, "ENTITY_NOT_FOUND", result.Data["error_code"])
}

func TestCreateValeCorrectedName(t *testing.T) {
	d, m := testDispatcher(t)
	seedEmployees(t, m)

	// Voice transcription writes Darwin; the roster has Antonio Darvin.
	result := dispatchText(t, d, "criar vale de 150 para Darwin")
	require.True(t, result.Success, result.Message)
	assert.Equal(t, "Antonio Darvin", result.Data["employee"])
}

func TestApproveThenPaySingleLedgerDebit(t *testing.T) {
	d, m := testDispatcher(t)
	seedEmployees(t, m)
	ctx := context.Background()

	require.True(t, dispatchText(t, d, "criar vale de 200 para Josemir").Success)
	require.True(t, dispatchText(t, d, "criar vale de 80 para Darwin").Success)

	result := dispatchText(t, d, "aprovar vales pendentes")
	require.True(t, result.Success, result.Message)
	assert.Equal(t, 2, result.Data["count"])

	result = dispatchText(t, d, "pagar vales aprovados")
	require.True(t, result.Success, result.Message)
	assert.Equal(t, 2, result.Data["count"])
	assert.Equal(t, 280.0, result.Data["total"])

	records, err := m.FindMany(ctx, models.EntityVale, nil, store.Options{})
	require.NoError(t, err)
	for _, r := range records {
		vale := r.(models.Vale)
		assert.Equal(t, models.ValeStatusPaid, vale.Status)
		require.NotNil(t, vale.PaidAt)
	}

	// Exactly one cash debit per vale, amounts matching.
	debits, err := m.FindMany(ctx, models.EntityCashTransaction,
		store.Predicate{"type": models.CashOut}, store.Options{OrderBy: "amount"})
	require.NoError(t, err)
	require.Len(t, debits, 2)
	assert.Equal(t, 80.0, debits[0].(models.CashTransaction).Amount)
	assert.Equal(t, 200.0, debits[1].(models.CashTransaction).Amount)
}

func TestPayValeScopedToEmployee(t *testing.T) {
	d, m := testDispatcher(t)
	seedEmployees(t, m)
	ctx := context.Background()

	require.True(t, dispatchText(t, d, "criar vale de 200 para Josemir").Success)
	require.True(t, dispatchText(t, d, "criar vale de 80 para Darvin").Success)
	require.True(t, dispatchText(t, d, "aprovar vales pendentes").Success)

	result := dispatchText(t, d, "pagar vale de Josemir")
	require.True(t, result.Success, result.Message)
	assert.Equal(t, 1, result.Data["count"])

	remaining, err := m.FindMany(ctx, models.EntityVale,
		store.Predicate{"status": models.ValeStatusApproved}, store.Options{})
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestPayValesNoneApproved(t *testing.T) {
	d, m := testDispatcher(t)
	seedEmployees(t, m)

	result := dispatchText(t, d, "pagar vales")
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "aprovados")
}

type cashCreateFailStore struct {
	store.Store
}

func (s cashCreateFailStore) Begin(ctx context.Context) (store.Tx, error) {
	tx, err := s.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return cashCreateFailTx{tx}, nil
}

type cashCreateFailTx struct {
	store.Tx
}

func (t cashCreateFailTx) Create(ctx context.Context, entity string, record any) (int64, error) {
	if entity == models.EntityCashTransaction {
		return 0, errors.New("ledger unavailable")
	}
	return t.Tx.Create(ctx, entity, record)
}

type createFailStore struct {
	store.Store
}

func (s createFailStore) Create(ctx context.Context, entity string, record any) (int64, error) {
	return 0, errors.New("connection reset")
}

func TestStoreFailureSurfacesErrorCode(t *testing.T) {
	m := store.NewMemory()
	d := New(Deps{
		Store:  createFailStore{Store: m},
		Logger: logger.NewNoOpLogger(),
		Clock:  func() time.Time { return testNow },
	})
	seedEmployees(t, m)

	result := dispatchText(t, d, "criar vale de 200 para Josemir")
	require.False(t, result.Success)
	assert.Contains(t, result.Message, "Ocorreu um erro")
	assert.Equal(t, "PERSISTENCE_FAILURE", result.Data["error_code"])
}

func TestPayValesRollsBackOnLedgerFailure(t *testing.T) {
	m := store.NewMemory()
	d := New(Deps{
		Store:  cashCreateFailStore{Store: m},
		Logger: logger.NewNoOpLogger(),
		Clock:  func() time.Time { return testNow },
	})
	seedEmployees(t, m)
	ctx := context.Background()

	require.True(t, dispatchText(t, d, "criar vale de 200 para Josemir").Success)
	require.True(t, dispatchText(t, d, "aprovar vales pendentes").Success)

	result := dispatchText(t, d, "pagar vales aprovados")
	require.False(t, result.Success)

	// The status change rolled back with the failed ledger write.
	records, err := m.FindMany(ctx, models.EntityVale, nil, store.Options{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.ValeStatusApproved, records[0].(models.Vale).Status)

	n, err := m.Count(ctx, models.EntityCashTransaction, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSearchValesDisplayCap(t *testing.T) {
	d, m := testDispatcher(t)
	seedEmployees(t, m)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		_, err := m.Create(ctx, models.EntityVale, models.Vale{
			EmployeeID: 1, Amount: 100, Reason: "Vale transporte",
			Status: models.ValeStatusPending, CreatedAt: testNow,
		})
		require.NoError(t, err)
	}

	result := dispatchText(t, d, "mostrar vales pendentes")
	require.True(t, result.Success)
	assert.Equal(t, 8, result.Data["count"])
	assert.Equal(t, 800.0, result.Data["total"])
	assert.Contains(t, result.Message, "... e mais 3 vales.")
}

func TestSearchValesByEmployeeAndStatus(t *testing.T) {
	d, m := testDispatcher(t)
	seedEmployees(t, m)
	ctx := context.Background()

	_, err := m.Create(ctx, models.EntityVale, models.Vale{
		EmployeeID: 1, Amount: 120, Status: models.ValeStatusPending, CreatedAt: testNow,
	})
	require.NoError(t, err)
	_, err = m.Create(ctx, models.EntityVale, models.Vale{
		EmployeeID: 2, Amount: 300, Status: models.ValeStatusPaid, CreatedAt: testNow,
	})
	require.NoError(t, err)

	result := dispatchText(t, d, "mostrar vales de Josemir")
	require.True(t, result.Success)
	assert.Equal(t, 1, result.Data["count"])
	assert.Contains(t, result.Message, "Josemir")
}

func TestSearchCustomers(t *testing.T) {
	d, m := testDispatcher(t)
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		_, err := m.Create(ctx, models.EntityCustomer, models.Customer{
			Name: fmt.Sprintf("Cliente %02d", i), Phone: "9999",
		})
		require.NoError(t, err)
	}

	result := dispatchText(t, d, "listar clientes")
	require.True(t, result.Success)
	assert.Equal(t, 12, result.Data["count"])
	assert.Contains(t, result.Message, "... e mais 2 clientes.")
}

func TestSalesReport(t *testing.T) {
	d, m := testDispatcher(t)
	ctx := context.Background()

	for _, o := range []models.Order{
		{CustomerID: 1, TotalPrice: 500, Status: models.OrderStatusConfirmed, CreatedAt: testNow},
		{CustomerID: 1, TotalPrice: 300, Status: models.OrderStatusDelivered, CreatedAt: testNow},
		{CustomerID: 1, TotalPrice: 900, Status: models.OrderStatusPending, CreatedAt: testNow},
	} {
		_, err := m.Create(ctx, models.EntityOrder, o)
		require.NoError(t, err)
	}

	result := dispatchText(t, d, "relatório de vendas hoje")
	require.True(t, result.Success)
	assert.Equal(t, 2, result.Data["count"])
	assert.Equal(t, 800.0, result.Data["total"])
	assert.Equal(t, 400.0, result.Data["average"])
	assert.Contains(t, result.Message, "Ticket médio")
}

func TestRegisterCashAndBalance(t *testing.T) {
	d, _ := testDispatcher(t)

	result := dispatchText(t, d, "registrar entrada de venda de 500 no caixa")
	require.True(t, result.Success, result.Message)
	assert.Equal(t, "Venda de produtos", result.Data["description"])

	result = dispatchText(t, d, "registrar despesa de 120 do fornecedor")
	require.True(t, result.Success, result.Message)
	assert.Equal(t, models.CashOut, result.Data["type"])

	result = dispatchText(t, d, "qual o saldo do caixa")
	require.True(t, result.Success)
	assert.Equal(t, 380.0, result.Data["total_balance"])
}

func TestRegisterCashMissingAmount(t *testing.T) {
	d, _ := testDispatcher(t)

	result := dispatchText(t, d, "registrar entrada no caixa")
	require.False(t, result.Success)
	assert.Equal(t, []string{"amount"}, result.RequiredFields)
}

func TestProfitAnalysis(t *testing.T) {
	d, m := testDispatcher(t)
	ctx := context.Background()

	_, err := m.Create(ctx, models.EntityCashTransaction, models.CashTransaction{
		Type: models.CashIn, Amount: 1000, CreatedAt: testNow,
	})
	require.NoError(t, err)
	_, err = m.Create(ctx, models.EntityCashTransaction, models.CashTransaction{
		Type: models.CashOut, Amount: 250, CreatedAt: testNow,
	})
	require.NoError(t, err)

	result := dispatchText(t, d, "calcular lucro de hoje")
	require.True(t, result.Success)
	assert.Equal(t, 750.0, result.Data["profit"])
	assert.Equal(t, 75.0, result.Data["margin"])
}

func TestInventoryCommands(t *testing.T) {
	d, m := testDispatcher(t)
	ctx := context.Background()

	for _, item := range []models.InventoryItem{
		{Name: "Ouro 18k", Quantity: 12, MinQuantity: 5},
		{Name: "Prata 925", Quantity: 2, MinQuantity: 5},
		{Name: "Esmeralda", Quantity: 0, MinQuantity: 2},
	} {
		_, err := m.Create(ctx, models.EntityInventoryItem, item)
		require.NoError(t, err)
	}

	result := dispatchText(t, d, "quanto temos de ouro no estoque?")
	require.True(t, result.Success, result.Message)
	assert.Contains(t, result.Message, "Ouro 18k")
	assert.Contains(t, result.Message, "Normal")

	result = dispatchText(t, d, "o que acabou no estoque?")
	require.True(t, result.Success)
	assert.Equal(t, 1, result.Data["count"])

	result = dispatchText(t, d, "quais itens estão com estoque baixo")
	require.True(t, result.Success)
	assert.Equal(t, 1, result.Data["count"])

	result = dispatchText(t, d, "adicionar 10 unidades de Prata")
	require.True(t, result.Success, result.Message)
	assert.Equal(t, 12, result.Data["new_quantity"])
}

func TestGreetingByHour(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{hour: 8, want: "Bom dia"},
		{hour: 14, want: "Boa tarde"},
		{hour: 21, want: "Boa noite"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			m := store.NewMemory()
			d := New(Deps{
				Store:  m,
				Logger: logger.NewNoOpLogger(),
				Clock: func() time.Time {
					return time.Date(2026, 8, 31, tt.hour, 0, 0, 0, time.UTC)
				},
			})
			result := dispatchText(t, d, "olá")
			require.True(t, result.Success)
			assert.Contains(t, result.Message, tt.want)
		})
	}
}

func TestHelpAndStatus(t *testing.T) {
	d, m := testDispatcher(t)
	seedEmployees(t, m)

	result := dispatchText(t, d, "ajuda")
	require.True(t, result.Success)
	assert.Contains(t, result.Message, "COMANDOS DISPONÍVEIS")

	result = dispatchText(t, d, "status do sistema")
	require.True(t, result.Success)
	assert.Equal(t, int64(3), result.Data["employees"])
}

func TestFallbackSuggestions(t *testing.T) {
	d, m := testDispatcher(t)
	seedEmployees(t, m)

	result := dispatchText(t, d, "aquilo do josemir")
	require.False(t, result.Success)
	assert.NotEmpty(t, result.Suggestions)
	assert.Contains(t, result.Suggestions, "Mostrar vales de Josemir")

	result = dispatchText(t, d, "xyzzy plugh")
	require.False(t, result.Success)
	assert.Empty(t, result.Suggestions)
	assert.Equal(t, "UNRECOGNIZED_COMMAND", result.Data["error_code"])
}

func TestConfirmOrders(t *testing.T) {
	d, m := testDispatcher(t)
	ctx := context.Background()

	_, err := m.Create(ctx, models.EntityOrder, models.Order{
		CustomerID: 1, TotalPrice: 450, Status: models.OrderStatusPending, CreatedAt: testNow,
	})
	require.NoError(t, err)

	result := dispatchText(t, d, "confirmar encomendas pendentes")
	require.True(t, result.Success, result.Message)
	assert.Equal(t, 1, result.Data["count"])

	records, err := m.FindMany(ctx, models.EntityOrder, nil, store.Options{})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, records[0].(models.Order).Status)
}

func TestCreateNote(t *testing.T) {
	d, m := testDispatcher(t)

	result := dispatchText(t, d, "criar nota ligar para o fornecedor amanhã cedo")
	require.True(t, result.Success, result.Message)
	assert.Equal(t, "created", result.Action)

	records, err := m.FindMany(context.Background(), models.EntityNote, nil, store.Options{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Contains(t, records[0].(models.Note).Content, "fornecedor")
}
