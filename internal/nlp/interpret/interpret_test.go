package interpret

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lua-assistant/internal/nlp/classify"
)

func testInterpreter() *Interpreter {
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	return NewWithClock(func() time.Time { return now })
}

func TestInterpretValeCreation(t *testing.T) {
	intent := testInterpreter().Interpret("criar vale de 200 para Josemir")

	assert.Equal(t, ActionCreate, intent.Action)
	assert.Equal(t, EntityVale, intent.EntityType)
	assert.Equal(t, classify.CategoryCreate, intent.Category)
	assert.GreaterOrEqual(t, intent.Confidence, 0.8)
	assert.Equal(t, 200.0, intent.Entities["value"])
	assert.Equal(t, "Josemir", intent.Entities["person_name"])
}

func TestInterpretActions(t *testing.T) {
	tests := []struct {
		text   string
		action Action
		entity EntityType
	}{
		{text: "mostrar vales de Josemir", action: ActionRead, entity: EntityVale},
		{text: "listar clientes", action: ActionRead, entity: EntityCustomer},
		{text: "aprovar vales pendentes", action: ActionApprove, entity: EntityVale},
		{text: "pagar vale de Josemir", action: ActionPay, entity: EntityVale},
		{text: "confirmar encomendas", action: ActionConfirm, entity: EntityOrder},
		{text: "cancelar pedido", action: ActionCancel, entity: EntityOrder},
		{text: "atualizar cliente Maria", action: ActionUpdate, entity: EntityCustomer},
		{text: "excluir último vale", action: ActionDelete, entity: EntityVale},
		{text: "abrir caixa", action: ActionOpen, entity: EntityCashTransaction},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			intent := testInterpreter().Interpret(tt.text)
			assert.Equal(t, tt.action, intent.Action)
			assert.Equal(t, tt.entity, intent.EntityType)
		})
	}
}

func TestInterpretInferredAction(t *testing.T) {
	intent := testInterpreter().Interpret("quantos funcionários temos")
	assert.Equal(t, ActionRead, intent.Action)
	assert.Equal(t, EntityEmployee, intent.EntityType)
	// Inferred action confidence is lower than an explicit verb hit.
	assert.InDelta(t, (0.6+0.95)/2, intent.Confidence, 0.001)
}

func TestInterpretUnrecognized(t *testing.T) {
	intent := testInterpreter().Interpret("xyzzy plugh")
	assert.Equal(t, ActionUnknown, intent.Action)
	assert.Equal(t, EntityUnknown, intent.EntityType)
	assert.LessOrEqual(t, intent.Confidence, ConfidenceThreshold)
}

func TestInterpretMissingSlotsStillSucceeds(t *testing.T) {
	// Interpretation never fails on missing slots.
	intent := testInterpreter().Interpret("criar vale")
	assert.Equal(t, ActionCreate, intent.Action)
	assert.Equal(t, EntityVale, intent.EntityType)
	assert.GreaterOrEqual(t, intent.Confidence, 0.8)
	assert.NotContains(t, intent.Entities, "person_name")
	assert.NotContains(t, intent.Entities, "value")
}

func TestInterpretFilters(t *testing.T) {
	tests := []struct {
		text string
		key  string
		want string
	}{
		{text: "mostrar vales pendentes", key: "status", want: "pending"},
		{text: "listar vales pagos", key: "status", want: "paid"},
		{text: "encomendas de hoje", key: "time_filter", want: "today"},
		{text: "vendas deste mês", key: "time_filter", want: "this_month"},
		{text: "vales acima de 100", key: "value_condition", want: "greater_than"},
		{text: "pedidos mais recentes", key: "order", want: "desc"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			intent := testInterpreter().Interpret(tt.text)
			assert.Equal(t, tt.want, intent.Filters[tt.key])
		})
	}
}

func TestInterpretTargetsAndDates(t *testing.T) {
	intent := testInterpreter().Interpret("excluir último vale")
	assert.Equal(t, "last", intent.Entities["target"])

	intent = testInterpreter().Interpret("mostrar todas as encomendas")
	assert.Equal(t, "all", intent.Entities["target"])

	intent = testInterpreter().Interpret("vendas de ontem")
	date, ok := intent.Entities["date"].(time.Time)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), date)
}
