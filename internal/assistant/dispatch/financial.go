package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lua-assistant/internal/models"
	"lua-assistant/internal/nlp/interpret"
	"lua-assistant/internal/store"
)

func (d *Dispatcher) financialCommand(ctx context.Context, intent interpret.Intent) Result {
	lower := strings.ToLower(intent.RawText)

	switch {
	case strings.Contains(lower, "saldo"):
		return d.cashBalance(ctx, intent)
	case strings.Contains(lower, "entrada"), strings.Contains(lower, "receita"):
		return d.registerCash(ctx, intent, models.CashIn)
	case strings.Contains(lower, "saída"), strings.Contains(lower, "saida"), strings.Contains(lower, "despesa"):
		return d.registerCash(ctx, intent, models.CashOut)
	case strings.Contains(lower, "lucro"):
		return d.profitAnalysis(ctx, intent)
	}

	return Result{
		Success: false,
		Message: "Posso ajudar com: consultar saldo, registrar entradas/saídas ou calcular lucros.",
	}
}

func (d *Dispatcher) cashBalance(ctx context.Context, intent interpret.Intent) Result {
	day := d.now()
	if date, ok := intentDate(intent); ok {
		day = date
	}
	today := dayRange(day)

	// Everything up to the end of the requested day.
	allTime := store.Range{From: time.Time{}, To: today.To}
	entradas, saidas, _, err := d.cashTotals(ctx, allTime)
	if err != nil {
		return d.failure("cash_balance", err)
	}
	saldo := entradas - saidas

	todayIn, todayOut, _, err := d.cashTotals(ctx, today)
	if err != nil {
		return d.failure("cash_balance", err)
	}

	message := "SALDO DO CAIXA\n" + reportRule + "\n"
	message += fmt.Sprintf("Data: %s\n", day.Format("02/01/2006"))
	message += fmt.Sprintf("Saldo total: R$ %.2f\n\n", saldo)
	message += "MOVIMENTO DO DIA:\n"
	message += fmt.Sprintf("Entradas: R$ %.2f\n", todayIn)
	message += fmt.Sprintf("Saídas: R$ %.2f\n", todayOut)
	message += fmt.Sprintf("Saldo do dia: R$ %.2f", todayIn-todayOut)

	return Result{
		Success: true,
		Message: message,
		Action:  "balance",
		Module:  "caixa",
		Data: map[string]any{
			"total_balance": saldo,
			"today_in":      todayIn,
			"today_out":     todayOut,
			"today_balance": todayIn - todayOut,
		},
	}
}

func (d *Dispatcher) registerCash(ctx context.Context, intent interpret.Intent, direction string) Result {
	amount, ok := intentAmount(intent)
	if !ok {
		kind := "entrada"
		if direction == models.CashOut {
			kind = "saída/despesa"
		}
		return requestInfo(
			fmt.Sprintf("Qual o valor da %s que deseja registrar?", kind),
			[]string{"amount"})
	}

	transaction := models.CashTransaction{
		Type:        direction,
		Amount:      amount,
		Description: cashDescription(strings.ToLower(intent.RawText), direction),
		CategoryID:  cashCategory(direction),
		CreatedAt:   d.now(),
	}
	if _, err := d.store.Create(ctx, models.EntityCashTransaction, transaction); err != nil {
		return d.failure("register_cash", err)
	}

	verb := "Entrada"
	if direction == models.CashOut {
		verb = "Saída"
	}
	return Result{
		Success: true,
		Message: fmt.Sprintf("%s de R$ %.2f registrada com sucesso!\nDescrição: %s", verb, amount, transaction.Description),
		Action:  "registered",
		Module:  "caixa",
		Data: map[string]any{
			"type":        direction,
			"amount":      amount,
			"description": transaction.Description,
		},
	}
}

func cashDescription(lower, direction string) string {
	if direction == models.CashIn {
		switch {
		case strings.Contains(lower, "venda"):
			return "Venda de produtos"
		case strings.Contains(lower, "serviço"), strings.Contains(lower, "servico"):
			return "Prestação de serviço"
		default:
			return "Entrada registrada via assistente"
		}
	}
	switch {
	case strings.Contains(lower, "fornecedor"):
		return "Pagamento a fornecedor"
	case strings.Contains(lower, "conta"):
		return "Pagamento de conta"
	case strings.Contains(lower, "material"), strings.Contains(lower, "materiais"):
		return "Compra de materiais"
	default:
		return "Despesa registrada via assistente"
	}
}

func cashCategory(direction string) int64 {
	if direction == models.CashIn {
		return 1
	}
	return 2
}

func (d *Dispatcher) profitAnalysis(ctx context.Context, intent interpret.Intent) Result {
	period, label := d.periodRange(intent)

	revenue, costs, _, err := d.cashTotals(ctx, period)
	if err != nil {
		return d.failure("profit_analysis", err)
	}
	profit := revenue - costs
	var margin float64
	if revenue > 0 {
		margin = profit / revenue * 100
	}

	message := "ANÁLISE DE LUCRO\n" + reportRule + "\n"
	message += fmt.Sprintf("Período: %s\n", label)
	message += fmt.Sprintf("Receita: R$ %.2f\n", revenue)
	message += fmt.Sprintf("Custos: R$ %.2f\n", costs)
	message += fmt.Sprintf("Lucro: R$ %.2f\n", profit)
	message += fmt.Sprintf("Margem: %.1f%%", margin)

	return Result{
		Success: true,
		Message: message,
		Action:  "profit_analysis",
		Module:  "caixa",
		Data: map[string]any{
			"revenue": revenue,
			"costs":   costs,
			"profit":  profit,
			"margin":  margin,
		},
	}
}
