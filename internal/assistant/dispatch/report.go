package dispatch

import (
	"context"
	"fmt"
	"strings"

	"lua-assistant/internal/models"
	"lua-assistant/internal/nlp/interpret"
	"lua-assistant/internal/store"
)

const reportRule = "========================================"

func (d *Dispatcher) reportCommand(ctx context.Context, intent interpret.Intent) Result {
	lower := strings.ToLower(intent.RawText)

	switch {
	case strings.Contains(lower, "venda"):
		return d.salesReport(ctx, intent)
	case strings.Contains(lower, "financeiro"), strings.Contains(lower, "caixa"):
		return d.financialReport(ctx, intent)
	case strings.Contains(lower, "estoque"):
		return d.inventoryReport(ctx)
	case strings.Contains(lower, "funcionário"), strings.Contains(lower, "funcionario"), strings.Contains(lower, "folha"):
		return d.payrollReport(ctx)
	}

	return Result{
		Success: false,
		Message: "Posso gerar relatórios de: vendas, financeiro, estoque ou folha de pagamento.",
	}
}

func (d *Dispatcher) salesReport(ctx context.Context, intent interpret.Intent) Result {
	period, label := d.periodRange(intent)

	records, err := d.store.FindMany(ctx, models.EntityOrder,
		store.Predicate{"created_at": period}, store.Options{})
	if err != nil {
		return d.failure("sales_report", err)
	}

	var orders []models.Order
	for _, r := range records {
		order := r.(models.Order)
		if order.Status == models.OrderStatusConfirmed || order.Status == models.OrderStatusDelivered {
			orders = append(orders, order)
		}
	}

	if len(orders) == 0 {
		return Result{
			Success: true,
			Message: "Não há vendas no período especificado.",
			Data:    map[string]any{"count": 0, "total": 0.0},
		}
	}

	var total float64
	for _, o := range orders {
		total += o.TotalPrice
	}
	average := total / float64(len(orders))

	message := "RELATÓRIO DE VENDAS\n" + reportRule + "\n"
	message += fmt.Sprintf("Período: %s\n", label)
	message += fmt.Sprintf("Total de vendas: %d\n", len(orders))
	message += fmt.Sprintf("Valor total: R$ %.2f\n", total)
	message += fmt.Sprintf("Ticket médio: R$ %.2f", average)

	return Result{
		Success: true,
		Message: message,
		Action:  "report",
		Module:  "dashboard",
		Data: map[string]any{
			"type":    "sales",
			"count":   len(orders),
			"total":   total,
			"average": average,
		},
	}
}

func (d *Dispatcher) financialReport(ctx context.Context, intent interpret.Intent) Result {
	period, label := d.periodRange(intent)

	entradas, saidas, count, err := d.cashTotals(ctx, period)
	if err != nil {
		return d.failure("financial_report", err)
	}
	saldo := entradas - saidas

	message := "RELATÓRIO FINANCEIRO\n" + reportRule + "\n"
	message += fmt.Sprintf("Período: %s\n", label)
	message += fmt.Sprintf("Entradas: R$ %.2f\n", entradas)
	message += fmt.Sprintf("Saídas: R$ %.2f\n", saidas)
	message += fmt.Sprintf("Saldo: R$ %.2f\n", saldo)
	message += fmt.Sprintf("Total de transações: %d", count)

	return Result{
		Success: true,
		Message: message,
		Action:  "report",
		Module:  "caixa",
		Data: map[string]any{
			"entradas":     entradas,
			"saidas":       saidas,
			"saldo":        saldo,
			"transactions": count,
		},
	}
}

// cashTotals sums ledger entries inside the window, split by direction.
func (d *Dispatcher) cashTotals(ctx context.Context, period store.Range) (entradas, saidas float64, count int, err error) {
	records, err := d.store.FindMany(ctx, models.EntityCashTransaction,
		store.Predicate{"created_at": period}, store.Options{})
	if err != nil {
		return 0, 0, 0, err
	}
	for _, r := range records {
		t := r.(models.CashTransaction)
		if t.Type == models.CashIn {
			entradas += t.Amount
		} else {
			saidas += t.Amount
		}
	}
	return entradas, saidas, len(records), nil
}

func (d *Dispatcher) inventoryReport(ctx context.Context) Result {
	records, err := d.store.FindMany(ctx, models.EntityInventoryItem, nil, store.Options{OrderBy: "name"})
	if err != nil {
		return d.failure("inventory_report", err)
	}

	var lowStock, outOfStock []models.InventoryItem
	for _, r := range records {
		item := r.(models.InventoryItem)
		if item.Quantity == 0 {
			outOfStock = append(outOfStock, item)
		} else if item.Quantity <= item.MinQuantity {
			lowStock = append(lowStock, item)
		}
	}

	message := "RELATÓRIO DE ESTOQUE\n" + reportRule + "\n"
	message += fmt.Sprintf("Total de itens: %d\n", len(records))
	message += fmt.Sprintf("Estoque baixo: %d itens\n", len(lowStock))
	message += fmt.Sprintf("Sem estoque: %d itens\n", len(outOfStock))

	if len(lowStock) > 0 {
		message += "\nITENS COM ESTOQUE BAIXO:\n"
		shown := len(lowStock)
		if shown > d.limit {
			shown = d.limit
		}
		for _, item := range lowStock[:shown] {
			message += fmt.Sprintf("• %s: %d unidades (mínimo: %d)\n", item.Name, item.Quantity, item.MinQuantity)
		}
	}

	if d.notifier != nil {
		for _, item := range lowStock {
			if err := d.notifier.LowStock(ctx, item.Name, item.Quantity, item.MinQuantity); err != nil {
				d.log.WithError(err).Warn("low stock notification failed", map[string]any{
					"item": item.Name,
				})
			}
		}
	}

	return Result{
		Success: true,
		Message: message,
		Action:  "report",
		Module:  "estoque",
		Data: map[string]any{
			"total_items":  len(records),
			"low_stock":    len(lowStock),
			"out_of_stock": len(outOfStock),
		},
	}
}

func (d *Dispatcher) payrollReport(ctx context.Context) Result {
	employeeRecords, err := d.store.FindMany(ctx, models.EntityEmployee, nil, store.Options{})
	if err != nil {
		return d.failure("payroll_report", err)
	}

	var totalSalaries float64
	for _, r := range employeeRecords {
		totalSalaries += r.(models.Employee).Salary
	}

	// Vales not yet paid are still owed against the payroll.
	var totalVales float64
	for _, status := range []string{models.ValeStatusPending, models.ValeStatusApproved} {
		records, err := d.store.FindMany(ctx, models.EntityVale, store.Predicate{"status": status}, store.Options{})
		if err != nil {
			return d.failure("payroll_report", err)
		}
		totalVales += sumVales(valesFromRecords(records))
	}

	net := totalSalaries - totalVales
	message := "RELATÓRIO DE FOLHA DE PAGAMENTO\n" + reportRule + "\n"
	message += fmt.Sprintf("Total de funcionários: %d\n", len(employeeRecords))
	message += fmt.Sprintf("Total em salários: R$ %.2f\n", totalSalaries)
	message += fmt.Sprintf("Total em vales: R$ %.2f\n", totalVales)
	message += fmt.Sprintf("Total líquido: R$ %.2f", net)

	return Result{
		Success: true,
		Message: message,
		Action:  "report",
		Module:  "folha-pagamento",
		Data: map[string]any{
			"employees":      len(employeeRecords),
			"total_salaries": totalSalaries,
			"total_vales":    totalVales,
			"total_net":      net,
		},
	}
}
