package dispatch

import (
	"context"
	"fmt"
	"strings"

	"lua-assistant/internal/models"
	"lua-assistant/internal/nlp/interpret"
	"lua-assistant/internal/store"
)

func (d *Dispatcher) actionCommand(ctx context.Context, intent interpret.Intent) Result {
	lower := strings.ToLower(intent.RawText)

	switch {
	case intent.Action == interpret.ActionApprove && strings.Contains(lower, "vale"):
		return d.approveVales(ctx, intent)
	case intent.Action == interpret.ActionPay && strings.Contains(lower, "vale"):
		return d.payVales(ctx, intent)
	case intent.Action == interpret.ActionConfirm &&
		(strings.Contains(lower, "encomenda") || strings.Contains(lower, "pedido")):
		return d.confirmOrders(ctx)
	case intent.Action == interpret.ActionCancel && strings.Contains(lower, "vale"):
		return d.cancelPendingVale(ctx, intent)
	}

	return Result{
		Success: false,
		Message: "Ação não reconhecida. Posso: aprovar vales, pagar vales, confirmar encomendas ou cancelar operações.",
	}
}

// valesInStatus lists vales in the given status, optionally narrowed to one
// employee mentioned in the command.
func (d *Dispatcher) valesInStatus(ctx context.Context, intent interpret.Intent, status string) ([]models.Vale, string, error) {
	pred := store.Predicate{"status": status}

	var employeeName string
	if name := intentName(intent); name != "" {
		employee, _, err := d.resolveEmployee(ctx, name)
		if err != nil {
			return nil, "", err
		}
		if employee.ID != 0 {
			pred["employee_id"] = employee.ID
			employeeName = employee.Name
		}
	}

	records, err := d.store.FindMany(ctx, models.EntityVale, pred, store.Options{OrderBy: "created_at"})
	if err != nil {
		return nil, "", err
	}
	return valesFromRecords(records), employeeName, nil
}

func (d *Dispatcher) approveVales(ctx context.Context, intent interpret.Intent) Result {
	vales, employeeName, err := d.valesInStatus(ctx, intent, models.ValeStatusPending)
	if err != nil {
		return d.failure("approve_vales", err)
	}
	if len(vales) == 0 {
		return Result{Success: false, Message: "Não encontrei vales pendentes para aprovar."}
	}

	tx, err := d.store.Begin(ctx)
	if err != nil {
		return d.failure("approve_vales", err)
	}
	for _, vale := range vales {
		if err := tx.Update(ctx, models.EntityVale, vale.ID, map[string]any{
			"status": models.ValeStatusApproved,
		}); err != nil {
			tx.Rollback()
			return d.failure("approve_vales", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return d.failure("approve_vales", err)
	}

	total := sumVales(vales)
	message := fmt.Sprintf("%d vale(s) aprovado(s) com sucesso!", len(vales))
	if employeeName != "" {
		message += " para " + employeeName
	}
	message += fmt.Sprintf("\nTotal aprovado: R$ %.2f", total)

	return Result{
		Success: true,
		Message: message,
		Action:  "approved",
		Module:  "vales",
		Data:    map[string]any{"count": len(vales), "total": total},
	}
}

// payVales moves approved vales to paid. Each vale debits the cash ledger
// exactly once, inside the same transaction as the status change.
func (d *Dispatcher) payVales(ctx context.Context, intent interpret.Intent) Result {
	vales, employeeName, err := d.valesInStatus(ctx, intent, models.ValeStatusApproved)
	if err != nil {
		return d.failure("pay_vales", err)
	}
	if len(vales) == 0 {
		return Result{Success: false, Message: "Não encontrei vales aprovados para pagar."}
	}

	now := d.now()
	tx, err := d.store.Begin(ctx)
	if err != nil {
		return d.failure("pay_vales", err)
	}
	paidNames := make(map[int64]string, len(vales))
	for _, vale := range vales {
		if err := tx.Update(ctx, models.EntityVale, vale.ID, map[string]any{
			"status":  models.ValeStatusPaid,
			"paid_at": now,
		}); err != nil {
			tx.Rollback()
			return d.failure("pay_vales", err)
		}

		name := d.employeeName(ctx, vale.EmployeeID)
		paidNames[vale.ID] = name
		if _, err := tx.Create(ctx, models.EntityCashTransaction, models.CashTransaction{
			Type:        models.CashOut,
			Amount:      vale.Amount,
			Description: "Pagamento de vale - " + name,
			CategoryID:  1,
			CreatedAt:   now,
		}); err != nil {
			tx.Rollback()
			return d.failure("pay_vales", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return d.failure("pay_vales", err)
	}

	if d.notifier != nil {
		for _, vale := range vales {
			if err := d.notifier.ValePaid(ctx, paidNames[vale.ID], vale.Amount); err != nil {
				d.log.WithError(err).Warn("vale payment notification failed", map[string]any{
					"vale_id": vale.ID,
				})
			}
		}
	}

	total := sumVales(vales)
	message := fmt.Sprintf("%d vale(s) pago(s) com sucesso!", len(vales))
	if employeeName != "" {
		message += " para " + employeeName
	}
	message += fmt.Sprintf("\nTotal pago: R$ %.2f", total)

	return Result{
		Success: true,
		Message: message,
		Action:  "paid",
		Module:  "vales",
		Data:    map[string]any{"count": len(vales), "total": total},
	}
}

func (d *Dispatcher) confirmOrders(ctx context.Context) Result {
	records, err := d.store.FindMany(ctx, models.EntityOrder,
		store.Predicate{"status": models.OrderStatusPending}, store.Options{})
	if err != nil {
		return d.failure("confirm_orders", err)
	}
	if len(records) == 0 {
		return Result{Success: false, Message: "Não há encomendas pendentes para confirmar."}
	}

	tx, err := d.store.Begin(ctx)
	if err != nil {
		return d.failure("confirm_orders", err)
	}
	for _, r := range records {
		order := r.(models.Order)
		if err := tx.Update(ctx, models.EntityOrder, order.ID, map[string]any{
			"status": models.OrderStatusConfirmed,
		}); err != nil {
			tx.Rollback()
			return d.failure("confirm_orders", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return d.failure("confirm_orders", err)
	}

	return Result{
		Success: true,
		Message: fmt.Sprintf("%d encomenda(s) confirmada(s) com sucesso!", len(records)),
		Action:  "confirmed",
		Module:  "encomendas",
		Data:    map[string]any{"count": len(records)},
	}
}

// cancelPendingVale cancels the most recent pending vale, optionally for a
// named employee.
func (d *Dispatcher) cancelPendingVale(ctx context.Context, intent interpret.Intent) Result {
	vales, employeeName, err := d.valesInStatus(ctx, intent, models.ValeStatusPending)
	if err != nil {
		return d.failure("cancel_vale", err)
	}
	if len(vales) == 0 {
		return Result{Success: false, Message: "Não encontrei vales pendentes para cancelar."}
	}

	last := vales[len(vales)-1]
	if err := d.store.Delete(ctx, models.EntityVale, last.ID); err != nil {
		return d.failure("cancel_vale", err)
	}

	message := fmt.Sprintf("Vale #%d de R$ %.2f cancelado", last.ID, last.Amount)
	if employeeName != "" {
		message += " para " + employeeName
	}
	return Result{
		Success: true,
		Message: message + ".",
		Action:  "cancelled",
		Module:  "vales",
		Data:    map[string]any{"vale_id": last.ID, "amount": last.Amount},
	}
}
