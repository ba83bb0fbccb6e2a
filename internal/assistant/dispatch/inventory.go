package dispatch

import (
	"context"
	"fmt"
	"strings"

	"lua-assistant/internal/models"
	"lua-assistant/internal/nlp/extract"
	"lua-assistant/internal/nlp/interpret"
	"lua-assistant/internal/store"
)

func (d *Dispatcher) inventoryCommand(ctx context.Context, intent interpret.Intent) Result {
	lower := strings.ToLower(intent.RawText)

	switch {
	case strings.Contains(lower, "quanto"), strings.Contains(lower, "quantidade"):
		return d.stockCheck(ctx, intent)
	case strings.Contains(lower, "falta"), strings.Contains(lower, "acabou"), strings.Contains(lower, "esgotado"):
		return d.outOfStock(ctx)
	case strings.Contains(lower, "baixo"), strings.Contains(lower, "pouco"), strings.Contains(lower, "repor"):
		return d.lowStock(ctx)
	case strings.Contains(lower, "adicionar"):
		return d.addStock(ctx, intent)
	}

	return Result{
		Success: false,
		Message: "Posso verificar quantidade, listar itens em falta, estoque baixo ou adicionar itens.",
	}
}

// stockItemName picks the first plausible item word out of the command.
var stockStopWords = map[string]bool{
	"quanto": true, "quantos": true, "quantas": true, "quantidade": true,
	"temos": true, "tenho": true, "estoque": true, "unidades": true,
}

func stockItemName(text string) string {
	for _, word := range strings.Fields(text) {
		clean := strings.Trim(strings.ToLower(word), "?!.,")
		if len([]rune(clean)) > 3 && !stockStopWords[clean] {
			return strings.Trim(word, "?!.,")
		}
	}
	return ""
}

func (d *Dispatcher) stockCheck(ctx context.Context, intent interpret.Intent) Result {
	itemName := stockItemName(intent.RawText)
	if itemName == "" {
		return requestInfo("De qual item deseja saber a quantidade?", []string{"item_name"})
	}

	items, err := d.findInventory(ctx, itemName)
	if err != nil {
		return d.failure("stock_check", err)
	}
	if len(items) == 0 {
		return Result{Success: false, Message: fmt.Sprintf("Não encontrei %q no estoque.", itemName)}
	}

	message := fmt.Sprintf("ESTOQUE - %s\n%s\n", strings.ToUpper(itemName), reportRule)
	details := make([]map[string]any, 0, len(items))
	for _, item := range items {
		var status string
		switch {
		case item.Quantity > item.MinQuantity:
			status = "Normal"
		case item.Quantity > 0:
			status = "Baixo"
		default:
			status = "Esgotado"
		}
		message += fmt.Sprintf("%s:\n  Quantidade: %d unidades\n  Mínimo: %d unidades\n  Status: %s\n\n",
			item.Name, item.Quantity, item.MinQuantity, status)
		details = append(details, map[string]any{
			"name": item.Name, "quantity": item.Quantity, "min": item.MinQuantity,
		})
	}

	return Result{
		Success: true,
		Message: strings.TrimRight(message, "\n"),
		Action:  "stock_check",
		Module:  "estoque",
		Data:    map[string]any{"search": itemName, "items": details},
	}
}

func (d *Dispatcher) findInventory(ctx context.Context, itemName string) ([]models.InventoryItem, error) {
	records, err := d.store.FindMany(ctx, models.EntityInventoryItem, nil, store.Options{OrderBy: "name"})
	if err != nil {
		return nil, err
	}
	var items []models.InventoryItem
	for _, r := range records {
		item := r.(models.InventoryItem)
		if strings.Contains(strings.ToLower(item.Name), strings.ToLower(itemName)) {
			items = append(items, item)
		}
	}
	return items, nil
}

func (d *Dispatcher) outOfStock(ctx context.Context) Result {
	records, err := d.store.FindMany(ctx, models.EntityInventoryItem,
		store.Predicate{"quantity": store.Compare{Op: "=", Value: 0}}, store.Options{OrderBy: "name"})
	if err != nil {
		return d.failure("out_of_stock", err)
	}
	if len(records) == 0 {
		return Result{
			Success: true,
			Message: "Ótima notícia! Não há itens em falta no estoque.",
			Data:    map[string]any{"count": 0},
		}
	}

	message := "ITENS EM FALTA\n" + reportRule + "\n"
	names := make([]string, 0, len(records))
	for _, r := range records {
		item := r.(models.InventoryItem)
		names = append(names, item.Name)
		message += fmt.Sprintf("• %s (Mínimo: %d)\n", item.Name, item.MinQuantity)
	}
	message += fmt.Sprintf("\nTotal: %d itens em falta", len(records))

	return Result{
		Success: true,
		Message: message,
		Action:  "out_of_stock",
		Module:  "estoque",
		Data:    map[string]any{"count": len(records), "items": names},
	}
}

func (d *Dispatcher) lowStock(ctx context.Context) Result {
	records, err := d.store.FindMany(ctx, models.EntityInventoryItem,
		store.Predicate{"quantity": store.Compare{Op: ">", Value: 0}}, store.Options{OrderBy: "name"})
	if err != nil {
		return d.failure("low_stock", err)
	}

	var low []models.InventoryItem
	for _, r := range records {
		item := r.(models.InventoryItem)
		if item.Quantity <= item.MinQuantity {
			low = append(low, item)
		}
	}
	if len(low) == 0 {
		return Result{
			Success: true,
			Message: "Todos os itens estão com estoque adequado.",
			Data:    map[string]any{"count": 0},
		}
	}

	message := "ESTOQUE BAIXO\n" + reportRule + "\n"
	details := make([]map[string]any, 0, len(low))
	for _, item := range low {
		var percent float64
		if item.MinQuantity > 0 {
			percent = float64(item.Quantity) / float64(item.MinQuantity) * 100
		}
		message += fmt.Sprintf("• %s: %d/%d (%.0f%%)\n", item.Name, item.Quantity, item.MinQuantity, percent)
		details = append(details, map[string]any{
			"name": item.Name, "quantity": item.Quantity, "min": item.MinQuantity,
		})
	}
	message += fmt.Sprintf("\nTotal: %d itens com estoque baixo", len(low))

	return Result{
		Success: true,
		Message: message,
		Action:  "low_stock",
		Module:  "estoque",
		Data:    map[string]any{"count": len(low), "items": details},
	}
}

func (d *Dispatcher) addStock(ctx context.Context, intent interpret.Intent) Result {
	count, hasCount := extract.Count(intent.RawText)
	itemName, _ := extractNameWith(intent.RawText, []string{"adicionar", "repor", "unidades", "unidade", "estoque"})

	if itemName == "" || !hasCount || count <= 0 {
		return requestInfo(
			"Para adicionar ao estoque, preciso saber o item e a quantidade.",
			[]string{"item_name", "quantity"})
	}

	items, err := d.findInventory(ctx, itemName)
	if err != nil {
		return d.failure("add_stock", err)
	}
	if len(items) == 0 {
		return notFound("inventory_item", itemName,
			fmt.Sprintf("Item %q não encontrado no estoque.", itemName), nil)
	}

	item := items[0]
	newQuantity := item.Quantity + count
	if err := d.store.Update(ctx, models.EntityInventoryItem, item.ID, map[string]any{
		"quantity": newQuantity,
	}); err != nil {
		return d.failure("add_stock", err)
	}

	return Result{
		Success: true,
		Message: fmt.Sprintf("Estoque atualizado!\n%s: %d → %d unidades", item.Name, item.Quantity, newQuantity),
		Action:  "stock_added",
		Module:  "estoque",
		Data: map[string]any{
			"item":         item.Name,
			"added":        count,
			"old_quantity": item.Quantity,
			"new_quantity": newQuantity,
		},
	}
}
