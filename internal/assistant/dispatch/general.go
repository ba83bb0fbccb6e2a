package dispatch

import (
	"context"
	"fmt"
	"strings"

	"lua-assistant/internal/common/errors"
	"lua-assistant/internal/models"
	"lua-assistant/internal/nlp/interpret"
	"lua-assistant/internal/store"
)

func (d *Dispatcher) generalCommand(ctx context.Context, intent interpret.Intent) Result {
	lower := strings.ToLower(intent.RawText)

	switch {
	case containsAny(lower, "olá", "ola", "oi", "bom dia", "boa tarde", "boa noite"):
		return d.greeting()
	case containsAny(lower, "ajuda", "help", "comandos"):
		return helpCatalog()
	case containsAny(lower, "status", "sistema"):
		return d.systemStatus(ctx)
	}
	return d.fallback(ctx, lower)
}

func containsAny(text string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func (d *Dispatcher) greeting() Result {
	hour := d.now().Hour()
	greeting := "Boa noite"
	switch {
	case hour < 12:
		greeting = "Bom dia"
	case hour < 18:
		greeting = "Boa tarde"
	}
	return Result{
		Success: true,
		Message: fmt.Sprintf("%s, senhor! Como posso ajudá-lo com o sistema hoje?", greeting),
		Action:  "greeting",
	}
}

func helpCatalog() Result {
	message := "COMANDOS DISPONÍVEIS\n" + reportRule + "\n\n"
	message += "CRIAR/CADASTRAR:\n"
	message += "• \"Criar vale de 200 para Josemir\"\n"
	message += "• \"Cadastrar novo cliente\"\n"
	message += "• \"Nova encomenda para Maria\"\n\n"
	message += "BUSCAR/LISTAR:\n"
	message += "• \"Mostrar vales de Josemir\"\n"
	message += "• \"Listar clientes\"\n"
	message += "• \"Buscar encomendas de hoje\"\n\n"
	message += "RELATÓRIOS:\n"
	message += "• \"Relatório de vendas hoje\"\n"
	message += "• \"Relatório financeiro\"\n"
	message += "• \"Relatório de estoque\"\n\n"
	message += "AÇÕES:\n"
	message += "• \"Aprovar vales pendentes\"\n"
	message += "• \"Pagar vale de Josemir\"\n"
	message += "• \"Confirmar encomendas\"\n\n"
	message += "FINANCEIRO:\n"
	message += "• \"Qual o saldo do caixa?\"\n"
	message += "• \"Registrar entrada de 500\"\n"
	message += "• \"Calcular lucro do mês\"\n\n"
	message += "ESTOQUE:\n"
	message += "• \"Quanto temos de ouro?\"\n"
	message += "• \"Listar itens em falta\"\n"
	message += "• \"Adicionar 10 unidades de prata\""

	return Result{Success: true, Message: message, Action: "help"}
}

func (d *Dispatcher) systemStatus(ctx context.Context) Result {
	employees, err := d.store.Count(ctx, models.EntityEmployee, nil)
	if err != nil {
		return d.failure("system_status", err)
	}
	customers, err := d.store.Count(ctx, models.EntityCustomer, nil)
	if err != nil {
		return d.failure("system_status", err)
	}
	ordersToday, err := d.store.Count(ctx, models.EntityOrder, store.Predicate{"created_at": dayRange(d.now())})
	if err != nil {
		return d.failure("system_status", err)
	}
	pendingVales, err := d.store.Count(ctx, models.EntityVale, store.Predicate{"status": models.ValeStatusPending})
	if err != nil {
		return d.failure("system_status", err)
	}

	now := d.now()
	message := "STATUS DO SISTEMA\n" + reportRule + "\n"
	message += fmt.Sprintf("Funcionários: %d\n", employees)
	message += fmt.Sprintf("Clientes: %d\n", customers)
	message += fmt.Sprintf("Pedidos hoje: %d\n", ordersToday)
	message += fmt.Sprintf("Vales pendentes: %d\n", pendingVales)
	message += fmt.Sprintf("Horário: %s\n", now.Format("15:04"))
	message += fmt.Sprintf("Data: %s", now.Format("02/01/2006"))

	return Result{
		Success: true,
		Message: message,
		Action:  "status",
		Data: map[string]any{
			"employees":     employees,
			"customers":     customers,
			"orders_today":  ordersToday,
			"pending_vales": pendingVales,
		},
	}
}

// fallback suggests commands whose keywords overlap the utterance, including
// employee names picked up from the roster.
func (d *Dispatcher) fallback(ctx context.Context, lower string) Result {
	var suggestions []string

	if _, records, err := d.activeEmployees(ctx); err == nil {
		for _, record := range records {
			first := strings.ToLower(strings.Fields(record.Name)[0])
			if strings.Contains(lower, first) {
				suggestions = append(suggestions,
					fmt.Sprintf("Mostrar vales de %s", record.Name),
					fmt.Sprintf("Criar vale para %s", record.Name))
				break
			}
		}
	}
	if strings.Contains(lower, "cliente") {
		suggestions = append(suggestions, "Listar clientes", "Cadastrar novo cliente")
	}
	if containsAny(lower, "venda", "pedido", "encomenda") {
		suggestions = append(suggestions, "Relatório de vendas hoje", "Criar nova encomenda")
	}
	if containsAny(lower, "estoque", "material") {
		suggestions = append(suggestions, "Relatório de estoque", "Listar itens em falta")
	}

	message := "Desculpe, não compreendi completamente seu comando."
	if len(suggestions) > 0 {
		message += "\n\nTalvez você queira:"
		for _, s := range suggestions {
			message += fmt.Sprintf("\n• %q", s)
		}
	} else {
		message += "\n\nTente ser mais específico ou diga \"ajuda\" para ver os comandos disponíveis."
	}

	unrecognized := errors.NewUnrecognizedCommandError(lower)
	d.log.Debug("command not recognized", map[string]any{
		"error_code":  string(unrecognized.Code),
		"suggestions": len(suggestions),
	})
	return Result{
		Success:     false,
		Message:     message,
		Data:        map[string]any{"error_code": string(unrecognized.Code)},
		Suggestions: suggestions,
	}
}
