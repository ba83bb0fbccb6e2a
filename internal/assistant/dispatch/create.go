package dispatch

import (
	"context"
	"fmt"
	"strings"

	"lua-assistant/internal/models"
	"lua-assistant/internal/nlp/interpret"
	"lua-assistant/internal/store"
)

func (d *Dispatcher) createCommand(ctx context.Context, intent interpret.Intent) Result {
	lower := strings.ToLower(intent.RawText)

	switch {
	case strings.Contains(lower, "vale"):
		return d.createVale(ctx, intent)
	case strings.Contains(lower, "cliente"):
		return d.createCustomer(ctx, intent)
	case strings.Contains(lower, "encomenda"), strings.Contains(lower, "pedido"):
		return d.createOrder(ctx, intent)
	case strings.Contains(lower, "funcionário"), strings.Contains(lower, "funcionario"):
		return d.createEmployee(intent)
	case strings.Contains(lower, "nota"), strings.Contains(lower, "anotação"), strings.Contains(lower, "anotacao"):
		return d.createNote(ctx, intent)
	case strings.Contains(lower, "estoque"), strings.Contains(lower, "unidade"):
		return d.addStock(ctx, intent)
	}

	return Result{
		Success: false,
		Message: "Não entendi o que deseja criar. Posso criar: vales, clientes, funcionários, encomendas ou notas.",
	}
}

func (d *Dispatcher) createVale(ctx context.Context, intent interpret.Intent) Result {
	name := intentName(intent)
	amount, hasAmount := intentAmount(intent)

	if name == "" {
		return requestInfo(
			`Para criar um vale, preciso saber o nome do funcionário. Por exemplo: "Criar vale de 200 para Josemir"`,
			[]string{"employee_name", "amount"})
	}
	if !hasAmount {
		return requestInfo(
			fmt.Sprintf("Qual o valor do vale para %s?", name),
			[]string{"amount"})
	}

	employee, suggestions, err := d.resolveEmployee(ctx, name)
	if err != nil {
		return d.failure("create_vale", err)
	}
	if employee.ID == 0 {
		return notFound("employee", name,
			fmt.Sprintf("Funcionário %q não encontrado. Você quis dizer um destes?", name),
			suggestions)
	}

	reason := valeReason(strings.ToLower(intent.RawText))
	vale := models.Vale{
		EmployeeID: employee.ID,
		Amount:     amount,
		Reason:     reason,
		Status:     models.ValeStatusPending,
		CreatedAt:  d.now(),
	}
	id, err := d.store.Create(ctx, models.EntityVale, vale)
	if err != nil {
		return d.failure("create_vale", err)
	}

	return Result{
		Success: true,
		Message: fmt.Sprintf("Vale criado com sucesso! %s receberá R$ %.2f. Motivo: %s", employee.Name, amount, reason),
		Action:  "created",
		Module:  "vales",
		Data: map[string]any{
			"vale_id":  id,
			"employee": employee.Name,
			"amount":   amount,
			"reason":   reason,
			"status":   models.ValeStatusPending,
		},
	}
}

func valeReason(lower string) string {
	switch {
	case strings.Contains(lower, "almoço"), strings.Contains(lower, "almoco"):
		return "Vale almoço"
	case strings.Contains(lower, "transporte"):
		return "Vale transporte"
	case strings.Contains(lower, "emergência"), strings.Contains(lower, "emergencia"):
		return "Vale emergencial"
	case strings.Contains(lower, "adiantamento"):
		return "Adiantamento salarial"
	default:
		return "Vale solicitado via assistente"
	}
}

func (d *Dispatcher) createCustomer(ctx context.Context, intent interpret.Intent) Result {
	name, _ := extractNameWith(intent.RawText, []string{"cliente", "chamado", "chamada", "nome", "criar", "cadastrar"})
	if name == "" {
		return Result{
			Success: true,
			Message: "Abrindo formulário de cadastro de cliente.",
			Action:  "open_form",
			Module:  "clientes",
		}
	}

	records, err := d.store.FindMany(ctx, models.EntityCustomer, nil, store.Options{})
	if err != nil {
		return d.failure("create_customer", err)
	}
	for _, r := range records {
		customer := r.(models.Customer)
		if strings.Contains(strings.ToLower(customer.Name), strings.ToLower(name)) {
			return Result{
				Success: false,
				Message: fmt.Sprintf("Cliente %q já cadastrado.", customer.Name),
				Action:  "exists",
				Module:  "clientes",
				Data:    map[string]any{"customer_id": customer.ID},
			}
		}
	}

	return Result{
		Success: true,
		Message: fmt.Sprintf("Vou abrir o formulário de cadastro para o cliente %q.", name),
		Action:  "open_form",
		Module:  "clientes",
		Data:    map[string]any{"pre_fill": map[string]any{"name": name}},
	}
}

func (d *Dispatcher) createOrder(ctx context.Context, intent interpret.Intent) Result {
	name := intentName(intent)
	if name == "" {
		return Result{
			Success: true,
			Message: "Abrindo formulário de nova encomenda.",
			Action:  "open_form",
			Module:  "encomendas",
		}
	}

	records, err := d.store.FindMany(ctx, models.EntityCustomer, nil, store.Options{})
	if err != nil {
		return d.failure("create_order", err)
	}
	for _, r := range records {
		customer := r.(models.Customer)
		if strings.Contains(strings.ToLower(customer.Name), strings.ToLower(name)) {
			return Result{
				Success: true,
				Message: fmt.Sprintf("Criando nova encomenda para %s.", customer.Name),
				Action:  "open_form",
				Module:  "encomendas",
				Data:    map[string]any{"customer_id": customer.ID, "customer_name": customer.Name},
			}
		}
	}

	return Result{
		Success: false,
		Message: fmt.Sprintf("Cliente %q não encontrado. Deseja cadastrá-lo primeiro?", name),
		Action:  "suggest",
		Module:  "clientes",
		Data:    map[string]any{"suggested_name": name},
	}
}

func (d *Dispatcher) createEmployee(intent interpret.Intent) Result {
	name, _ := extractNameWith(intent.RawText, []string{"funcionário", "funcionario", "chamado", "nome", "criar", "cadastrar", "novo"})

	message := "Abrindo formulário de cadastro de funcionário."
	data := map[string]any{"action": "create"}
	if name != "" {
		message = fmt.Sprintf("Abrindo formulário de cadastro de funcionário para %s.", name)
		data["pre_fill"] = map[string]any{"name": name}
	}
	return Result{
		Success: true,
		Message: message,
		Action:  "open_form",
		Module:  "funcionarios",
		Data:    data,
	}
}

func (d *Dispatcher) createNote(ctx context.Context, intent interpret.Intent) Result {
	content := intent.RawText
	for _, prefix := range []string{"criar nota", "criar anotação", "criar anotacao", "nova nota"} {
		content = strings.TrimSpace(trimPrefixFold(content, prefix))
	}
	if content == "" {
		return Result{
			Success: true,
			Message: "Abrindo sistema de notas para criar nova anotação.",
			Action:  "open_form",
			Module:  "notas",
		}
	}

	note := models.Note{
		Title:     "Nota via assistente",
		Content:   content,
		CreatedAt: d.now(),
	}
	id, err := d.store.Create(ctx, models.EntityNote, note)
	if err != nil {
		return d.failure("create_note", err)
	}
	return Result{
		Success: true,
		Message: "Nota criada com sucesso!",
		Action:  "created",
		Module:  "notas",
		Data:    map[string]any{"note_id": id, "content": content},
	}
}

func trimPrefixFold(s, prefix string) string {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):]
	}
	return s
}
