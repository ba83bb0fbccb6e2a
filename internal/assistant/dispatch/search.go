package dispatch

import (
	"context"
	"fmt"
	"strings"

	"lua-assistant/internal/models"
	"lua-assistant/internal/nlp/interpret"
	"lua-assistant/internal/store"
)

func (d *Dispatcher) searchCommand(ctx context.Context, intent interpret.Intent) Result {
	lower := strings.ToLower(intent.RawText)

	switch {
	case strings.Contains(lower, "vale"):
		return d.searchVales(ctx, intent)
	case strings.Contains(lower, "cliente"):
		return d.searchCustomers(ctx, intent)
	case strings.Contains(lower, "encomenda"), strings.Contains(lower, "pedido"):
		return d.searchOrders(ctx, intent)
	case strings.Contains(lower, "funcionário"), strings.Contains(lower, "funcionario"):
		return d.searchEmployees(ctx)
	case strings.Contains(lower, "joia"), strings.Contains(lower, "jóia"):
		return d.searchJewelry(ctx, intent)
	}

	return Result{
		Success: false,
		Message: "Não entendi o que deseja buscar. Posso buscar: vales, clientes, encomendas, funcionários ou joias.",
	}
}

func (d *Dispatcher) searchVales(ctx context.Context, intent interpret.Intent) Result {
	pred := store.Predicate{}
	if status := intent.Filters["status"]; status != "" {
		pred["status"] = status
	}

	name := intentName(intent)
	var employeeName string
	if name != "" {
		employee, _, err := d.resolveEmployee(ctx, name)
		if err != nil {
			return d.failure("search_vales", err)
		}
		if employee.ID != 0 {
			pred["employee_id"] = employee.ID
			employeeName = employee.Name
		}
	}

	records, err := d.store.FindMany(ctx, models.EntityVale, pred, store.Options{OrderBy: "created_at", Descending: true})
	if err != nil {
		return d.failure("search_vales", err)
	}
	vales := valesFromRecords(records)

	if len(vales) == 0 {
		message := "Não encontrei vales"
		if employeeName != "" {
			message += " para " + employeeName
		}
		return Result{Success: true, Message: message + ".", Data: map[string]any{"count": 0}}
	}

	total := sumVales(vales)
	message := fmt.Sprintf("Encontrei %d vale(s)", len(vales))
	if employeeName != "" {
		message += " para " + employeeName
	}
	message += fmt.Sprintf(", totalizando R$ %.2f.\n\n", total)

	shown := len(vales)
	if shown > d.limit {
		shown = d.limit
	}
	for _, vale := range vales[:shown] {
		message += fmt.Sprintf("• %s: R$ %.2f - %s (%s)\n",
			d.employeeName(ctx, vale.EmployeeID), vale.Amount, vale.Reason, vale.Status)
	}
	message += moreLine(len(vales), shown, "vales")

	data := map[string]any{"count": len(vales), "total": total}
	if employeeName != "" {
		data["filters"] = map[string]any{"employee": employeeName}
	}
	return Result{Success: true, Message: message, Action: "list", Module: "vales", Data: data}
}

func (d *Dispatcher) employeeName(ctx context.Context, id int64) string {
	record, err := d.store.FindOne(ctx, models.EntityEmployee, id)
	if err != nil {
		return "Desconhecido"
	}
	return record.(models.Employee).Name
}

func (d *Dispatcher) searchCustomers(ctx context.Context, intent interpret.Intent) Result {
	name, _ := extractNameWith(intent.RawText, []string{"cliente", "chamado", "chamada", "listar", "buscar", "mostrar"})

	records, err := d.store.FindMany(ctx, models.EntityCustomer, nil, store.Options{OrderBy: "name"})
	if err != nil {
		return d.failure("search_customers", err)
	}

	var customers []models.Customer
	for _, r := range records {
		customer := r.(models.Customer)
		if name == "" || strings.Contains(strings.ToLower(customer.Name), strings.ToLower(name)) {
			customers = append(customers, customer)
		}
	}

	if len(customers) == 0 {
		message := "Não encontrei clientes"
		if name != "" {
			message += fmt.Sprintf(" com nome %s", name)
		}
		return Result{Success: true, Message: message + ".", Data: map[string]any{"count": 0}}
	}

	message := fmt.Sprintf("Encontrei %d cliente(s)", len(customers))
	if name != "" {
		message += fmt.Sprintf(" com nome similar a %q", name)
	}
	message += ":\n\n"

	shown := len(customers)
	if shown > d.wideLimit {
		shown = d.wideLimit
	}
	for _, customer := range customers[:shown] {
		phone := customer.Phone
		if phone == "" {
			phone = "Sem telefone"
		}
		message += fmt.Sprintf("• %s - %s\n", customer.Name, phone)
	}
	message += moreLine(len(customers), shown, "clientes")

	data := map[string]any{"count": len(customers)}
	if name != "" {
		data["search"] = name
	}
	return Result{Success: true, Message: message, Action: "list", Module: "clientes", Data: data}
}

func (d *Dispatcher) searchOrders(ctx context.Context, intent interpret.Intent) Result {
	pred := store.Predicate{}
	lower := strings.ToLower(intent.RawText)

	switch {
	case strings.Contains(lower, "pendente"):
		pred["status"] = models.OrderStatusPending
	case strings.Contains(lower, "confirmad"):
		pred["status"] = models.OrderStatusConfirmed
	case strings.Contains(lower, "entregu"):
		pred["status"] = models.OrderStatusDelivered
	}

	var periodLabel string
	if date, ok := intentDate(intent); ok {
		pred["created_at"] = dayRange(date)
		periodLabel = date.Format("02/01/2006")
	} else if strings.Contains(lower, "semana") {
		pred["created_at"] = store.Range{From: d.now().AddDate(0, 0, -7), To: d.now()}
	} else if strings.Contains(lower, "mês") || strings.Contains(lower, "mes") {
		pred["created_at"] = store.Range{From: d.now().AddDate(0, 0, -30), To: d.now()}
	}

	records, err := d.store.FindMany(ctx, models.EntityOrder, pred, store.Options{OrderBy: "created_at", Descending: true})
	if err != nil {
		return d.failure("search_orders", err)
	}

	customerName := intentName(intent)
	var orders []models.Order
	for _, r := range records {
		order := r.(models.Order)
		if customerName != "" && !strings.Contains(strings.ToLower(d.customerName(ctx, order.CustomerID)), strings.ToLower(customerName)) {
			continue
		}
		orders = append(orders, order)
	}

	if len(orders) == 0 {
		return Result{
			Success: true,
			Message: "Não encontrei encomendas com os critérios especificados.",
			Data:    map[string]any{"count": 0},
		}
	}

	var total float64
	for _, o := range orders {
		total += o.TotalPrice
	}

	message := fmt.Sprintf("Encontrei %d encomenda(s)", len(orders))
	if customerName != "" {
		message += " de " + customerName
	}
	if periodLabel != "" {
		message += " em " + periodLabel
	}
	message += fmt.Sprintf(", totalizando R$ %.2f.\n\n", total)

	shown := len(orders)
	if shown > d.limit {
		shown = d.limit
	}
	for _, order := range orders[:shown] {
		message += fmt.Sprintf("• Pedido #%d: %s - R$ %.2f (%s)\n",
			order.ID, d.customerName(ctx, order.CustomerID), order.TotalPrice, order.Status)
	}
	message += moreLine(len(orders), shown, "encomendas")

	return Result{
		Success: true,
		Message: message,
		Action:  "list",
		Module:  "encomendas",
		Data:    map[string]any{"count": len(orders), "total": total},
	}
}

func (d *Dispatcher) customerName(ctx context.Context, id int64) string {
	record, err := d.store.FindOne(ctx, models.EntityCustomer, id)
	if err != nil {
		return "Cliente não identificado"
	}
	return record.(models.Customer).Name
}

func (d *Dispatcher) searchEmployees(ctx context.Context) Result {
	records, err := d.store.FindMany(ctx, models.EntityEmployee, nil, store.Options{OrderBy: "name"})
	if err != nil {
		return d.failure("search_employees", err)
	}
	if len(records) == 0 {
		return Result{Success: true, Message: "Não há funcionários cadastrados.", Data: map[string]any{"count": 0}}
	}

	var totalSalary float64
	message := fmt.Sprintf("Temos %d funcionário(s) cadastrado(s):\n\n", len(records))
	for _, r := range records {
		employee := r.(models.Employee)
		totalSalary += employee.Salary
		message += fmt.Sprintf("• %s - %s (Salário: R$ %.2f)\n", employee.Name, employee.Role, employee.Salary)
	}
	message += fmt.Sprintf("\nTotal em salários: R$ %.2f", totalSalary)

	return Result{
		Success: true,
		Message: message,
		Action:  "list",
		Module:  "funcionarios",
		Data:    map[string]any{"count": len(records), "total_salary": totalSalary},
	}
}

var jewelryCategories = []struct {
	keyword  string
	category string
}{
	{"anel", "Anéis"},
	{"anéis", "Anéis"},
	{"colar", "Colares"},
	{"brinco", "Brincos"},
	{"pulseira", "Pulseiras"},
}

func (d *Dispatcher) searchJewelry(ctx context.Context, intent interpret.Intent) Result {
	lower := strings.ToLower(intent.RawText)

	var category string
	for _, jc := range jewelryCategories {
		if strings.Contains(lower, jc.keyword) {
			category = jc.category
			break
		}
	}

	jewelry, err := d.findJewelry(ctx, intent.RawText, category)
	if err != nil {
		return d.failure("search_jewelry", err)
	}

	if len(jewelry) == 0 {
		return Result{
			Success: true,
			Message: "Não encontrei joias com os critérios especificados.",
			Data:    map[string]any{"count": 0},
		}
	}

	message := fmt.Sprintf("Encontrei %d joia(s) no catálogo:\n\n", len(jewelry))
	shown := len(jewelry)
	if shown > d.wideLimit {
		shown = d.wideLimit
	}
	for _, item := range jewelry[:shown] {
		message += fmt.Sprintf("• %s - %s (R$ %.2f)\n", item.Name, item.Category, item.Price)
	}
	message += moreLine(len(jewelry), shown, "joias")

	return Result{
		Success: true,
		Message: message,
		Action:  "list",
		Module:  "joias",
		Data:    map[string]any{"count": len(jewelry)},
	}
}

// findJewelry prefers the catalog search collaborator and falls back to the
// store when it is absent or failing.
func (d *Dispatcher) findJewelry(ctx context.Context, query, category string) ([]models.Jewelry, error) {
	if d.catalog != nil {
		items, err := d.catalog.SearchJewelry(ctx, query, category)
		if err == nil {
			return items, nil
		}
		d.log.WithError(err).Warn("catalog search unavailable, using store", map[string]any{})
	}

	pred := store.Predicate{}
	if category != "" {
		pred["category"] = category
	}
	records, err := d.store.FindMany(ctx, models.EntityJewelry, pred, store.Options{OrderBy: "name"})
	if err != nil {
		return nil, err
	}
	jewelry := make([]models.Jewelry, 0, len(records))
	for _, r := range records {
		jewelry = append(jewelry, r.(models.Jewelry))
	}
	return jewelry, nil
}
