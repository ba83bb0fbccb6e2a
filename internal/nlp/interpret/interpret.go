// Package interpret assembles a structured Intent from free-form Portuguese
// command text. Missing slots never fail interpretation; clarification is the
// dispatcher's job.
package interpret

import (
	"strings"
	"time"

	"lua-assistant/internal/nlp/classify"
	"lua-assistant/internal/nlp/extract"
)

// Action is the operation the user asked for.
type Action string

const (
	ActionCreate      Action = "create"
	ActionRead        Action = "read"
	ActionUpdate      Action = "update"
	ActionDelete      Action = "delete"
	ActionApprove     Action = "approve"
	ActionPay         Action = "pay"
	ActionConfirm     Action = "confirm"
	ActionCancel      Action = "cancel"
	ActionOpen        Action = "open"
	ActionClose       Action = "close"
	ActionRequestInfo Action = "request_info"
	ActionUnknown     Action = "unknown"
)

// EntityType is the business record family the command targets.
type EntityType string

const (
	EntityVale            EntityType = "vale"
	EntityCustomer        EntityType = "customer"
	EntityEmployee        EntityType = "employee"
	EntityOrder           EntityType = "order"
	EntityJewelry         EntityType = "jewelry"
	EntityInventoryItem   EntityType = "inventory_item"
	EntityCashTransaction EntityType = "cash_transaction"
	EntityNote            EntityType = "note"
	EntityReport          EntityType = "report"
	EntityUnknown         EntityType = "unknown"
)

// Confidence values assigned per match quality.
const (
	actionExactConfidence  = 0.9
	entityExactConfidence  = 0.95
	inferredConfidence     = 0.6
	ConfidenceThreshold    = 0.3
)

// Intent is the structured reading of one command. Immutable once built.
type Intent struct {
	Action     Action
	EntityType EntityType
	Category   classify.Category
	Entities   map[string]any
	Filters    map[string]string
	Confidence float64
	RawText    string
}

var actionKeywords = []struct {
	action   Action
	keywords []string
}{
	{ActionCreate, []string{
		"criar", "cria", "adicionar", "adiciona", "cadastrar", "cadastra",
		"novo", "nova", "registrar", "registra", "inserir", "insere",
		"fazer", "faz", "gerar", "gera", "incluir", "inclui",
	}},
	{ActionRead, []string{
		"mostrar", "mostra", "listar", "lista", "ver", "visualizar",
		"exibir", "exibe", "buscar", "busca", "procurar", "procura",
		"consultar", "consulta", "pesquisar", "pesquisa", "quais", "qual",
	}},
	{ActionUpdate, []string{
		"atualizar", "atualiza", "editar", "edita", "modificar", "modifica",
		"alterar", "altera", "mudar", "muda", "trocar", "troca",
		"corrigir", "corrige", "ajustar", "ajusta",
	}},
	{ActionDelete, []string{
		"excluir", "exclui", "deletar", "deleta", "remover", "remove",
		"apagar", "apaga", "desfazer", "desfaz",
		"eliminar", "elimina", "descartar", "descarta",
	}},
	{ActionOpen, []string{"abrir", "abre", "acessar", "acessa", "entrar", "entra"}},
	{ActionClose, []string{"fechar", "fecha", "sair", "sai", "voltar", "volta"}},
}

var entityKeywords = []struct {
	entity   EntityType
	keywords []string
}{
	{EntityVale, []string{"vale", "vales", "adiantamento", "adiantamentos"}},
	{EntityCustomer, []string{"cliente", "clientes", "comprador", "compradores", "consumidor"}},
	{EntityEmployee, []string{"funcionario", "funcionarios", "colaborador", "colaboradores", "empregado", "empregados"}},
	{EntityOrder, []string{"encomenda", "encomendas", "pedido", "pedidos", "ordem"}},
	{EntityJewelry, []string{"joia", "joias", "anel", "aneis", "colar", "colares", "brinco", "brincos", "pulseira", "pulseiras"}},
	{EntityInventoryItem, []string{"estoque", "estoques", "inventario"}},
	{EntityCashTransaction, []string{"caixa", "fluxo", "financeiro", "dinheiro", "saldo"}},
	{EntityNote, []string{"nota", "notas", "anotacao"}},
	{EntityReport, []string{"relatorio", "resumo", "estatistica"}},
}

var accentReplacer = strings.NewReplacer(
	"á", "a", "à", "a", "ã", "a", "â", "a",
	"é", "e", "è", "e", "ê", "e",
	"í", "i", "ì", "i",
	"ó", "o", "ò", "o", "õ", "o", "ô", "o",
	"ú", "u", "ù", "u",
	"ç", "c",
)

// Interpreter builds intents. The clock is injectable for date extraction.
type Interpreter struct {
	now func() time.Time
}

func New() *Interpreter {
	return &Interpreter{now: time.Now}
}

func NewWithClock(now func() time.Time) *Interpreter {
	return &Interpreter{now: now}
}

// Interpret reads one command into an Intent. Confidence is the mean of the
// action-match and entity-match confidences.
func (i *Interpreter) Interpret(text string) Intent {
	lower := strings.ToLower(strings.TrimSpace(text))
	normalized := accentReplacer.Replace(lower)
	category := classify.Classify(text)

	action, actionConfidence := identifyAction(normalized, category)
	entityType, entityConfidence := identifyEntityType(normalized)

	return Intent{
		Action:     action,
		EntityType: entityType,
		Category:   category,
		Entities:   extractEntities(text, lower, i.now()),
		Filters:    extractFilters(lower),
		Confidence: (actionConfidence + entityConfidence) / 2,
		RawText:    text,
	}
}

func identifyAction(normalized string, category classify.Category) (Action, float64) {
	if fine := classify.FineAction(category, normalized); fine != "" {
		return Action(fine), actionExactConfidence
	}

	words := strings.Fields(normalized)
	wordSet := make(map[string]bool, len(words))
	for _, w := range words {
		wordSet[w] = true
	}
	for _, group := range actionKeywords {
		for _, keyword := range group.keywords {
			if wordSet[keyword] {
				return group.action, actionExactConfidence
			}
		}
	}

	// No explicit verb; infer from question or novelty markers.
	switch {
	case strings.Contains(normalized, "quais"),
		strings.Contains(normalized, "quantos"),
		strings.Contains(normalized, "lista"):
		return ActionRead, inferredConfidence
	case strings.Contains(normalized, "novo"), strings.Contains(normalized, "nova"):
		return ActionCreate, inferredConfidence
	}
	return ActionUnknown, 0
}

func identifyEntityType(normalized string) (EntityType, float64) {
	for _, group := range entityKeywords {
		for _, keyword := range group.keywords {
			if strings.Contains(normalized, keyword) {
				return group.entity, entityExactConfidence
			}
		}
	}
	return EntityUnknown, 0
}

func extractEntities(text, lower string, now time.Time) map[string]any {
	entities := make(map[string]any)

	if amount, ok := extract.Amount(text); ok {
		entities["value"] = amount
	}
	if name, ok := extract.Name(text, nil); ok {
		entities["person_name"] = name
	}
	if _, hasValue := entities["value"]; !hasValue {
		if numbers := extract.Numbers(text); numbers != nil {
			entities["numbers"] = numbers
		}
	}

	switch {
	case strings.Contains(lower, "último"), strings.Contains(lower, "última"), strings.Contains(lower, "ultimo"), strings.Contains(lower, "ultima"):
		entities["target"] = "last"
	case strings.Contains(lower, "primeiro"), strings.Contains(lower, "primeira"):
		entities["target"] = "first"
	case strings.Contains(lower, "todos"), strings.Contains(lower, "todas"):
		entities["target"] = "all"
	}

	if date, ok := extract.Date(text, now); ok {
		entities["date"] = date
	}
	return entities
}

func extractFilters(lower string) map[string]string {
	filters := make(map[string]string)

	switch {
	case strings.Contains(lower, "acima de"):
		filters["value_condition"] = "greater_than"
	case strings.Contains(lower, "abaixo de"):
		filters["value_condition"] = "less_than"
	case strings.Contains(lower, "igual a"):
		filters["value_condition"] = "equal_to"
	case strings.Contains(lower, "entre"):
		filters["value_condition"] = "between"
	}

	switch {
	case strings.Contains(lower, "pendente"):
		filters["status"] = "pending"
	case strings.Contains(lower, "aprovado"):
		filters["status"] = "approved"
	case strings.Contains(lower, "pago"):
		filters["status"] = "paid"
	case strings.Contains(lower, "cancelado"):
		filters["status"] = "cancelled"
	}

	switch {
	case strings.Contains(lower, "hoje"):
		filters["time_filter"] = "today"
	case strings.Contains(lower, "ontem"):
		filters["time_filter"] = "yesterday"
	case strings.Contains(lower, "esta semana"), strings.Contains(lower, "essa semana"):
		filters["time_filter"] = "this_week"
	case strings.Contains(lower, "este mês"), strings.Contains(lower, "esse mês"), strings.Contains(lower, "este mes"), strings.Contains(lower, "esse mes"):
		filters["time_filter"] = "this_month"
	case strings.Contains(lower, "último mês"), strings.Contains(lower, "ultimo mes"):
		filters["time_filter"] = "last_month"
	}

	switch {
	case strings.Contains(lower, "mais recente"):
		filters["order"] = "desc"
	case strings.Contains(lower, "mais antigo"):
		filters["order"] = "asc"
	}
	return filters
}
