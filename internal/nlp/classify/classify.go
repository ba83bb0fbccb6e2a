// Package classify routes command text into coarse business categories.
package classify

import "strings"

// Category is a coarse command family handled by one dispatcher branch.
type Category string

const (
	CategoryCreate    Category = "create"
	CategorySearch    Category = "search"
	CategoryReport    Category = "report"
	CategoryAction    Category = "action"
	CategoryFinancial Category = "financial"
	CategoryInventory Category = "inventory"
	CategoryGeneral   Category = "general"
)

// Rule binds trigger keywords to a category.
type Rule struct {
	Category Category
	Keywords []string
}

// rules are evaluated top to bottom; the first rule with any keyword present
// wins. Order is part of the contract: "criar relatório" is a create command.
var rules = []Rule{
	{Category: CategoryCreate, Keywords: []string{"criar", "cadastrar", "novo", "nova", "adicionar"}},
	{Category: CategorySearch, Keywords: []string{"buscar", "procurar", "listar", "mostrar", "ver", "consultar"}},
	{Category: CategoryReport, Keywords: []string{"relatório", "relatorio", "resumo", "estatística", "estatistica", "análise", "analise"}},
	{Category: CategoryAction, Keywords: []string{"aprovar", "pagar", "cancelar", "confirmar", "finalizar"}},
	{Category: CategoryFinancial, Keywords: []string{"caixa", "saldo", "receita", "despesa", "lucro"}},
	{Category: CategoryInventory, Keywords: []string{"estoque", "quantidade", "disponível", "disponivel", "falta"}},
}

// fineActions map action verbs within a category to the concrete operation.
var fineActions = map[Category]map[string][]string{
	CategoryAction: {
		"approve": {"aprovar"},
		"pay":     {"pagar"},
		"cancel":  {"cancelar"},
		"confirm": {"confirmar", "finalizar"},
	},
}

// Classify returns the first matching category, falling back to general.
func Classify(text string) Category {
	lower := strings.ToLower(text)
	for _, rule := range rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(lower, keyword) {
				return rule.Category
			}
		}
	}
	return CategoryGeneral
}

// FineAction names the concrete operation within a category, when the
// category distinguishes one. Returns "" otherwise.
func FineAction(category Category, text string) string {
	actions, ok := fineActions[category]
	if !ok {
		return ""
	}
	lower := strings.ToLower(text)
	for _, action := range []string{"approve", "pay", "confirm", "cancel"} {
		for _, keyword := range actions[action] {
			if strings.Contains(lower, keyword) {
				return action
			}
		}
	}
	return ""
}

// Rules exposes the evaluation order for help output and tests.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}
