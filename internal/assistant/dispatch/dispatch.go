// Package dispatch executes interpreted commands against the data-access
// layer and produces user-facing results.
package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lua-assistant/internal/common/errors"
	"lua-assistant/internal/common/logger"
	"lua-assistant/internal/models"
	"lua-assistant/internal/nlp/classify"
	"lua-assistant/internal/nlp/extract"
	"lua-assistant/internal/nlp/interpret"
	"lua-assistant/internal/nlp/resolve"
	"lua-assistant/internal/store"
)

// Result is the outcome of one dispatched command. Never mutated after
// construction.
type Result struct {
	Success        bool           `json:"success"`
	Message        string         `json:"message"`
	Action         string         `json:"action,omitempty"`
	Module         string         `json:"module,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
	Suggestions    []string       `json:"suggestions,omitempty"`
	RequiredFields []string       `json:"required_fields,omitempty"`
}

// CatalogSearcher serves full-text jewelry search when configured.
type CatalogSearcher interface {
	SearchJewelry(ctx context.Context, query, category string) ([]models.Jewelry, error)
}

// Notifier delivers out-of-band alerts. Failures are logged, never fatal.
type Notifier interface {
	ValePaid(ctx context.Context, employeeName string, amount float64) error
	LowStock(ctx context.Context, itemName string, quantity, minQuantity int) error
}

// Deps wires the dispatcher's collaborators. Store and Logger are required;
// the rest default to sensible no-ops.
type Deps struct {
	Store            store.Store
	Logger           logger.Logger
	Resolver         *resolve.Resolver
	Catalog          CatalogSearcher
	Notifier         Notifier
	Clock            func() time.Time
	DisplayLimit     int
	WideDisplayLimit int
}

type Dispatcher struct {
	store     store.Store
	log       logger.Logger
	resolver  *resolve.Resolver
	catalog   CatalogSearcher
	notifier  Notifier
	now       func() time.Time
	limit     int
	wideLimit int
}

func New(deps Deps) *Dispatcher {
	d := &Dispatcher{
		store:     deps.Store,
		log:       deps.Logger,
		resolver:  deps.Resolver,
		catalog:   deps.Catalog,
		notifier:  deps.Notifier,
		now:       deps.Clock,
		limit:     deps.DisplayLimit,
		wideLimit: deps.WideDisplayLimit,
	}
	if d.resolver == nil {
		d.resolver = resolve.New(nil)
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.limit <= 0 {
		d.limit = 5
	}
	if d.wideLimit <= 0 {
		d.wideLimit = 10
	}
	return d
}

// Dispatch routes the intent to the matching command family. It never
// panics; store failures surface as Success=false results.
func (d *Dispatcher) Dispatch(ctx context.Context, intent interpret.Intent) Result {
	switch intent.Category {
	case classify.CategoryCreate:
		return d.createCommand(ctx, intent)
	case classify.CategorySearch:
		return d.searchCommand(ctx, intent)
	case classify.CategoryReport:
		return d.reportCommand(ctx, intent)
	case classify.CategoryAction:
		return d.actionCommand(ctx, intent)
	case classify.CategoryFinancial:
		return d.financialCommand(ctx, intent)
	case classify.CategoryInventory:
		return d.inventoryCommand(ctx, intent)
	default:
		return d.generalCommand(ctx, intent)
	}
}

// failure logs err and returns a generic persistence failure to the user. The
// driver error stays in the logs; only the error code reaches the caller.
func (d *Dispatcher) failure(action string, err error) Result {
	stdErr := errors.NewPersistenceFailureError(err.Error())
	d.log.WithError(err).Error("command execution failed", map[string]any{
		"action":     action,
		"error_code": string(stdErr.Code),
		"retryable":  stdErr.Retryable,
	})
	return Result{
		Success: false,
		Message: "Ocorreu um erro ao processar seu comando. Por favor, tente novamente.",
		Action:  action,
		Data:    map[string]any{"error_code": string(stdErr.Code)},
	}
}

// requestInfo builds the clarification result for an identified action whose
// required slots are absent.
func requestInfo(message string, fields []string) Result {
	slotErr := errors.NewMissingRequiredSlotError(fields)
	return Result{
		Success:        false,
		Message:        message,
		Action:         "request_info",
		Data:           map[string]any{"error_code": string(slotErr.Code)},
		RequiredFields: fields,
	}
}

// notFound builds the result for a name the resolver could not match,
// carrying the suggestions both for display and as metadata.
func notFound(entityType, candidate, message string, suggestions []string) Result {
	nfErr := errors.NewEntityNotFoundError(entityType, candidate, suggestions)
	return Result{
		Success:     false,
		Message:     message,
		Data:        map[string]any{"error_code": string(nfErr.Code)},
		Suggestions: suggestions,
	}
}

func (d *Dispatcher) activeEmployees(ctx context.Context) ([]models.Employee, []resolve.Record, error) {
	records, err := d.store.FindMany(ctx, models.EntityEmployee, store.Predicate{"active": true}, store.Options{OrderBy: "name"})
	if err != nil {
		return nil, nil, fmt.Errorf("load employees: %w", err)
	}
	employees := make([]models.Employee, 0, len(records))
	resolvable := make([]resolve.Record, 0, len(records))
	for _, r := range records {
		e := r.(models.Employee)
		employees = append(employees, e)
		resolvable = append(resolvable, resolve.Record{ID: e.ID, Name: e.Name})
	}
	return employees, resolvable, nil
}

func (d *Dispatcher) resolveEmployee(ctx context.Context, name string) (models.Employee, []string, error) {
	employees, records, err := d.activeEmployees(ctx)
	if err != nil {
		return models.Employee{}, nil, err
	}

	if match, ok := d.resolver.Resolve(name, records); ok {
		for _, e := range employees {
			if e.ID == match.Record.ID {
				return e, nil, nil
			}
		}
	}

	suggestions := make([]string, 0, d.limit)
	for _, s := range d.resolver.Suggestions(name, records, 0.3) {
		suggestions = append(suggestions, s.Name)
		if len(suggestions) == d.limit {
			break
		}
	}
	if len(suggestions) == 0 {
		for _, e := range employees {
			suggestions = append(suggestions, e.Name)
			if len(suggestions) == d.limit {
				break
			}
		}
	}
	return models.Employee{}, suggestions, nil
}

func intentName(intent interpret.Intent) string {
	if name, ok := intent.Entities["person_name"].(string); ok {
		return name
	}
	return ""
}

func intentAmount(intent interpret.Intent) (float64, bool) {
	amount, ok := intent.Entities["value"].(float64)
	return amount, ok
}

func intentDate(intent interpret.Intent) (time.Time, bool) {
	date, ok := intent.Entities["date"].(time.Time)
	return date, ok
}

// dayRange returns [start of day, start of next day).
func dayRange(day time.Time) store.Range {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return store.Range{From: start, To: start.AddDate(0, 0, 1)}
}

// periodRange computes the report window from an explicit date, a time
// filter keyword, or the raw text. Defaults to today.
func (d *Dispatcher) periodRange(intent interpret.Intent) (store.Range, string) {
	now := d.now()
	if date, ok := intentDate(intent); ok {
		return dayRange(date), date.Format("02/01/2006")
	}

	lower := strings.ToLower(intent.RawText)
	switch {
	case strings.Contains(lower, "ontem"):
		return dayRange(now.AddDate(0, 0, -1)), "Ontem"
	case strings.Contains(lower, "semana"):
		return store.Range{From: now.AddDate(0, 0, -7), To: now}, "Últimos 7 dias"
	case strings.Contains(lower, "mês"), strings.Contains(lower, "mes"):
		return store.Range{From: now.AddDate(0, 0, -30), To: now}, "Últimos 30 dias"
	default:
		return dayRange(now), "Hoje"
	}
}

func sumVales(vales []models.Vale) float64 {
	var total float64
	for _, v := range vales {
		total += v.Amount
	}
	return total
}

func valesFromRecords(records []any) []models.Vale {
	vales := make([]models.Vale, 0, len(records))
	for _, r := range records {
		vales = append(vales, r.(models.Vale))
	}
	return vales
}

// extractNameWith extends the default exclusion list with command-specific
// words before extracting a name.
func extractNameWith(text string, exclusions []string) (string, bool) {
	merged := append([]string{}, extract.DefaultExclusions...)
	merged = append(merged, exclusions...)
	return extract.Name(text, merged)
}

func moreLine(total, shown int, noun string) string {
	if total <= shown {
		return ""
	}
	return fmt.Sprintf("\n... e mais %d %s.", total-shown, noun)
}
