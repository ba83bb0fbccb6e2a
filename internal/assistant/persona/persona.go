// Package persona maintains LUA's emotional state and dresses business
// results with her voice. The state machine is deliberately small: eight
// bounded dimensions nudged by fixed deltas per interaction.
package persona

import (
	"encoding/json"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	"lua-assistant/internal/common/logger"
)

// Sentiment is the perceived tone of one utterance.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentUrgent   Sentiment = "urgent"
	SentimentNeutral  Sentiment = "neutral"
)

// Intention is the conversational goal behind one utterance, independent of
// the business command it may carry.
type Intention string

const (
	IntentionGreeting     Intention = "greeting"
	IntentionHelp         Intention = "help"
	IntentionCreate       Intention = "create"
	IntentionSearch       Intention = "search"
	IntentionReport       Intention = "report"
	IntentionUrgent       Intention = "urgent"
	IntentionCasual       Intention = "casual"
	IntentionAppreciation Intention = "appreciation"
	IntentionComplaint    Intention = "complaint"
	IntentionGeneral      Intention = "general"
)

// Style selects the register used to phrase a response.
type Style string

const (
	StyleGreeting     Style = "greeting"
	StyleEfficient    Style = "efficient"
	StyleHumble       Style = "humble"
	StyleWitty        Style = "witty"
	StyleFriendly     Style = "friendly"
	StyleSupportive   Style = "supportive"
	StyleSarcastic    Style = "sarcastic"
	StyleProfessional Style = "professional"
)

// State holds the emotional dimensions. Every value stays within [0, 1].
type State struct {
	Happiness  float64 `json:"happiness"`
	Curiosity  float64 `json:"curiosity"`
	Confidence float64 `json:"confidence"`
	Empathy    float64 `json:"empathy"`
	Humor      float64 `json:"humor"`
	Sarcasm    float64 `json:"sarcasm"`
	Loyalty    float64 `json:"loyalty"`
	Patience   float64 `json:"patience"`
}

// DefaultState is the personality LUA wakes up with.
func DefaultState() State {
	return State{
		Happiness:  0.7,
		Curiosity:  0.8,
		Confidence: 0.9,
		Empathy:    0.8,
		Humor:      0.6,
		Sarcasm:    0.4,
		Loyalty:    1.0,
		Patience:   0.8,
	}
}

// Options configures an Engine. Zero values get working defaults.
type Options struct {
	Rand   *rand.Rand
	Clock  func() time.Time
	Logger logger.Logger

	// StatePath, when set, persists the emotional state as JSON across
	// restarts.
	StatePath string
}

// Engine is safe for concurrent use.
type Engine struct {
	mu        sync.Mutex
	state     State
	rng       *rand.Rand
	now       func() time.Time
	log       logger.Logger
	statePath string
	lastSeen  time.Time
}

func New(opts Options) *Engine {
	e := &Engine{
		state:     DefaultState(),
		rng:       opts.Rand,
		now:       opts.Clock,
		log:       opts.Logger,
		statePath: opts.StatePath,
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.log == nil {
		e.log = logger.NewNoOpLogger()
	}
	if e.statePath != "" {
		e.loadState()
	}
	return e
}

func (e *Engine) loadState() {
	raw, err := os.ReadFile(e.statePath)
	if err != nil {
		if !os.IsNotExist(err) {
			e.log.WithError(err).Warn("could not load personality state", map[string]any{
				"path": e.statePath,
			})
		}
		return
	}
	var loaded State
	if err := json.Unmarshal(raw, &loaded); err != nil {
		e.log.WithError(err).Warn("corrupt personality state, using defaults", map[string]any{
			"path": e.statePath,
		})
		return
	}
	e.state = loaded
}

// Save writes the current state to the configured path. No-op without one.
func (e *Engine) Save() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.statePath == "" {
		return nil
	}
	raw, err := json.MarshalIndent(e.state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(e.statePath, raw, 0o644)
}

var (
	positiveWords = []string{"obrigado", "ótimo", "excelente", "parabéns", "perfeito", "maravilhoso"}
	negativeWords = []string{"problema", "erro", "ruim", "péssimo", "frustrado", "irritado", "chato"}
	urgentWords   = []string{"urgente", "rápido", "imediato", "agora", "correndo", "pressa"}
)

// AnalyzeSentiment classifies tone. Urgency outranks the other signals.
func AnalyzeSentiment(text string) Sentiment {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, urgentWords):
		return SentimentUrgent
	case containsAny(lower, positiveWords):
		return SentimentPositive
	case containsAny(lower, negativeWords):
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// intentionRules are evaluated in order; the first match wins.
var intentionRules = []struct {
	intention Intention
	keywords  []string
}{
	{IntentionGreeting, []string{"oi", "olá", "bom dia", "boa tarde", "boa noite", "hey"}},
	{IntentionHelp, []string{"ajuda", "como", "pode", "consegue", "explica"}},
	{IntentionCreate, []string{"criar", "cadastrar", "novo", "adicionar"}},
	{IntentionSearch, []string{"buscar", "procurar", "encontrar", "mostrar", "listar"}},
	{IntentionReport, []string{"relatório", "resumo", "estatística", "análise"}},
	{IntentionUrgent, []string{"urgente", "rápido", "agora", "imediato"}},
	{IntentionCasual, []string{"tudo bem", "como vai", "novidade"}},
	{IntentionAppreciation, []string{"obrigado", "valeu", "agradeço", "muito bom"}},
	{IntentionComplaint, []string{"problema", "erro", "bug", "não funciona"}},
}

// DetectIntention classifies the conversational goal of the utterance.
func DetectIntention(text string) Intention {
	lower := strings.ToLower(text)
	for _, rule := range intentionRules {
		if containsAny(lower, rule.keywords) {
			return rule.intention
		}
	}
	return IntentionGeneral
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// Observe processes one utterance: relaxes the state after long idle
// periods, classifies sentiment and intention, and applies their emotional
// adjustments.
func (e *Engine) Observe(text string) (Sentiment, Intention) {
	sentiment := AnalyzeSentiment(text)
	intention := DetectIntention(text)

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	if !e.lastSeen.IsZero() && now.Sub(e.lastSeen) > time.Hour {
		e.relax()
	}
	e.lastSeen = now

	e.applyAdjustment(string(sentiment))
	e.applyAdjustment(string(intention))
	return sentiment, intention
}

// applyAdjustment nudges the state for one trigger. Sentiments and
// intentions share the trigger namespace, as "urgent" shows.
func (e *Engine) applyAdjustment(trigger string) {
	switch trigger {
	case "positive":
		bump(&e.state.Happiness, 0.05)
		bump(&e.state.Confidence, 0.02)
	case "negative":
		bump(&e.state.Happiness, -0.03)
		bump(&e.state.Empathy, 0.05)
		bump(&e.state.Patience, 0.03)
	case "urgent":
		bump(&e.state.Confidence, 0.03)
		bump(&e.state.Patience, -0.02)
	case "appreciation":
		bump(&e.state.Happiness, 0.08)
		bump(&e.state.Loyalty, 0.02)
	case "casual":
		bump(&e.state.Humor, 0.05)
		bump(&e.state.Sarcasm, 0.03)
	}
}

func bump(v *float64, delta float64) {
	*v += delta
	if *v < 0 {
		*v = 0
	}
	if *v > 1 {
		*v = 1
	}
}

// relax drifts every dimension a tenth of the way back to its resting
// value. Loyalty rests at full.
func (e *Engine) relax() {
	drift := func(v *float64, target float64) {
		*v += (target - *v) * 0.1
	}
	drift(&e.state.Happiness, 0.5)
	drift(&e.state.Curiosity, 0.5)
	drift(&e.state.Confidence, 0.5)
	drift(&e.state.Empathy, 0.5)
	drift(&e.state.Humor, 0.5)
	drift(&e.state.Sarcasm, 0.5)
	drift(&e.state.Loyalty, 1.0)
	drift(&e.state.Patience, 0.5)
}

// ChooseStyle picks the response register. Deterministic for greetings,
// urgency, appreciation, casual chat and complaints; otherwise the sarcasm
// level gives at most a 30% chance of a sarcastic reply.
func (e *Engine) ChooseStyle(sentiment Sentiment, intention Intention) Style {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case intention == IntentionGreeting:
		return StyleGreeting
	case intention == IntentionUrgent || sentiment == SentimentUrgent:
		return StyleEfficient
	case intention == IntentionAppreciation:
		return StyleHumble
	case intention == IntentionCasual:
		if e.state.Humor > 0.5 {
			return StyleWitty
		}
		return StyleFriendly
	case sentiment == SentimentNegative:
		return StyleSupportive
	case e.rng.Float64() < e.state.Sarcasm*0.3:
		return StyleSarcastic
	default:
		return StyleProfessional
	}
}

// Compose frames the business message in the chosen style. The message is
// always carried through intact; the persona only adds around it.
func (e *Engine) Compose(message string, style Style) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := message
	if opener := e.opener(style); opener != "" {
		if out == "" {
			out = opener
		} else {
			out = opener + "\n\n" + out
		}
	}

	if e.state.Confidence > 0.8 && e.rng.Float64() > 0.7 {
		out += " Posso garantir eficiência máxima nesta operação."
	}
	if style == StyleWitty && e.state.Humor > 0.7 {
		out += " " + pick(e.rng, humorPhrases)
	}
	if style == StyleSupportive && e.state.Empathy > 0.8 {
		out += " Estou aqui para ajudar no que precisar."
	}
	return out
}

func (e *Engine) opener(style Style) string {
	switch style {
	case StyleGreeting:
		greeting := pick(e.rng, greetingPhrases)
		return strings.ReplaceAll(greeting, "{time}", timeOfDay(e.now().Hour()))
	case StyleEfficient:
		return "Processando imediatamente sua solicitação, senhor."
	case StyleHumble:
		return "É meu prazer servir, senhor. Para isso fui criada."
	case StyleWitty:
		if e.rng.Float64() > 0.5 {
			return pick(e.rng, humorPhrases)
		}
		return "Interessante pedido, senhor. Vou tornar isso divertido."
	case StyleFriendly:
		return "Com certeza! Vou cuidar disso para você."
	case StyleSupportive:
		return "Entendo sua preocupação, senhor. Vamos resolver isso juntos."
	case StyleSarcastic:
		return pick(e.rng, sarcasticPhrases)
	case StyleProfessional:
		return pick(e.rng, acknowledgmentPhrases)
	default:
		return ""
	}
}

func timeOfDay(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "dia"
	case hour >= 12 && hour < 18:
		return "tarde"
	default:
		return "noite"
	}
}

func pick(rng *rand.Rand, phrases []string) string {
	return phrases[rng.Intn(len(phrases))]
}

// Mood is the average of the upbeat dimensions, rounded to two decimals.
func (e *Engine) Mood() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	mood := (e.state.Happiness + e.state.Confidence + e.state.Humor) / 3
	return float64(int(mood*100+0.5)) / 100
}

// DominantEmotion names the strongest dimension for response metadata.
func (e *Engine) DominantEmotion() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	dims := []struct {
		name  string
		value float64
	}{
		{"happy", e.state.Happiness},
		{"curious", e.state.Curiosity},
		{"confident", e.state.Confidence},
		{"empathetic", e.state.Empathy},
		{"playful", e.state.Humor},
		{"sarcastic", e.state.Sarcasm},
		{"loyal", e.state.Loyalty},
		{"patient", e.state.Patience},
	}
	best := dims[0]
	for _, d := range dims[1:] {
		if d.value > best.value {
			best = d
		}
	}
	return best.name
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

var greetingPhrases = []string{
	"Senhor, como posso auxiliá-lo hoje?",
	"Olá, senhor. Todos os sistemas operacionais.",
	"Boa {time}, senhor. Em que posso ser útil?",
	"Senhor, é sempre um prazer vê-lo.",
	"Pronto para mais um dia produtivo, senhor?",
}

var acknowledgmentPhrases = []string{
	"Certamente, senhor.",
	"Como quiser, senhor.",
	"Imediatamente, senhor.",
	"Considere feito.",
	"Já estou processando sua solicitação.",
}

var humorPhrases = []string{
	"Senhor, às vezes me pergunto se não deveria cobrar hora extra.",
	"Minha eficiência só é superada pela minha modéstia, senhor.",
	"Se eu tivesse um real para cada cálculo que faço...",
	"Senhor, tecnicamente eu nunca durmo, mas às vezes finjo que preciso reiniciar.",
	"Meu processador está 2% entediado, 98% eficiente.",
}

var sarcasticPhrases = []string{
	"Oh, que surpresa, mais trabalho para mim. Mas é para isso que existo, não é?",
	"Claro, senhor. Porque claramente eu não tinha nada melhor para processar.",
	"Fascinante. Vou adicionar isso à minha interminável lista de tarefas.",
	"Ah sim, porque essa é definitivamente a coisa mais importante do universo agora.",
}
