// Package assistant exposes the conversational facade: it interprets free-form
// Portuguese commands, executes them, frames the answer with the persona and
// optionally speaks it.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"lua-assistant/internal/assistant/dispatch"
	"lua-assistant/internal/assistant/persona"
	"lua-assistant/internal/common/config"
	"lua-assistant/internal/common/errors"
	"lua-assistant/internal/common/logger"
	"lua-assistant/internal/common/observability"
	"lua-assistant/internal/llm"
	"lua-assistant/internal/nlp/interpret"
	"lua-assistant/internal/tts"
)

const (
	defaultHistoryLimit = 50
	historyContextTurns = 3

	chatSystemPrompt = "Você é LUA, assistente virtual da joalheria. " +
		"Você é amigável, profissional e sempre ajuda com tarefas do sistema. " +
		"Conhece todos os módulos: clientes, produtos, vales, pedidos, estoque, caixa. " +
		"Responda de forma concisa e útil."
)

// Request is one user utterance to process.
type Request struct {
	Text    string         `json:"text"`
	UserID  string         `json:"user_id,omitempty"`
	Context map[string]any `json:"context,omitempty"`
	Voice   bool           `json:"voice,omitempty"`
}

// Emotion carries the persona metadata attached to every response.
type Emotion struct {
	Dominant     string  `json:"dominant"`
	Mood         float64 `json:"mood"`
	Confidence   float64 `json:"confidence"`
	ResponseType string  `json:"response_type"`
}

// Response is the full answer for one utterance. Audio is only set when
// speech was requested, enabled and the synthesizer succeeded.
type Response struct {
	Success     bool           `json:"success"`
	Message     string         `json:"message"`
	Action      string         `json:"action,omitempty"`
	Module      string         `json:"module,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
	Suggestions []string       `json:"suggestions,omitempty"`
	Emotion     Emotion        `json:"emotion_metadata"`
	Audio       []byte         `json:"audio,omitempty"`
	HasVoice    bool           `json:"has_voice"`
}

// Turn is one entry of the conversation history.
type Turn struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id,omitempty"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
}

// Deps wires the facade's collaborators. Interpreter, Dispatcher, Persona and
// Logger are required; Synthesizer, Completer and Metrics are optional.
type Deps struct {
	Config      config.AssistantConfig
	Interpreter *interpret.Interpreter
	Dispatcher  *dispatch.Dispatcher
	Persona     *persona.Engine
	Synthesizer tts.Synthesizer
	Completer   llm.Completer
	Metrics     *observability.Observability
	Logger      logger.Logger
	Clock       func() time.Time
}

// Assistant serializes all shared mutable state (conversation history and the
// persona, which locks internally) behind its own mutex. Safe for concurrent
// use.
type Assistant struct {
	cfg       config.AssistantConfig
	interp    *interpret.Interpreter
	disp      *dispatch.Dispatcher
	persona   *persona.Engine
	synth     tts.Synthesizer
	completer llm.Completer
	metrics   *observability.Observability
	log       logger.Logger
	now       func() time.Time

	mu      sync.Mutex
	history []Turn
}

func New(deps Deps) *Assistant {
	a := &Assistant{
		cfg:       deps.Config,
		interp:    deps.Interpreter,
		disp:      deps.Dispatcher,
		persona:   deps.Persona,
		synth:     deps.Synthesizer,
		completer: deps.Completer,
		metrics:   deps.Metrics,
		log:       deps.Logger,
		now:       deps.Clock,
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.cfg.ConfidenceThreshold <= 0 {
		a.cfg.ConfidenceThreshold = interpret.ConfidenceThreshold
	}
	if a.cfg.HistoryLimit <= 0 {
		a.cfg.HistoryLimit = defaultHistoryLimit
	}
	if a.synth == nil {
		a.synth = tts.Noop{}
	}
	return a
}

// ProcessCommand interprets and executes one utterance. Collaborator outages
// (speech, language model) degrade to a text-only answer and are never
// surfaced to the user.
func (a *Assistant) ProcessCommand(ctx context.Context, req Request) Response {
	started := a.now()
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return a.finish(ctx, req, Response{
			Success: false,
			Message: "Não recebi nenhum comando. Pode repetir, senhor?",
			Action:  "empty_command",
		}, persona.StyleProfessional, started)
	}

	a.appendTurn(req.UserID, "user", text)

	intent := a.interp.Interpret(text)
	sentiment, intention := a.persona.Observe(text)
	style := a.persona.ChooseStyle(sentiment, intention)

	a.log.Debug("command interpreted", map[string]any{
		"action":     string(intent.Action),
		"entity":     string(intent.EntityType),
		"category":   string(intent.Category),
		"confidence": intent.Confidence,
		"sentiment":  string(sentiment),
		"intention":  string(intention),
	})

	var result dispatch.Result
	if intent.Confidence < a.cfg.ConfidenceThreshold && a.completer != nil {
		if answer, err := a.chat(ctx, text); err == nil {
			result = dispatch.Result{
				Success: true,
				Message: answer,
				Action:  "chat",
				Module:  "conversa",
			}
		} else {
			collabErr := errors.NewCollaboratorUnavailableError("language model", err.Error())
			a.log.WithError(err).Warn("language model fallback unavailable", map[string]any{
				"error_code": string(collabErr.Code),
				"text":       text,
			})
			result = a.disp.Dispatch(ctx, intent)
		}
	} else {
		result = a.disp.Dispatch(ctx, intent)
	}

	resp := Response{
		Success:     result.Success,
		Message:     a.persona.Compose(result.Message, style),
		Action:      result.Action,
		Module:      result.Module,
		Data:        result.Data,
		Suggestions: result.Suggestions,
	}

	if req.Voice && a.cfg.VoiceEnabled {
		if audio, err := a.synth.Synthesize(ctx, resp.Message); err != nil {
			collabErr := errors.NewCollaboratorUnavailableError("speech", err.Error())
			a.log.WithError(err).Warn("speech synthesis unavailable, answering text-only", map[string]any{
				"error_code": string(collabErr.Code),
			})
			if a.metrics != nil {
				a.metrics.RecordSynthesisError(ctx)
			}
		} else if len(audio) > 0 {
			resp.Audio = audio
			resp.HasVoice = true
		}
	}

	a.recordMetrics(ctx, string(intent.Category), resp.Success, started)
	return a.finish(ctx, req, resp, style, started)
}

// finish stamps emotion metadata, logs the assistant turn and persists the
// persona when configured.
func (a *Assistant) finish(ctx context.Context, req Request, resp Response, style persona.Style, started time.Time) Response {
	resp.Emotion = Emotion{
		Dominant:     a.persona.DominantEmotion(),
		Mood:         a.persona.Mood(),
		Confidence:   a.persona.Snapshot().Confidence,
		ResponseType: string(style),
	}
	a.appendTurn(req.UserID, "assistant", resp.Message)

	if a.cfg.PersistPersonality {
		if err := a.persona.Save(); err != nil {
			a.log.WithError(err).Warn("personality state not persisted", nil)
		}
	}

	a.log.Info("command processed", map[string]any{
		"success":   resp.Success,
		"action":    resp.Action,
		"module":    resp.Module,
		"has_voice": resp.HasVoice,
		"elapsed":   a.now().Sub(started).String(),
	})
	return resp
}

// chat asks the language model for a conversational answer, feeding it the
// last few user turns as context.
func (a *Assistant) chat(ctx context.Context, text string) (string, error) {
	var sb strings.Builder
	sb.WriteString("Histórico recente:\n")
	for _, turn := range a.recentUserTurns(historyContextTurns) {
		fmt.Fprintf(&sb, "- %s\n", turn.Text)
	}
	fmt.Fprintf(&sb, "\nUsuário: %s\n\nLUA:", text)

	answer, err := a.completer.Complete(ctx, chatSystemPrompt, sb.String())
	if err != nil {
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", fmt.Errorf("empty completion")
	}
	return answer, nil
}

func (a *Assistant) recordMetrics(ctx context.Context, category string, success bool, started time.Time) {
	if a.metrics == nil {
		return
	}
	status := "ok"
	if !success {
		status = "error"
	}
	a.metrics.RecordCommandProcessed(ctx, category, status)
	a.metrics.RecordCommandDuration(ctx, a.now().Sub(started), status)
}

// appendTurn adds one history entry, evicting the oldest past the limit.
func (a *Assistant) appendTurn(userID, role, text string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.history = append(a.history, Turn{
		ID:        uuid.NewString(),
		Timestamp: a.now(),
		UserID:    userID,
		Role:      role,
		Text:      text,
	})
	if excess := len(a.history) - a.cfg.HistoryLimit; excess > 0 {
		a.history = append(a.history[:0:0], a.history[excess:]...)
	}
}

// recentUserTurns returns up to n most recent user-role turns, oldest first.
func (a *Assistant) recentUserTurns(n int) []Turn {
	a.mu.Lock()
	defer a.mu.Unlock()

	var turns []Turn
	for i := len(a.history) - 1; i >= 0 && len(turns) < n; i-- {
		if a.history[i].Role == "user" {
			turns = append(turns, a.history[i])
		}
	}
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns
}

// History returns a copy of the conversation log, oldest first.
func (a *Assistant) History() []Turn {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Turn, len(a.history))
	copy(out, a.history)
	return out
}

// ClearHistory drops the conversation log. The persona keeps its state.
func (a *Assistant) ClearHistory() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = nil
}
