package assistant

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lua-assistant/internal/assistant/dispatch"
	"lua-assistant/internal/assistant/persona"
	"lua-assistant/internal/common/config"
	"lua-assistant/internal/common/logger"
	"lua-assistant/internal/models"
	"lua-assistant/internal/nlp/interpret"
	"lua-assistant/internal/store"
)

var testNow = time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

type stubSynthesizer struct {
	audio []byte
	err   error
	calls int
}

func (s *stubSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.audio, nil
}

type stubCompleter struct {
	answer     string
	err        error
	lastSystem string
	lastPrompt string
}

func (s *stubCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	s.lastSystem = system
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

func testAssistant(t *testing.T, mutate func(*Deps)) *Assistant {
	t.Helper()
	m := store.NewMemory()
	ctx := context.Background()
	for _, e := range []models.Employee{
		{Name: "Josemir", Role: "vendedor", Salary: 2500, Active: true},
		{Name: "Maria Lucia", Role: "gerente", Salary: 4000, Active: true},
	} {
		_, err := m.Create(ctx, models.EntityEmployee, e)
		require.NoError(t, err)
	}

	clock := func() time.Time { return testNow }
	log := logger.NewTestLogger(t)
	deps := Deps{
		Config: config.AssistantConfig{
			ConfidenceThreshold: 0.3,
			HistoryLimit:        50,
		},
		Interpreter: interpret.NewWithClock(clock),
		Dispatcher: dispatch.New(dispatch.Deps{
			Store:  m,
			Logger: log,
			Clock:  clock,
		}),
		Persona: persona.New(persona.Options{
			Rand:   rand.New(rand.NewSource(7)),
			Clock:  clock,
			Logger: log,
		}),
		Logger: log,
		Clock:  clock,
	}
	if mutate != nil {
		mutate(&deps)
	}
	return New(deps)
}

func TestProcessCommandCarriesDispatchMessage(t *testing.T) {
	a := testAssistant(t, nil)

	resp := a.ProcessCommand(context.Background(), Request{Text: "criar vale de 200 para Josemir"})
	require.True(t, resp.Success, resp.Message)
	assert.Equal(t, "created", resp.Action)
	assert.Equal(t, "vales", resp.Module)
	assert.Contains(t, resp.Message, "Vale criado com sucesso!")
	assert.Contains(t, resp.Message, "R$ 200.00")
	assert.False(t, resp.HasVoice)
	assert.Nil(t, resp.Audio)
}

func TestProcessCommandAttachesEmotionMetadata(t *testing.T) {
	a := testAssistant(t, nil)

	resp := a.ProcessCommand(context.Background(), Request{Text: "mostrar vales pendentes"})
	assert.NotEmpty(t, resp.Emotion.Dominant)
	assert.NotEmpty(t, resp.Emotion.ResponseType)
	assert.GreaterOrEqual(t, resp.Emotion.Mood, 0.0)
	assert.LessOrEqual(t, resp.Emotion.Mood, 1.0)
	assert.GreaterOrEqual(t, resp.Emotion.Confidence, 0.0)
	assert.LessOrEqual(t, resp.Emotion.Confidence, 1.0)
}

func TestProcessCommandEmptyText(t *testing.T) {
	a := testAssistant(t, nil)

	resp := a.ProcessCommand(context.Background(), Request{Text: "   "})
	assert.False(t, resp.Success)
	assert.Equal(t, "empty_command", resp.Action)
	assert.NotEmpty(t, resp.Message)
}

func TestHistoryRecordsBothRoles(t *testing.T) {
	a := testAssistant(t, nil)

	a.ProcessCommand(context.Background(), Request{Text: "quanto temos no caixa hoje", UserID: "u1"})

	history := a.History()
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "quanto temos no caixa hoje", history[0].Text)
	assert.Equal(t, "u1", history[0].UserID)
	assert.Equal(t, "assistant", history[1].Role)
	assert.NotEmpty(t, history[1].Text)
	assert.NotEmpty(t, history[0].ID)
	assert.NotEqual(t, history[0].ID, history[1].ID)
	assert.Equal(t, testNow, history[0].Timestamp)
}

func TestHistoryEvictsOldestPastLimit(t *testing.T) {
	a := testAssistant(t, func(d *Deps) {
		d.Config.HistoryLimit = 4
	})

	a.ProcessCommand(context.Background(), Request{Text: "mostrar vales"})
	a.ProcessCommand(context.Background(), Request{Text: "listar clientes"})
	a.ProcessCommand(context.Background(), Request{Text: "qual o saldo do caixa"})

	history := a.History()
	require.Len(t, history, 4)
	assert.Equal(t, "listar clientes", history[0].Text)
}

func TestClearHistory(t *testing.T) {
	a := testAssistant(t, nil)

	a.ProcessCommand(context.Background(), Request{Text: "mostrar vales"})
	require.NotEmpty(t, a.History())

	a.ClearHistory()
	assert.Empty(t, a.History())
}

func TestVoiceSynthesisAttachesAudio(t *testing.T) {
	synth := &stubSynthesizer{audio: []byte("audio-bytes")}
	a := testAssistant(t, func(d *Deps) {
		d.Config.VoiceEnabled = true
		d.Synthesizer = synth
	})

	resp := a.ProcessCommand(context.Background(), Request{Text: "mostrar vales", Voice: true})
	assert.True(t, resp.HasVoice)
	assert.Equal(t, []byte("audio-bytes"), resp.Audio)
	assert.Equal(t, 1, synth.calls)
}

func TestVoiceFailureDegradesToTextOnly(t *testing.T) {
	synth := &stubSynthesizer{err: errors.New("speech service down")}
	a := testAssistant(t, func(d *Deps) {
		d.Config.VoiceEnabled = true
		d.Synthesizer = synth
	})

	resp := a.ProcessCommand(context.Background(), Request{Text: "criar vale de 200 para Josemir", Voice: true})
	require.True(t, resp.Success, resp.Message)
	assert.False(t, resp.HasVoice)
	assert.Nil(t, resp.Audio)
	assert.Contains(t, resp.Message, "Vale criado com sucesso!")
}

func TestVoiceSkippedWhenDisabled(t *testing.T) {
	synth := &stubSynthesizer{audio: []byte("audio-bytes")}
	a := testAssistant(t, func(d *Deps) {
		d.Config.VoiceEnabled = false
		d.Synthesizer = synth
	})

	resp := a.ProcessCommand(context.Background(), Request{Text: "mostrar vales", Voice: true})
	assert.False(t, resp.HasVoice)
	assert.Zero(t, synth.calls)
}

func TestLowConfidenceFallsBackToLanguageModel(t *testing.T) {
	completer := &stubCompleter{answer: "Posso ajudar com vales, clientes e caixa."}
	a := testAssistant(t, func(d *Deps) {
		d.Completer = completer
	})

	a.ProcessCommand(context.Background(), Request{Text: "mostrar vales"})
	resp := a.ProcessCommand(context.Background(), Request{Text: "xyzzy plugh"})

	require.True(t, resp.Success)
	assert.Equal(t, "chat", resp.Action)
	assert.Equal(t, "conversa", resp.Module)
	assert.Contains(t, resp.Message, "Posso ajudar com vales, clientes e caixa.")
	assert.Contains(t, completer.lastSystem, "LUA")
	assert.Contains(t, completer.lastPrompt, "Usuário: xyzzy plugh")
	assert.Contains(t, completer.lastPrompt, "- mostrar vales")
}

func TestLowConfidenceModelFailureFallsBackToSuggestions(t *testing.T) {
	completer := &stubCompleter{err: errors.New("model offline")}
	a := testAssistant(t, func(d *Deps) {
		d.Completer = completer
	})

	resp := a.ProcessCommand(context.Background(), Request{Text: "aquilo do josemir"})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Suggestions, "Mostrar vales de Josemir")
}

func TestConfidentCommandSkipsLanguageModel(t *testing.T) {
	completer := &stubCompleter{answer: "nunca usado"}
	a := testAssistant(t, func(d *Deps) {
		d.Completer = completer
	})

	resp := a.ProcessCommand(context.Background(), Request{Text: "criar vale de 200 para Josemir"})
	require.True(t, resp.Success, resp.Message)
	assert.Empty(t, completer.lastPrompt)
	assert.Equal(t, "created", resp.Action)
}

func TestPersonalityPersistedWhenConfigured(t *testing.T) {
	statePath := t.TempDir() + "/lua_state.json"
	a := testAssistant(t, func(d *Deps) {
		d.Config.PersistPersonality = true
		d.Config.PersonalityPath = statePath
		d.Persona = persona.New(persona.Options{
			Rand:      rand.New(rand.NewSource(7)),
			Clock:     func() time.Time { return testNow },
			StatePath: statePath,
		})
	})

	a.ProcessCommand(context.Background(), Request{Text: "muito obrigado, excelente trabalho"})
	assert.FileExists(t, statePath)
}

func TestConcurrentCommandsKeepHistoryConsistent(t *testing.T) {
	a := testAssistant(t, nil)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			a.ProcessCommand(context.Background(), Request{
				Text:   fmt.Sprintf("mostrar vales pendentes %d", n),
				UserID: fmt.Sprintf("u%d", n),
			})
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	history := a.History()
	assert.Len(t, history, 16)
	seen := map[string]bool{}
	for _, turn := range history {
		assert.False(t, seen[turn.ID], "duplicate turn id")
		seen[turn.ID] = true
	}
}

func TestGreetingStyleForGreetingIntention(t *testing.T) {
	a := testAssistant(t, nil)

	resp := a.ProcessCommand(context.Background(), Request{Text: "bom dia lua"})
	assert.Equal(t, string(persona.StyleGreeting), resp.Emotion.ResponseType)
	assert.Contains(t, resp.Message, "Bom dia")
}
