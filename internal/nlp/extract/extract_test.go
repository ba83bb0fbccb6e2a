package extract

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmount(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  float64
		found bool
	}{
		{name: "currency marker with comma decimals", text: "R$ 123,45", want: 123.45, found: true},
		{name: "dot decimals without marker", text: "123.45", want: 123.45, found: true},
		{name: "marker glued to integer", text: "R$123", want: 123.0, found: true},
		{name: "thousands grouping", text: "registrar entrada de R$ 1.234,56", want: 1234.56, found: true},
		{name: "embedded in command", text: "criar vale de 200 para Josemir", want: 200.0, found: true},
		{name: "no number", text: "mostrar vales pendentes", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := Amount(tt.text)
			assert.Equal(t, tt.found, found)
			if tt.found {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  string
		found bool
	}{
		{name: "after preposition", text: "criar vale de 200 para Josemir", want: "Josemir", found: true},
		{name: "two word name", text: "mostrar vales de Antonio Rabelo", want: "Antonio Rabelo", found: true},
		{name: "before receive verb", text: "Darvin receber 150 reais", want: "Darvin", found: true},
		{name: "capitalized without preposition", text: "Josemir chegou cedo", want: "Josemir", found: true},
		{name: "only command words", text: "criar vale", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := Name(tt.text, nil)
			assert.Equal(t, tt.found, found)
			if tt.found {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNameNeverReturnsExclusions(t *testing.T) {
	// Exclusion words stay out even when capitalized like proper names.
	for _, text := range []string{"Vale para Vale", "Pagar o vale", "Dinheiro de Reais"} {
		name, found := Name(text, nil)
		if found {
			for _, w := range DefaultExclusions {
				assert.False(t, strings.EqualFold(w, name), "text %q", text)
			}
		}
	}
}

func TestNameCustomExclusions(t *testing.T) {
	name, found := Name("adicionar 10 unidades de Prata", []string{"adicionar", "unidades"})
	require.True(t, found)
	assert.Equal(t, "Prata", name)
}

func TestDateRelativeKeywords(t *testing.T) {
	now := time.Date(2026, 8, 31, 15, 30, 0, 0, time.UTC)
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name  string
		text  string
		want  time.Time
		found bool
	}{
		{name: "hoje", text: "relatório de vendas hoje", want: day(2026, 8, 31), found: true},
		{name: "ontem", text: "encomendas de ontem", want: day(2026, 8, 30), found: true},
		{name: "amanha sem acento", text: "entregas de amanha", want: day(2026, 9, 1), found: true},
		{name: "semana passada", text: "vendas da semana passada", want: day(2026, 8, 24), found: true},
		{name: "mes passado", text: "lucro do mês passado", want: day(2026, 8, 1), found: true},
		{name: "explicit date", text: "vendas em 15/03/2026", want: day(2026, 3, 15), found: true},
		{name: "two digit year", text: "vendas em 15/03/26", want: day(2026, 3, 15), found: true},
		{name: "relative wins over explicit", text: "hoje e 15/03/2026", want: day(2026, 8, 31), found: true},
		{name: "invalid calendar date", text: "vendas em 31/02/2026", found: false},
		{name: "no date", text: "listar clientes", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := Date(tt.text, now)
			assert.Equal(t, tt.found, found)
			if tt.found {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestCountAndNumbers(t *testing.T) {
	n, found := Count("adicionar 10 unidades de prata")
	require.True(t, found)
	assert.Equal(t, 10, n)

	_, found = Count("listar clientes")
	assert.False(t, found)

	assert.Equal(t, []int{10, 5}, Numbers("adicionar 10 caixas e 5 sacos"))
	assert.Nil(t, Numbers("sem números"))
}
