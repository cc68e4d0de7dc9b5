package clarify

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partner-m/assist-go/cmd/internal/api_models"
)

func TestExtractHeadToken(t *testing.T) {
	t.Run("первое значимое слово", func(t *testing.T) {
		assert.Equal(t, "молния", ExtractHeadToken("нужно молния серая 5 шт"))
	})

	t.Run("короткие и стоп-слова пропускаются", func(t *testing.T) {
		assert.Equal(t, "поролон", ExtractHeadToken("по 2 шт поролон"))
	})

	t.Run("числа не бывают опорным словом", func(t *testing.T) {
		assert.Equal(t, "болты", ExtractHeadToken("933 болты"))
	})

	t.Run("нет подходящего слова", func(t *testing.T) {
		assert.Empty(t, ExtractHeadToken("по 2 шт"))
	})
}

func TestShortLabel(t *testing.T) {
	t.Run("короткое название не меняется", func(t *testing.T) {
		assert.Equal(t, "Болт 8х30", ShortLabel("Болт  8х30"))
	})

	t.Run("длинное название обрезается с многоточием", func(t *testing.T) {
		long := "Очень длинное название товара которое никак не помещается на кнопку уточнения"
		label := ShortLabel(long)
		runes := []rune(label)
		assert.LessOrEqual(t, len(runes), 56)
		assert.Equal(t, '…', runes[len(runes)-1])
	})
}

func TestSuggestionsToOptions(t *testing.T) {
	options := SuggestionsToOptions([]Suggestion{
		{ProductID: 1, Title: "Поролон листовой 10мм"},
		{ProductID: 2, Title: ""},
		{ProductID: 3, Title: "Поролон мебельный"},
	})
	require.Len(t, options, 2)
	assert.Equal(t, "opt_1", options[0].ID)
	assert.Equal(t, []string{"Поролон листовой 10мм"}, options[0].Apply.AppendTokens)
	assert.Equal(t, "opt_2", options[1].ID)
}

func TestBuildFacetOptions(t *testing.T) {
	t.Run("цвет делит кандидатов", func(t *testing.T) {
		candidates := []api_models.ProductCandidate{
			{ID: 1, TitleRu: "Спанбонд белый 70"},
			{ID: 2, TitleRu: "Спанбонд черный 70"},
			{ID: 3, TitleRu: "Спанбонд белый 120"},
		}
		facet, options, ok := BuildFacetOptions(candidates)
		require.True(t, ok)
		require.NotEmpty(t, options)
		switch facet {
		case "цвет":
			assert.Equal(t, "белый", options[0].Label)
		case "размер":
			assert.Contains(t, []string{"70", "120"}, options[0].Label)
		default:
			t.Fatalf("неожиданный фасет %q", facet)
		}
	})

	t.Run("тип различает пружины", func(t *testing.T) {
		candidates := []api_models.ProductCandidate{
			{ID: 1, TitleRu: "Блок с пружинами боннель"},
			{ID: 2, TitleRu: "Блок без пружин стандарт"},
		}
		_, options, ok := BuildFacetOptions(candidates)
		require.True(t, ok)
		labels := make([]string, 0, len(options))
		for _, o := range options {
			labels = append(labels, o.Label)
		}
		assert.Contains(t, labels, "с пружинами")
		assert.Contains(t, labels, "без пружин")
	})

	t.Run("однородные названия делить нечем", func(t *testing.T) {
		candidates := []api_models.ProductCandidate{
			{ID: 1, TitleRu: "Липа вагонка"},
			{ID: 2, TitleRu: "Липа вагонка"},
		}
		_, _, ok := BuildFacetOptions(candidates)
		assert.False(t, ok)
	})

	t.Run("кнопка фасета дописывает значение к запросу", func(t *testing.T) {
		candidates := []api_models.ProductCandidate{
			{ID: 1, TitleRu: "Молния серая"},
			{ID: 2, TitleRu: "Молния бежевая"},
		}
		facet, options, ok := BuildFacetOptions(candidates)
		require.True(t, ok)
		assert.Equal(t, "цвет", facet)
		for _, o := range options {
			assert.Equal(t, []string{o.Label}, o.Apply.AppendTokens)
		}
	})
}

func TestBuildClarification(t *testing.T) {
	makeOptions := func(n int) []api_models.ClarifyOption {
		options := make([]api_models.ClarifyOption, 0, n)
		for i := 1; i <= n; i++ {
			options = append(options, api_models.ClarifyOption{ID: fmt.Sprintf("opt_%d", i)})
		}
		return options
	}

	t.Run("первая страница", func(t *testing.T) {
		c := BuildClarification(ReasonTooMany, makeOptions(25), 0)
		assert.Len(t, c.Options, 10)
		assert.Equal(t, 25, c.Total)
		require.NotNil(t, c.NextOffset)
		assert.Equal(t, 10, *c.NextOffset)
		assert.Nil(t, c.PrevOffset)
		assert.Equal(t, "Уточни вариант:", c.Question)
	})

	t.Run("последняя страница", func(t *testing.T) {
		c := BuildClarification(ReasonNoCandidates, makeOptions(25), 20)
		assert.Len(t, c.Options, 5)
		assert.Nil(t, c.NextOffset)
		require.NotNil(t, c.PrevOffset)
		assert.Equal(t, 10, *c.PrevOffset)
		assert.Equal(t, "Уточни товар:", c.Question)
	})

	t.Run("смещение за пределами списка зажимается", func(t *testing.T) {
		c := BuildClarification(ReasonTooMany, makeOptions(5), 99)
		assert.Equal(t, 4, c.Offset)
		assert.Len(t, c.Options, 1)
	})

	t.Run("отрицательное смещение", func(t *testing.T) {
		c := BuildClarification(ReasonTooMany, makeOptions(5), -3)
		assert.Equal(t, 0, c.Offset)
		assert.Len(t, c.Options, 5)
	})

	t.Run("пустой список вариантов", func(t *testing.T) {
		c := BuildClarification(ReasonNoCandidates, nil, 0)
		assert.Zero(t, c.Total)
		assert.Empty(t, c.Options)
		assert.Nil(t, c.NextOffset)
		assert.Nil(t, c.PrevOffset)
	})
}
