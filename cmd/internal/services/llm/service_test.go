package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partner-m/assist-go/cmd/internal/api_models"
)

func TestExtractJSONObject(t *testing.T) {
	t.Run("объект в прозе", func(t *testing.T) {
		got := extractJSONObject(`Вот ответ: {"ranking": [{"product_id": 1, "score": 0.9}]} надеюсь, помог`)
		assert.Equal(t, `{"ranking": [{"product_id": 1, "score": 0.9}]}`, got)
	})

	t.Run("вложенные скобки", func(t *testing.T) {
		got := extractJSONObject(`{"a": {"b": 1}}`)
		assert.Equal(t, `{"a": {"b": 1}}`, got)
	})

	t.Run("скобка внутри строки не ломает глубину", func(t *testing.T) {
		got := extractJSONObject(`{"a": "скобка } в строке", "b": 2}`)
		assert.Equal(t, `{"a": "скобка } в строке", "b": 2}`, got)
	})

	t.Run("незакрытый объект", func(t *testing.T) {
		assert.Empty(t, extractJSONObject(`{"a": 1`))
	})

	t.Run("без объекта", func(t *testing.T) {
		assert.Empty(t, extractJSONObject("просто текст"))
	})
}

func TestCleanRewrite(t *testing.T) {
	t.Run("кавычки и пробелы срезаются", func(t *testing.T) {
		assert.Equal(t, "поролон 10мм", cleanRewrite(`  "поролон 10мм"  `))
	})

	t.Run("берется только первая строка", func(t *testing.T) {
		assert.Equal(t, "болт 8х30", cleanRewrite("болт 8х30\nПояснение: это крепеж"))
	})

	t.Run("слишком длинный ответ отбрасывается", func(t *testing.T) {
		assert.Empty(t, cleanRewrite("один два три четыре пять шесть семь"))
	})

	t.Run("пустой ответ", func(t *testing.T) {
		assert.Empty(t, cleanRewrite("   "))
	})
}

func TestCleanAlternatives(t *testing.T) {
	t.Run("дубликаты и исходный запрос выкидываются", func(t *testing.T) {
		got := cleanAlternatives(`["поролон листовой", "ППУ лист", "поролон листовой", "поролон"]`, "поролон")
		assert.Equal(t, []string{"поролон листовой", "ППУ лист"}, got)
	})

	t.Run("массив в прозе", func(t *testing.T) {
		got := cleanAlternatives(`Варианты: ["мел белый", "карандаш меловой"]`, "мел")
		assert.Len(t, got, 2)
	})

	t.Run("не json", func(t *testing.T) {
		assert.Empty(t, cleanAlternatives("не могу помочь", "мел"))
	})
}

func TestParseNarrowAnswer(t *testing.T) {
	manifest := []ManifestEntry{
		{ID: 10, Path: "Крепеж / Болты"},
		{ID: 20, Path: "Ткани"},
	}

	t.Run("валидный ответ", func(t *testing.T) {
		ids, confidence := parseNarrowAnswer(`{"category_ids": [10], "confidence": 0.8}`, manifest)
		assert.Equal(t, []int64{10}, ids)
		assert.InDelta(t, 0.8, confidence, 1e-9)
	})

	t.Run("выдуманный id обнуляет весь ответ", func(t *testing.T) {
		ids, confidence := parseNarrowAnswer(`{"category_ids": [10, 999], "confidence": 0.9}`, manifest)
		assert.Empty(t, ids)
		assert.Zero(t, confidence)
	})

	t.Run("доверие зажимается в [0, 1]", func(t *testing.T) {
		_, confidence := parseNarrowAnswer(`{"category_ids": [20], "confidence": 3.5}`, manifest)
		assert.Equal(t, 1.0, confidence)
	})

	t.Run("мусор вместо json", func(t *testing.T) {
		ids, confidence := parseNarrowAnswer("категория крепеж", manifest)
		assert.Empty(t, ids)
		assert.Zero(t, confidence)
	})
}

func TestParseRerankAnswer(t *testing.T) {
	candidates := []api_models.ProductCandidate{
		{ID: 1, TitleRu: "Поролон листовой"},
		{ID: 2, TitleRu: "Поролон мебельный"},
		{ID: 3, TitleRu: "Синтепон"},
	}

	t.Run("сортировка по score и фильтр чужих id", func(t *testing.T) {
		answer := `{"ranking": [{"product_id": 2, "score": 0.5}, {"product_id": 1, "score": 0.9}, {"product_id": 99, "score": 1.0}]}`
		items := parseRerankAnswer(answer, candidates)
		require.Len(t, items, 2)
		assert.Equal(t, int64(1), items[0].ProductID)
		assert.Equal(t, int64(2), items[1].ProductID)
	})

	t.Run("повтор id учитывается один раз", func(t *testing.T) {
		answer := `{"ranking": [{"product_id": 3, "score": 0.7}, {"product_id": 3, "score": 0.6}]}`
		items := parseRerankAnswer(answer, candidates)
		assert.Len(t, items, 1)
	})

	t.Run("ответ без json", func(t *testing.T) {
		assert.Empty(t, parseRerankAnswer("лучший товар — поролон", candidates))
	})
}

func TestManifestHelpers(t *testing.T) {
	t.Run("длинный путь укорачивается с многоточием", func(t *testing.T) {
		long := "Очень длинное название категории которое точно не влезает в шестьдесят символов лимита"
		short := shortenLabel(long, 60)
		runes := []rune(short)
		assert.Len(t, runes, 60)
		assert.Equal(t, '…', runes[59])
	})

	t.Run("черный список по подстроке", func(t *testing.T) {
		assert.True(t, manifestBlacklisted("Крепеж / Устаревшие позиции"))
		assert.False(t, manifestBlacklisted("Крепеж / Болты"))
	})

	t.Run("категория из одних артикулов не годится", func(t *testing.T) {
		assert.False(t, hasNonNumericExample([]string{"12345", "678-90"}))
		assert.True(t, hasNonNumericExample([]string{"12345", "Болт 8х30"}))
	})
}
