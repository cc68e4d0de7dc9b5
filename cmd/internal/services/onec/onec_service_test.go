package onec

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partner-m/assist-go/cmd/internal/api_models"
	"github.com/partner-m/assist-go/cmd/internal/config"
	"github.com/partner-m/assist-go/cmd/internal/services/apierrors"
	"github.com/partner-m/assist-go/cmd/pkg/logging"
)

func TestNormalizeSku(t *testing.T) {
	t.Run("обычный артикул не меняется", func(t *testing.T) {
		assert.Equal(t, "ST-1024", NormalizeSku(" ST-1024 ", ""))
	})

	t.Run("пустой артикул берётся из запасного значения", func(t *testing.T) {
		assert.Equal(t, "Поролон листовой", NormalizeSku("", " Поролон листовой "))
	})

	t.Run("совсем пусто", func(t *testing.T) {
		assert.Empty(t, NormalizeSku("  ", ""))
	})

	t.Run("длинный артикул заменяется хешем", func(t *testing.T) {
		long := strings.Repeat("а", 65)

		sku := NormalizeSku(long, "")

		assert.Len(t, sku, 40)
		assert.NotContains(t, sku, "а")
		// Хеш стабилен между вызовами.
		assert.Equal(t, sku, NormalizeSku(long, ""))
	})

	t.Run("ровно 64 символа проходят без хеша", func(t *testing.T) {
		exact := strings.Repeat("ф", 64)
		assert.Equal(t, exact, NormalizeSku(exact, ""))
	})
}

func TestProductTitle(t *testing.T) {
	t.Run("title_ru в приоритете", func(t *testing.T) {
		p := api_models.OneCProduct{TitleRu: "Спанбонд белый", Title: "Spunbond"}
		assert.Equal(t, "Спанбонд белый", productTitle(p))
	})

	t.Run("плоский формат со старым полем title", func(t *testing.T) {
		p := api_models.OneCProduct{Title: "Молния серая"}
		assert.Equal(t, "Молния серая", productTitle(p))
	})

	t.Run("длинное название обрезается", func(t *testing.T) {
		p := api_models.OneCProduct{TitleRu: strings.Repeat("я", 300)}
		assert.Len(t, []rune(productTitle(p)), 255)
	})
}

func TestFlexFloat(t *testing.T) {
	type doc struct {
		Price *api_models.FlexFloat `json:"price"`
	}

	t.Run("обычное число", func(t *testing.T) {
		var d doc
		require.NoError(t, json.Unmarshal([]byte(`{"price": 12.5}`), &d))
		require.NotNil(t, d.Price)
		assert.InDelta(t, 12.5, float64(*d.Price), 1e-9)
	})

	t.Run("строка с пробелом и запятой", func(t *testing.T) {
		var d doc
		require.NoError(t, json.Unmarshal([]byte(`{"price": "1 234,5"}`), &d))
		require.NotNil(t, d.Price)
		assert.InDelta(t, 1234.5, float64(*d.Price), 1e-9)
	})

	t.Run("нечисловая строка считается нулём", func(t *testing.T) {
		var d doc
		require.NoError(t, json.Unmarshal([]byte(`{"price": "нет"}`), &d))
		require.NotNil(t, d.Price)
		assert.Zero(t, float64(*d.Price))
	})

	t.Run("null оставляет указатель пустым", func(t *testing.T) {
		var d doc
		require.NoError(t, json.Unmarshal([]byte(`{"price": null}`), &d))
		assert.Nil(t, d.Price)
	})
}

func TestParseOrderedAt(t *testing.T) {
	t.Run("RFC3339", func(t *testing.T) {
		ts := parseOrderedAt("2026-03-01T10:30:00Z")
		assert.Equal(t, 2026, ts.Year())
		assert.Equal(t, time.March, ts.Month())
	})

	t.Run("формат 1С с пробелом", func(t *testing.T) {
		ts := parseOrderedAt("2025-12-31 23:59:59")
		assert.Equal(t, 31, ts.Day())
	})

	t.Run("только дата", func(t *testing.T) {
		ts := parseOrderedAt("2025-06-15")
		assert.Equal(t, 15, ts.Day())
	})

	t.Run("мусор заменяется текущим временем", func(t *testing.T) {
		before := time.Now().Add(-time.Minute)
		ts := parseOrderedAt("когда-нибудь")
		assert.True(t, ts.After(before))
	})
}

func TestAppendReportError(t *testing.T) {
	var report api_models.IngestReport
	for i := 0; i < maxReportErrors+10; i++ {
		appendReportError(&report, "ошибка")
	}
	assert.Len(t, report.Errors, maxReportErrors)
}

func TestIngestEmptyPayloads(t *testing.T) {
	service := NewService(config.OneCConfig{}, nil, nil, logging.GetLogger())
	var validationErr *apierrors.ValidationError

	t.Run("пустой каталог", func(t *testing.T) {
		_, err := service.IngestCatalog(context.Background(), api_models.OneCCatalogPayload{})
		require.Error(t, err)
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("пустые заказы", func(t *testing.T) {
		_, err := service.IngestOrders(context.Background(), api_models.OneCOrdersPayload{})
		require.Error(t, err)
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("пустые участники", func(t *testing.T) {
		_, err := service.IngestMembers(context.Background(), api_models.OneCMembersPayload{})
		require.Error(t, err)
		assert.ErrorAs(t, err, &validationErr)
	})
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", " ", "b", "c"))
	assert.Empty(t, firstNonEmpty("", "  "))
}
