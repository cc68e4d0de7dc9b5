package reqhandler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderText_SingleItem(t *testing.T) {
	t.Run("позиция с количеством и единицей", func(t *testing.T) {
		items, clarifications := ParseOrderText("болт 8x30 дин 933 10шт")

		require.Len(t, items, 1)
		assert.Empty(t, clarifications)
		assert.Equal(t, "болт 8x30 дин 933", items[0].QueryCore)
		assert.Equal(t, 10.0, items[0].Qty)
		assert.Equal(t, "шт", items[0].Unit)
		assert.Equal(t, "8x30", items[0].Attributes.Size)
		assert.Equal(t, "933", items[0].Attributes.Din)
		assert.Equal(t, []int{8, 30, 933}, items[0].Numbers)
	})

	t.Run("тысячи штук", func(t *testing.T) {
		items, _ := ParseOrderText("Саморез 4х25 -4т.шт")

		require.Len(t, items, 1)
		assert.Equal(t, "саморез 4x25", items[0].QueryCore)
		assert.Equal(t, 4000.0, items[0].Qty)
		assert.Equal(t, "шт", items[0].Unit)
	})

	t.Run("позиция без количества получает дефолт", func(t *testing.T) {
		items, _ := ParseOrderText("поролон 100x200")

		require.Len(t, items, 1)
		assert.Equal(t, 1.0, items[0].Qty)
		assert.Equal(t, "", items[0].Unit)
	})

	t.Run("код в скобках и цвет", func(t *testing.T) {
		items, _ := ParseOrderText("молния серая (308) 5 шт")

		require.Len(t, items, 1)
		assert.Equal(t, "308", items[0].Attributes.Code)
		assert.Equal(t, "сер", items[0].Attributes.Color)
	})
}

func TestParseOrderText_MultiItem(t *testing.T) {
	t.Run("разделение по запятой с наследованием опорного слова", func(t *testing.T) {
		items, clarifications := ParseOrderText("Молния серая, беж по 5 шт")

		require.Len(t, items, 2)
		assert.Empty(t, clarifications)

		assert.Equal(t, "молния серая", items[0].QueryCore)
		assert.Equal(t, 1.0, items[0].Qty)

		assert.Equal(t, "молния беж", items[1].QueryCore)
		assert.Equal(t, 5.0, items[1].Qty)
		assert.Equal(t, "шт", items[1].Unit)
		assert.Equal(t, 5.0, items[1].Attributes.PackQty)
		assert.Equal(t, "беж", items[1].Attributes.Color)
	})

	t.Run("разделение по переносу строки", func(t *testing.T) {
		items, _ := ParseOrderText("поролон 2 шт\nсинтепон 3 м")

		require.Len(t, items, 2)
		assert.Equal(t, "поролон", items[0].QueryCore)
		assert.Equal(t, "синтепон", items[1].QueryCore)
		assert.Equal(t, 3.0, items[1].Qty)
		assert.Equal(t, "м", items[1].Unit)
	})

	t.Run("разделение по союзу и", func(t *testing.T) {
		items, _ := ParseOrderText("поролон и синтепон")

		require.Len(t, items, 2)
	})
}

func TestParseOrderText_Patch(t *testing.T) {
	t.Run("голое количество становится patch-позицией", func(t *testing.T) {
		items, clarifications := ParseOrderText("болт 8х30\nпо 10 шт")

		require.Len(t, items, 2)
		assert.Equal(t, PatchMarker, items[1].Normalized)
		assert.Equal(t, 10.0, items[1].Qty)
		assert.Equal(t, "шт", items[1].Unit)
		assert.Equal(t, "apply_to_last_item", items[1].Attributes.Notes)

		require.Len(t, clarifications, 1)
		assert.Equal(t, "target_item", clarifications[0].Field)
	})

	t.Run("количество с единицей без товара", func(t *testing.T) {
		items, clarifications := ParseOrderText("1 кор")

		require.Len(t, items, 1)
		assert.Equal(t, PatchMarker, items[0].Normalized)
		assert.Equal(t, 1.0, items[0].Qty)
		assert.Equal(t, "кор", items[0].Unit)
		require.Len(t, clarifications, 1)
	})
}

func TestParseOrderText_Empty(t *testing.T) {
	t.Run("пустой текст дает уточнение", func(t *testing.T) {
		items, clarifications := ParseOrderText("   ")

		assert.Empty(t, items)
		require.Len(t, clarifications, 1)
		assert.Equal(t, "item", clarifications[0].Field)
	})
}

func TestBoundedMatch(t *testing.T) {
	t.Run("единица внутри слова не срабатывает", func(t *testing.T) {
		// "2 рулона" не матчится формой "рулон": дальше идет буква.
		_, _, cleaned, ok := extractQtyUnit("2 рулона ткани")
		assert.False(t, ok)
		assert.Equal(t, "2 рулона ткани", cleaned)
	})

	t.Run("единица на границе слова срабатывает", func(t *testing.T) {
		qty, unit, cleaned, ok := extractQtyUnit("ткань 2 рулон")
		assert.True(t, ok)
		assert.Equal(t, 2.0, qty)
		assert.Equal(t, "рулон", unit)
		assert.Equal(t, "ткань", cleaned)
	})
}

func TestHeadToken(t *testing.T) {
	t.Run("самое длинное значимое слово", func(t *testing.T) {
		assert.Equal(t, "молния", headToken("молния серая"))
	})

	t.Run("цвет и стоп-слова не опорные", func(t *testing.T) {
		assert.Equal(t, "", headToken("беж по"))
	})

	t.Run("чистое число не опорное", func(t *testing.T) {
		assert.Equal(t, "", headToken("12345"))
	})
}
