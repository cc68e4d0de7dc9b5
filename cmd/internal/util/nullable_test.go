package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ========== Тесты для NullableString ==========

func TestNullableString(t *testing.T) {
	t.Run("валидная строка", func(t *testing.T) {
		str := "valid string"
		result := NullableString(&str)

		assert.True(t, result.Valid)
		assert.Equal(t, "valid string", result.String)
	})

	t.Run("nil указатель", func(t *testing.T) {
		result := NullableString(nil)

		assert.False(t, result.Valid)
	})

	t.Run("пустая строка", func(t *testing.T) {
		str := ""
		result := NullableString(&str)

		assert.False(t, result.Valid, "пустая строка должна быть невалидной")
	})

	t.Run("строка с пробелами", func(t *testing.T) {
		str := "   "
		result := NullableString(&str)

		assert.True(t, result.Valid, "строка с пробелами валидна")
		assert.Equal(t, "   ", result.String)
	})
}

// ========== Тесты для NullableInt64 ==========

func TestNullableInt64(t *testing.T) {
	t.Run("валидное значение", func(t *testing.T) {
		val := int64(1234567890)
		result := NullableInt64(&val)

		assert.True(t, result.Valid)
		assert.Equal(t, int64(1234567890), result.Int64)
	})

	t.Run("nil указатель", func(t *testing.T) {
		result := NullableInt64(nil)

		assert.False(t, result.Valid)
	})

	t.Run("нулевое значение", func(t *testing.T) {
		val := int64(0)
		result := NullableInt64(&val)

		assert.True(t, result.Valid)
		assert.Equal(t, int64(0), result.Int64)
	})
}

// ========== Тесты для NilIfEmpty ==========

func TestNilIfEmpty(t *testing.T) {
	t.Run("пустая строка возвращает nil", func(t *testing.T) {
		result := NilIfEmpty("")

		assert.Nil(t, result)
	})

	t.Run("непустая строка возвращает указатель", func(t *testing.T) {
		result := NilIfEmpty("test")

		assert.NotNil(t, result)
		assert.Equal(t, "test", *result)
	})

	t.Run("строка с пробелами возвращает указатель", func(t *testing.T) {
		result := NilIfEmpty("  ")

		assert.NotNil(t, result)
		assert.Equal(t, "  ", *result)
	})
}
