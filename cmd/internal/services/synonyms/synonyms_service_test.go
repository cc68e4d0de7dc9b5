package synonyms

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyAliases(t *testing.T) {
	aliases := map[string]string{
		"спандбонд": "спанбонд",
		"спандбон":  "спанбонд",
		"синтепонн": "синтепон",
		"ппу":       "поролон",
	}

	t.Run("исправление опечатки", func(t *testing.T) {
		rewritten, applied := ApplyAliases("спандбонд черный", aliases)
		assert.NotEmpty(t, applied)
		assert.Equal(t, "спанбонд черный", rewritten)
	})

	t.Run("ппу раскрывается в коротком запросе", func(t *testing.T) {
		rewritten, applied := ApplyAliases("ппу листовой", aliases)
		assert.NotEmpty(t, applied)
		assert.Equal(t, "поролон листовой", rewritten)
	})

	t.Run("ппу не раскрывается в длинном запросе", func(t *testing.T) {
		rewritten, applied := ApplyAliases("чехол ппу спинка серый велюр", aliases)
		assert.Empty(t, applied)
		assert.Equal(t, "чехол ппу спинка серый велюр", rewritten)
	})

	t.Run("ппу не раскрывается рядом с артикулом", func(t *testing.T) {
		rewritten, applied := ApplyAliases("ппу st1205", aliases)
		assert.Empty(t, applied)
		assert.Equal(t, "ппу st1205", rewritten)
	})

	t.Run("ппу не раскрывается рядом с длинным числовым кодом", func(t *testing.T) {
		_, applied := ApplyAliases("ппу 123456", aliases)
		assert.Empty(t, applied)
	})

	t.Run("без замен исходная строка не меняется", func(t *testing.T) {
		rewritten, applied := ApplyAliases("Поролон 100x200", aliases)
		assert.Empty(t, applied)
		assert.Equal(t, "Поролон 100x200", rewritten)
	})

	t.Run("пустой словарь", func(t *testing.T) {
		rewritten, applied := ApplyAliases("спандбонд", nil)
		assert.Empty(t, applied)
		assert.Equal(t, "спандбонд", rewritten)
	})
}
