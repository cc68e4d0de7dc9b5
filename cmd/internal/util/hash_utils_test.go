package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetSHA1Hash(t *testing.T) {
	t.Run("успешное хеширование строки", func(t *testing.T) {
		text := "test string for hashing"

		hash := GetSHA1Hash(text)

		assert.NotEmpty(t, hash, "хеш не должен быть пустым")
		assert.Equal(t, 40, len(hash), "SHA-1 хеш должен быть 40 символов в hex формате")
	})

	t.Run("одинаковые строки дают одинаковые хеши", func(t *testing.T) {
		text := "consistent text"

		hash1 := GetSHA1Hash(text)
		hash2 := GetSHA1Hash(text)

		assert.Equal(t, hash1, hash2, "одинаковые строки должны давать одинаковые хеши")
	})

	t.Run("разные строки дают разные хеши", func(t *testing.T) {
		hash1 := GetSHA1Hash("text one")
		hash2 := GetSHA1Hash("text two")

		assert.NotEqual(t, hash1, hash2, "разные строки должны давать разные хеши")
	})

	t.Run("пустая строка", func(t *testing.T) {
		hash := GetSHA1Hash("")

		assert.Equal(t, 40, len(hash), "хеш должен быть корректной длины")
		// Известный хеш пустой строки в SHA-1
		expectedEmptyHash := "da39a3ee5e6b4b0d3255bfef95601890afd80709"
		assert.Equal(t, expectedEmptyHash, hash, "хеш пустой строки должен соответствовать известному значению")
	})

	t.Run("длинный артикул", func(t *testing.T) {
		text := strings.Repeat("Поролон листовой ", 20)

		hash := GetSHA1Hash(text)

		assert.NotEmpty(t, hash)
		assert.Equal(t, 40, len(hash), "хеш длинной строки должен быть той же длины")
	})

	t.Run("строка с юникодом", func(t *testing.T) {
		hash := GetSHA1Hash("Привет мир! 你好世界")

		assert.NotEmpty(t, hash)
		assert.Equal(t, 40, len(hash))
	})
}

func BenchmarkGetSHA1Hash(b *testing.B) {
	text := "benchmark text for sha1 hashing"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = GetSHA1Hash(text)
	}
}
