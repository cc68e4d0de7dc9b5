package util

import (
	"crypto/sha1"
	"encoding/hex"
)

// GetSHA1Hash вычисляет хеш SHA-1 для входной строки.
// Используется как стабильная замена артикулов 1С,
// не влезающих в колонку `sku`.
func GetSHA1Hash(text string) string {
	hash := sha1.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}
