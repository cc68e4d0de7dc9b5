package reqhandler

import (
	"regexp"
	"strings"
)

var (
	prefixRe   = regexp.MustCompile(`(?i)^партнер-?м,?\s*\[[^\]]+\]\s*`)
	// \b в RE2 не работает после кириллицы, поэтому граница — явные разделители.
	greetingRe = regexp.MustCompile(`(?i)^(здравствуйте|добрый\s+день|добрый\s+вечер|привет)[,!.\s-]+`)
	sizeXRe    = regexp.MustCompile(`(?i)(\d)\s*[xх*×]\s*(\d)`)
	sizeNaRe   = regexp.MustCompile(`(?i)(\d)\s+на\s+(\d)`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

// NormalizeText приводит входящее сообщение к каноническому виду:
// обрезка, срезание адресного префикса и приветствий, нижний регистр,
// замена буквы "ё" на "е", унификация размеров (8х30 -> 8x30, 8 на 30 -> 8x30),
// схлопывание пробелов. Каждое правило идемпотентно; функция
// никогда не падает и всегда возвращает строку.
func NormalizeText(text string) string {
	normalized := strings.TrimSpace(text)
	normalized = prefixRe.ReplaceAllString(normalized, "")
	normalized = greetingRe.ReplaceAllString(normalized, "")
	normalized = strings.ToLower(normalized)
	normalized = strings.ReplaceAll(normalized, "ё", "е")
	normalized = sizeXRe.ReplaceAllString(normalized, "${1}x${2}")
	normalized = sizeNaRe.ReplaceAllString(normalized, "${1}x${2}")
	normalized = spaceRe.ReplaceAllString(normalized, " ")
	return strings.TrimSpace(normalized)
}
