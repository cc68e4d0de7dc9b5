package reqhandler

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	splitRe = regexp.MustCompile(`[\n;]+|\s+и\s+|,`)

	qtyThousandRe = regexp.MustCompile(`(\d+)\s*(?:т\.?\s*шт|тыс\.?\s*шт)`)
	qtyUnitRe     = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(штук|шт|упаковку|упак|уп|пог\.м|коробку|коробки|коробка|короб|кор|рулон|рул|рол|комплект|компл|комп|кг|м)`)
	packRe        = regexp.MustCompile(`по\s*(\d+)\s*(штук|шт)`)

	sizeRe   = regexp.MustCompile(`\d+\s*x\s*\d+`)
	codeRe   = regexp.MustCompile(`\((\d{3,5})\)`)
	dinRe    = regexp.MustCompile(`(?:din|дин)\s*(\d{3,4})`)
	numberRe = regexp.MustCompile(`\d+`)
	wordRe   = regexp.MustCompile(`[a-zа-я0-9][a-zа-я0-9.\-]*`)
)

var colorStems = []string{"беж", "сер", "бел", "черн", "син", "зел", "красн"}

var headStopWords = map[string]bool{
	"по": true, "и": true, "для": true, "на": true, "в": true, "с": true, "без": true,
	"шт": true, "штук": true, "кг": true, "мм": true, "см": true, "тип": true,
	"нужно": true, "надо": true, "добавь": true, "добавьте": true, "добавить": true,
	"уп": true, "кор": true, "рулон": true, "заказ": true,
}

// canonicalUnit сводит словоформы единиц к каноническому виду.
func canonicalUnit(raw string) string {
	unit := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case unit == "шт" || unit == "штук":
		return "шт"
	case unit == "упак" || unit == "уп" || unit == "упаковку":
		return "уп"
	case strings.HasPrefix(unit, "кор"):
		return "кор"
	case unit == "рул" || unit == "рол" || unit == "рулон":
		return "рулон"
	case unit == "комп" || unit == "компл" || unit == "комплект":
		return "комплект"
	case unit == "пог.м":
		return "пог.м"
	case unit == "м":
		return "м"
	case unit == "кг":
		return "кг"
	}
	return unit
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'а' && r <= 'я') || r == 'ё'
}

// boundedMatch ищет первое вхождение re, за которым не следует буква.
// RE2 не знает границ слова для кириллицы, поэтому границу проверяем руками.
func boundedMatch(re *regexp.Regexp, s string) []int {
	offset := 0
	for offset <= len(s) {
		loc := re.FindStringSubmatchIndex(s[offset:])
		if loc == nil {
			return nil
		}
		for i := range loc {
			if loc[i] >= 0 {
				loc[i] += offset
			}
		}
		rest := s[loc[1]:]
		if rest == "" || !isLetter([]rune(rest)[0]) {
			return loc
		}
		offset = loc[1]
	}
	return nil
}

func cutMatch(s string, start, end int) string {
	return strings.TrimSpace(strings.TrimSpace(s[:start]) + " " + strings.TrimSpace(s[end:]))
}

// extractQtyUnit вырезает количество и единицу измерения по приоритету:
// тысячи штук, затем обычная пара число+единица.
func extractQtyUnit(text string) (float64, string, string, bool) {
	if loc := boundedMatch(qtyThousandRe, text); loc != nil {
		qty, _ := strconv.ParseFloat(text[loc[2]:loc[3]], 64)
		return qty * 1000, "шт", cutMatch(text, loc[0], loc[1]), true
	}
	if loc := boundedMatch(qtyUnitRe, text); loc != nil {
		raw := strings.ReplaceAll(text[loc[2]:loc[3]], ",", ".")
		qty, _ := strconv.ParseFloat(raw, 64)
		return qty, canonicalUnit(text[loc[4]:loc[5]]), cutMatch(text, loc[0], loc[1]), true
	}
	return 0, "", text, false
}

// extractPack вырезает паттерн фасовки "по N шт".
func extractPack(text string) (float64, string, string, bool) {
	loc := boundedMatch(packRe, text)
	if loc == nil {
		return 0, "", text, false
	}
	if loc[0] > 0 {
		runes := []rune(text[:loc[0]])
		if len(runes) > 0 && isLetter(runes[len(runes)-1]) {
			return 0, "", text, false
		}
	}
	qty, _ := strconv.ParseFloat(text[loc[2]:loc[3]], 64)
	return qty, canonicalUnit(text[loc[4]:loc[5]]), cutMatch(text, loc[0], loc[1]), true
}

func matchColorStem(token string) string {
	for _, stem := range colorStems {
		if strings.HasPrefix(token, stem) {
			return stem
		}
	}
	return ""
}

func extractAttributes(text string) ItemAttributes {
	attrs := ItemAttributes{}
	if m := sizeRe.FindString(text); m != "" {
		attrs.Size = strings.ReplaceAll(m, " ", "")
	}
	for _, token := range wordRe.FindAllString(text, -1) {
		if stem := matchColorStem(token); stem != "" {
			attrs.Color = stem
			break
		}
	}
	if m := codeRe.FindStringSubmatch(text); m != nil {
		attrs.Code = m[1]
	}
	if m := dinRe.FindStringSubmatch(text); m != nil {
		attrs.Din = m[1]
	}
	return attrs
}

func extractNumbers(text string) []int {
	var numbers []int
	for _, raw := range numberRe.FindAllString(text, -1) {
		if n, err := strconv.Atoi(raw); err == nil {
			numbers = append(numbers, n)
		}
	}
	return numbers
}

// headToken выбирает опорное существительное позиции: самое длинное слово
// длиной от 4 символов, не из стоп-листа и не цветовой корень.
func headToken(queryCore string) string {
	head := ""
	for _, token := range wordRe.FindAllString(queryCore, -1) {
		if len([]rune(token)) < 4 || headStopWords[token] || matchColorStem(token) != "" {
			continue
		}
		if numberRe.MatchString(token) && numberRe.FindString(token) == token {
			continue
		}
		if len([]rune(token)) > len([]rune(head)) {
			head = token
		}
	}
	return head
}

// ParseOrderText разбирает свободный текст на позиции заказа.
// Разделители: перенос строки, ";", "," и союз "и". Часть, в которой
// осталось только количество ("1 кор", "по 10 шт"), становится
// patch-позицией: ее количество применяется к предыдущей позиции.
func ParseOrderText(text string) ([]Item, []NeedClarification) {
	var items []Item
	var clarifications []NeedClarification

	for _, part := range splitRe.Split(text, -1) {
		raw := strings.TrimSpace(part)
		if raw == "" {
			continue
		}
		normalized := NormalizeText(raw)

		// Фасовка "по N шт" разбирается до обычной пары число+единица,
		// иначе "беж по 5 шт" оставил бы в запросе висячий предлог.
		packQty, packUnit, cleaned, hasPack := extractPack(normalized)
		qty, unit, cleaned, hasQty := extractQtyUnit(cleaned)

		attrs := extractAttributes(cleaned)
		if hasPack {
			attrs.PackQty = packQty
			attrs.Notes = "pack_qty"
		}

		name := strings.Trim(cleaned, " .:-")
		if name == "по" {
			name = ""
		}

		if name == "" && (hasQty || hasPack) {
			clarifications = append(clarifications, NeedClarification{
				Field:  "target_item",
				Reason: "qty without item",
			})
			patchQty := qty
			patchUnit := unit
			if !hasQty {
				patchQty = packQty
				patchUnit = packUnit
			}
			items = append(items, Item{
				Raw:        raw,
				Normalized: PatchMarker,
				Qty:        patchQty,
				Unit:       patchUnit,
				Attributes: ItemAttributes{Notes: "apply_to_last_item"},
				Confidence: 0.4,
			})
			continue
		}
		if name == "" {
			continue
		}

		itemQty := qty
		itemUnit := unit
		if !hasQty && hasPack {
			itemQty = packQty
			itemUnit = packUnit
		}
		if !hasQty && !hasPack {
			itemQty = 1
			itemUnit = ""
		}

		items = append(items, Item{
			Raw:        raw,
			Normalized: name,
			Qty:        itemQty,
			Unit:       itemUnit,
			Numbers:    extractNumbers(name),
			QueryCore:  name,
			Attributes: attrs,
			Confidence: 0.6,
		})
	}

	items = propagateHead(items)

	if len(items) == 0 {
		clarifications = append(clarifications, NeedClarification{Field: "item", Reason: "no items"})
	}
	return items, clarifications
}

// propagateHead — второй проход парсера: если первая позиция имеет опорное
// слово, а последующая — нет (остался только цвет или размер), опорное слово
// дописывается в начало запроса последующей позиции.
// "Молния серая, беж по 5 шт" -> "молния серая" и "молния беж".
func propagateHead(items []Item) []Item {
	if len(items) < 2 {
		return items
	}
	head := ""
	for i := range items {
		if items[i].Normalized == PatchMarker {
			continue
		}
		if h := headToken(items[i].QueryCore); h != "" {
			if head == "" {
				head = h
			}
			continue
		}
		if head != "" && items[i].QueryCore != "" {
			items[i].QueryCore = head + " " + items[i].QueryCore
			items[i].Normalized = head + " " + items[i].Normalized
		}
	}
	return items
}
