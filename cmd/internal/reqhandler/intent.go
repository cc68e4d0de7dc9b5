package reqhandler

import (
	"regexp"
	"strconv"
	"strings"
)

// LatinFallbackPrompt — ответ на сообщение без единой кириллической буквы.
// Поиск по каталогу работает только по-русски.
const LatinFallbackPrompt = "Уточните запрос по-русски"

var (
	latinRe    = regexp.MustCompile(`[a-zA-Z]`)
	cyrillicRe = regexp.MustCompile(`[а-яА-ЯёЁ]`)

	etaRe = regexp.MustCompile(`когда\s+(придет|придёт|будет|ожидается)|срок\s+поставки`)

	routerQtyUnitRe = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(мотков|мотка|моток|штук|шт|упаковку|упак|уп|пог\.м|коробку|коробки|коробка|короб|кор|рулонов|рулона|рулон|рул|рол|комплектов|комплекта|комплект|компл|комп|кг|м)`)
)

// addItemMarkers — императивные маркеры, без которых ADD_ITEM не выдается.
// Свободное перечисление товаров без глагола дает UNKNOWN.
var addItemMarkers = []string{
	"добавь", "добавьте", "добавить", "нужно", "надо", "положи", "закажи", "в заказ",
}

var managerMarkers = []string{
	"менеджер", "оператор", "свяжите", "позовите", "соедините",
}

// etaSubjects — закрытый список тем для вопроса о сроках поставки.
var etaSubjects = []string{"поролон", "ппу", "синтепон", "спанбонд"}

// noisePhrases вырезаются из запроса до извлечения ядра.
var noisePhrases = []string{"что там", "по поводу", "и кстати", "а также", "пожалуйста"}

// commandTokens срезаются с начала запроса после удаления количества.
var commandTokens = map[string]bool{
	"добавь": true, "добавьте": true, "добавить": true, "нужно": true, "надо": true,
	"положи": true, "закажи": true, "в": true, "заказ": true,
}

// routerUnit сводит расширенные словоформы единиц к каноническим.
func routerUnit(raw string) string {
	unit := strings.ToLower(strings.TrimSpace(raw))
	if strings.HasPrefix(unit, "моток") || strings.HasPrefix(unit, "мотк") {
		return "моток"
	}
	if strings.HasPrefix(unit, "рулон") {
		return "рулон"
	}
	if strings.HasPrefix(unit, "комплект") {
		return "комплект"
	}
	return canonicalUnit(unit)
}

// IsLatinOnly — в сообщении есть латиница и нет ни одной кириллической буквы.
func IsLatinOnly(text string) bool {
	return latinRe.MatchString(text) && !cyrillicRe.MatchString(text)
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

func extractRouterQtyUnit(text string) (float64, string, string, bool) {
	if loc := boundedMatch(qtyThousandRe, text); loc != nil {
		qty, _ := strconv.ParseFloat(text[loc[2]:loc[3]], 64)
		return qty * 1000, "шт", cutMatch(text, loc[0], loc[1]), true
	}
	if loc := boundedMatch(routerQtyUnitRe, text); loc != nil {
		raw := strings.ReplaceAll(text[loc[2]:loc[3]], ",", ".")
		qty, _ := strconv.ParseFloat(raw, 64)
		return qty, routerUnit(text[loc[4]:loc[5]]), cutMatch(text, loc[0], loc[1]), true
	}
	return 0, "", text, false
}

// stripCommandTokens срезает ведущие командные слова ("добавь", "в заказ").
func stripCommandTokens(text string) string {
	tokens := strings.Fields(text)
	for len(tokens) > 0 && commandTokens[tokens[0]] {
		tokens = tokens[1:]
	}
	return strings.Join(tokens, " ")
}

func stripNoise(text string) string {
	for _, phrase := range noisePhrases {
		text = strings.ReplaceAll(text, phrase, " ")
	}
	return spaceRe.ReplaceAllString(strings.TrimSpace(text), " ")
}

func findETASubject(text string) string {
	for _, subject := range etaSubjects {
		if strings.Contains(text, subject) {
			return subject
		}
	}
	return ""
}

// ensureETA добавляет ASK_STOCK_ETA, если в тексте есть вопрос о сроках,
// а среди действий его еще нет. Используется и эвристикой, и санацией
// ответа LLM-роутера.
func ensureETA(normalized string, actions []Action) []Action {
	if !etaRe.MatchString(normalized) {
		return actions
	}
	for _, a := range actions {
		if a.Type == ActionAskStockETA {
			return actions
		}
	}
	return append(actions, Action{
		Type:    ActionAskStockETA,
		Subject: findETASubject(normalized),
	})
}

// RouteMessageHeuristic — детерминированный интент-роутер.
// ADD_ITEM выдается только при наличии императивного маркера; вопрос
// о сроках распознается независимо; сообщение целиком на латинице
// получает канонический UNKNOWN с просьбой писать по-русски.
func RouteMessageHeuristic(text string) RouterResult {
	if IsLatinOnly(text) {
		return RouterResult{Actions: []Action{{Type: ActionUnknown, QueryCore: LatinFallbackPrompt}}}
	}

	normalized := NormalizeText(text)
	var actions []Action

	for _, segment := range splitSegments(normalized) {
		if !containsAny(segment, addItemMarkers) {
			continue
		}
		qty, unit, cleaned, hasQty := extractRouterQtyUnit(segment)
		cleaned = stripNoise(cleaned)
		queryCore := stripCommandTokens(cleaned)
		queryCore = strings.Trim(queryCore, " .:,!?-")
		if queryCore == "" {
			continue
		}
		action := Action{Type: ActionAddItem, QueryCore: queryCore, Qty: qty, Unit: unit}
		if !hasQty {
			action.Qty = 1
		}
		actions = append(actions, action)
	}

	if containsAny(normalized, managerMarkers) {
		actions = append(actions, Action{Type: ActionManager})
	}

	actions = ensureETA(normalized, actions)

	if len(actions) == 0 {
		actions = append(actions, Action{Type: ActionUnknown})
	}
	return RouterResult{Actions: actions}
}

// splitSegments делит сообщение на независимые части по союзу "и",
// точке с запятой и переносам строки: каждая часть маршрутизируется отдельно.
func splitSegments(normalized string) []string {
	var segments []string
	for _, part := range splitRe.Split(normalized, -1) {
		part = strings.TrimSpace(part)
		if part != "" {
			segments = append(segments, part)
		}
	}
	if len(segments) == 0 {
		return []string{normalized}
	}
	return segments
}

// SanitizeActions отбрасывает действия с латиницей в текстовых полях
// и заново гарантирует ASK_STOCK_ETA. Применяется к ответу LLM-роутера:
// модель не имеет права добавить то, что эвристика обязана была бы отклонить.
func SanitizeActions(text string, actions []Action) []Action {
	normalized := NormalizeText(text)
	sanitized := make([]Action, 0, len(actions))
	for _, a := range actions {
		switch a.Type {
		case ActionAddItem:
			if a.QueryCore == "" || latinRe.MatchString(a.QueryCore) {
				continue
			}
		case ActionAskStockETA:
			if latinRe.MatchString(a.Subject) {
				continue
			}
		case ActionManager, ActionUnknown:
		default:
			continue
		}
		sanitized = append(sanitized, a)
	}
	sanitized = ensureETA(normalized, sanitized)
	if len(sanitized) == 0 {
		sanitized = append(sanitized, Action{Type: ActionUnknown})
	}
	return sanitized
}

// Meaningful сообщает, дала ли эвристика хоть одно действие кроме UNKNOWN.
func (r RouterResult) Meaningful() bool {
	for _, a := range r.Actions {
		if a.Type != ActionUnknown {
			return true
		}
	}
	return false
}
