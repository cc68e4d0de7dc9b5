package clarify

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/partner-m/assist-go/cmd/internal/api_models"
	db "github.com/partner-m/assist-go/cmd/internal/db/sqlc"
	"github.com/partner-m/assist-go/cmd/pkg/logging"
)

const (
	// PageSize — вариантов уточнения на одной странице.
	PageSize = 10

	suggestionsLimit = 60
	maxLabelLen      = 56
	maxFacetValues   = 30
)

// ReasonNoCandidates / ReasonTooMany — почему понадобилось уточнение.
const (
	ReasonNoCandidates = "no_candidates"
	ReasonTooMany      = "too_many_candidates"
)

var (
	clarifyTokenRe = regexp.MustCompile(`[a-zа-яё0-9]+`)

	// Размер ищется по всему названию: границы заданы явными классами,
	// потому что \b в RE2 не работает после кириллицы.
	dimRe = regexp.MustCompile(`\d+(?:[.,]\d+)?\s?(?:х|x|мм|см|м)\s?\d*(?:\s?(?:х|x)\s?\d+)?`)

	codeRe = regexp.MustCompile(`^(?:[a-zа-я]{1,3}-?\d{1,6}|st\d{3,6}|m\d{1,3}|ph\d|\d{3,6})$`)
)

var clarifyStopTokens = map[string]bool{
	"по": true, "и": true, "для": true, "на": true, "в": true, "с": true, "без": true,
	"шт": true, "штук": true, "кг": true, "мм": true, "см": true, "тип": true,
	"нужно": true, "добавь": true, "добавить": true,
}

var colorPrefixes = []string{"бел", "черн", "сер", "беж", "крас", "син", "зел"}

var typePrefixes = []string{"рулон", "разъем", "разъём", "агро"}

// ShortLabel обрезает название до длины кнопки, сохраняя целые руны.
func ShortLabel(title string) string {
	cleaned := strings.Join(strings.Fields(title), " ")
	runes := []rune(cleaned)
	if len(runes) <= maxLabelLen {
		return cleaned
	}
	return strings.TrimRight(string(runes[:maxLabelLen-1]), " ") + "…"
}

func tokenize(text string) []string {
	return clarifyTokenRe.FindAllString(strings.ToLower(text), -1)
}

// ExtractHeadToken — первое значимое слово запроса: не стоп-слово,
// не число и не короче четырех букв. По нему строятся подсказки,
// когда кандидатов нет совсем.
func ExtractHeadToken(query string) string {
	for _, token := range tokenize(query) {
		if clarifyStopTokens[token] || isDigits(token) || len([]rune(token)) < 4 {
			continue
		}
		return token
	}
	return ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Suggestion — товар-подсказка для кнопки уточнения.
type Suggestion struct {
	ProductID int64
	Title     string
}

// SuggestionsToOptions превращает подсказки в кнопки: выбор кнопки
// добавляет полное название товара к запросу.
func SuggestionsToOptions(suggestions []Suggestion) []api_models.ClarifyOption {
	options := make([]api_models.ClarifyOption, 0, len(suggestions))
	for i, s := range suggestions {
		if s.Title == "" {
			continue
		}
		options = append(options, api_models.ClarifyOption{
			ID:    fmt.Sprintf("opt_%d", i+1),
			Label: ShortLabel(s.Title),
			Apply: api_models.ClarifyApply{AppendTokens: []string{s.Title}},
		})
	}
	return options
}

func shannonEntropy(counter map[string]int) float64 {
	total := 0
	for _, count := range counter {
		total += count
	}
	if total <= 1 {
		return 0
	}
	score := 0.0
	for _, count := range counter {
		p := float64(count) / float64(total)
		score -= p * math.Log2(p)
	}
	return score
}

func hasAnyPrefix(token string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(token, p) {
			return true
		}
	}
	return false
}

// collectFacets раскладывает значения из названия по фасетам.
func collectFacets(title string, buckets map[string]map[string]int) {
	lower := strings.ToLower(title)
	tokens := tokenize(lower)

	for i, token := range tokens {
		if hasAnyPrefix(token, colorPrefixes) {
			buckets["цвет"][token]++
		}
		if codeRe.MatchString(token) {
			buckets["код"][strings.ToUpper(token)]++
		}
		switch {
		case hasAnyPrefix(token, typePrefixes), token == "сс":
			buckets["тип"][token]++
		case strings.HasPrefix(token, "пружин") && i > 0:
			// "с пружинами" и "без пружин" — разные типы, предлог решает.
			if prev := tokens[i-1]; prev == "с" || prev == "без" {
				buckets["тип"][prev+" "+token]++
			}
		}
	}

	for _, loc := range dimRe.FindAllStringIndex(lower, -1) {
		if !cleanBoundaries(lower, loc[0], loc[1]) {
			continue
		}
		value := strings.ReplaceAll(lower[loc[0]:loc[1]], " ", "")
		buckets["размер"][value]++
	}
}

// cleanBoundaries проверяет, что совпадение не является частью
// большего слова или числа.
func cleanBoundaries(text string, start, end int) bool {
	if start > 0 {
		prev, _ := utf8.DecodeLastRuneInString(text[:start])
		if isAlnumRune(prev) {
			return false
		}
	}
	if end < len(text) {
		next, _ := utf8.DecodeRuneInString(text[end:])
		if isAlnumRune(next) {
			return false
		}
	}
	return true
}

func isAlnumRune(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'а' && r <= 'я') || r == 'ё'
}

type facetValue struct {
	value string
	count int
}

// BuildFacetOptions выбирает фасет с максимальной энтропией значений:
// чем равномернее распределение, тем лучше фасет делит кандидатов.
// Возвращает имя фасета и кнопки, ok=false когда делить нечем.
func BuildFacetOptions(candidates []api_models.ProductCandidate) (string, []api_models.ClarifyOption, bool) {
	if len(candidates) == 0 {
		return "", nil, false
	}

	buckets := map[string]map[string]int{
		"цвет": {}, "размер": {}, "код": {}, "тип": {},
	}
	for _, c := range candidates {
		collectFacets(c.TitleRu, buckets)
	}

	bestFacet := ""
	bestEntropy := -1.0
	for _, facet := range []string{"цвет", "размер", "код", "тип"} {
		counter := buckets[facet]
		if len(counter) < 2 {
			continue
		}
		if entropy := shannonEntropy(counter); entropy > bestEntropy {
			bestFacet, bestEntropy = facet, entropy
		}
	}
	if bestFacet == "" {
		return "", nil, false
	}

	values := make([]facetValue, 0, len(buckets[bestFacet]))
	for value, count := range buckets[bestFacet] {
		values = append(values, facetValue{value: value, count: count})
	}
	sort.SliceStable(values, func(i, j int) bool {
		if values[i].count != values[j].count {
			return values[i].count > values[j].count
		}
		return values[i].value < values[j].value
	})
	if len(values) > maxFacetValues {
		values = values[:maxFacetValues]
	}

	options := make([]api_models.ClarifyOption, 0, len(values))
	for i, v := range values {
		options = append(options, api_models.ClarifyOption{
			ID:    fmt.Sprintf("facet_%s_%d", bestFacet, i+1),
			Label: v.value,
			Apply: api_models.ClarifyApply{AppendTokens: []string{v.value}},
		})
	}
	return bestFacet, options, true
}

// BuildClarification собирает страницу уточнения с навигацией.
// Смещение зажимается в допустимый диапазон, next/prev отсутствуют
// на краях списка.
func BuildClarification(reason string, options []api_models.ClarifyOption, offset int) api_models.Clarification {
	total := len(options)
	safeOffset := 0
	if total > 0 {
		safeOffset = offset
		if safeOffset < 0 {
			safeOffset = 0
		}
		if safeOffset > total-1 {
			safeOffset = total - 1
		}
	}

	end := safeOffset + PageSize
	if end > total {
		end = total
	}
	page := options[safeOffset:end]

	var nextOffset, prevOffset *int
	if safeOffset+PageSize < total {
		next := safeOffset + PageSize
		nextOffset = &next
	}
	if safeOffset-PageSize >= 0 {
		prev := safeOffset - PageSize
		prevOffset = &prev
	} else if safeOffset > 0 {
		zero := 0
		prevOffset = &zero
	}

	question := "Уточни вариант:"
	if reason == ReasonNoCandidates {
		question = "Уточни товар:"
	}

	return api_models.Clarification{
		Question:   question,
		Reason:     reason,
		Options:    page,
		Offset:     safeOffset,
		NextOffset: nextOffset,
		PrevOffset: prevOffset,
		Total:      total,
	}
}

// Service строит подсказки по истории заказов и каталогу.
type Service struct {
	store  db.Store
	logger *logging.Logger
}

func NewService(store db.Store, logger *logging.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// HistorySuggestions — товары из истории организации, в названии
// которых встречается опорное слово. Отсортированы по частоте заказов.
func (s *Service) HistorySuggestions(ctx context.Context, orgID int64, token string) ([]Suggestion, error) {
	if token == "" || orgID <= 0 {
		return nil, nil
	}
	rows, err := s.store.ListHistoryTitleSuggestions(ctx, db.ListHistoryTitleSuggestionsParams{
		OrgID:   orgID,
		Pattern: "%" + token + "%",
		Limit:   suggestionsLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка БД: %w", err)
	}
	suggestions := make([]Suggestion, 0, len(rows))
	for _, row := range rows {
		if row.TitleRu == "" {
			continue
		}
		suggestions = append(suggestions, Suggestion{ProductID: row.ID, Title: row.TitleRu})
	}
	return suggestions, nil
}

// CatalogSuggestions — запасной вариант, когда история пуста.
func (s *Service) CatalogSuggestions(ctx context.Context, token string) ([]Suggestion, error) {
	if token == "" {
		return nil, nil
	}
	rows, err := s.store.SearchCatalogPrefetch(ctx, db.SearchCatalogPrefetchParams{
		Patterns:    []string{"%" + token + "%"},
		CategoryIds: []int64{},
		ProductIds:  []int64{},
		Limit:       suggestionsLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка БД: %w", err)
	}
	suggestions := make([]Suggestion, 0, len(rows))
	for _, row := range rows {
		if row.TitleRu == "" {
			continue
		}
		suggestions = append(suggestions, Suggestion{ProductID: row.ID, Title: row.TitleRu})
	}
	return suggestions, nil
}

// HeadTokenClarification — уточнение для случая "кандидатов нет":
// подсказки по опорному слову из истории, затем из каталога.
func (s *Service) HeadTokenClarification(ctx context.Context, orgID int64, query string, offset int) (*api_models.Clarification, error) {
	token := ExtractHeadToken(query)
	if token == "" {
		return nil, nil
	}

	suggestions, err := s.HistorySuggestions(ctx, orgID, token)
	if err != nil {
		return nil, err
	}
	if len(suggestions) == 0 {
		suggestions, err = s.CatalogSuggestions(ctx, token)
		if err != nil {
			return nil, err
		}
	}
	if len(suggestions) == 0 {
		return nil, nil
	}

	clarification := BuildClarification(ReasonNoCandidates, SuggestionsToOptions(suggestions), offset)
	return &clarification, nil
}

// FacetClarification — уточнение для случая "кандидатов слишком много".
func (s *Service) FacetClarification(candidates []api_models.ProductCandidate, offset int) *api_models.Clarification {
	_, options, ok := BuildFacetOptions(candidates)
	if !ok {
		return nil
	}
	clarification := BuildClarification(ReasonTooMany, options, offset)
	return &clarification
}
