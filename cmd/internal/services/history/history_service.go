package history

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/partner-m/assist-go/cmd/internal/api_models"
	db "github.com/partner-m/assist-go/cmd/internal/db/sqlc"
	"github.com/partner-m/assist-go/cmd/internal/services/catalogindex"
	"github.com/partner-m/assist-go/cmd/pkg/logging"
)

const (
	statsScanLimit = 3000
	maxAnchors     = 2
)

// queryStopTokens — единицы и служебные слова, не несущие смысла запроса.
var queryStopTokens = map[string]bool{
	"шт": true, "штук": true, "кор": true, "короб": true, "коробка": true, "коробочки": true,
	"рул": true, "рулон": true, "рулонная": true, "уп": true, "упак": true, "упаковка": true,
	"мм": true, "см": true, "м": true, "м2": true, "кг": true, "гр": true, "г": true, "по": true,
}

var colorTokens = map[string]bool{
	"сер": true, "серая": true, "серый": true, "беж": true, "бежев": true,
	"бел": true, "белый": true, "черн": true, "черный": true, "син": true, "зел": true,
}

// QueryTokens — запрос, разобранный для поиска по истории заказов.
type QueryTokens struct {
	Anchors     []string
	Optional    []string
	Numbers     []string
	WithSprings bool
}

// TokenizeQuery делит запрос на якоря (обязательные слова), необязательные
// токены и числа. Якорей не больше двух: длинные запросы истории не нужны,
// достаточно опорных существительных.
func TokenizeQuery(queryCore string) QueryTokens {
	normalized := catalogindex.NormalizeQueryText(queryCore)
	var result QueryTokens

	var textTokens []string
	for _, token := range strings.Fields(normalized) {
		if isDigits(token) {
			result.Numbers = append(result.Numbers, token)
			continue
		}
		if queryStopTokens[token] {
			continue
		}
		textTokens = append(textTokens, token)
	}

	for _, token := range textTokens {
		if len(result.Anchors) >= maxAnchors {
			break
		}
		if colorTokens[token] || len([]rune(token)) < 4 {
			continue
		}
		result.Anchors = append(result.Anchors, token)
	}
	// Запрос из одних коротких слов: берем самое длинное как якорь.
	if len(result.Anchors) == 0 && len(textTokens) > 0 {
		longest := textTokens[0]
		for _, token := range textTokens[1:] {
			if len([]rune(token)) > len([]rune(longest)) {
				longest = token
			}
		}
		result.Anchors = []string{longest}
	}

	anchorSet := map[string]bool{}
	for _, anchor := range result.Anchors {
		anchorSet[anchor] = true
	}
	for _, token := range textTokens {
		if !anchorSet[token] {
			result.Optional = append(result.Optional, token)
		}
	}

	result.WithSprings = strings.Contains(normalized, "пружин") && !strings.Contains(normalized, "без пружин")
	return result
}

// anchorMatch — префиксное сравнение в обе стороны: запрос "с пружинами"
// должен находить названия со словом "пружин". Обратный префикс
// разрешен только для слов от пяти букв, чтобы "сер" не ловил "с".
func anchorMatch(token string, words []string) bool {
	for _, word := range words {
		if word == token || strings.HasPrefix(word, token) {
			return true
		}
		if len([]rune(word)) >= 5 && strings.HasPrefix(token, word) {
			return true
		}
	}
	return false
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

// ScoreRow считает балл кандидата истории. Чистая функция: частота
// заказов, свежесть последнего заказа, бонус за необязательные токены
// и штраф за конфликт атрибутов ("с пружинами" против "без пружин").
func ScoreRow(tokens QueryTokens, row db.ListOrgStatsWithProductsRow, now time.Time) (float64, bool, bool) {
	sku := ""
	if row.Sku.Valid {
		sku = row.Sku.String
	}
	title := catalogindex.NormalizeQueryText(row.TitleRu + " " + sku)
	words := strings.Fields(title)

	for _, num := range tokens.Numbers {
		if !strings.Contains(title, num) {
			return 0, false, false
		}
	}
	for _, anchor := range tokens.Anchors {
		if !anchorMatch(anchor, words) {
			return 0, false, false
		}
	}

	conflict := tokens.WithSprings && strings.Contains(title, "без пружин")

	score := math.Log1p(float64(row.OrdersCount))
	if row.LastOrderAt.Valid {
		days := now.Sub(row.LastOrderAt.Time).Hours() / 24
		if days < 0 {
			days = 0
		}
		score += 1 / (1 + days/30)
	}
	for _, token := range tokens.Optional {
		if anchorMatch(token, words) {
			score += 0.35
		}
	}
	if conflict {
		score -= 0.8
	}
	return score, true, conflict
}

// Service ищет товары в истории заказов организации.
type Service struct {
	store  db.Store
	logger *logging.Logger
}

func NewService(store db.Store, logger *logging.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Search возвращает отранжированные товары из истории заказов.
// Без якорей и чисел поиск не имеет смысла и сразу дает пустой список.
func (s *Service) Search(ctx context.Context, orgID int64, queryCore string, limit int) ([]api_models.ProductCandidate, error) {
	tokens := TokenizeQuery(queryCore)
	if len(tokens.Anchors) == 0 && len(tokens.Numbers) == 0 {
		return nil, nil
	}
	if orgID <= 0 {
		return nil, nil
	}

	rows, err := s.store.ListOrgStatsWithProducts(ctx, db.ListOrgStatsWithProductsParams{
		OrgID: orgID,
		Limit: statsScanLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка БД: %w", err)
	}

	now := time.Now().UTC()
	candidates := make([]api_models.ProductCandidate, 0, 8)
	for _, row := range rows {
		score, ok, conflict := ScoreRow(tokens, row, now)
		if !ok {
			continue
		}
		sku := ""
		if row.Sku.Valid {
			sku = row.Sku.String
		}
		candidate := api_models.ProductCandidate{
			ID:                row.ProductID,
			Sku:               sku,
			TitleRu:           row.TitleRu,
			Price:             row.Price,
			StockQty:          float64(row.StockQty),
			Score:             score,
			AttributeConflict: conflict,
		}
		if row.CategoryID.Valid {
			categoryID := row.CategoryID.Int64
			candidate.CategoryID = &categoryID
		}
		candidates = append(candidates, candidate)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ID < candidates[j].ID
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// CountForOrg — сколько товаров есть в истории организации.
func (s *Service) CountForOrg(ctx context.Context, orgID int64) (int64, error) {
	count, err := s.store.CountOrgProductStats(ctx, orgID)
	if err != nil {
		return 0, fmt.Errorf("ошибка БД: %w", err)
	}
	return count, nil
}
