package catalogindex

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/partner-m/assist-go/cmd/internal/api_models"
	db "github.com/partner-m/assist-go/cmd/internal/db/sqlc"
	"github.com/partner-m/assist-go/cmd/pkg/logging"
)

const (
	prefetchLimit = 100
	maxSQLTokens  = 3
)

var (
	sizeSplitRe = regexp.MustCompile(`(\d)\s*[xх*×]\s*(\d)`)
	nonAlnumRe  = regexp.MustCompile(`[^a-zа-яё0-9]+`)
	digitsRe    = regexp.MustCompile(`^\d+$`)
)

// unitTokens — единицы измерения: их присутствие в запросе означает,
// что одиночное число — это количество, а не часть названия.
var unitTokens = map[string]bool{
	"шт": true, "штук": true, "кор": true, "короб": true, "коробка": true, "коробки": true,
	"коробочки": true, "коробку": true, "рул": true, "рулон": true, "рулонов": true,
	"уп": true, "упак": true, "упаковка": true, "упаковку": true, "кг": true, "гр": true,
	"г": true, "м": true, "м2": true, "мм": true, "см": true, "компл": true, "комплект": true,
}

// stopTokens — служебные слова, не участвующие в поиске.
var stopTokens = map[string]bool{
	"по": true, "и": true, "для": true, "на": true, "в": true, "с": true, "без": true,
	"тип": true, "нужно": true, "надо": true, "добавь": true, "добавьте": true, "добавить": true,
}

// colorStems — корни цветовых прилагательных: "серая" и "серый"
// фильтруются одним корнем "сер".
var colorStems = []string{"беж", "бел", "черн", "сер", "син", "зел", "красн", "крас", "корич", "желт"}

// NormalizeQueryText — каноническая нормализация для поискового
// сравнения: нижний регистр, "е" вместо "ё", размеры разбиваются на
// отдельные числа (8x30 -> 8 30), все прочие символы — пробел.
func NormalizeQueryText(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	normalized = strings.ReplaceAll(normalized, "ё", "е")
	// Два прохода: в "1x2x3" первая замена съедает среднюю цифру.
	normalized = sizeSplitRe.ReplaceAllString(normalized, "$1 $2")
	normalized = sizeSplitRe.ReplaceAllString(normalized, "$1 $2")
	normalized = nonAlnumRe.ReplaceAllString(normalized, " ")
	return strings.TrimSpace(normalized)
}

// ColorStem возвращает цветовой корень токена или пустую строку.
func ColorStem(token string) string {
	for _, stem := range colorStems {
		if strings.HasPrefix(token, stem) {
			return stem
		}
	}
	return ""
}

// TokenMatch — токен запроса совпадает со словом названия целиком
// или является его префиксом.
func TokenMatch(token string, words []string) bool {
	for _, word := range words {
		if word == token || strings.HasPrefix(word, token) {
			return true
		}
	}
	return false
}

// QueryProfile — разобранный поисковый запрос.
type QueryProfile struct {
	Normalized       string
	Numbers          []string
	EffectiveNumbers []string
	Tokens           []string
	HasQtyUnit       bool
}

// ProfileQuery извлекает из запроса числа и значимые токены.
// Цветовые прилагательные сводятся к корню; при наличии единицы
// измерения одиночное число считается количеством и в фильтр не идет.
func ProfileQuery(query string) QueryProfile {
	profile := QueryProfile{Normalized: NormalizeQueryText(query)}
	for _, token := range strings.Fields(profile.Normalized) {
		if digitsRe.MatchString(token) {
			profile.Numbers = append(profile.Numbers, token)
			continue
		}
		if unitTokens[token] {
			profile.HasQtyUnit = true
			continue
		}
		if stopTokens[token] || len([]rune(token)) < 3 {
			continue
		}
		if stem := ColorStem(token); stem != "" {
			profile.Tokens = append(profile.Tokens, stem)
			continue
		}
		profile.Tokens = append(profile.Tokens, token)
	}
	profile.EffectiveNumbers = profile.Numbers
	if profile.HasQtyUnit && len(profile.Numbers) == 1 {
		profile.EffectiveNumbers = nil
	}
	return profile
}

// Service — детерминированный поиск по каталогу: ILIKE-префетч,
// строгий постфильтр по числам и токенам, эвристическое ранжирование.
type Service struct {
	store  db.Store
	logger *logging.Logger
}

func NewService(store db.Store, logger *logging.Logger) *Service {
	return &Service{store: store, logger: logger}
}

func buildPatterns(values []string) []string {
	patterns := make([]string, 0, len(values))
	for _, v := range values {
		patterns = append(patterns, "%"+v+"%")
	}
	return patterns
}

// Search выполняет поиск по каталогу с опциональным сужением по
// категориям и/или по списку товаров.
func (s *Service) Search(
	ctx context.Context,
	query string,
	limit int,
	categoryIDs []int64,
	productIDs []int64,
) ([]api_models.ProductCandidate, error) {
	profile := ProfileQuery(query)

	var patterns []string
	switch {
	case len(profile.EffectiveNumbers) > 0:
		patterns = buildPatterns(profile.EffectiveNumbers)
	case len(profile.Tokens) > 0:
		head := profile.Tokens
		if len(head) > maxSQLTokens {
			head = head[:maxSQLTokens]
		}
		patterns = buildPatterns(head)
	default:
		return nil, nil
	}

	requiredNumbers := profile.EffectiveNumbers
	rows, err := s.prefetch(ctx, patterns, categoryIDs, productIDs)
	if err != nil {
		return nil, err
	}

	// При трех и более числах строгое И по всем часто пусто:
	// повторяем запрос только по паре размера.
	if len(rows) == 0 && len(profile.EffectiveNumbers) >= 3 {
		requiredNumbers = profile.EffectiveNumbers[:2]
		rows, err = s.prefetch(ctx, buildPatterns(requiredNumbers), categoryIDs, productIDs)
		if err != nil {
			return nil, err
		}
	}

	candidates := s.filterAndRank(profile, requiredNumbers, rows)
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func (s *Service) prefetch(ctx context.Context, patterns []string, categoryIDs, productIDs []int64) ([]db.Product, error) {
	if categoryIDs == nil {
		categoryIDs = []int64{}
	}
	if productIDs == nil {
		productIDs = []int64{}
	}
	rows, err := s.store.SearchCatalogPrefetch(ctx, db.SearchCatalogPrefetchParams{
		Patterns:    patterns,
		CategoryIds: categoryIDs,
		ProductIds:  productIDs,
		Limit:       prefetchLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка БД: %w", err)
	}
	return rows, nil
}

// filterAndRank — строгий постфильтр и ранжирование кандидатов.
func (s *Service) filterAndRank(profile QueryProfile, requiredNumbers []string, rows []db.Product) []api_models.ProductCandidate {
	queryNorm := profile.Normalized
	queryHasDin := (strings.Contains(queryNorm, "din") || strings.Contains(queryNorm, "дин")) &&
		strings.Contains(queryNorm, "933")

	candidates := make([]api_models.ProductCandidate, 0, len(rows))
	for _, row := range rows {
		sku := ""
		if row.Sku.Valid {
			sku = row.Sku.String
		}
		titleNorm := NormalizeQueryText(row.TitleRu)
		skuNorm := NormalizeQueryText(sku)
		words := strings.Fields(titleNorm + " " + skuNorm)

		ok := true
		for _, num := range requiredNumbers {
			if !strings.Contains(titleNorm, num) {
				ok = false
				break
			}
		}
		if ok {
			for _, token := range profile.Tokens {
				if !TokenMatch(token, words) {
					ok = false
					break
				}
			}
		}
		if !ok {
			continue
		}

		score := 0.0
		if skuNorm != "" && strings.Contains(queryNorm, skuNorm) {
			score += 3.0
		}
		if queryNorm != "" && strings.Contains(titleNorm, queryNorm) {
			score += 1.5
		}
		for _, num := range profile.Numbers {
			if strings.Contains(titleNorm, num) {
				score += 0.5
			}
		}
		if queryHasDin &&
			(strings.Contains(titleNorm, "din") || strings.Contains(titleNorm, "дин")) &&
			strings.Contains(titleNorm, "933") {
			score += 2.5
		}

		candidate := api_models.ProductCandidate{
			ID:       row.ID,
			Sku:      sku,
			TitleRu:  row.TitleRu,
			Price:    row.Price,
			StockQty: float64(row.StockQty),
			Score:    score,
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
	return candidates
}
