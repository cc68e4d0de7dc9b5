package llm

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	db "github.com/partner-m/assist-go/cmd/internal/db/sqlc"
)

const (
	manifestCacheKey   = "category_manifest:v1"
	manifestCacheTTL   = 10 * time.Minute
	manifestMaxEntries = 150
	manifestMaxExample = 5
	manifestMaxLabel   = 60
)

// Служебные категории, которые модели показывать нельзя.
var manifestBlacklist = []string{"удален", "устарел", "тест", "cat"}

// ManifestEntry — одна категория в компактном виде для промпта.
type ManifestEntry struct {
	ID       int64    `json:"id"`
	Path     string   `json:"path"`
	Count    int64    `json:"count"`
	Examples []string `json:"examples"`
}

func shortenLabel(s string, max int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= max {
		return string(runes)
	}
	return string(runes[:max-1]) + "…"
}

func manifestBlacklisted(path string) bool {
	lower := strings.ToLower(path)
	for _, word := range manifestBlacklist {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

func hasNonNumericExample(examples []string) bool {
	for _, example := range examples {
		for _, r := range example {
			if unicode.IsLetter(r) {
				return true
			}
		}
	}
	return false
}

// categoryPath собирает путь "родитель / ребенок" с защитой от циклов
// в данных 1С: битый parent_id не должен вешать сборку манифеста.
func categoryPath(categories map[int64]db.Category, id int64) string {
	var parts []string
	seen := map[int64]bool{}
	current := id
	for {
		if seen[current] {
			break
		}
		seen[current] = true
		category, ok := categories[current]
		if !ok {
			break
		}
		parts = append([]string{shortenLabel(category.TitleRu, manifestMaxLabel)}, parts...)
		if !category.ParentID.Valid {
			break
		}
		current = category.ParentID.Int64
	}
	return strings.Join(parts, " / ")
}

// BuildManifest строит список категорий для промптов сужения.
// Результат кэшируется: каталог меняется не чаще синка с 1С.
func (s *Service) BuildManifest(ctx context.Context) ([]ManifestEntry, error) {
	if cached, ok := s.cache.Get(ctx, manifestCacheKey); ok {
		var entries []ManifestEntry
		if err := json.Unmarshal([]byte(cached), &entries); err == nil {
			return entries, nil
		}
	}

	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка БД: %w", err)
	}
	counts, err := s.store.ListCategoryProductCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка БД: %w", err)
	}

	byID := make(map[int64]db.Category, len(categories))
	for _, category := range categories {
		byID[category.ID] = category
	}
	countByID := make(map[int64]int64, len(counts))
	for _, row := range counts {
		if row.CategoryID.Valid {
			countByID[row.CategoryID.Int64] = row.ProductCount
		}
	}

	entries := make([]ManifestEntry, 0, len(categories))
	for _, category := range categories {
		count := countByID[category.ID]
		if count == 0 {
			continue
		}
		path := categoryPath(byID, category.ID)
		if path == "" || manifestBlacklisted(path) {
			continue
		}

		examples, err := s.store.ListCategoryExamples(ctx, db.ListCategoryExamplesParams{
			CategoryID: sql.NullInt64{Int64: category.ID, Valid: true},
			Limit:      manifestMaxExample,
		})
		if err != nil {
			return nil, fmt.Errorf("ошибка БД: %w", err)
		}
		for i, example := range examples {
			examples[i] = shortenLabel(example, manifestMaxLabel)
		}
		if !hasNonNumericExample(examples) {
			continue
		}

		entries = append(entries, ManifestEntry{
			ID:       category.ID,
			Path:     path,
			Count:    count,
			Examples: examples,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].ID < entries[j].ID
	})
	if len(entries) > manifestMaxEntries {
		entries = entries[:manifestMaxEntries]
	}

	if encoded, err := json.Marshal(entries); err == nil {
		s.cache.SetEx(ctx, manifestCacheKey, string(encoded), manifestCacheTTL)
	}
	return entries, nil
}

// InvalidateManifest сбрасывает кэш после синка каталога.
func (s *Service) InvalidateManifest(ctx context.Context) {
	s.cache.Delete(ctx, manifestCacheKey)
}
