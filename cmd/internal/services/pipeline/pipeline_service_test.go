package pipeline

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partner-m/assist-go/cmd/internal/cache"
	"github.com/partner-m/assist-go/cmd/internal/config"
	db "github.com/partner-m/assist-go/cmd/internal/db/sqlc"
	"github.com/partner-m/assist-go/cmd/internal/services/aliases"
	"github.com/partner-m/assist-go/cmd/internal/services/catalogindex"
	"github.com/partner-m/assist-go/cmd/internal/services/clarify"
	"github.com/partner-m/assist-go/cmd/internal/services/history"
	"github.com/partner-m/assist-go/cmd/internal/services/llm"
	"github.com/partner-m/assist-go/cmd/internal/services/synonyms"
	"github.com/partner-m/assist-go/cmd/pkg/logging"
)

// fakeStore — стор в памяти для прогонов пайплайна без БД.
type fakeStore struct {
	products      []db.Product
	stats         []db.ListOrgStatsWithProductsRow
	globalAliases []db.SearchAlias
	suggestions   []db.ListHistoryTitleSuggestionsRow
	orgAliasIDs   []int64
}

func product(id int64, sku, title string, categoryID int64) db.Product {
	p := db.Product{
		ID:       id,
		TitleRu:  title,
		Price:    100,
		StockQty: 50,
	}
	if sku != "" {
		p.Sku = sql.NullString{String: sku, Valid: true}
	}
	if categoryID > 0 {
		p.CategoryID = sql.NullInt64{Int64: categoryID, Valid: true}
	}
	return p
}

func (f *fakeStore) SearchCatalogPrefetch(_ context.Context, arg db.SearchCatalogPrefetchParams) ([]db.Product, error) {
	idFilter := map[int64]bool{}
	for _, id := range arg.ProductIds {
		idFilter[id] = true
	}
	catFilter := map[int64]bool{}
	for _, id := range arg.CategoryIds {
		catFilter[id] = true
	}

	var out []db.Product
	for _, p := range f.products {
		if len(idFilter) > 0 && !idFilter[p.ID] {
			continue
		}
		if len(catFilter) > 0 && (!p.CategoryID.Valid || !catFilter[p.CategoryID.Int64]) {
			continue
		}
		haystack := strings.ToLower(p.TitleRu)
		if p.Sku.Valid {
			haystack += " " + strings.ToLower(p.Sku.String)
		}
		ok := true
		for _, pattern := range arg.Patterns {
			needle := strings.ToLower(strings.Trim(pattern, "%"))
			if !strings.Contains(haystack, needle) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) ListOrgStatsWithProducts(_ context.Context, _ db.ListOrgStatsWithProductsParams) ([]db.ListOrgStatsWithProductsRow, error) {
	return f.stats, nil
}

func (f *fakeStore) ListGlobalSearchAliases(_ context.Context) ([]db.SearchAlias, error) {
	return f.globalAliases, nil
}

func (f *fakeStore) ListOrgSearchAliases(_ context.Context, _ sql.NullInt64) ([]db.SearchAlias, error) {
	return nil, nil
}

func (f *fakeStore) FindOrgAliasProductIDs(_ context.Context, _ db.FindOrgAliasProductIDsParams) ([]int64, error) {
	return f.orgAliasIDs, nil
}

func (f *fakeStore) FindOrgAliasProductIDsLike(_ context.Context, _ db.FindOrgAliasProductIDsLikeParams) ([]int64, error) {
	return nil, nil
}

func (f *fakeStore) GetProductByID(_ context.Context, id int64) (db.Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return db.Product{}, sql.ErrNoRows
}

func (f *fakeStore) GetProductBySku(_ context.Context, sku sql.NullString) (db.Product, error) {
	for _, p := range f.products {
		if p.Sku.Valid && sku.Valid && p.Sku.String == sku.String {
			return p, nil
		}
	}
	return db.Product{}, sql.ErrNoRows
}

func (f *fakeStore) ListProductCategories(_ context.Context, ids []int64) ([]db.ListProductCategoriesRow, error) {
	want := map[int64]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var rows []db.ListProductCategoriesRow
	for _, p := range f.products {
		if want[p.ID] {
			rows = append(rows, db.ListProductCategoriesRow{ID: p.ID, CategoryID: p.CategoryID})
		}
	}
	return rows, nil
}

func (f *fakeStore) ListHistoryTitleSuggestions(_ context.Context, _ db.ListHistoryTitleSuggestionsParams) ([]db.ListHistoryTitleSuggestionsRow, error) {
	return f.suggestions, nil
}

func (f *fakeStore) GetActiveOrgIDForUser(_ context.Context, _ int64) (int64, error) {
	return 0, sql.ErrNoRows
}

func (f *fakeStore) CountOrgProductStats(_ context.Context, _ int64) (int64, error) {
	return int64(len(f.stats)), nil
}

func (f *fakeStore) CreateSearchLog(_ context.Context, _ db.CreateSearchLogParams) (db.SearchLog, error) {
	return db.SearchLog{}, nil
}

func (f *fakeStore) GetOrganizationByName(_ context.Context, _ string) (db.Organization, error) {
	return db.Organization{}, sql.ErrNoRows
}

func (f *fakeStore) ListCategories(_ context.Context) ([]db.Category, error) { return nil, nil }

func (f *fakeStore) ListCategoryExamples(_ context.Context, _ db.ListCategoryExamplesParams) ([]string, error) {
	return nil, nil
}

func (f *fakeStore) ListCategoryProductCounts(_ context.Context) ([]db.ListCategoryProductCountsRow, error) {
	return nil, nil
}

func (f *fakeStore) UpsertCategory(_ context.Context, _ db.UpsertCategoryParams) (db.Category, error) {
	return db.Category{}, nil
}

func (f *fakeStore) UpsertGlobalSearchAlias(_ context.Context, _ db.UpsertGlobalSearchAliasParams) error {
	return nil
}

func (f *fakeStore) UpsertOrgAlias(_ context.Context, _ db.UpsertOrgAliasParams) (db.OrgAlias, error) {
	return db.OrgAlias{}, nil
}

func (f *fakeStore) UpsertOrgMember(_ context.Context, _ db.UpsertOrgMemberParams) error { return nil }

func (f *fakeStore) UpsertOrgProductStats(_ context.Context, _ db.UpsertOrgProductStatsParams) error {
	return nil
}

func (f *fakeStore) UpsertOrganizationByExternalID(_ context.Context, _ db.UpsertOrganizationByExternalIDParams) (db.Organization, error) {
	return db.Organization{}, nil
}

func (f *fakeStore) UpsertProductBySku(_ context.Context, _ db.UpsertProductBySkuParams) (db.Product, error) {
	return db.Product{}, nil
}

func (f *fakeStore) UpsertUserByPhone(_ context.Context, _ db.UpsertUserByPhoneParams) (db.User, error) {
	return db.User{}, nil
}

func (f *fakeStore) ExecTx(_ context.Context, _ func(*db.Queries) error) error { return nil }

func newTestService(store db.Store) *Service {
	logger := logging.GetLogger()
	noCache := cache.New("")
	cfg := &config.Config{}
	return NewService(
		store,
		synonyms.NewService(store, noCache, logger),
		aliases.NewService(store, logger),
		history.NewService(store, logger),
		catalogindex.NewService(store, logger),
		clarify.NewService(store, logger),
		llm.NewService(cfg, noCache, store, logger),
		logger,
	)
}

func TestBuildAttemptVariants(t *testing.T) {
	t.Run("декораторы din уходят в сокращенный вариант", func(t *testing.T) {
		variants := BuildAttemptVariants("болт 8x30 дин 933")
		require.NotEmpty(t, variants)
		assert.Equal(t, "болт 8x30 дин 933", variants[0])
		assert.Contains(t, variants, "болт 8 30")
	})

	t.Run("цвет отваливается в no_color", func(t *testing.T) {
		variants := BuildAttemptVariants("спанбонд белый 70")
		assert.Contains(t, variants, "спанбонд 70")
	})

	t.Run("дубликаты схлопываются", func(t *testing.T) {
		variants := BuildAttemptVariants("поролон")
		assert.Equal(t, []string{"поролон"}, variants)
	})

	t.Run("пустой запрос", func(t *testing.T) {
		assert.Empty(t, BuildAttemptVariants("  "))
	})
}

func TestRunHistoryStage(t *testing.T) {
	now := time.Now().UTC()
	store := &fakeStore{
		products: []db.Product{
			product(5, "BLT-830", "Болт мебельный 8 * 30 (din 603)", 7),
		},
		stats: []db.ListOrgStatsWithProductsRow{
			{
				ProductID:   5,
				OrdersCount: 12,
				LastOrderAt: sql.NullTime{Time: now.AddDate(0, 0, -3), Valid: true},
				TitleRu:     "Болт мебельный 8 * 30 (din 603)",
				Price:       3.5,
				StockQty:    1000,
				CategoryID:  sql.NullInt64{Int64: 7, Valid: true},
			},
		},
	}
	svc := newTestService(store)

	result := svc.Run(context.Background(), "болт 8x30 дин 933 10шт", Options{OrgID: 1})

	assert.Equal(t, DecisionHistoryOK, result.Decision.Decision)
	require.NotEmpty(t, result.Results)
	assert.Equal(t, int64(5), result.Results[0].ID)
	assert.True(t, result.Decision.HistoryUsed)
	// Полный вариант с "933" промахнулся, сработал сокращенный.
	assert.GreaterOrEqual(t, len(result.Trace.HistoryAttempts), 2)

	require.Len(t, result.Decision.ParsedItems, 1)
	assert.Equal(t, 10.0, result.Decision.ParsedItems[0].Qty)
	assert.Equal(t, "шт", result.Decision.ParsedItems[0].Unit)
}

func TestRunLocalStage(t *testing.T) {
	store := &fakeStore{
		products: []db.Product{
			product(1, "", "Карандаш меловой белый", 3),
			product(2, "", "Липа вагонка", 4),
		},
	}
	svc := newTestService(store)

	result := svc.Run(context.Background(), "мел белый 2 коробочки", Options{})

	assert.Equal(t, DecisionLocalOK, result.Decision.Decision)
	require.NotEmpty(t, result.Results)
	assert.Equal(t, int64(1), result.Results[0].ID)
	for _, c := range result.Results {
		assert.NotContains(t, strings.ToLower(c.TitleRu), "липа")
	}
}

func TestRunSynonymAndColor(t *testing.T) {
	store := &fakeStore{
		products: []db.Product{
			product(1, "", "Спанбонд белый 70", 9),
			product(2, "", "Спанбонд коричневый 70", 9),
		},
		globalAliases: []db.SearchAlias{
			{Src: "спандбонд", Dst: "спанбонд"},
		},
	}
	svc := newTestService(store)

	result := svc.Run(context.Background(), "спандбонд 70 белый", Options{OrgID: 1})

	assert.NotEmpty(t, result.Decision.SynonymMap)
	assert.Equal(t, "спанбонд", result.Decision.SynonymMap["спандбонд"])
	assert.Equal(t, DecisionLocalOK, result.Decision.Decision)
	require.NotEmpty(t, result.Results)
	assert.Equal(t, int64(1), result.Results[0].ID)
	for _, c := range result.Results {
		assert.NotContains(t, strings.ToLower(c.TitleRu), "коричн")
	}
}

func TestRunClarificationOnEmpty(t *testing.T) {
	store := &fakeStore{
		suggestions: []db.ListHistoryTitleSuggestionsRow{
			{ID: 1, TitleRu: "Молния серая 308"},
			{ID: 2, TitleRu: "Молния бежевая 310"},
		},
	}
	svc := newTestService(store)

	result := svc.Run(context.Background(), "молния волшебная", Options{OrgID: 1})

	assert.Equal(t, DecisionClarification, result.Decision.Decision)
	require.NotNil(t, result.Decision.Clarification)
	assert.Equal(t, "no_candidates", result.Decision.Clarification.Reason)
	assert.NotEmpty(t, result.Decision.Clarification.Options)
	assert.Empty(t, result.Results)
}

func TestRunNoMatchDeterministicWithoutLLM(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store)

	first := svc.Run(context.Background(), "несуществующий товар", Options{OrgID: 1, EnableLLMNarrow: true, EnableLLMRewrite: true})
	second := svc.Run(context.Background(), "несуществующий товар", Options{OrgID: 1, EnableLLMNarrow: true, EnableLLMRewrite: true})

	assert.Equal(t, DecisionNoMatch, first.Decision.Decision)
	assert.Equal(t, first.Decision.Decision, second.Decision.Decision)
	assert.False(t, first.Decision.LLMCalled)
	assert.Empty(t, first.Results)
}

func TestRunMultiItem(t *testing.T) {
	store := &fakeStore{
		products: []db.Product{
			product(1, "", "Молния серая 308", 2),
			product(2, "", "Молния бежевая 310", 2),
		},
	}
	svc := newTestService(store)

	result := svc.Run(context.Background(), "молния серая, беж по 5 шт", Options{OrgID: 1})

	assert.True(t, result.Decision.MultiItem)
	require.Len(t, result.Items, 2)
	assert.Equal(t, result.Items[0].Results, result.Results)
	assert.Len(t, result.Decision.ParsedItems, 2)
}

func TestRunAttachesCategories(t *testing.T) {
	store := &fakeStore{
		products: []db.Product{
			product(1, "", "Поролон листовой", 11),
		},
	}
	svc := newTestService(store)

	result := svc.Run(context.Background(), "поролон листовой", Options{})

	require.NotEmpty(t, result.Results)
	require.NotNil(t, result.Results[0].CategoryID)
	assert.Equal(t, int64(11), *result.Results[0].CategoryID)
}
