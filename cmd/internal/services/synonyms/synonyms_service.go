package synonyms

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/partner-m/assist-go/cmd/internal/cache"
	db "github.com/partner-m/assist-go/cmd/internal/db/sqlc"
	"github.com/partner-m/assist-go/cmd/pkg/logging"
)

const mapTTL = 10 * time.Minute

// tokenRe — токены запроса. \w в RE2 только ASCII, кириллицу перечисляем явно.
var tokenRe = regexp.MustCompile(`[a-zа-яё0-9_-]+`)

// articleAnchorRe — похожие на артикулы токены: st1234, ab12, 12345.
// Их наличие означает, что клиент ищет конкретную позицию и сокращение
// "ппу" раскрывать нельзя.
var articleAnchorRe = regexp.MustCompile(`st\d{3,6}|[a-z]{1,3}\d{2,6}|\d{5,}`)

// defaultAliases — базовый словарь опечаток и сокращений.
var defaultAliases = map[string]string{
	"спандбонд": "спанбонд",
	"спандбон":  "спанбонд",
	"синтепонн": "синтепон",
	"ппу":       "поролон",
}

// Service подменяет токены запроса по словарю синонимов:
// глобальный слой плюс словарь организации поверх него.
type Service struct {
	store  db.Store
	cache  *cache.Cache
	logger *logging.Logger
}

func NewService(store db.Store, c *cache.Cache, logger *logging.Logger) *Service {
	return &Service{store: store, cache: c, logger: logger}
}

func mapCacheKey(orgID int64) string {
	if orgID <= 0 {
		return "search_alias_map:0"
	}
	return fmt.Sprintf("search_alias_map:%d", orgID)
}

// GetMap возвращает словарь src -> dst для организации. Алиасы организации
// перекрывают глобальные. Результат кэшируется на 10 минут.
func (s *Service) GetMap(ctx context.Context, orgID int64) (map[string]string, error) {
	key := mapCacheKey(orgID)
	if raw, ok := s.cache.Get(ctx, key); ok {
		var m map[string]string
		if err := json.Unmarshal([]byte(raw), &m); err == nil {
			return m, nil
		}
	}

	m := make(map[string]string)
	global, err := s.store.ListGlobalSearchAliases(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка БД: %w", err)
	}
	for _, a := range global {
		m[strings.ToLower(a.Src)] = strings.ToLower(a.Dst)
	}

	if orgID > 0 {
		org, err := s.store.ListOrgSearchAliases(ctx, sql.NullInt64{Int64: orgID, Valid: true})
		if err != nil {
			return nil, fmt.Errorf("ошибка БД: %w", err)
		}
		for _, a := range org {
			m[strings.ToLower(a.Src)] = strings.ToLower(a.Dst)
		}
	}

	if raw, err := json.Marshal(m); err == nil {
		s.cache.SetEx(ctx, key, string(raw), mapTTL)
	}
	return m, nil
}

// NormalizeQueryWithAliases заменяет токены запроса по словарю синонимов.
// Возвращает переписанный запрос и карту примененных замен src -> dst.
//
// Сокращение "ппу" раскрывается только в коротких запросах (до трех
// токенов) без артикула: в "чехол ппу-спинка st1205" клиент имеет в виду
// конкретный артикул, а не поролон.
func (s *Service) NormalizeQueryWithAliases(ctx context.Context, orgID int64, query string) (string, map[string]string, error) {
	aliases, err := s.GetMap(ctx, orgID)
	if err != nil {
		return query, nil, err
	}
	rewritten, applied := ApplyAliases(query, aliases)
	return rewritten, applied, nil
}

// ApplyAliases — чистая замена токенов по готовому словарю.
// Вторым значением возвращается карта фактически примененных замен.
func ApplyAliases(query string, aliases map[string]string) (string, map[string]string) {
	lowered := strings.ToLower(query)
	tokens := tokenRe.FindAllString(lowered, -1)
	applied := map[string]string{}
	if len(tokens) == 0 || len(aliases) == 0 {
		return query, applied
	}

	hasAnchor := articleAnchorRe.MatchString(lowered)
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		dst, ok := aliases[token]
		if ok && token == "ппу" && (len(tokens) > 3 || hasAnchor) {
			ok = false
		}
		if ok && dst != token {
			out = append(out, dst)
			applied[token] = dst
			continue
		}
		out = append(out, token)
	}
	if len(applied) == 0 {
		return query, applied
	}
	return strings.Join(out, " "), applied
}

// Invalidate сбрасывает кэш словаря организации и глобального слоя.
func (s *Service) Invalidate(ctx context.Context, orgID int64) {
	s.cache.Delete(ctx, mapCacheKey(orgID), mapCacheKey(0))
}

// SeedDefaults наполняет глобальный словарь базовыми опечатками.
// Идемпотентен, вызывается на старте приложения.
func (s *Service) SeedDefaults(ctx context.Context) error {
	for src, dst := range defaultAliases {
		err := s.store.UpsertGlobalSearchAlias(ctx, db.UpsertGlobalSearchAliasParams{Src: src, Dst: dst})
		if err != nil {
			return fmt.Errorf("посев словаря синонимов (%s): %w", src, err)
		}
	}
	s.cache.Delete(ctx, mapCacheKey(0))
	s.logger.Infof("Глобальный словарь синонимов: %d базовых записей", len(defaultAliases))
	return nil
}
