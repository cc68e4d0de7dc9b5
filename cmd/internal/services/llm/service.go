package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/partner-m/assist-go/cmd/internal/api_models"
	"github.com/partner-m/assist-go/cmd/internal/cache"
	"github.com/partner-m/assist-go/cmd/internal/config"
	db "github.com/partner-m/assist-go/cmd/internal/db/sqlc"
	"github.com/partner-m/assist-go/cmd/pkg/logging"
)

const (
	maxRewriteTokens  = 6
	maxAlternatives   = 5
	maxAlternativeLen = 60
	maxNarrowIDs      = 5
	maxRerankIDs      = 5
	minRerankCands    = 2
	rerankPromptCands = 30
)

// Service — фасад над LLM-провайдером. Каждый метод обязан деградировать:
// выключенная или упавшая модель никогда не ломает пайплайн поиска,
// вызывающий код получает пустой или тождественный результат.
type Service struct {
	cfg      *config.Config
	provider Provider
	cache    *cache.Cache
	store    db.Store
	logger   *logging.Logger
}

func NewService(cfg *config.Config, c *cache.Cache, store db.Store, logger *logging.Logger) *Service {
	s := &Service{cfg: cfg, cache: c, store: store, logger: logger}
	if !cfg.LLMAvailable() {
		return s
	}
	switch cfg.LLM.Provider {
	case "ollama":
		s.provider = NewOllamaProvider(cfg.Ollama, cfg.LLM.TimeoutSeconds, logger)
	case "gigachat":
		s.provider = NewGigaChatProvider(cfg.GigaChat, c, logger)
	default:
		logger.Warnf("Неизвестный LLM-провайдер %q, LLM отключен", cfg.LLM.Provider)
	}
	return s
}

// Enabled — активен ли хоть какой-то провайдер.
func (s *Service) Enabled() bool {
	return s != nil && s.provider != nil
}

func (s *Service) chat(ctx context.Context, system, user string, temperature float64) (string, error) {
	if !s.Enabled() {
		return "", ErrDisabled
	}
	messages := []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}
	return s.provider.Chat(ctx, messages, temperature)
}

const rewriteSystemPrompt = `Ты нормализуешь товарные запросы для поиска по каталогу мебельной фурнитуры.
Перепиши запрос клиента в короткую поисковую фразу: только значимые слова, размеры и коды.
Убери вежливые обороты, глаголы и количество. Не добавляй слов, которых нет в запросе.
Ответь одной строкой без кавычек, не больше шести слов.`

// Rewrite переписывает запрос в короткую поисковую фразу.
// Любой сомнительный ответ модели заменяется исходным запросом.
func (s *Service) Rewrite(ctx context.Context, query string) (string, error) {
	answer, err := s.chat(ctx, rewriteSystemPrompt, query, 0.1)
	if err != nil {
		return query, err
	}
	rewritten := cleanRewrite(answer)
	if rewritten == "" {
		return query, nil
	}
	return rewritten, nil
}

// cleanRewrite валидирует ответ модели: одна строка, без кавычек,
// не больше шести токенов. Пустая строка означает "ответ не годится".
func cleanRewrite(answer string) string {
	line := strings.TrimSpace(answer)
	if idx := strings.IndexAny(line, "\n\r"); idx >= 0 {
		line = strings.TrimSpace(line[:idx])
	}
	line = strings.Trim(line, `"'«»`)
	line = strings.TrimSpace(line)
	if line == "" {
		return ""
	}
	if len(strings.Fields(line)) > maxRewriteTokens {
		return ""
	}
	return line
}

const suggestSystemPrompt = `Ты помогаешь найти товар в каталоге мебельной фурнитуры.
По запросу клиента предложи от трех до пяти альтернативных поисковых формулировок:
синонимы, другие названия того же товара, варианты написания размеров.
Ответь JSON-массивом строк без пояснений, например: ["поролон листовой", "ппу лист"].`

// SuggestQueries просит у модели альтернативные формулировки запроса.
// При любой ошибке возвращается пустой список.
func (s *Service) SuggestQueries(ctx context.Context, query string) ([]string, error) {
	answer, err := s.chat(ctx, suggestSystemPrompt, query, 0.4)
	if err != nil {
		return nil, err
	}
	return cleanAlternatives(answer, query), nil
}

// cleanAlternatives разбирает JSON-массив строк из ответа модели,
// отбрасывает дубликаты, исходный запрос и слишком длинные варианты.
func cleanAlternatives(answer, original string) []string {
	raw := extractJSONArray(answer)
	if raw == "" {
		return nil
	}
	var parsed []string
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil
	}

	originalLower := strings.ToLower(strings.TrimSpace(original))
	seen := map[string]bool{}
	var result []string
	for _, alt := range parsed {
		alt = strings.TrimSpace(alt)
		lower := strings.ToLower(alt)
		if alt == "" || lower == originalLower || seen[lower] {
			continue
		}
		if len([]rune(alt)) > maxAlternativeLen {
			continue
		}
		seen[lower] = true
		result = append(result, alt)
		if len(result) >= maxAlternatives {
			break
		}
	}
	return result
}

const narrowSystemPrompt = `Ты определяешь категории каталога, в которых может находиться товар из запроса.
Тебе дан список категорий с примерами товаров. Выбери не больше пяти подходящих категорий.
Ответь JSON-объектом вида {"category_ids": [1, 2], "confidence": 0.8} без пояснений.
Используй только id из списка. Если ни одна категория не подходит, верни пустой список.`

type narrowAnswer struct {
	CategoryIDs []int64 `json:"category_ids"`
	Confidence  float64 `json:"confidence"`
}

// NarrowCategories просит модель сузить поиск до категорий манифеста.
// Id вне манифеста трактуется как сбой разбора: пустой список, доверие 0.
func (s *Service) NarrowCategories(ctx context.Context, query string, manifest []ManifestEntry) ([]int64, float64, error) {
	if len(manifest) == 0 {
		return nil, 0, nil
	}

	var sb strings.Builder
	for _, entry := range manifest {
		fmt.Fprintf(&sb, "id=%d %s (примеры: %s)\n", entry.ID, entry.Path, strings.Join(entry.Examples, "; "))
	}
	user := fmt.Sprintf("Запрос: %s\n\nКатегории:\n%s", query, sb.String())

	answer, err := s.chat(ctx, narrowSystemPrompt, user, 0.1)
	if err != nil {
		return nil, 0, err
	}

	ids, confidence := parseNarrowAnswer(answer, manifest)
	return ids, confidence, nil
}

func parseNarrowAnswer(answer string, manifest []ManifestEntry) ([]int64, float64) {
	raw := extractJSONObject(answer)
	if raw == "" {
		return nil, 0
	}
	var parsed narrowAnswer
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, 0
	}

	known := make(map[int64]bool, len(manifest))
	for _, entry := range manifest {
		known[entry.ID] = true
	}
	seen := map[int64]bool{}
	var ids []int64
	for _, id := range parsed.CategoryIDs {
		if !known[id] {
			// Модель выдумала id — весь ответ не заслуживает доверия.
			return nil, 0
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
		if len(ids) >= maxNarrowIDs {
			break
		}
	}
	confidence := parsed.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return ids, confidence
}

const rerankSystemPrompt = `Ты ранжируешь кандидатов каталога по соответствию запросу клиента.
Тебе дан запрос и список товаров с id. Выбери до пяти наиболее подходящих.
Ответь JSON-объектом вида {"ranking": [{"product_id": 10, "score": 0.9}]} без пояснений.
Используй только id из списка, score от 0 до 1.`

type rerankAnswer struct {
	Ranking []struct {
		ProductID int64   `json:"product_id"`
		Score     float64 `json:"score"`
	} `json:"ranking"`
}

// RerankItem — один элемент переранжировки.
type RerankItem struct {
	ProductID int64
	Score     float64
}

// RerankProducts просит модель переранжировать кандидатов.
// Меньше двух кандидатов переранжировать нечего.
func (s *Service) RerankProducts(ctx context.Context, query string, candidates []api_models.ProductCandidate) ([]RerankItem, error) {
	if len(candidates) < minRerankCands {
		return nil, nil
	}
	if len(candidates) > rerankPromptCands {
		candidates = candidates[:rerankPromptCands]
	}

	var sb strings.Builder
	for _, c := range candidates {
		fmt.Fprintf(&sb, "id=%d %s", c.ID, c.TitleRu)
		if c.Sku != "" {
			fmt.Fprintf(&sb, " (арт. %s)", c.Sku)
		}
		sb.WriteString("\n")
	}
	user := fmt.Sprintf("Запрос: %s\n\nТовары:\n%s", query, sb.String())

	answer, err := s.chat(ctx, rerankSystemPrompt, user, 0.1)
	if err != nil {
		return nil, err
	}
	return parseRerankAnswer(answer, candidates), nil
}

func parseRerankAnswer(answer string, candidates []api_models.ProductCandidate) []RerankItem {
	raw := extractJSONObject(answer)
	if raw == "" {
		return nil
	}
	var parsed rerankAnswer
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil
	}

	known := make(map[int64]bool, len(candidates))
	for _, c := range candidates {
		known[c.ID] = true
	}
	seen := map[int64]bool{}
	var items []RerankItem
	for _, entry := range parsed.Ranking {
		if !known[entry.ProductID] || seen[entry.ProductID] {
			continue
		}
		seen[entry.ProductID] = true
		items = append(items, RerankItem{ProductID: entry.ProductID, Score: entry.Score})
		if len(items) >= maxRerankIDs {
			break
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Score > items[j].Score })
	return items
}

// extractJSONObject вырезает первый сбалансированный JSON-объект из текста.
// Модели любят оборачивать ответ в прозу и markdown-ограды, поэтому
// ищем по глубине фигурных скобок, игнорируя скобки внутри строк.
func extractJSONObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// extractJSONArray — то же для массива верхнего уровня.
func extractJSONArray(text string) string {
	start := strings.IndexByte(text, '[')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
