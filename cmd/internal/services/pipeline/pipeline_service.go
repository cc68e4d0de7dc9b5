package pipeline

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/partner-m/assist-go/cmd/internal/api_models"
	db "github.com/partner-m/assist-go/cmd/internal/db/sqlc"
	"github.com/partner-m/assist-go/cmd/internal/reqhandler"
	"github.com/partner-m/assist-go/cmd/internal/services/aliases"
	"github.com/partner-m/assist-go/cmd/internal/services/catalogindex"
	"github.com/partner-m/assist-go/cmd/internal/services/clarify"
	"github.com/partner-m/assist-go/cmd/internal/services/history"
	"github.com/partner-m/assist-go/cmd/internal/services/llm"
	"github.com/partner-m/assist-go/cmd/internal/services/synonyms"
	"github.com/partner-m/assist-go/cmd/pkg/logging"
)

// Терминальные исходы пайплайна.
const (
	DecisionAliasOK       = "alias_ok"
	DecisionHistoryOK     = "history_ok"
	DecisionLocalOK       = "local_ok"
	DecisionLLMRewriteOK  = "llm_rewrite_ok"
	DecisionLLMOK         = "llm_ok"
	DecisionLLMNarrowOK   = "llm_narrow_ok"
	DecisionClarification = "needs_clarification"
	DecisionNoMatch       = "no_match"
)

const (
	defaultLimit          = 5
	maxClarifyCandidates  = 30
	maxRerankCandidates   = 30
	maxCoreVariantTokens  = 6
	minCoreVariantWordLen = 4
)

var (
	dinDecoratorRe = regexp.MustCompile(`(?:din|дин)\s*\d{3,4}`)
	parenCodeRe    = regexp.MustCompile(`\([^)]*\)`)
)

// Options — параметры одного запуска пайплайна.
type Options struct {
	OrgID            int64
	UserID           int64
	Limit            int
	EnableLLMNarrow  bool
	EnableLLMRewrite bool
	EnableRerank     bool
	ClarifyOffset    int
}

// Service — оркестратор поиска: прогоняет запрос через алиасы,
// историю заказов, каталог и LLM-этапы строго по порядку, пока
// какой-нибудь этап не даст кандидатов.
type Service struct {
	store    db.Store
	synonyms *synonyms.Service
	aliases  *aliases.Service
	history  *history.Service
	catalog  *catalogindex.Service
	clarify  *clarify.Service
	llm      *llm.Service
	logger   *logging.Logger
}

func NewService(
	store db.Store,
	synonymsService *synonyms.Service,
	aliasesService *aliases.Service,
	historyService *history.Service,
	catalogService *catalogindex.Service,
	clarifyService *clarify.Service,
	llmService *llm.Service,
	logger *logging.Logger,
) *Service {
	return &Service{
		store:    store,
		synonyms: synonymsService,
		aliases:  aliasesService,
		history:  historyService,
		catalog:  catalogService,
		clarify:  clarifyService,
		llm:      llmService,
		logger:   logger,
	}
}

// BuildAttemptVariants — упорядоченный список вариантов запроса
// от самого полного к самому короткому ядру:
//
//	full    — запрос как есть;
//	reduced — без декораторов din/дин, кодов в скобках и служебных слов;
//	no_color — без цветовых прилагательных;
//	core    — не больше шести токенов: числа и слова от четырех букв.
//
// Дубликаты схлопываются с сохранением порядка.
func BuildAttemptVariants(query string) []string {
	full := strings.TrimSpace(query)
	if full == "" {
		return nil
	}

	reducedRaw := dinDecoratorRe.ReplaceAllString(strings.ToLower(full), " ")
	reducedRaw = parenCodeRe.ReplaceAllString(reducedRaw, " ")
	profile := catalogindex.ProfileQuery(reducedRaw)
	reduced := strings.Join(append(append([]string{}, profile.Tokens...), profile.Numbers...), " ")

	var noColorTokens []string
	for _, token := range profile.Tokens {
		if catalogindex.ColorStem(token) == "" {
			noColorTokens = append(noColorTokens, token)
		}
	}
	noColor := strings.Join(append(noColorTokens, profile.Numbers...), " ")

	var coreTokens []string
	for _, token := range strings.Fields(catalogindex.NormalizeQueryText(reducedRaw)) {
		if len(coreTokens) >= maxCoreVariantTokens {
			break
		}
		if isDigits(token) || len([]rune(token)) >= minCoreVariantWordLen {
			coreTokens = append(coreTokens, token)
		}
	}
	core := strings.Join(coreTokens, " ")

	seen := map[string]bool{}
	var variants []string
	for _, v := range []string{full, reduced, noColor, core} {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		variants = append(variants, v)
	}
	return variants
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

// run-контекст одного запуска: кандидаты, решение и журнал.
type run struct {
	opts       Options
	orgID      int64
	query      string // текущий запрос (после синонимов/переписывания)
	candidates []api_models.ProductCandidate
	decision   api_models.Decision
	trace      api_models.Trace
}

func (r *run) stage(name string, fill func(*api_models.TraceStage)) {
	stage := api_models.TraceStage{
		Name:             name,
		CandidatesBefore: len(r.candidates),
	}
	if fill != nil {
		fill(&stage)
	}
	stage.CandidatesAfter = len(r.candidates)
	stage.Top5Titles = topTitles(r.candidates, 5)
	r.trace.Stages = append(r.trace.Stages, stage)
}

func topTitles(candidates []api_models.ProductCandidate, n int) []string {
	if len(candidates) == 0 {
		return nil
	}
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	titles := make([]string, 0, len(candidates))
	for _, c := range candidates {
		titles = append(titles, c.TitleRu)
	}
	return titles
}

// Run — канонический вход пайплайна. Никогда не паникует и не
// возвращает ошибку: сбой любого этапа записывается в журнал
// и трактуется как ноль кандидатов.
func (s *Service) Run(ctx context.Context, text string, opts Options) api_models.PipelineResult {
	if opts.Limit <= 0 {
		opts.Limit = defaultLimit
	}

	items, _ := reqhandler.ParseOrderText(text)
	if len(items) > 1 {
		return s.runMulti(ctx, items, opts)
	}

	query := strings.TrimSpace(text)
	var parsed []reqhandler.Item
	if len(items) == 1 {
		parsed = items
		if items[0].QueryCore != "" {
			query = items[0].QueryCore
		}
	}

	result := s.runSingle(ctx, query, opts)
	result.Decision.ParsedItems = parsed
	result.Decision.OriginalQuery = text
	result.Trace.Input = text
	return result
}

// runMulti прогоняет каждую позицию отдельно. В корневом results
// лежит выдача первой позиции: диалоговый слой исторически читает
// именно ее.
func (s *Service) runMulti(ctx context.Context, items []reqhandler.Item, opts Options) api_models.PipelineResult {
	var result api_models.PipelineResult
	result.Items = make([]api_models.PipelineItemResult, 0, len(items))

	for _, item := range items {
		itemResult := s.runSingle(ctx, item.QueryCore, opts)
		itemResult.Decision.ParsedItems = []reqhandler.Item{item}
		itemResult.Decision.OriginalQuery = item.Raw
		result.Items = append(result.Items, api_models.PipelineItemResult{
			Item:     item,
			Results:  itemResult.Results,
			Decision: itemResult.Decision,
		})
	}

	first := result.Items[0]
	result.Results = first.Results
	result.Decision = first.Decision
	result.Decision.MultiItem = true
	result.Decision.ParsedItems = items
	result.Trace = api_models.Trace{Input: items[0].Raw}
	return result
}

func (s *Service) runSingle(ctx context.Context, query string, opts Options) api_models.PipelineResult {
	r := &run{opts: opts, query: query}
	r.decision.Decision = DecisionNoMatch
	r.decision.OriginalQuery = query
	r.trace.Input = query

	s.resolveOrg(ctx, r)
	s.applySynonyms(ctx, r)
	variants := BuildAttemptVariants(r.query)

	s.stageAlias(ctx, r)
	if len(r.candidates) == 0 {
		s.stageHistory(ctx, r, variants)
	}
	if len(r.candidates) == 0 {
		s.stageLocal(ctx, r, variants)
	}
	if len(r.candidates) == 0 && opts.EnableLLMRewrite {
		s.stageLLMRewrite(ctx, r)
	}
	if len(r.candidates) == 0 {
		s.stageSynonymRetry(ctx, r)
	}
	if s.clarificationGate(ctx, r) {
		return s.finish(ctx, r)
	}
	if len(r.candidates) == 0 && opts.EnableLLMNarrow {
		s.stageLLMNarrow(ctx, r)
	}
	if opts.EnableRerank {
		s.stageRerank(ctx, r)
	}
	return s.finish(ctx, r)
}

func (s *Service) resolveOrg(ctx context.Context, r *run) {
	r.orgID = r.opts.OrgID
	if r.orgID <= 0 && r.opts.UserID > 0 {
		orgID, err := s.store.GetActiveOrgIDForUser(ctx, r.opts.UserID)
		if err == nil {
			r.orgID = orgID
		}
	}
	r.decision.HistoryOrgID = r.orgID
}

func (s *Service) applySynonyms(ctx context.Context, r *run) {
	rewritten, applied, err := s.synonyms.NormalizeQueryWithAliases(ctx, r.orgID, r.query)
	r.decision.SynonymMap = map[string]string{}
	if err != nil {
		s.logger.Warnf("Словарь синонимов недоступен: %v", err)
		r.stage("synonyms", func(st *api_models.TraceStage) {
			st.QueryUsed = r.query
			st.Notes = "alias_map_error"
		})
		return
	}
	if len(applied) > 0 {
		r.query = rewritten
		r.decision.SynonymMap = applied
	}
	r.stage("synonyms", func(st *api_models.TraceStage) {
		st.QueryUsed = r.query
		if len(applied) == 0 {
			st.Notes = "no_aliases_applied"
		}
	})
}

func (s *Service) stageAlias(ctx context.Context, r *run) {
	ids, err := s.aliases.FindCandidates(ctx, r.orgID, r.decision.OriginalQuery)
	if err != nil {
		s.logger.Warnf("Поиск по алиасам организации не удался: %v", err)
		r.stage("alias", func(st *api_models.TraceStage) { st.Notes = "alias_error" })
		return
	}
	if len(ids) == 0 {
		r.stage("alias", func(st *api_models.TraceStage) { st.Notes = "no_alias" })
		return
	}

	r.decision.AliasUsed = true
	r.decision.AliasCandidatesFound = len(ids)
	candidates, err := s.catalog.Search(ctx, r.query, r.opts.Limit, nil, ids)
	if err != nil {
		s.logger.Warnf("Каталог по списку алиасов не ответил: %v", err)
		candidates = nil
	}
	// Алиас указывает на конкретные товары: если строгий фильтр каталога
	// их отсек, доверяем алиасу и поднимаем товары напрямую.
	if len(candidates) == 0 {
		candidates = s.fetchByIDs(ctx, ids, r.opts.Limit)
	}
	if len(candidates) > 0 {
		r.candidates = candidates
		r.decision.Decision = DecisionAliasOK
	}
	r.stage("alias", func(st *api_models.TraceStage) {
		st.QueryUsed = r.query
		st.ProductIDsFilterCount = len(ids)
	})
}

func (s *Service) fetchByIDs(ctx context.Context, ids []int64, limit int) []api_models.ProductCandidate {
	candidates := make([]api_models.ProductCandidate, 0, len(ids))
	for _, id := range ids {
		if len(candidates) >= limit {
			break
		}
		product, err := s.store.GetProductByID(ctx, id)
		if err != nil {
			continue
		}
		sku := ""
		if product.Sku.Valid {
			sku = product.Sku.String
		}
		candidate := api_models.ProductCandidate{
			ID:       product.ID,
			Sku:      sku,
			TitleRu:  product.TitleRu,
			Price:    product.Price,
			StockQty: float64(product.StockQty),
			Score:    1.0,
		}
		if product.CategoryID.Valid {
			categoryID := product.CategoryID.Int64
			candidate.CategoryID = &categoryID
		}
		candidates = append(candidates, candidate)
	}
	return candidates
}

func (s *Service) stageHistory(ctx context.Context, r *run, variants []string) {
	if r.orgID <= 0 {
		r.stage("history", func(st *api_models.TraceStage) { st.Notes = "no_org" })
		return
	}
	r.decision.HistoryUsed = true
	for _, variant := range variants {
		r.trace.HistoryAttempts = append(r.trace.HistoryAttempts, variant)
		candidates, err := s.history.Search(ctx, r.orgID, variant, r.opts.Limit)
		if err != nil {
			s.logger.Warnf("История заказов не ответила: %v", err)
			r.stage("history", func(st *api_models.TraceStage) {
				st.QueryUsed = variant
				st.Notes = "history_error"
			})
			return
		}
		if len(candidates) > 0 {
			r.candidates = candidates
			r.decision.Decision = DecisionHistoryOK
			r.decision.HistoryCandidatesFound = len(candidates)
			r.stage("history", func(st *api_models.TraceStage) { st.QueryUsed = variant })
			return
		}
	}
	r.stage("history", func(st *api_models.TraceStage) { st.Notes = "no_history_hit" })
}

func (s *Service) stageLocal(ctx context.Context, r *run, variants []string) {
	for _, variant := range variants {
		r.trace.LocalAttempts = append(r.trace.LocalAttempts, variant)
		candidates, err := s.catalog.Search(ctx, variant, r.opts.Limit, nil, nil)
		if err != nil {
			s.logger.Warnf("Каталог не ответил: %v", err)
			r.stage("local", func(st *api_models.TraceStage) {
				st.QueryUsed = variant
				st.Notes = "catalog_error"
			})
			return
		}
		if len(candidates) > 0 {
			r.candidates = candidates
			r.decision.Decision = DecisionLocalOK
			r.stage("local", func(st *api_models.TraceStage) { st.QueryUsed = variant })
			return
		}
	}
	r.stage("local", func(st *api_models.TraceStage) { st.Notes = "no_local_hit" })
}

func (s *Service) stageLLMRewrite(ctx context.Context, r *run) {
	rewritten, err := s.llm.Rewrite(ctx, r.query)
	if err != nil {
		s.noteLLMError(r, "llm_rewrite", err)
		return
	}
	r.decision.LLMCalled = true
	r.decision.LLMStage = "rewrite"
	if strings.EqualFold(strings.TrimSpace(rewritten), strings.TrimSpace(r.query)) {
		r.stage("llm_rewrite", func(st *api_models.TraceStage) { st.Notes = "rewrite_identity" })
		return
	}

	candidates, err := s.catalog.Search(ctx, rewritten, r.opts.Limit, nil, nil)
	if err != nil {
		s.logger.Warnf("Каталог по переписанному запросу не ответил: %v", err)
		candidates = nil
	}
	r.decision.NarrowedQuery = rewritten
	if len(candidates) > 0 {
		r.query = rewritten
		r.candidates = candidates
		r.decision.Decision = DecisionLLMRewriteOK
	}
	r.stage("llm_rewrite", func(st *api_models.TraceStage) { st.QueryUsed = rewritten })
}

func (s *Service) stageSynonymRetry(ctx context.Context, r *run) {
	aliasMap, err := s.synonyms.GetMap(ctx, r.orgID)
	if err != nil {
		s.logger.Warnf("Словарь синонимов для повтора недоступен: %v", err)
		r.stage("synonym_retry", func(st *api_models.TraceStage) { st.Notes = "alias_map_error" })
		return
	}

	retryQuery, applied := synonyms.ApplyAliases(r.query, aliasMap)
	if len(applied) == 0 {
		r.stage("synonym_retry", func(st *api_models.TraceStage) { st.Notes = "nothing_to_replace" })
		return
	}

	r.decision.SynonymRetryAttempted = true
	r.decision.QueryRetry = retryQuery
	for src, dst := range applied {
		if r.decision.SynonymMap == nil {
			r.decision.SynonymMap = map[string]string{}
		}
		r.decision.SynonymMap[src] = dst
	}

	candidates, err := s.catalog.Search(ctx, retryQuery, r.opts.Limit, nil, nil)
	if err != nil {
		s.logger.Warnf("Каталог по синонимам не ответил: %v", err)
		candidates = nil
	}
	r.decision.RetryResultsCount = len(candidates)
	if len(candidates) > 0 {
		r.query = retryQuery
		r.candidates = candidates
		r.decision.Decision = DecisionLocalOK
	}
	r.stage("synonym_retry", func(st *api_models.TraceStage) { st.QueryUsed = retryQuery })
}

// clarificationGate возвращает true, когда пайплайн надо остановить
// и переспросить клиента.
func (s *Service) clarificationGate(ctx context.Context, r *run) bool {
	var clarification *api_models.Clarification

	switch {
	case len(r.candidates) == 0:
		var err error
		clarification, err = s.clarify.HeadTokenClarification(ctx, r.orgID, r.query, r.opts.ClarifyOffset)
		if err != nil {
			s.logger.Warnf("Подсказки уточнения не построились: %v", err)
			clarification = nil
		}
	case len(r.candidates) > maxClarifyCandidates:
		clarification = s.clarify.FacetClarification(r.candidates, r.opts.ClarifyOffset)
	}

	if clarification == nil || len(clarification.Options) == 0 {
		return false
	}

	r.decision.Decision = DecisionClarification
	r.decision.Clarification = clarification
	r.trace.Clarify = clarification
	r.stage("clarification", func(st *api_models.TraceStage) {
		st.QueryUsed = r.query
		st.Notes = clarification.Reason
	})
	return true
}

func (s *Service) stageLLMNarrow(ctx context.Context, r *run) {
	if !s.llm.Enabled() {
		r.stage("llm_normalize", func(st *api_models.TraceStage) { st.Notes = "llm_disabled" })
		return
	}
	alternatives, err := s.llm.SuggestQueries(ctx, r.query)
	if err != nil {
		s.noteLLMError(r, "llm_normalize", err)
	} else {
		r.decision.LLMCalled = true
		r.decision.LLMStage = "normalize"
		r.decision.Alternatives = alternatives
		for _, alternative := range alternatives {
			candidates, err := s.catalog.Search(ctx, alternative, r.opts.Limit, nil, nil)
			if err != nil {
				s.logger.Warnf("Каталог по альтернативе не ответил: %v", err)
				continue
			}
			if len(candidates) > 0 {
				r.candidates = candidates
				r.query = alternative
				r.decision.Decision = DecisionLLMOK
				r.decision.UsedAlternative = alternative
				r.stage("llm_normalize", func(st *api_models.TraceStage) { st.QueryUsed = alternative })
				return
			}
		}
		r.stage("llm_normalize", func(st *api_models.TraceStage) { st.Notes = "no_alternative_hit" })
	}

	manifest, err := s.llm.BuildManifest(ctx)
	if err != nil {
		s.logger.Warnf("Манифест категорий не построился: %v", err)
		r.stage("llm_narrow", func(st *api_models.TraceStage) { st.Notes = "manifest_error" })
		return
	}
	categoryIDs, confidence, err := s.llm.NarrowCategories(ctx, r.query, manifest)
	if err != nil {
		s.noteLLMError(r, "llm_narrow", err)
		return
	}
	r.decision.LLMCalled = true
	r.decision.LLMStage = "narrow"
	r.decision.LLMNarrowConfidence = &confidence
	if len(categoryIDs) == 0 {
		r.decision.LLMNarrowReason = "parse_failed"
		r.stage("llm_narrow", func(st *api_models.TraceStage) { st.Notes = "no_categories" })
		return
	}

	r.decision.CategoryIDs = categoryIDs
	candidates, err := s.catalog.Search(ctx, r.query, r.opts.Limit, categoryIDs, nil)
	if err != nil {
		s.logger.Warnf("Каталог по категориям не ответил: %v", err)
		candidates = nil
	}
	if len(candidates) > 0 {
		r.candidates = candidates
		r.decision.Decision = DecisionLLMNarrowOK
	}
	r.stage("llm_narrow", func(st *api_models.TraceStage) {
		st.QueryUsed = r.query
		st.CategoryIDsFilter = categoryIDs
	})
}

func (s *Service) stageRerank(ctx context.Context, r *run) {
	if len(r.candidates) < 2 || len(r.candidates) > maxRerankCandidates {
		return
	}
	ranked, err := s.llm.RerankProducts(ctx, r.query, r.candidates)
	if err != nil {
		s.noteLLMError(r, "rerank", err)
		return
	}
	r.decision.LLMCalled = true
	r.decision.LLMStage = "rerank"
	if len(ranked) == 0 {
		r.stage("rerank", func(st *api_models.TraceStage) { st.Notes = "rerank_empty" })
		return
	}

	r.decision.RerankUsed = true
	topScore := ranked[0].Score
	r.decision.RerankTopScore = &topScore
	byID := make(map[int64]api_models.ProductCandidate, len(r.candidates))
	for _, c := range r.candidates {
		byID[c.ID] = c
	}
	reordered := make([]api_models.ProductCandidate, 0, len(r.candidates))
	seen := map[int64]bool{}
	for _, item := range ranked {
		r.decision.RerankBestIDs = append(r.decision.RerankBestIDs, item.ProductID)
		candidate := byID[item.ProductID]
		candidate.Score = item.Score
		reordered = append(reordered, candidate)
		seen[item.ProductID] = true
	}
	for _, c := range r.candidates {
		if !seen[c.ID] {
			reordered = append(reordered, c)
		}
	}
	r.candidates = reordered
	r.stage("rerank", func(st *api_models.TraceStage) { st.QueryUsed = r.query })
}

func (s *Service) noteLLMError(r *run, stageName string, err error) {
	notes := "llm_error"
	switch {
	case errors.Is(err, llm.ErrDisabled):
		notes = "llm_disabled"
	case errors.Is(err, context.DeadlineExceeded):
		notes = "llm_timeout"
	}
	if notes != "llm_disabled" {
		s.logger.Warnf("Этап %s: %v", stageName, err)
	}
	r.stage(stageName, func(st *api_models.TraceStage) { st.Notes = notes })
}

// finish дотягивает категории на кандидатов и собирает итоговый ответ.
func (s *Service) finish(ctx context.Context, r *run) api_models.PipelineResult {
	s.attachCategories(ctx, r)

	if len(r.candidates) > r.opts.Limit {
		r.candidates = r.candidates[:r.opts.Limit]
	}
	r.decision.CandidatesCountFinal = len(r.candidates)
	if r.decision.SynonymMap == nil {
		r.decision.SynonymMap = map[string]string{}
	}
	if r.decision.CategoryIDs == nil {
		r.decision.CategoryIDs = []int64{}
	}
	return api_models.PipelineResult{
		Results:  r.candidates,
		Decision: r.decision,
		Trace:    r.trace,
	}
}

func (s *Service) attachCategories(ctx context.Context, r *run) {
	var missing []int64
	for _, c := range r.candidates {
		if c.CategoryID == nil {
			missing = append(missing, c.ID)
		}
	}
	if len(missing) == 0 {
		return
	}
	rows, err := s.store.ListProductCategories(ctx, missing)
	if err != nil {
		s.logger.Warnf("Категории кандидатов не загрузились: %v", err)
		return
	}
	byID := make(map[int64]int64, len(rows))
	for _, row := range rows {
		if row.CategoryID.Valid {
			byID[row.ID] = row.CategoryID.Int64
		}
	}
	for i := range r.candidates {
		if r.candidates[i].CategoryID != nil {
			continue
		}
		if categoryID, ok := byID[r.candidates[i].ID]; ok {
			id := categoryID
			r.candidates[i].CategoryID = &id
		}
	}
}
