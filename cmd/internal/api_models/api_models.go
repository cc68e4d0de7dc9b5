package api_models

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/partner-m/assist-go/cmd/internal/reqhandler"
)

// ProductCandidate — один товар в выдаче любого поискового этапа.
type ProductCandidate struct {
	ID                int64   `json:"id"`
	Sku               string  `json:"sku"`
	TitleRu           string  `json:"title_ru"`
	Price             float64 `json:"price"`
	StockQty          float64 `json:"stock_qty"`
	Score             float64 `json:"score"`
	AttributeConflict bool    `json:"attribute_conflict,omitempty"`
	CategoryID        *int64  `json:"category_id,omitempty"`
}

// ClarifyApply — что сделать с запросом при выборе варианта уточнения.
type ClarifyApply struct {
	AppendTokens        []string `json:"append_tokens,omitempty"`
	RestrictCategoryIDs []int64  `json:"restrict_category_ids,omitempty"`
}

// ClarifyOption — одна кнопка уточнения.
type ClarifyOption struct {
	ID    string       `json:"id"`
	Label string       `json:"label"`
	Apply ClarifyApply `json:"apply"`
}

// Clarification — страница вариантов уточнения с навигацией.
type Clarification struct {
	Question   string          `json:"question"`
	Reason     string          `json:"reason"`
	Options    []ClarifyOption `json:"options"`
	Offset     int             `json:"offset"`
	NextOffset *int            `json:"next_offset"`
	PrevOffset *int            `json:"prev_offset"`
	Total      int             `json:"total"`
}

// TraceStage — запись об одном этапе пайплайна.
type TraceStage struct {
	Name                  string   `json:"name"`
	QueryUsed             string   `json:"query_used,omitempty"`
	TokensUsed            []string `json:"tokens_used,omitempty"`
	NumbersUsed           []string `json:"numbers_used,omitempty"`
	ProductIDsFilterCount int      `json:"product_ids_filter_count,omitempty"`
	CategoryIDsFilter     []int64  `json:"category_ids_filter,omitempty"`
	CandidatesBefore      int      `json:"candidates_before"`
	CandidatesAfter       int      `json:"candidates_after"`
	Top5Titles            []string `json:"top5_titles,omitempty"`
	Notes                 string   `json:"notes,omitempty"`
}

// Trace — полный журнал решения по одному запросу.
type Trace struct {
	Input           string         `json:"input"`
	Stages          []TraceStage   `json:"stages"`
	HistoryAttempts []string       `json:"history_attempts,omitempty"`
	LocalAttempts   []string       `json:"local_attempts,omitempty"`
	Clarify         *Clarification `json:"clarify,omitempty"`
}

// Decision — терминальный итог пайплайна со всеми промежуточными фактами.
type Decision struct {
	Decision               string            `json:"decision"`
	MultiItem              bool              `json:"multi_item,omitempty"`
	ParsedItems            []reqhandler.Item `json:"parsed_items"`
	OriginalQuery          string            `json:"original_query"`
	Alternatives           []string          `json:"alternatives"`
	UsedAlternative        string            `json:"used_alternative,omitempty"`
	CandidatesCountFinal   int               `json:"candidates_count_final"`
	HistoryOrgID           int64             `json:"history_org_id,omitempty"`
	HistoryUsed            bool              `json:"history_used"`
	HistoryCandidatesFound int               `json:"history_candidates_found"`
	AliasUsed              bool              `json:"alias_used"`
	AliasCandidatesFound   int               `json:"alias_candidates_found"`
	CategoryIDs            []int64           `json:"category_ids"`
	LLMNarrowConfidence    *float64          `json:"llm_narrow_confidence,omitempty"`
	LLMNarrowReason        string            `json:"llm_narrow_reason,omitempty"`
	NarrowedQuery          string            `json:"narrowed_query,omitempty"`
	RerankUsed             bool              `json:"rerank_used"`
	RerankBestIDs          []int64           `json:"rerank_best_ids,omitempty"`
	RerankTopScore         *float64          `json:"rerank_top_score,omitempty"`
	Clarification          *Clarification    `json:"clarification,omitempty"`
	SynonymRetryAttempted  bool              `json:"synonym_retry_attempted"`
	SynonymMap             map[string]string `json:"synonym_map"`
	QueryRetry             string            `json:"query_retry"`
	RetryResultsCount      int               `json:"retry_results_count"`
	LLMCalled              bool              `json:"llm_called"`
	LLMStage               string            `json:"llm_stage,omitempty"`
}

// PipelineItemResult — итог по одной позиции мультизаказа.
type PipelineItemResult struct {
	Item     reqhandler.Item    `json:"item"`
	Results  []ProductCandidate `json:"results"`
	Decision Decision           `json:"decision"`
}

// PipelineResult — ответ run_search_pipeline. Для мультизаказа results
// дублирует выдачу первой позиции, позиции целиком лежат в items.
type PipelineResult struct {
	Results  []ProductCandidate   `json:"results"`
	Decision Decision             `json:"decision"`
	Trace    Trace                `json:"trace"`
	Items    []PipelineItemResult `json:"items,omitempty"`
}

// SearchPipelineRequest — тело POST /api/v1/search/pipeline.
type SearchPipelineRequest struct {
	OrgID            int64  `json:"org_id"`
	UserID           int64  `json:"user_id"`
	Text             string `json:"text" binding:"required"`
	Limit            int    `json:"limit"`
	EnableLLMNarrow  *bool  `json:"enable_llm_narrow"`
	EnableLLMRewrite *bool  `json:"enable_llm_rewrite"`
	EnableRerank     *bool  `json:"enable_rerank"`
	ClarifyOffset    int    `json:"clarify_offset"`
}

// RouteMessageRequest — тело POST /api/v1/route.
type RouteMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// ConfirmAliasRequest — тело POST /api/v1/aliases/confirm.
type ConfirmAliasRequest struct {
	OrgID     int64  `json:"org_id" binding:"required"`
	ProductID int64  `json:"product_id" binding:"required"`
	AliasText string `json:"alias_text" binding:"required"`
}

// OneCCategory — категория из выгрузки 1С.
type OneCCategory struct {
	ID       int64  `json:"id"`
	TitleRu  string `json:"title_ru"`
	ParentID *int64 `json:"parent_id"`
}

// FlexFloat — число из выгрузки 1С. Принимает и JSON-число, и строку
// вида "1 234,5": часть конфигураций шлёт суммы строками с пробелами
// и запятой. Нечисловая строка считается нулём.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.NewReplacer(" ", "", "\u00a0", "", ",", ".").Replace(raw)
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = FlexFloat(value)
		return nil
	}
	var value float64
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*f = FlexFloat(value)
	return nil
}

// OneCProduct — товар из выгрузки 1С. Поля id/title подстраховывают
// плоский формат, где sku и title_ru могут отсутствовать.
type OneCProduct struct {
	ID          string     `json:"id"`
	Sku         string     `json:"sku"`
	TitleRu     string     `json:"title_ru"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CategoryID  *int64     `json:"category_id"`
	Price       *FlexFloat `json:"price"`
	StockQty    *FlexFloat `json:"stock_qty"`
	Unit        string     `json:"unit"`
}

// OneCCatalogPayload принимает оба исторических формата выгрузки:
// плоский {items:[...]} и структурный {categories, products, price_type}.
type OneCCatalogPayload struct {
	Items      []OneCProduct  `json:"items"`
	Categories []OneCCategory `json:"categories"`
	Products   []OneCProduct  `json:"products"`
	PriceType  string         `json:"price_type"`
}

// OneCOrderItem — строка заказа из 1С. Товар ищется по product_id,
// затем по sku, затем по названию.
type OneCOrderItem struct {
	Sku       string     `json:"sku"`
	Title     string     `json:"title"`
	ProductID int64      `json:"product_id"`
	Qty       *FlexFloat `json:"qty"`
	Unit      string     `json:"unit"`
}

// OneCOrder — заказ из 1С для пополнения истории организации.
type OneCOrder struct {
	OrgExternalID string          `json:"org_external_id"`
	OrgName       string          `json:"org_name"`
	OrderedAt     string          `json:"ordered_at"`
	Items         []OneCOrderItem `json:"items"`
}

// OneCOrdersPayload — тело POST /integrations/1c/orders.
type OneCOrdersPayload struct {
	Orders []OneCOrder `json:"orders"`
}

// OneCMember — связка организация-сотрудник из 1С.
type OneCMember struct {
	OrgExternalID string `json:"org_external_id"`
	OrgName       string `json:"org_name"`
	Phone         string `json:"phone"`
	Fio           string `json:"fio"`
	Role          string `json:"role"`
	Status        string `json:"status"`
}

// OneCMembersPayload — тело POST /integrations/1c/orgs/members.
type OneCMembersPayload struct {
	Members []OneCMember `json:"members"`
}

// IngestReport — сводка обработки выгрузки 1С.
type IngestReport struct {
	Processed int      `json:"processed"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}
