package onec

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/partner-m/assist-go/cmd/internal/api_models"
	"github.com/partner-m/assist-go/cmd/internal/config"
	db "github.com/partner-m/assist-go/cmd/internal/db/sqlc"
	"github.com/partner-m/assist-go/cmd/internal/services/apierrors"
	"github.com/partner-m/assist-go/cmd/internal/services/llm"
	"github.com/partner-m/assist-go/cmd/internal/util"
	"github.com/partner-m/assist-go/cmd/pkg/logging"
)

const (
	maxSkuLen       = 64
	maxTitleLen     = 255
	maxReportErrors = 20

	syncBackoffStart = time.Second
	syncBackoffMax   = 10 * time.Second
	syncHTTPTimeout  = 60 * time.Second
)

// Service принимает выгрузки 1С (каталог, заказы, участники организаций)
// и ведёт фоновую синхронизацию каталога.
type Service struct {
	cfg    config.OneCConfig
	store  db.Store
	llm    *llm.Service
	logger *logging.Logger
	client *http.Client
}

func NewService(cfg config.OneCConfig, store db.Store, llmService *llm.Service, logger *logging.Logger) *Service {
	return &Service{
		cfg:    cfg,
		store:  store,
		llm:    llmService,
		logger: logger,
		client: &http.Client{Timeout: syncHTTPTimeout},
	}
}

// NormalizeSku чистит артикул 1С. Пустой артикул заменяется запасным
// значением, не влезающий в колонку — стабильным SHA-1 хешем.
func NormalizeSku(sku, fallback string) string {
	s := strings.TrimSpace(sku)
	if s == "" {
		s = strings.TrimSpace(fallback)
	}
	if s == "" {
		return ""
	}
	if len([]rune(s)) > maxSkuLen {
		return util.GetSHA1Hash(s)
	}
	return s
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func productTitle(product api_models.OneCProduct) string {
	title := strings.TrimSpace(product.TitleRu)
	if title == "" {
		title = strings.TrimSpace(product.Title)
	}
	return truncateRunes(title, maxTitleLen)
}

func floatOrZero(f *api_models.FlexFloat) float64 {
	if f == nil {
		return 0
	}
	return float64(*f)
}

func appendReportError(report *api_models.IngestReport, msg string) {
	if len(report.Errors) < maxReportErrors {
		report.Errors = append(report.Errors, msg)
	}
}

// IngestCatalog загружает каталог из 1С: сперва категории, потом товары,
// всё в одной транзакции. После успешной загрузки кеш манифеста
// категорий сбрасывается.
func (s *Service) IngestCatalog(ctx context.Context, payload api_models.OneCCatalogPayload) (api_models.IngestReport, error) {
	var report api_models.IngestReport

	categories := payload.Categories
	products := payload.Products
	if len(categories) == 0 && len(products) == 0 {
		products = payload.Items
	}
	if len(categories) == 0 && len(products) == 0 {
		return report, apierrors.NewValidationError("пустая выгрузка каталога")
	}

	err := s.store.ExecTx(ctx, func(q *db.Queries) error {
		for _, category := range categories {
			title := truncateRunes(strings.TrimSpace(category.TitleRu), maxTitleLen)
			if category.ID <= 0 || title == "" {
				report.Skipped++
				appendReportError(&report, fmt.Sprintf("категория без id или названия: id=%d", category.ID))
				continue
			}
			if _, err := q.UpsertCategory(ctx, db.UpsertCategoryParams{
				ID:       category.ID,
				ParentID: util.NullableInt64(category.ParentID),
				TitleRu:  title,
			}); err != nil {
				return fmt.Errorf("категория %d: %w", category.ID, err)
			}
		}

		for _, product := range products {
			title := productTitle(product)
			sku := NormalizeSku(product.Sku, firstNonEmpty(product.ID, title))
			if title == "" || sku == "" {
				report.Skipped++
				appendReportError(&report, "товар без названия или артикула")
				continue
			}
			if _, err := q.UpsertProductBySku(ctx, db.UpsertProductBySkuParams{
				Sku:         sql.NullString{String: sku, Valid: true},
				TitleRu:     title,
				Description: util.NullableString(util.NilIfEmpty(strings.TrimSpace(product.Description))),
				StockQty:    int32(floatOrZero(product.StockQty)),
				Price:       floatOrZero(product.Price),
				CategoryID:  util.NullableInt64(product.CategoryID),
			}); err != nil {
				return fmt.Errorf("товар %q: %w", sku, err)
			}
			report.Processed++
		}
		return nil
	})
	if err != nil {
		return report, err
	}

	if s.llm != nil {
		s.llm.InvalidateManifest(ctx)
	}
	return report, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// IngestOrders пополняет историю заказов организаций. Заказ без
// распознанной организации и строка без найденного товара пропускаются,
// остальное накапливается в org_product_stats.
func (s *Service) IngestOrders(ctx context.Context, payload api_models.OneCOrdersPayload) (api_models.IngestReport, error) {
	var report api_models.IngestReport
	if len(payload.Orders) == 0 {
		return report, apierrors.NewValidationError("пустая выгрузка заказов")
	}

	err := s.store.ExecTx(ctx, func(q *db.Queries) error {
		for _, order := range payload.Orders {
			org, err := resolveOrganization(ctx, q, order.OrgExternalID, order.OrgName)
			if err != nil {
				return err
			}
			if org == nil {
				report.Skipped += len(order.Items)
				appendReportError(&report, "заказ без организации")
				continue
			}

			orderedAt := parseOrderedAt(order.OrderedAt)
			for _, item := range order.Items {
				product, found, err := findOrderProduct(ctx, q, item)
				if err != nil {
					return err
				}
				if !found {
					report.Skipped++
					appendReportError(&report, fmt.Sprintf("товар не найден: sku=%q title=%q", item.Sku, item.Title))
					continue
				}

				qty := floatOrZero(item.Qty)
				if err := q.UpsertOrgProductStats(ctx, db.UpsertOrgProductStatsParams{
					OrgID:       org.ID,
					ProductID:   product.ID,
					QtySum:      qty,
					LastOrderAt: sql.NullTime{Time: orderedAt, Valid: true},
					LastQty:     sql.NullFloat64{Float64: qty, Valid: item.Qty != nil},
					LastUnit:    util.NullableString(util.NilIfEmpty(strings.TrimSpace(item.Unit))),
				}); err != nil {
					return fmt.Errorf("статистика товара %d: %w", product.ID, err)
				}
				report.Processed++
			}
		}
		return nil
	})
	return report, err
}

// IngestMembers привязывает сотрудников к организациям. Новые
// пользователи создаются с ролью client, участники без явной роли
// получают member/active.
func (s *Service) IngestMembers(ctx context.Context, payload api_models.OneCMembersPayload) (api_models.IngestReport, error) {
	var report api_models.IngestReport
	if len(payload.Members) == 0 {
		return report, apierrors.NewValidationError("пустая выгрузка участников")
	}

	err := s.store.ExecTx(ctx, func(q *db.Queries) error {
		for _, member := range payload.Members {
			org, err := resolveOrganization(ctx, q, member.OrgExternalID, member.OrgName)
			if err != nil {
				return err
			}
			if org == nil {
				report.Skipped++
				appendReportError(&report, "участник без организации")
				continue
			}

			phone := strings.TrimSpace(member.Phone)
			if phone == "" {
				report.Skipped++
				appendReportError(&report, fmt.Sprintf("участник без телефона: %q", member.Fio))
				continue
			}

			user, err := q.UpsertUserByPhone(ctx, db.UpsertUserByPhoneParams{
				Fio:   strings.TrimSpace(member.Fio),
				Phone: phone,
				Role:  "client",
			})
			if err != nil {
				return fmt.Errorf("пользователь %q: %w", phone, err)
			}

			roleInOrg := strings.TrimSpace(member.Role)
			if roleInOrg == "" {
				roleInOrg = "member"
			}
			status := strings.TrimSpace(member.Status)
			if status == "" {
				status = "active"
			}
			if err := q.UpsertOrgMember(ctx, db.UpsertOrgMemberParams{
				OrgID:     org.ID,
				UserID:    user.ID,
				RoleInOrg: roleInOrg,
				Status:    status,
			}); err != nil {
				return fmt.Errorf("участник org=%d user=%d: %w", org.ID, user.ID, err)
			}
			report.Processed++
		}
		return nil
	})
	return report, err
}

// resolveOrganization находит организацию по external_id, затем по
// имени; отсутствующая создаётся. nil без ошибки — организацию
// не из чего определить.
func resolveOrganization(ctx context.Context, q *db.Queries, externalID, name string) (*db.Organization, error) {
	externalID = strings.TrimSpace(externalID)
	name = strings.TrimSpace(name)
	if externalID == "" && name == "" {
		return nil, nil
	}

	if externalID != "" {
		orgName := name
		if orgName == "" {
			orgName = externalID
		}
		org, err := q.UpsertOrganizationByExternalID(ctx, db.UpsertOrganizationByExternalIDParams{
			Name:       orgName,
			ExternalID: sql.NullString{String: externalID, Valid: true},
		})
		if err != nil {
			return nil, fmt.Errorf("организация %q: %w", externalID, err)
		}
		return &org, nil
	}

	org, err := q.GetOrganizationByName(ctx, name)
	if err == nil {
		return &org, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("организация %q: %w", name, err)
	}
	created, err := q.UpsertOrganizationByExternalID(ctx, db.UpsertOrganizationByExternalIDParams{Name: name})
	if err != nil {
		return nil, fmt.Errorf("организация %q: %w", name, err)
	}
	return &created, nil
}

// findOrderProduct ищет товар строки заказа: по product_id, по
// артикулу, в конце по вхождению названия.
func findOrderProduct(ctx context.Context, q *db.Queries, item api_models.OneCOrderItem) (db.Product, bool, error) {
	if item.ProductID > 0 {
		product, err := q.GetProductByID(ctx, item.ProductID)
		if err == nil {
			return product, true, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return db.Product{}, false, err
		}
	}

	if sku := NormalizeSku(item.Sku, ""); sku != "" {
		product, err := q.GetProductBySku(ctx, sql.NullString{String: sku, Valid: true})
		if err == nil {
			return product, true, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return db.Product{}, false, err
		}
	}

	if title := strings.TrimSpace(item.Title); title != "" {
		rows, err := q.SearchCatalogPrefetch(ctx, db.SearchCatalogPrefetchParams{
			Patterns:    []string{"%" + title + "%"},
			CategoryIds: []int64{},
			ProductIds:  []int64{},
			Limit:       1,
		})
		if err != nil {
			return db.Product{}, false, err
		}
		if len(rows) > 0 {
			return rows[0], true, nil
		}
	}
	return db.Product{}, false, nil
}

var orderedAtLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

func parseOrderedAt(raw string) time.Time {
	trimmed := strings.TrimSpace(raw)
	for _, layout := range orderedAtLayouts {
		if ts, err := time.Parse(layout, trimmed); err == nil {
			return ts
		}
	}
	return time.Now()
}

// RunCatalogSync периодически забирает каталог из 1С. После ошибки
// интервал сокращается до экспоненциального бэкоффа: на старте
// 1С часто ещё недоступна.
func (s *Service) RunCatalogSync(ctx context.Context) {
	if !s.cfg.Enabled || s.cfg.BaseURL == "" {
		return
	}

	interval := time.Duration(s.cfg.SyncIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	backoff := syncBackoffStart
	for {
		wait := interval
		if err := s.SyncCatalogOnce(ctx); err != nil {
			s.logger.Warnf("синхронизация каталога 1С: %v", err)
			wait = backoff
			backoff *= 2
			if backoff > syncBackoffMax {
				backoff = syncBackoffMax
			}
		} else {
			backoff = syncBackoffStart
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// SyncCatalogOnce забирает каталог по HTTP и загружает его в базу.
func (s *Service) SyncCatalogOnce(ctx context.Context) error {
	reqURL := strings.TrimRight(s.cfg.BaseURL, "/") + "/catalog"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	if s.cfg.Username != "" {
		req.SetBasicAuth(s.cfg.Username, s.cfg.Password)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("запрос каталога: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("каталог 1С: статус %d", resp.StatusCode)
	}

	var payload api_models.OneCCatalogPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("разбор каталога: %w", err)
	}

	report, err := s.IngestCatalog(ctx, payload)
	if err != nil {
		return err
	}
	s.logger.Infof("каталог 1С синхронизирован: обработано %d, пропущено %d", report.Processed, report.Skipped)
	return nil
}
