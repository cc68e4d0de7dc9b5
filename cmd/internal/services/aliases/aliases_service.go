package aliases

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	db "github.com/partner-m/assist-go/cmd/internal/db/sqlc"
	"github.com/partner-m/assist-go/cmd/pkg/logging"
)

const (
	maxAliasLen    = 255
	maxAliasHits   = 5
	minLearnRunes  = 4
	minLearnDigits = 2
)

var (
	// \b в RE2 не дружит с кириллицей: границу единицы проверяем явным классом.
	qtyTailRe   = regexp.MustCompile(`\d+(?:[.,]\d+)?\s*(?:штук|шт|упак|уп|кор|рулон|рул|компл|кг|м)(?:[^a-zа-яё0-9]|$)`)
	punctRe     = regexp.MustCompile(`[!?.:;"'()\[\]]+`)
	letterRe    = regexp.MustCompile(`[a-zа-яё]`)
	digitRunRe  = regexp.MustCompile(`\d+`)
	aliasSpaces = regexp.MustCompile(`\s+`)
)

// stopPhrases — реплики вежливости, которые нельзя выучить как алиас.
var stopPhrases = map[string]bool{
	"ок": true, "спасибо": true, "да": true, "нет": true, "хорошо": true, "ага": true,
}

// Service — память организации: какие формулировки клиент уже
// подтверждал и к каким товарам они вели.
type Service struct {
	store  db.Store
	logger *logging.Logger
}

func NewService(store db.Store, logger *logging.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// NormalizeAlias приводит формулировку к ключу поиска: срезает
// количество с единицей, схлопывает пробелы, обрезает до 255 символов.
func NormalizeAlias(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	normalized = strings.ReplaceAll(normalized, "ё", "е")
	normalized = qtyTailRe.ReplaceAllString(normalized, " ")
	normalized = aliasSpaces.ReplaceAllString(normalized, " ")
	normalized = strings.TrimSpace(normalized)
	runes := []rune(normalized)
	if len(runes) > maxAliasLen {
		normalized = string(runes[:maxAliasLen])
	}
	return normalized
}

// normalizeForLearning — более строгая нормализация для автообучения:
// дополнительно выбрасывается пунктуация, дефис становится пробелом.
func normalizeForLearning(text string) string {
	normalized := NormalizeAlias(text)
	normalized = punctRe.ReplaceAllString(normalized, " ")
	normalized = strings.ReplaceAll(normalized, "-", " ")
	normalized = aliasSpaces.ReplaceAllString(normalized, " ")
	return strings.TrimSpace(normalized)
}

// Learnable проверяет, годится ли фраза для автообучения.
// Отклоняются реплики вежливости, слишком короткие фразы и строки
// без букв (кроме составных числовых кодов вида "8x30 933").
func Learnable(text string) (string, bool) {
	normalized := normalizeForLearning(text)
	if normalized == "" || stopPhrases[normalized] {
		return "", false
	}
	if len([]rune(normalized)) < minLearnRunes {
		return "", false
	}
	if !letterRe.MatchString(normalized) {
		if len(digitRunRe.FindAllString(normalized, -1)) < minLearnDigits {
			return "", false
		}
	}
	return normalized, true
}

// TruncateText обрезает исходную формулировку до длины колонки alias_text.
func TruncateText(text string) string {
	trimmed := strings.TrimSpace(text)
	runes := []rune(trimmed)
	if len(runes) > maxAliasLen {
		return string(runes[:maxAliasLen])
	}
	return trimmed
}

// FindCandidates ищет товары по алиасу: сперва точное совпадение
// нормализованной формы, затем вхождение подстроки. Подстрочный
// фолбэк отвечает за случаи "добавь еще тот самый поролон".
func (s *Service) FindCandidates(ctx context.Context, orgID int64, phrase string) ([]int64, error) {
	normalized := NormalizeAlias(phrase)
	if normalized == "" || orgID <= 0 {
		return nil, nil
	}

	ids, err := s.store.FindOrgAliasProductIDs(ctx, db.FindOrgAliasProductIDsParams{
		OrgID:           orgID,
		NormalizedAlias: normalized,
		Limit:           maxAliasHits,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка БД: %w", err)
	}
	if len(ids) > 0 {
		return ids, nil
	}

	ids, err = s.store.FindOrgAliasProductIDsLike(ctx, db.FindOrgAliasProductIDsLikeParams{
		OrgID:   orgID,
		Pattern: "%" + normalized + "%",
		Limit:   maxAliasHits,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка БД: %w", err)
	}
	return ids, nil
}

// Confirm фиксирует подтвержденную связку "формулировка -> товар".
// Повтор увеличивает вес, двигая товар вверх в будущих выдачах.
func (s *Service) Confirm(ctx context.Context, orgID, productID int64, phrase string) error {
	normalized := NormalizeAlias(phrase)
	if normalized == "" || orgID <= 0 || productID <= 0 {
		return nil
	}
	_, err := s.store.UpsertOrgAlias(ctx, db.UpsertOrgAliasParams{
		OrgID:           orgID,
		AliasText:       TruncateText(phrase),
		NormalizedAlias: normalized,
		ProductID:       productID,
	})
	if err != nil {
		return fmt.Errorf("ошибка БД: %w", err)
	}
	return nil
}

// Autolearn — автоматическая версия Confirm с более строгим фильтром
// на качество фразы. Мусорная фраза молча пропускается.
func (s *Service) Autolearn(ctx context.Context, orgID, productID int64, phrase string) error {
	normalized, ok := Learnable(phrase)
	if !ok {
		s.logger.Infof("Автообучение пропущено, фраза не годится: %q", phrase)
		return nil
	}
	_, err := s.store.UpsertOrgAlias(ctx, db.UpsertOrgAliasParams{
		OrgID:           orgID,
		AliasText:       TruncateText(phrase),
		NormalizedAlias: normalized,
		ProductID:       productID,
	})
	if err != nil {
		return fmt.Errorf("ошибка БД: %w", err)
	}
	return nil
}
