package pipeline

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/partner-m/assist-go/cmd/internal/api_models"
	db "github.com/partner-m/assist-go/cmd/internal/db/sqlc"
	"github.com/partner-m/assist-go/cmd/internal/services/aliases"
	"github.com/partner-m/assist-go/cmd/pkg/logging"
)

// Обучение запускает диалоговый слой по итогу пайплайна,
// сам пайплайн в базу не пишет.

const autolearnRerankThreshold = 0.85

// ShouldAutolearn — можно ли автоматически выучить алиас: кандидат
// ровно один либо реранк уверен в лучшем.
func ShouldAutolearn(decision api_models.Decision) bool {
	if decision.CandidatesCountFinal == 1 {
		return true
	}
	return decision.RerankTopScore != nil && *decision.RerankTopScore >= autolearnRerankThreshold
}

// Learner пишет автоалиас и строку журнала поиска одной транзакцией:
// либо фиксируются оба факта, либо ни одного.
type Learner struct {
	store  db.Store
	logger *logging.Logger
}

func NewLearner(store db.Store, logger *logging.Logger) *Learner {
	return &Learner{store: store, logger: logger}
}

// Apply применяет итог пайплайна: журнальная запись пишется всегда,
// алиас — только когда итог надежный и фраза годится для обучения.
func (l *Learner) Apply(ctx context.Context, userID int64, result api_models.PipelineResult) error {
	decision := result.Decision

	parsed, err := json.Marshal(decision)
	if err != nil {
		return fmt.Errorf("сериализация решения: %w", err)
	}
	selected, err := json.Marshal(result.Results)
	if err != nil {
		return fmt.Errorf("сериализация кандидатов: %w", err)
	}

	logParams := db.CreateSearchLogParams{
		RawText:      decision.OriginalQuery,
		ParsedJson:   sql.NullString{String: string(parsed), Valid: true},
		SelectedJson: sql.NullString{String: string(selected), Valid: true},
	}
	if userID > 0 {
		logParams.UserID = sql.NullInt64{Int64: userID, Valid: true}
	}
	if decision.RerankTopScore != nil {
		logParams.Confidence = sql.NullFloat64{Float64: *decision.RerankTopScore, Valid: true}
	}

	var aliasParams *db.UpsertOrgAliasParams
	if ShouldAutolearn(decision) && decision.HistoryOrgID > 0 && len(result.Results) > 0 {
		if normalized, ok := aliases.Learnable(decision.OriginalQuery); ok {
			aliasParams = &db.UpsertOrgAliasParams{
				OrgID:           decision.HistoryOrgID,
				AliasText:       aliases.TruncateText(decision.OriginalQuery),
				NormalizedAlias: normalized,
				ProductID:       result.Results[0].ID,
			}
		} else {
			l.logger.Infof("Автообучение пропущено, фраза не годится: %q", decision.OriginalQuery)
		}
	}

	return l.store.ExecTx(ctx, func(q *db.Queries) error {
		if _, err := q.CreateSearchLog(ctx, logParams); err != nil {
			return fmt.Errorf("журнал поиска: %w", err)
		}
		if aliasParams != nil {
			if _, err := q.UpsertOrgAlias(ctx, *aliasParams); err != nil {
				return fmt.Errorf("автоалиас: %w", err)
			}
		}
		return nil
	})
}
