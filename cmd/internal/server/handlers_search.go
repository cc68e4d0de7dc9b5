package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/partner-m/assist-go/cmd/internal/api_models"
	"github.com/partner-m/assist-go/cmd/internal/reqhandler"
	"github.com/partner-m/assist-go/cmd/internal/services/pipeline"
)

// validationErrorResponse — тело 422 по контракту вебхуков и API.
func validationErrorResponse(c *gin.Context, err error) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"detail":     "ошибка валидации запроса",
		"errors":     []string{err.Error()},
		"request_id": uuid.NewString(),
	})
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func boolOrDefault(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// searchPipelineHandler — POST /api/v1/search/pipeline. LLM-этапы по
// умолчанию включены, когда LLM доступна конфигурацией; запрос может
// выключить их явно.
func (s *Server) searchPipelineHandler(c *gin.Context) {
	var req api_models.SearchPipelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationErrorResponse(c, err)
		return
	}

	llmDefault := s.config.LLMAvailable()
	opts := pipeline.Options{
		OrgID:            req.OrgID,
		UserID:           req.UserID,
		Limit:            req.Limit,
		EnableLLMNarrow:  boolOrDefault(req.EnableLLMNarrow, llmDefault),
		EnableLLMRewrite: boolOrDefault(req.EnableLLMRewrite, llmDefault),
		EnableRerank:     boolOrDefault(req.EnableRerank, llmDefault),
		ClarifyOffset:    req.ClarifyOffset,
	}

	result := s.pipelineService.Run(c.Request.Context(), req.Text, opts)

	// Журнал и автообучение не должны ломать ответ поиска.
	if err := s.learner.Apply(c.Request.Context(), req.UserID, result); err != nil {
		s.logger.Warnf("обучение по итогу поиска: %v", err)
	}

	c.JSON(http.StatusOK, result)
}

func onlyUnknown(actions []reqhandler.Action) bool {
	for _, action := range actions {
		if action.Type != reqhandler.ActionUnknown {
			return false
		}
	}
	return true
}

// routeMessageHandler — POST /api/v1/route: сперва эвристика, LLM
// подключается только когда эвристика ничего не поняла.
func (s *Server) routeMessageHandler(c *gin.Context) {
	var req api_models.RouteMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationErrorResponse(c, err)
		return
	}

	routed := reqhandler.RouteMessageHeuristic(req.Text)
	if onlyUnknown(routed.Actions) && s.llmService.Enabled() {
		actions, err := s.llmService.RouteActions(c.Request.Context(), req.Text)
		if err != nil {
			s.logger.Infof("llm-роутер: %v", err)
		} else if len(actions) > 0 && !onlyUnknown(actions) {
			routed.Actions = actions
		}
	}

	c.JSON(http.StatusOK, routed)
}

type messageRequest struct {
	ChatID string `json:"chat_id" binding:"required"`
	UserID int64  `json:"user_id"`
	OrgID  int64  `json:"org_id"`
	Text   string `json:"text" binding:"required"`
}

// messageHandler — POST /api/v1/message: полный ход диалога. Сообщение
// разбирается на действия, по каждой позиции ADD_ITEM гоняется поиск,
// контекст диалога сохраняется по chat_id на время TTL.
func (s *Server) messageHandler(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationErrorResponse(c, err)
		return
	}
	ctx := c.Request.Context()

	handled := reqhandler.HandleMessage(req.Text)

	llmDefault := s.config.LLMAvailable()
	results := make([]api_models.PipelineResult, 0, len(handled.Items))
	for _, item := range handled.Items {
		result := s.pipelineService.Run(ctx, item.Raw, pipeline.Options{
			OrgID:            req.OrgID,
			UserID:           req.UserID,
			EnableLLMNarrow:  llmDefault,
			EnableLLMRewrite: llmDefault,
			EnableRerank:     llmDefault,
		})
		if err := s.learner.Apply(ctx, req.UserID, result); err != nil {
			s.logger.Warnf("обучение по итогу поиска: %v", err)
		}
		results = append(results, result)
	}

	dialogContext := reqhandler.DialogContext{
		Stage: "idle",
		Query: req.Text,
		OrgID: req.OrgID,
	}
	for _, result := range results {
		if result.Decision.Clarification != nil {
			dialogContext.Stage = "clarify"
			dialogContext.PendingItems = handled.Items
			break
		}
	}
	if err := s.state.SaveDialogContext(ctx, req.ChatID, dialogContext); err != nil {
		s.logger.Warnf("сохранение контекста диалога: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"handler": handled,
		"results": results,
	})
}

// confirmAliasHandler — POST /api/v1/aliases/confirm: пользователь
// выбрал товар на клавиатуре уточнения, связка фиксируется.
func (s *Server) confirmAliasHandler(c *gin.Context) {
	var req api_models.ConfirmAliasRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationErrorResponse(c, err)
		return
	}

	if err := s.aliasService.Confirm(c.Request.Context(), req.OrgID, req.ProductID, req.AliasText); err != nil {
		s.logger.Errorf("подтверждение алиаса: %v", err)
		c.JSON(http.StatusInternalServerError, errorResponse(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
