package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/partner-m/assist-go/cmd/internal/api_models"
	"github.com/partner-m/assist-go/cmd/internal/services/apierrors"
)

// respondIngest единообразно отвечает на вебхуки 1С: пустая или кривая
// выгрузка — 422 без частичной записи, ошибка БД — 500.
func (s *Server) respondIngest(c *gin.Context, report api_models.IngestReport, err error) {
	if err != nil {
		var validationErr *apierrors.ValidationError
		if errors.As(err, &validationErr) {
			validationErrorResponse(c, err)
			return
		}
		s.logger.Errorf("выгрузка 1С: %v", err)
		c.JSON(http.StatusInternalServerError, errorResponse(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "report": report})
}

// onecCatalogHandler — POST /integrations/1c/catalog.
func (s *Server) onecCatalogHandler(c *gin.Context) {
	var payload api_models.OneCCatalogPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		validationErrorResponse(c, err)
		return
	}
	report, err := s.onecService.IngestCatalog(c.Request.Context(), payload)
	s.respondIngest(c, report, err)
}

// onecOrdersHandler — POST /integrations/1c/orders.
func (s *Server) onecOrdersHandler(c *gin.Context) {
	var payload api_models.OneCOrdersPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		validationErrorResponse(c, err)
		return
	}
	report, err := s.onecService.IngestOrders(c.Request.Context(), payload)
	s.respondIngest(c, report, err)
}

// onecMembersHandler — POST /integrations/1c/orgs/members.
func (s *Server) onecMembersHandler(c *gin.Context) {
	var payload api_models.OneCMembersPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		validationErrorResponse(c, err)
		return
	}
	report, err := s.onecService.IngestMembers(c.Request.Context(), payload)
	s.respondIngest(c, report, err)
}
