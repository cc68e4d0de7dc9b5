package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/partner-m/assist-go/cmd/pkg/logging"
)

// extractOneCToken достает токен вебхука из запроса. 1С в разных
// конфигурациях шлет его по-разному: свои заголовки, query-параметр
// или стандартный Bearer.
func extractOneCToken(c *gin.Context) string {
	if token := c.GetHeader("X-1C-Token"); token != "" {
		return token
	}
	if token := c.GetHeader("X-Token"); token != "" {
		return token
	}
	if token := c.Query("token"); token != "" {
		return token
	}
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

// OneCTokenAuthMiddleware проверяет токен вебхуков 1С постоянным по
// времени сравнением. Пустой настроенный токен отключает проверку —
// вариант для стендов без секрета.
func OneCTokenAuthMiddleware(expected string, logger *logging.Logger) gin.HandlerFunc {
	if expected == "" {
		logger.Warn("токен вебхуков 1С не настроен, проверка отключена")
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		token := extractOneCToken(c)
		if subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": uuid.NewString(),
			})
			return
		}
		c.Next()
	}
}
