package handlers

import (
	"crypto/subtle"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/eduline/billing-service/internal/service"
	"github.com/eduline/billing-service/pkg/logger"
)

const importSecretHeader = "X-Import-Secret"

// ImportHandler обработчик административного импорта контента
type ImportHandler struct {
	service *service.ImportService
	secret  string
	log     *logger.Logger
}

// NewImportHandler создает новый обработчик импорта
func NewImportHandler(svc *service.ImportService, secret string, log *logger.Logger) *ImportHandler {
	return &ImportHandler{
		service: svc,
		secret:  secret,
		log:     log,
	}
}

// RunImport запускает импорт контента из фикстур.
// Запрос должен нести корректный секрет в заголовке X-Import-Secret.
// Параметр dry_run=true проверяет фикстуры без записи в хранилище.
func (h *ImportHandler) RunImport(c *gin.Context) {
	if h.secret == "" {
		h.log.Warn("Content import is disabled: no import secret configured")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Content import is not configured"})
		return
	}

	provided := c.GetHeader(importSecretHeader)
	if subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) != 1 {
		h.log.Warn("Content import rejected: invalid secret from %s", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid import secret"})
		return
	}

	dryRun, _ := strconv.ParseBool(c.Query("dry_run"))

	result, err := h.service.Run(c.Request.Context(), dryRun)
	if err != nil {
		h.log.Error("Content import failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Import failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}
