package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/recipebox/models"
)

// respondOutcome writes an orchestrator outcome. Successes and reported
// outcomes are 200; failures map by error code.
func respondOutcome(c *gin.Context, out *models.Outcome) {
	status := http.StatusOK
	if out.Status.Kind == models.StatusError && out.Error != nil {
		status = mapErrorToStatus(out.Error.Code)
	}
	c.JSON(status, out)
}

// respondError writes a failure that happened before the orchestrator ran.
func respondError(c *gin.Context, code, message string) {
	c.JSON(mapErrorToStatus(code), models.Outcome{
		Success: false,
		Stage:   models.StageFailed,
		Status:  models.Failed(message),
		Error:   &models.ErrorDetail{Code: code, Message: message},
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(code string) int {
	switch code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation,
		models.ErrCodeRemoteService,
		models.ErrCodeRemoteAuth,
		models.ErrCodeRemoteRateLimited:
		return http.StatusBadGateway // 502
	case models.ErrCodeStorageUnavailable, models.ErrCodeBrowser:
		return http.StatusServiceUnavailable // 503
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeNotFound:
		return http.StatusNotFound // 404
	case models.ErrCodeExtractionEmpty:
		return http.StatusOK
	default:
		return http.StatusInternalServerError // 500
	}
}
