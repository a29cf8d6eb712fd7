package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

const activity = "Faq"

// Report levels.
const (
	levelListing = "Level-1"
	levelSuccess = "Level-2"
	levelFailure = "Level-3"
)

// Message kinds understood by the frontend.
const (
	msgSaved           = "savedSuccessfully"
	msgReplySent       = "replySentSuccessfully"
	msgFetched         = "fetchedSuccessfully"
	msgDeleted         = "deleteSuccess"
	msgFieldValidation = "fieldValidation"
	msgInternalServer  = "internalServer"
	msgUnauthorized    = "unauthorized"
	msgTooManyRequests = "tooManyRequests"
)

// Report is the uniform response envelope for every FAQ endpoint.
type Report struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Activity   string `json:"activity"`
	Action     string `json:"action"`
	Level      string `json:"level"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
	Detail     any    `json:"detail,omitempty"`
}

func report(c *gin.Context, logger *slog.Logger, r Report) {
	if r.Activity == "" {
		r.Activity = activity
	}
	if r.StatusCode == 0 {
		r.StatusCode = http.StatusOK
	}
	if r.Data == nil && !r.Success {
		r.Data = gin.H{}
	}

	// Successful requests are already logged by requestLogger.
	attrs := []any{"action", r.Action, "level", r.Level, "status", r.StatusCode, "path", c.Request.URL.Path, "detail", r.Detail}
	switch {
	case r.StatusCode >= http.StatusInternalServerError:
		logger.Error("request failed", attrs...)
	case r.StatusCode >= http.StatusBadRequest:
		logger.Warn("request rejected", attrs...)
	}

	c.JSON(r.StatusCode, r)
}

func reportSuccess(c *gin.Context, logger *slog.Logger, action, level, message string, data any) {
	report(c, logger, Report{
		Success:    true,
		StatusCode: http.StatusOK,
		Action:     action,
		Level:      level,
		Message:    message,
		Data:       data,
	})
}

func reportError(c *gin.Context, logger *slog.Logger, action string, err error) {
	httpErr := asHTTPError(err)
	report(c, logger, Report{
		Success:    false,
		StatusCode: httpErr.Status,
		Action:     action,
		Level:      levelFailure,
		Message:    httpErr.Code,
		Detail:     httpErr.detail(),
	})
}
