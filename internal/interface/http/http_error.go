package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yanqian/doctor-faq/pkg/errors"
)

// HTTPError captures the metadata required to serialize an error response consistently.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Fields  map[string]string
	Err     error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

// detail is the diagnostic payload: the offending fields when known, the
// message otherwise.
func (e *HTTPError) detail() any {
	if len(e.Fields) > 0 {
		return e.Fields
	}
	if e.Status >= http.StatusInternalServerError && e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// asHTTPError maps domain failures onto status classes. Validation and
// missing references are client errors; anything else is a server error.
func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case "invalid_input", "not_found":
			return &HTTPError{
				Status:  http.StatusUnprocessableEntity,
				Code:    msgFieldValidation,
				Message: appErr.Message,
				Fields:  appErr.Fields,
				Err:     err,
			}
		}
	}
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    msgInternalServer,
		Message: "something went wrong",
		Err:     err,
	}
}

func bindError(err error) *HTTPError {
	return &HTTPError{
		Status:  http.StatusUnprocessableEntity,
		Code:    msgFieldValidation,
		Message: errMessage(err),
		Err:     err,
	}
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
