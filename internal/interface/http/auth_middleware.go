package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/doctor-faq/internal/domain/auth"
	apperrors "github.com/yanqian/doctor-faq/pkg/errors"
)

func authMiddleware(svc auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, msgUnauthorized, "missing authorization header", nil))
			return
		}
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, msgUnauthorized, "invalid authorization header", nil))
			return
		}
		claims, err := svc.ValidateToken(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			status := http.StatusUnauthorized
			code := msgUnauthorized
			if !apperrors.IsCode(err, "invalid_token") {
				status = http.StatusInternalServerError
				code = msgInternalServer
			}
			abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}
