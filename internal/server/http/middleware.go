package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/server/auth"
	"github.com/labstack/echo/v4"
)

const claimsKey = "claims"

// requestLogger writes one entry per request once the response status is known.
func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		err := next(c)
		if err != nil {
			c.Error(err)
		}

		req := c.Request()
		res := c.Response()
		s.logger.Info(req.Context(), "HTTP request",
			"method", req.Method,
			"uri", req.RequestURI,
			"status", res.Status,
			"size", res.Size,
			"duration", time.Since(start).String())

		return nil
	}
}

// authMiddleware accepts "Authorization: Bearer <token>" and stores the
// verified claims on the context.
func (s *Server) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(common.AuthorizationHeaderName)
		token, ok := strings.CutPrefix(header, common.BearerPrefix)
		if !ok || strings.TrimSpace(token) == "" {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthenticated"})
		}

		claims, err := s.svc.Accounts.Authenticate(c.Request().Context(), strings.TrimSpace(token))
		if err != nil {
			if errors.Is(err, common.ErrUnauthorized) {
				return c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthenticated"})
			}
			return s.fail(c, err)
		}

		c.Set(claimsKey, claims)
		return next(c)
	}
}

func claimsFrom(c echo.Context) *auth.Claims {
	claims, _ := c.Get(claimsKey).(*auth.Claims)
	return claims
}

func accountID(c echo.Context) string {
	if claims := claimsFrom(c); claims != nil {
		return claims.UserID
	}
	return ""
}
