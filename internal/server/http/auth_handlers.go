package http

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/labstack/echo/v4"
)

func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	if err := s.svc.Captcha.Verify(c.Request().Context(), req.CaptchaToken, c.RealIP()); err != nil {
		return s.fail(c, err)
	}

	session, err := s.svc.Accounts.Register(c.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		return s.fail(c, err)
	}

	s.logger.Info(c.Request().Context(), "Registered", "account_id", session.AccountID)
	return c.JSON(http.StatusCreated, newAuthResponse(session))
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	session, err := s.svc.Accounts.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, newAuthResponse(session))
}

func (s *Server) handleMe(c echo.Context) error {
	account, err := s.svc.Accounts.Me(c.Request().Context(), accountID(c))
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, profileResponse{
		ID:        account.ID,
		Username:  account.Username,
		Email:     account.Email,
		CreatedAt: account.CreatedAt,
	})
}

// logoutUnrevokedMessage tells the client to drop the token itself because
// the server has no denylist to record it in.
const logoutUnrevokedMessage = "logged out; token revocation is disabled, the token stays valid until it expires"

func (s *Server) handleLogout(c echo.Context) error {
	revoked, err := s.svc.Accounts.Logout(c.Request().Context(), claimsFrom(c))
	if err != nil {
		return s.fail(c, err)
	}
	if !revoked {
		return c.JSON(http.StatusOK, messageResponse{Message: logoutUnrevokedMessage})
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}

func (s *Server) handleDeleteAccount(c echo.Context) error {
	if err := s.svc.Deleter.DeleteAccount(c.Request().Context(), accountID(c)); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "account deleted"})
}

const resetRequestedMessage = "if the email is registered, a reset link has been sent"

func (s *Server) handleResetRequest(c echo.Context) error {
	var req resetRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	_, err := s.svc.Resets.RequestReset(c.Request().Context(), req.Email)
	if err != nil {
		if !(s.opts.UniformResetResponse && errors.Is(err, common.ErrNotFound)) {
			return s.fail(c, err)
		}
	}

	return c.JSON(http.StatusOK, messageResponse{Message: resetRequestedMessage})
}

func (s *Server) handleResetConsume(c echo.Context) error {
	var req resetConsumeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	if err := s.svc.Resets.ConsumeReset(c.Request().Context(), req.ResetToken, req.Password); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "password updated"})
}
