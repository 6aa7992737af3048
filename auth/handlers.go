package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"coup/domain"
)

var (
	ErrMissingTokenStr          = "missing-token"
	ErrExpiredTokenStr          = "expired-token"
	ErrServerTimeoutStr         = "server-timeout"
	ErrInvalidRequestFormatStr  = "bad-request-format"
	ErrInvalidCredentialsStr    = "invalid-credentials"
	ErrUnknownStr               = "unknown-error"
	ErrUsernameAlreadyExistsStr = "username-already-exists"
	ErrWeakPasswordStr          = "weak-password"
	ErrPasswordTooLongStr       = "password-too-long"
	ErrInvalidUsernameFormatStr = "invalid-username-format"
	ErrAccountCreatedButNoToken = "account-created-but-no-token"
)

type authHandler struct {
	authService  AuthService
	cookieMaxAge time.Duration
	logger       zerolog.Logger
}

func NewAuthHandler(service AuthService, cookieMaxAge time.Duration, logger zerolog.Logger) *authHandler {
	return &authHandler{authService: service, cookieMaxAge: cookieMaxAge, logger: logger}
}

func (ah *authHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/signup", ah.SignupHandler)
	rg.POST("/login", ah.LoginHandler)
	rg.POST("/refresh", ah.RefreshSessionHandler)
	rg.POST("/logout", ah.LogoutHandler)
}

// redactToken keeps enough of a JWT to grep the logs without making the
// log file a credential store.
func redactToken(token string) string {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return token
	}
	r := []rune(parts[2])
	if len(r) < 10 {
		return token
	}
	return parts[0] + "." + parts[1] + "." + string(r[:10]) + strings.Repeat("*", len(r)-10)
}

// RequireAuthMiddleware rejects requests without a valid token cookie.
// Requests carrying forged tokens are answered after trollTime so probing
// the endpoint stays slow.
func (ah *authHandler) RequireAuthMiddleware(trollTime time.Duration) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := ctx.Cookie("token")
		if err != nil {
			ctx.String(http.StatusUnauthorized, ErrMissingTokenStr)
			ctx.Abort()
			return
		}

		id, err := ah.authService.VerifyToken(token)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrInvalidSigningAlg),
				errors.Is(err, domain.ErrInvalidTokenSignature),
				errors.Is(err, domain.ErrCorruptedToken):
				ah.logger.Warn().
					Str("ip", ctx.ClientIP()).
					Str("user_agent", ctx.Request.UserAgent()).
					Str("token", redactToken(token)).
					Err(err).
					Msg("suspicious token attempt")
				time.Sleep(trollTime)
				ctx.Status(http.StatusInternalServerError)
				ctx.Abort()

			case errors.Is(err, domain.ErrExpiredToken):
				ctx.String(http.StatusUnauthorized, ErrExpiredTokenStr)
				ctx.Abort()

			default:
				ah.logger.Error().
					Str("ip", ctx.ClientIP()).
					Str("token", redactToken(token)).
					Err(err).
					Msg("internal auth error")
				ctx.String(http.StatusUnauthorized, ErrUnknownStr)
				ctx.Abort()
			}
			return
		}

		ctx.Set("id", id)
		ctx.Next()
	}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (ah *authHandler) LoginHandler(ctx *gin.Context) {
	var creds credentials
	if err := ctx.ShouldBindJSON(&creds); err != nil {
		ctx.String(http.StatusBadRequest, ErrInvalidRequestFormatStr)
		ctx.Abort()
		return
	}

	token, err := ah.authService.Login(ctx.Request.Context(), creds.Username, creds.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrIncorrectPassword), errors.Is(err, domain.ErrUserNotFound):
			ctx.String(http.StatusUnauthorized, ErrInvalidCredentialsStr)
		case errors.Is(err, context.DeadlineExceeded):
			ctx.String(http.StatusGatewayTimeout, ErrServerTimeoutStr)
		case errors.Is(err, context.Canceled):
			ctx.Status(499)
		default:
			ah.logger.Error().
				Str("ip", ctx.ClientIP()).
				Str("user_agent", ctx.Request.UserAgent()).
				Str("username", creds.Username).
				Err(err).
				Msg("login failed unexpectedly")
			ctx.String(http.StatusInternalServerError, ErrUnknownStr)
		}
		ctx.Abort()
		return
	}

	ctx.SetSameSite(http.SameSiteNoneMode)
	ctx.SetCookie("token", token, int(ah.cookieMaxAge.Seconds()), "/", "", true, true)
	ctx.Status(http.StatusOK)
}

func (ah *authHandler) SignupHandler(ctx *gin.Context) {
	var creds credentials
	if err := ctx.ShouldBindJSON(&creds); err != nil {
		ctx.String(http.StatusBadRequest, ErrInvalidRequestFormatStr)
		ctx.Abort()
		return
	}

	token, err := ah.authService.Signup(ctx.Request.Context(), creds.Username, creds.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateUsername):
			ctx.String(http.StatusConflict, ErrUsernameAlreadyExistsStr)
		case errors.Is(err, ErrWeakPassword):
			ctx.String(http.StatusBadRequest, ErrWeakPasswordStr)
		case errors.Is(err, ErrPasswordTooLong):
			ctx.String(http.StatusBadRequest, ErrPasswordTooLongStr)
		case errors.Is(err, ErrInvalidUsernameFormat):
			ctx.String(http.StatusBadRequest, ErrInvalidUsernameFormatStr)
		case errors.Is(err, context.DeadlineExceeded):
			ctx.String(http.StatusGatewayTimeout, ErrServerTimeoutStr)
		case errors.Is(err, context.Canceled):
			ctx.Status(499)
		case errors.Is(err, domain.UnexpectedTokenGenerationError):
			ah.logger.Error().Str("username", creds.Username).Err(err).Msg("token generation failed after signup")
			ctx.String(http.StatusInternalServerError, ErrAccountCreatedButNoToken)
		default:
			ah.logger.Error().
				Str("ip", ctx.ClientIP()).
				Str("user_agent", ctx.Request.UserAgent()).
				Str("username", creds.Username).
				Err(err).
				Msg("signup failed unexpectedly")
			ctx.String(http.StatusInternalServerError, ErrUnknownStr)
		}
		ctx.Abort()
		return
	}

	ctx.SetSameSite(http.SameSiteNoneMode)
	ctx.SetCookie("token", token, int(ah.cookieMaxAge.Seconds()), "/", "", true, true)
	ctx.Status(http.StatusCreated)
}

func (ah *authHandler) RefreshSessionHandler(ctx *gin.Context) {
	token, err := ctx.Cookie("token")
	if err != nil {
		ctx.String(http.StatusUnauthorized, ErrMissingTokenStr)
		return
	}

	id, err := ah.authService.VerifyToken(token)
	if err != nil {
		ah.logger.Warn().
			Str("ip", ctx.ClientIP()).
			Str("token", redactToken(token)).
			Err(err).
			Msg("refresh with invalid token")
		ctx.String(http.StatusUnauthorized, "bad-token")
		return
	}

	newToken, err := ah.authService.GenerateToken(id)
	if err != nil {
		ah.logger.Error().Str("user_id", id).Err(err).Msg("failed to generate refreshed token")
		ctx.Status(http.StatusInternalServerError)
		return
	}

	ctx.SetSameSite(http.SameSiteNoneMode)
	ctx.SetCookie("token", newToken, int(ah.cookieMaxAge.Seconds()), "/", "", true, true)
	ctx.Status(http.StatusOK)
}

func (ah *authHandler) LogoutHandler(ctx *gin.Context) {
	ctx.SetCookie("token", "", -1, "/", "", true, true)
	ctx.Status(http.StatusOK)
}
