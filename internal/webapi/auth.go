package webapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type authRequest struct {
	Code string `json:"code"`
}

// handleAuth is the shared-secret gate: a matching code earns a signed
// HTTP-only session cookie, everything else stays locked out.
func (handler *httpHandler) handleAuth(ctx *gin.Context) {
	var request authRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	if handler.cfg.AccessCode == "" {
		ctx.JSON(http.StatusInternalServerError, errorResponse("server_misconfigured", "access code is not configured"))
		return
	}
	if request.Code != handler.cfg.AccessCode {
		ctx.JSON(http.StatusUnauthorized, errorResponse("invalid_code", "invalid code"))
		return
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    handler.cfg.SessionIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(handler.cfg.SessionTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(handler.cfg.SessionSigningKey))
	if err != nil {
		handler.logger.Error("session token signing failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, errorResponse("session_error", "could not issue session"))
		return
	}

	ctx.SetCookie(handler.cfg.SessionCookieName, signed, int(handler.cfg.SessionTTL.Seconds()), "/", "", false, true)
	ctx.JSON(http.StatusOK, gin.H{"ok": true})
}

// sessionMiddleware rejects requests without a valid session cookie.
func (handler *httpHandler) sessionMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		raw, err := ctx.Cookie(handler.cfg.SessionCookieName)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
			return
		}
		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return []byte(handler.cfg.SessionSigningKey), nil
		}, jwt.WithIssuer(handler.cfg.SessionIssuer))
		if err != nil || !token.Valid {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("unauthorized", "invalid session"))
			return
		}
		ctx.Next()
	}
}
