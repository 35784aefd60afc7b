package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/JonMunkholm/form1099/internal/config"
	"github.com/JonMunkholm/form1099/internal/core"
)

var (
	errMissingToken = errors.New("unauthorized: missing bearer token")
	errInvalidToken = errors.New("unauthorized: invalid bearer token")
	errNoSubject    = errors.New("unauthorized: token has no subject")
)

// Authenticate attaches the requesting user to the context.
//
// With a JWT secret configured, every request must carry
// "Authorization: Bearer <HS256 token>" whose sub claim names the user.
// Without one, every request runs as cfg.DefaultUser.
func Authenticate(cfg *config.AuthConfig) func(http.Handler) http.Handler {
	secret := []byte(cfg.JWTSecret)

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.JWTIssuer))
	}
	parser := jwt.NewParser(opts...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := cfg.DefaultUser
			if cfg.Enabled() {
				var err error
				userID, err = userFromRequest(r, parser, secret)
				if err != nil {
					slog.Warn("auth: rejected request",
						"path", r.URL.Path,
						"method", r.Method,
						"remote_addr", r.RemoteAddr,
						"error", err,
					)
					unauthorized(w, err)
					return
				}
			}

			if rec, ok := w.(userRecorder); ok {
				rec.recordUser(userID)
			}
			ctx := core.ContextWithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func userFromRequest(r *http.Request, parser *jwt.Parser, secret []byte) (string, error) {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return "", errMissingToken
	}

	var claims jwt.RegisteredClaims
	_, err := parser.ParseWithClaims(strings.TrimSpace(raw), &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return "", errInvalidToken
	}
	if claims.Subject == "" {
		return "", errNoSubject
	}
	return claims.Subject, nil
}

// IssueToken signs an HS256 token for userID. Used by the CLI and tests.
func IssueToken(cfg *config.AuthConfig, userID string, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = userID
	if cfg.JWTIssuer != "" {
		claims.Issuer = cfg.JWTIssuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
}

func unauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="form1099"`)
	writeError(w, http.StatusUnauthorized, err)
}
