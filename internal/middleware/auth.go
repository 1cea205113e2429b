package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"

	"github.com/2beens/fittrack/internal/apierr"
	"github.com/2beens/fittrack/internal/auth"
	"github.com/2beens/fittrack/internal/telemetry/tracing"
)

//go:generate mockgen -source=$GOFILE -destination=auth_mocks_test.go -package=middleware_test

type tokenChecker interface {
	UserID(ctx context.Context, token string) (string, error)
}

type AuthMiddlewareParams struct {
	// AllowQueryUserID trusts the userId query parameter when no bearer
	// token is sent. Development only.
	AllowQueryUserID bool
	DefaultUserID    string
	ErrWriter        apierr.Writer
}

// AuthMiddlewareHandler resolves the caller identity and stores it in the
// request context. Requests without a valid identity get a 401.
type AuthMiddlewareHandler struct {
	tokenChecker tokenChecker
	params       AuthMiddlewareParams
	allowedPaths map[string]bool
}

func NewAuthMiddlewareHandler(tokenChecker tokenChecker, params AuthMiddlewareParams) *AuthMiddlewareHandler {
	return &AuthMiddlewareHandler{
		tokenChecker: tokenChecker,
		params:       params,
		allowedPaths: map[string]bool{
			"/health":          true,
			"/health/detailed": true,
			"/ready":           true,
			"/live":            true,
			"/metrics":         true,
		},
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func (h *AuthMiddlewareHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			if r.Method == http.MethodOptions || h.allowedPaths[r.URL.Path] {
				span.SetStatus(codes.Ok, "ok")
				next.ServeHTTP(w, r)
				return
			}

			token, hasToken := bearerToken(r)
			if !hasToken && r.Header.Get("Authorization") != "" {
				log.Tracef("[malformed authorization header] [auth middleware] unauthorized => %s", r.URL.Path)
				span.SetStatus(codes.Error, "malformed-auth-header")
				h.params.ErrWriter.Write(w, r, apierr.ErrUnauthorized)
				return
			}

			var userID string
			switch {
			case hasToken:
				var err error
				userID, err = h.tokenChecker.UserID(ctx, token)
				if err != nil {
					if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrRevokedToken) {
						log.Tracef("[invalid token] [auth middleware] unauthorized => %s: %s", r.URL.Path, err)
					} else {
						log.Errorf("[failed token check] => %s: %s", r.URL.Path, err)
						span.RecordError(err)
					}
					span.SetStatus(codes.Error, "invalid-token")
					h.params.ErrWriter.Write(w, r, apierr.ErrUnauthorized)
					return
				}
			case h.params.AllowQueryUserID:
				userID = r.URL.Query().Get("userId")
				if userID == "" {
					userID = h.params.DefaultUserID
				}
			}

			if userID == "" {
				log.Tracef("[missing token] [auth middleware] unauthorized => %s", r.URL.Path)
				span.SetStatus(codes.Error, "missing-auth-token")
				h.params.ErrWriter.Write(w, r, apierr.ErrUnauthorized)
				return
			}

			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r.WithContext(auth.WithUserID(ctx, userID)))
		})
	}
}
