package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/carecycle/carecycle/internal/model"
	"github.com/carecycle/carecycle/internal/service"
)

type contextKeyAuth string

const (
	// AuthPrincipalKey is the context key for the authenticated principal.
	AuthPrincipalKey contextKeyAuth = "auth_principal"
)

// Client-facing authentication messages. Expired and forged tokens share one
// message so that clients cannot tell them apart.
const (
	MsgNoToken            = "No token, authorization denied"
	MsgPleaseAuthenticate = "Please authenticate"
)

// Principal is the authenticated admin making the request, together with the
// raw bearer token it presented.
type Principal struct {
	Admin *model.Admin
	Token string
}

// Can reports whether the principal's role grants capability.
func (p *Principal) Can(capability model.Capability) bool {
	return p != nil && p.Admin != nil && model.HasCapability(p.Admin.Role, capability)
}

// Authenticator resolves a bearer token to an admin account.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Admin, error)
}

// Authenticate returns an HTTP middleware that requires a valid bearer token
// in the Authorization header. On success a Principal is attached to the
// request context. Every rejection is a 401; the reason is logged but not
// returned to the client.
func Authenticate(auth Authenticator, logger *slog.Logger, metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reject := func(reason, message string, err error) {
				metrics.AuthFailure(reason)
				logger.Warn("authentication rejected",
					"reason", reason,
					"error", err,
					"path", r.URL.Path,
					"request_id", GetRequestID(r.Context()),
				)
				writeJSONError(w, http.StatusUnauthorized, message)
			}

			token, err := bearerToken(r.Header.Get("Authorization"))
			switch {
			case errors.Is(err, errNoAuthHeader):
				reject("missing", MsgNoToken, err)
				return
			case err != nil:
				reject("malformed", MsgPleaseAuthenticate, err)
				return
			}

			admin, err := auth.Authenticate(r.Context(), token)
			switch {
			case err == nil:
			case errors.Is(err, service.ErrTokenExpired):
				reject("expired", MsgPleaseAuthenticate, err)
				return
			case errors.Is(err, service.ErrInvalidToken):
				reject("invalid", MsgPleaseAuthenticate, err)
				return
			case errors.Is(err, service.ErrAdminNotFound):
				reject("unknown_admin", MsgPleaseAuthenticate, err)
				return
			default:
				logger.Error("authentication lookup failed",
					"error", err,
					"request_id", GetRequestID(r.Context()),
				)
				writeJSONError(w, http.StatusInternalServerError, "Something went wrong!")
				return
			}

			ctx := context.WithValue(r.Context(), AuthPrincipalKey, &Principal{Admin: admin, Token: token})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireCapability returns an HTTP middleware that enforces that the
// authenticated principal's role grants capability. It must be used after
// Authenticate in the middleware chain.
func RequireCapability(capability model.Capability) func(http.Handler) http.Handler {
	message := deniedMessage(capability)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := GetPrincipal(r.Context())
			if principal == nil {
				writeJSONError(w, http.StatusUnauthorized, MsgPleaseAuthenticate)
				return
			}
			if !principal.Can(capability) {
				writeJSONError(w, http.StatusForbidden, message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func deniedMessage(capability model.Capability) string {
	role, ok := model.RequiredRole(capability)
	switch {
	case !ok:
		return "Access denied."
	case role == model.RoleSuperAdmin:
		return "Access denied. Superadmin privileges required."
	default:
		return "Access denied. Admin privileges required."
	}
}

// GetPrincipal extracts the authenticated principal from the context.
// Returns nil if no principal is present (i.e., unauthenticated request).
func GetPrincipal(ctx context.Context) *Principal {
	if p, ok := ctx.Value(AuthPrincipalKey).(*Principal); ok {
		return p
	}
	return nil
}

var (
	errNoAuthHeader        = errors.New("missing authorization header")
	errMalformedAuthHeader = errors.New("invalid authorization header format")
)

func bearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", errNoAuthHeader
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errMalformedAuthHeader
	}
	return parts[1], nil
}
