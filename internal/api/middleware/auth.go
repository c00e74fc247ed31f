package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/attendance-api/internal/api/handler/v1/response"
	"github.com/vietanh2810/attendance-api/internal/domain"
	"github.com/vietanh2810/attendance-api/internal/pkg/jwthelper"
)

const principalKey = "principal"

var (
	errMissingToken = errors.New("missing bearer token")
	errNotOrganizer = errors.New("organizer or admin role required")
	errNotAdmin     = errors.New("admin role required")
)

type Authenticator struct {
	signingKey string
}

func NewAuthenticator(signingKey string) *Authenticator {
	return &Authenticator{
		signingKey: signingKey,
	}
}

// VerifyJWT checks the bearer token and stores the caller as a
// domain.Principal in the gin context.
func (a *Authenticator) VerifyJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			response.RenderErr(ctx, response.ErrUnauthorized(errMissingToken))
			return
		}

		claims, err := jwthelper.ParseToken(a.signingKey, strings.TrimSpace(token))
		if err != nil {
			response.RenderErr(ctx, response.ErrUnauthorized(err))
			return
		}

		ctx.Set(principalKey, domain.Principal{
			ID:    claims.Subject,
			Name:  claims.Name,
			Roles: claims.Roles,
		})
		ctx.Next()
	}
}

func Principal(ctx *gin.Context) (domain.Principal, bool) {
	v, ok := ctx.Get(principalKey)
	if !ok {
		return domain.Principal{}, false
	}
	p, ok := v.(domain.Principal)
	return p, ok
}

func RequireOrganizer() gin.HandlerFunc {
	return requireRole(domain.Principal.CanOrganize, errNotOrganizer)
}

func RequireAdmin() gin.HandlerFunc {
	return requireRole(domain.Principal.IsAdmin, errNotAdmin)
}

func requireRole(allowed func(domain.Principal) bool, denied error) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		p, ok := Principal(ctx)
		if !ok {
			response.RenderErr(ctx, response.ErrUnauthorized(errMissingToken))
			return
		}
		if !allowed(p) {
			response.RenderErr(ctx, response.ErrPermissionDenied(denied))
			return
		}
		ctx.Next()
	}
}
