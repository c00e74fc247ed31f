package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietanh2810/attendance-api/internal/domain"
	"github.com/vietanh2810/attendance-api/internal/pkg/jwthelper"
)

const signingKey = "test-secret"

func newRouter(extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{NewAuthenticator(signingKey).VerifyJWT()}, extra...)
	handlers = append(handlers, func(ctx *gin.Context) {
		p, _ := Principal(ctx)
		ctx.JSON(http.StatusOK, p)
	})
	r.GET("/", handlers...)
	return r
}

func token(t *testing.T, key string, roles ...string) string {
	t.Helper()
	tok, err := jwthelper.GenerateToken(key, "u-1", "Ann", roles, time.Hour)
	require.NoError(t, err)
	return tok
}

func do(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestVerifyJWT(t *testing.T) {
	r := newRouter()

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "valid", header: "Bearer " + token(t, signingKey), want: http.StatusOK},
		{name: "missing", header: "", want: http.StatusUnauthorized},
		{name: "no bearer prefix", header: token(t, signingKey), want: http.StatusUnauthorized},
		{name: "wrong key", header: "Bearer " + token(t, "other"), want: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer abc.def.ghi", want: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, tt.header)
			assert.Equal(t, tt.want, w.Code)
		})
	}

	w := do(r, "Bearer "+token(t, signingKey, domain.RoleOrganizer))
	assert.JSONEq(t, `{"id":"u-1","name":"Ann","roles":["organizer"]}`, w.Body.String())
}

func TestRequireRole(t *testing.T) {
	organizer := newRouter(RequireOrganizer())
	admin := newRouter(RequireAdmin())

	assert.Equal(t, http.StatusForbidden, do(organizer, "Bearer "+token(t, signingKey)).Code)
	assert.Equal(t, http.StatusOK, do(organizer, "Bearer "+token(t, signingKey, domain.RoleOrganizer)).Code)
	assert.Equal(t, http.StatusOK, do(organizer, "Bearer "+token(t, signingKey, domain.RoleAdmin)).Code)

	assert.Equal(t, http.StatusForbidden, do(admin, "Bearer "+token(t, signingKey, domain.RoleOrganizer)).Code)
	assert.Equal(t, http.StatusOK, do(admin, "Bearer "+token(t, signingKey, domain.RoleAdmin)).Code)
}
