package auth

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapcrew/capture-market/internal/api/domain"
)

func newTestRouter() (*gin.Engine, *domain.Identity) {
	gin.SetMode(gin.TestMode)

	captured := &domain.Identity{}
	r := gin.New()
	r.Use(Middleware(slog.Default()))
	r.GET("/probe", func(c *gin.Context) {
		id, ok := CallerIdentity(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		*captured = id
		c.Status(http.StatusOK)
	})
	return r, captured
}

func doProbe(r *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMiddlewareEstablishesIdentity(t *testing.T) {
	r, captured := newTestRouter()

	w := doProbe(r, map[string]string{
		HeaderSubjectID:    "user-1",
		HeaderGrantedRoles: "REQUESTER, HELPER",
		HeaderActiveRole:   "HELPER",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", captured.SubjectID)
	assert.Equal(t, domain.RoleHelper, captured.ActiveRole)
	assert.ElementsMatch(t, []domain.Role{domain.RoleRequester, domain.RoleHelper}, captured.GrantedRoles)
}

func TestMiddlewareMissingSubject(t *testing.T) {
	r, _ := newTestRouter()

	w := doProbe(r, map[string]string{
		HeaderGrantedRoles: "HELPER",
		HeaderActiveRole:   "HELPER",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddlewareMissingActiveRole(t *testing.T) {
	r, _ := newTestRouter()

	w := doProbe(r, map[string]string{
		HeaderSubjectID:    "user-1",
		HeaderGrantedRoles: "HELPER",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddlewareActiveRoleNotGranted(t *testing.T) {
	r, _ := newTestRouter()

	w := doProbe(r, map[string]string{
		HeaderSubjectID:    "user-1",
		HeaderGrantedRoles: "HELPER",
		HeaderActiveRole:   "REQUESTER",
	})

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMiddlewareUnknownActiveRole(t *testing.T) {
	r, _ := newTestRouter()

	w := doProbe(r, map[string]string{
		HeaderSubjectID:    "user-1",
		HeaderGrantedRoles: "HELPER",
		HeaderActiveRole:   "ADMIN",
	})

	assert.Equal(t, http.StatusForbidden, w.Code)
}
