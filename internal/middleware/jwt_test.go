package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villaedu/reserva/internal/utils"
)

const testSecret = "middleware-test-secret"

// run sends a request through the given middleware chain into a probe
// handler that records the claims it sees.
func run(t *testing.T, authHeader string, mw ...echo.MiddlewareFunc) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	require.NoError(t, h(c))
	return rec, c
}

func TestJWTAuthInjectsFamilyClaims(t *testing.T) {
	tok, err := utils.NewFamilyToken(testSecret, utils.FamilyIdentity{
		GuardianName: "Maria Souza",
		StudentName:  "Pedro Souza",
		Grade:        "3",
		ClassName:    "Morning",
	}, 5)
	require.NoError(t, err)

	rec, c := run(t, "Bearer "+tok.Token, JWTAuth(testSecret))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, utils.RoleFamily, c.Get("role"))
	assert.Equal(t, "Maria Souza", c.Get("guardian"))
	assert.Equal(t, "Pedro Souza", c.Get("student"))
	assert.Equal(t, "3", c.Get("grade"))
	assert.Equal(t, "Morning", c.Get("class"))
}

func TestJWTAuthRejectsMissingHeader(t *testing.T) {
	rec, _ := run(t, "", JWTAuth(testSecret))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsWrongSecret(t *testing.T) {
	tok, err := utils.NewAdminToken("another-secret", 5)
	require.NoError(t, err)

	rec, _ := run(t, "Bearer "+tok.Token, JWTAuth(testSecret))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsGarbageToken(t *testing.T) {
	rec, _ := run(t, "Bearer not.a.jwt", JWTAuth(testSecret))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	adminTok, err := utils.NewAdminToken(testSecret, 5)
	require.NoError(t, err)
	familyTok, err := utils.NewFamilyToken(testSecret, utils.FamilyIdentity{
		GuardianName: "Maria Souza",
		StudentName:  "Pedro Souza",
	}, 5)
	require.NoError(t, err)

	rec, _ := run(t, "Bearer "+adminTok.Token, JWTAuth(testSecret), RequireRole(utils.RoleAdmin))
	assert.Equal(t, http.StatusOK, rec.Code)

	// A family token on an admin-only route is forbidden, not unauthorized.
	rec, _ = run(t, "Bearer "+familyTok.Token, JWTAuth(testSecret), RequireRole(utils.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = run(t, "Bearer "+familyTok.Token, JWTAuth(testSecret), RequireRole(utils.RoleFamily, utils.RoleAdmin))
	assert.Equal(t, http.StatusOK, rec.Code)
}
