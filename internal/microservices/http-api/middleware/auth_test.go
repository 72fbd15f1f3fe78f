package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-that-is-long-enough"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func authTestRouter() (*gin.Engine, *string) {
	gin.SetMode(gin.TestMode)
	var seenUserID string
	router := gin.New()
	router.GET("/protected", AuthMiddleware(testSecret), func(c *gin.Context) {
		seenUserID = GetUserID(c)
		c.Status(http.StatusOK)
	})
	return router, &seenUserID
}

func doAuthRequest(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	router, seenUserID := authTestRouter()

	token := signToken(t, testSecret, jwt.MapClaims{
		"user_id": "user-a",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	w := doAuthRequest(router, "Bearer "+token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-a", *seenUserID)
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	router, _ := authTestRouter()

	w := doAuthRequest(router, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	router, _ := authTestRouter()

	w := doAuthRequest(router, "Token abc.def.ghi")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	router, _ := authTestRouter()

	token := signToken(t, "some-other-secret-entirely-here", jwt.MapClaims{
		"user_id": "user-a",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	w := doAuthRequest(router, "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	router, _ := authTestRouter()

	token := signToken(t, testSecret, jwt.MapClaims{
		"user_id": "user-a",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	w := doAuthRequest(router, "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_MissingUserID(t *testing.T) {
	router, _ := authTestRouter()

	token := signToken(t, testSecret, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	w := doAuthRequest(router, "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetUserID_Unset(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Empty(t, GetUserID(c))
}
