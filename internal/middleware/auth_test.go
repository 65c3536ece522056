package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"recommread-server/internal/auth"
	"recommread-server/internal/models"
)

const testSecret = "middleware-test-secret"

func mintToken(t *testing.T, userID uuid.UUID, username string) string {
	t.Helper()
	claims := models.Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestAuthStoresIdentityInContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	userID := uuid.New()
	var gotID uuid.UUID
	var gotName string
	router.Use(Auth(auth.NewVerifier(testSecret), zap.NewNop()))
	router.GET("/whoami", func(c *gin.Context) {
		id, ok := UserID(c)
		require.True(t, ok)
		gotID = id
		gotName = Username(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, userID, "reader"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, gotID)
	assert.Equal(t, "reader", gotName)
}

func TestAuthRejectsMissingAndMalformedTokens(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth(auth.NewVerifier(testSecret), zap.NewNop()))
	router.GET("/secure", func(c *gin.Context) { c.Status(http.StatusOK) })

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc123"},
		{"garbage token", "Bearer not.a.jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/secure", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRequestLogCarriesUsername(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	router := gin.New()
	router.Use(ZapLogging(zap.New(core)))
	router.Use(Auth(auth.NewVerifier(testSecret), zap.NewNop()))
	router.GET("/stories", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/stories", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, uuid.New(), "reader"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	entries := logs.FilterMessage("Request completed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "reader", entries[0].ContextMap()["username"])
}
