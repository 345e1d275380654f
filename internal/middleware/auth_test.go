package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/plugin-marketplace/internal/utils"
)

func principalRouter(mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(I18nMiddleware())
	r.GET("/whoami", mw, func(c *gin.Context) {
		userID, ok := utils.GetUserIDFromContext(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "authenticated": ok})
	})
	return r
}

func TestAuthRequired(t *testing.T) {
	r := principalRouter(AuthRequired())
	userID := uuid.New()
	token, err := utils.GenerateJWT(userID, "steve", 1)
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{name: "missing header", header: "", status: http.StatusUnauthorized, message: "Not authorized, no token"},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized, message: "Not authorized, token malformed"},
		{name: "empty bearer", header: "Bearer ", status: http.StatusUnauthorized, message: "Not authorized, token malformed"},
		{name: "garbage token", header: "Bearer not-a-jwt", status: http.StatusUnauthorized, message: "Not authorized, token failed"},
		{name: "valid token", header: "Bearer " + token, status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := serve(r, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status != http.StatusOK {
				resp := decodeEnvelope(t, w)
				assert.False(t, resp.Success)
				require.NotNil(t, resp.Error)
				assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
				assert.Equal(t, tt.message, resp.Error.Message)
				return
			}
			assert.Contains(t, w.Body.String(), userID.String())
		})
	}
}

func TestAuthRequiredRejectsExpiredToken(t *testing.T) {
	r := principalRouter(AuthRequired())
	token, err := utils.GenerateJWT(uuid.New(), "steve", -1)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := serve(r, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOptionalAuth(t *testing.T) {
	r := principalRouter(OptionalAuth())
	userID := uuid.New()
	token, err := utils.GenerateJWT(userID, "alex", 1)
	require.NoError(t, err)

	anonymous := serve(r, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	assert.Equal(t, http.StatusOK, anonymous.Code)
	assert.JSONEq(t, `{"user_id":"","authenticated":false}`, anonymous.Body.String())

	bad := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	bad.Header.Set("Authorization", "Bearer nope")
	w := serve(r, bad)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"","authenticated":false}`, w.Body.String())

	good := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	good.Header.Set("Authorization", "Bearer "+token)
	w = serve(r, good)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"`+userID.String()+`","authenticated":true}`, w.Body.String())
}

func TestParseLanguage(t *testing.T) {
	assert.Equal(t, "en", parseLanguage(""))
	assert.Equal(t, "zh_TW", parseLanguage("zh-TW,zh;q=0.9,en;q=0.8"))
	assert.Equal(t, "zh_TW", parseLanguage("zh-Hant"))
	assert.Equal(t, "en", parseLanguage("fr-FR,fr;q=0.9"))
	assert.Equal(t, "en", parseLanguage("en-GB"))
}

func TestAuthRequiredLocalizesMessage(t *testing.T) {
	r := principalRouter(AuthRequired())
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Accept-Language", "zh-TW")
	w := serve(r, req)

	resp := decodeEnvelope(t, w)
	require.NotNil(t, resp.Error)
	assert.NotEqual(t, "Not authorized, no token", resp.Error.Message)
	assert.NotEqual(t, "auth.required", resp.Error.Message)
}
