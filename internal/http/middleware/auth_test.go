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

func TestParseToken(t *testing.T) {
	tok, err := IssueToken("s3cret", 7, "Driver", time.Minute)
	require.NoError(t, err)

	claims, err := ParseToken("s3cret", tok)
	require.NoError(t, err)
	assert.EqualValues(t, 7, claims.UserID)
	assert.Equal(t, "driver", claims.Role)

	_, err = ParseToken("other", tok)
	assert.Error(t, err)

	expired, err := IssueToken("s3cret", 7, "driver", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken("s3cret", expired)
	assert.Error(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 7}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseToken("s3cret", none)
	assert.Error(t, err)

	_, err = IssueToken("", 1, "driver", time.Minute)
	assert.Error(t, err)
}

func TestAuthAndRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/driver", Auth("k"), RequireRoles("driver"), func(c *gin.Context) {
		a, _ := GetActor(c)
		c.JSON(http.StatusOK, gin.H{"user_id": a.UserID})
	})

	call := func(header string) int {
		req := httptest.NewRequest(http.MethodGet, "/driver", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	driverTok, _ := IssueToken("k", 1, "driver", time.Minute)
	riderTok, _ := IssueToken("k", 2, "passenger", time.Minute)
	adminTok, _ := IssueToken("k", 3, "admin", time.Minute)

	assert.Equal(t, http.StatusUnauthorized, call(""))
	assert.Equal(t, http.StatusUnauthorized, call("Basic abc"))
	assert.Equal(t, http.StatusOK, call("Bearer "+driverTok))
	assert.Equal(t, http.StatusForbidden, call("Bearer "+riderTok))
	assert.Equal(t, http.StatusOK, call("bearer "+adminTok))
}

func TestRequestIDPassThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}
