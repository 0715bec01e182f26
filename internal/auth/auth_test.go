package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedVerifier(secret, issuer string, now time.Time) *Verifier {
	v := NewVerifier(secret, issuer)
	v.now = func() time.Time { return now }
	return v
}

func TestVerifier_RoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	v := fixedVerifier("s3cret", "calculated", now)

	token, err := v.Sign("user-42", time.Hour)
	require.NoError(t, err)

	userID, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)
}

func TestVerifier_Rejects(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	v := fixedVerifier("s3cret", "calculated", now)

	expired, err := fixedVerifier("s3cret", "calculated", now.Add(-2*time.Hour)).Sign("user-42", time.Hour)
	require.NoError(t, err)

	otherKey, err := fixedVerifier("other", "calculated", now).Sign("user-42", time.Hour)
	require.NoError(t, err)

	otherIssuer, err := fixedVerifier("s3cret", "elsewhere", now).Sign("user-42", time.Hour)
	require.NoError(t, err)

	noSubject, err := v.Sign("", time.Hour)
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "user-42",
		Issuer:    "calculated",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	tests := map[string]string{
		"empty":        "",
		"garbage":      "not-a-token",
		"expired":      expired,
		"wrong key":    otherKey,
		"wrong issuer": otherIssuer,
		"no subject":   noSubject,
		"wrong alg":    hs512,
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(token)
			assert.True(t, errors.Is(err, ErrInvalidToken), "got %v", err)
		})
	}
}

func TestVerifier_NoIssuerConfigured(t *testing.T) {
	now := time.Now()
	token, err := fixedVerifier("s3cret", "anyone", now).Sign("user-1", time.Minute)
	require.NoError(t, err)

	userID, err := fixedVerifier("s3cret", "", now).Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestVerifier_Unconfigured(t *testing.T) {
	_, err := NewVerifier("", "").Verify("abc")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidToken))
}

func TestMiddleware(t *testing.T) {
	v := NewVerifier("s3cret", "")
	token, err := v.Sign("user-7", time.Hour)
	require.NoError(t, err)

	var seen string
	handler := v.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("anonymous passes through", func(t *testing.T) {
		seen = ""
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Empty(t, seen)
	})

	t.Run("valid bearer", func(t *testing.T) {
		seen = ""
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, "user-7", seen)
	})

	t.Run("bad bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "User not allowed for this request", body["message"])
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestRequireUser(t *testing.T) {
	handler := RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodPut, "/", nil)
	req = req.WithContext(WithUserID(req.Context(), "user-1"))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestWriteUnauthorized_LogsEncodeFailure(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	w := brokenWriter{httptest.NewRecorder()}
	writeUnauthorized(w)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "error encoding response", entry.Message)
}
