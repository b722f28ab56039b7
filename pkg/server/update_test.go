package server

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v4"
	"github.com/raterudder/froniuscollector/pkg/collector"
	"github.com/raterudder/froniuscollector/pkg/storage/storagemock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "https://issuer.example.com"
	testAudience = "https://collector.example.com"
)

func setupOIDCTest(t *testing.T) (*rsa.PrivateKey, tokenVerifier) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	keySet := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&priv.PublicKey}}
	verifier := oidc.NewVerifier(testIssuer, keySet, &oidc.Config{ClientID: testAudience})
	return priv, verifier.Verify
}

func generateTestToken(t *testing.T, priv *rsa.PrivateKey, audience, email string) string {
	t.Helper()
	return generateTestTokenVerified(t, priv, audience, email, true)
}

func generateTestTokenVerified(t *testing.T, priv *rsa.PrivateKey, audience, email string, verified bool) string {
	t.Helper()
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss":            testIssuer,
		"aud":            audience,
		"sub":            "scheduler",
		"email":          email,
		"email_verified": verified,
		"iat":            now.Unix(),
		"exp":            now.Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(priv)
	require.NoError(t, err)
	return signed
}

func TestHandleUpdate(t *testing.T) {
	t.Run("No Auth Configured", func(t *testing.T) {
		api := &fakeAPI{}
		srv := newTestServer(t, api, okSink())
		handler := srv.setupHandler()

		req := httptest.NewRequest(http.MethodPost, "/api/update", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var res collector.Result
		require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
		assert.True(t, res.Connected)
		assert.Len(t, res.Channels, 2)
		assert.Equal(t, int32(2), api.calls.Load())

		_, ok := srv.collector.Latest()
		assert.True(t, ok)
	})

	t.Run("GET Not Allowed", func(t *testing.T) {
		srv := newTestServer(t, &fakeAPI{}, okSink())
		req := httptest.NewRequest(http.MethodGet, "/api/update", nil)
		w := httptest.NewRecorder()
		srv.setupHandler().ServeHTTP(w, req)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})

	t.Run("Connect Failure", func(t *testing.T) {
		sink := &storagemock.MockSink{}
		c := collector.New(func(ctx context.Context) (collector.API, error) {
			return nil, errors.New("no route to host")
		}, sink, collector.Config{Interval: time.Minute, Channels: []collector.Channel{collector.ChannelPowerFlow}})
		srv := &Server{collector: c, storage: sink}

		req := httptest.NewRequest(http.MethodPost, "/api/update", nil)
		w := httptest.NewRecorder()
		srv.setupHandler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), "no route to host")
		sink.AssertNotCalled(t, "WritePoints", mock.Anything, mock.Anything)
	})

	t.Run("Write Failure", func(t *testing.T) {
		sink := &storagemock.MockSink{}
		sink.On("WritePoints", mock.Anything, mock.Anything).Return(errors.New("influx down"))
		srv := newTestServer(t, &fakeAPI{}, sink)

		req := httptest.NewRequest(http.MethodPost, "/api/update", nil)
		w := httptest.NewRecorder()
		srv.setupHandler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"influx down"}`, w.Body.String())
	})
}

func TestHandleUpdateAuth(t *testing.T) {
	priv, verifier := setupOIDCTest(t)
	otherKey, _ := setupOIDCTest(t)

	tests := []struct {
		name   string
		emails []string
		header string
		code   int
		called bool
	}{
		{
			name:   "Missing Header",
			header: "",
			code:   http.StatusUnauthorized,
		},
		{
			name:   "Not Bearer",
			header: "Basic dXNlcjpwYXNz",
			code:   http.StatusUnauthorized,
		},
		{
			name:   "Wrong Audience",
			header: "Bearer " + generateTestToken(t, priv, "https://other.example.com", "scheduler@example.com"),
			code:   http.StatusUnauthorized,
		},
		{
			name:   "Wrong Signer",
			header: "Bearer " + generateTestToken(t, otherKey, testAudience, "scheduler@example.com"),
			code:   http.StatusUnauthorized,
		},
		{
			name:   "Valid Token",
			header: "Bearer " + generateTestToken(t, priv, testAudience, "anyone@example.com"),
			code:   http.StatusOK,
			called: true,
		},
		{
			name:   "Allowed Email",
			emails: []string{"admin@example.com", "scheduler@example.com"},
			header: "Bearer " + generateTestToken(t, priv, testAudience, "scheduler@example.com"),
			code:   http.StatusOK,
			called: true,
		},
		{
			name:   "Unverified Email",
			emails: []string{"scheduler@example.com"},
			header: "Bearer " + generateTestTokenVerified(t, priv, testAudience, "scheduler@example.com", false),
			code:   http.StatusForbidden,
		},
		{
			name:   "Forbidden Email",
			emails: []string{"admin@example.com"},
			header: "Bearer " + generateTestToken(t, priv, testAudience, "scheduler@example.com"),
			code:   http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{}
			srv := newTestServer(t, api, okSink())
			srv.updateVerifier = verifier
			srv.updateEmails = tt.emails

			req := httptest.NewRequest(http.MethodPost, "/api/update", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			srv.setupHandler().ServeHTTP(w, req)

			assert.Equal(t, tt.code, w.Code, w.Body.String())
			if tt.called {
				assert.NotZero(t, api.calls.Load())
			} else {
				assert.Zero(t, api.calls.Load())
			}
		})
	}
}
