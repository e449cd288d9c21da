// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/datalodge/metacat/internal/logging"
)

func newKeyPair(t *testing.T) (*rsa.PrivateKey, *Verifier) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key, NewVerifierWithKey(&key.PublicKey)
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, &claims)
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestVerifyValidToken(t *testing.T) {
	key, verifier := newKeyPair(t)
	tokenStr := signToken(t, key, Claims{
		PreferredUsername: "jdoe",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := verifier.Verify(tokenStr)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Identity() != "jdoe" {
		t.Errorf("Identity() = %q, want jdoe", claims.Identity())
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	key, verifier := newKeyPair(t)
	tokenStr := signToken(t, key, Claims{
		PreferredUsername: "jdoe",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	if _, err := verifier.Verify(tokenStr); err != ErrExpiredCredentials {
		t.Errorf("expected ErrExpiredCredentials, got %v", err)
	}
}

func TestVerifyWrongKey(t *testing.T) {
	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	_, verifier := newKeyPair(t)

	tokenStr := signToken(t, otherKey, Claims{
		PreferredUsername: "jdoe",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	if _, err := verifier.Verify(tokenStr); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestVerifyTokenWithoutIdentity(t *testing.T) {
	key, verifier := newKeyPair(t)
	tokenStr := signToken(t, key, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	if _, err := verifier.Verify(tokenStr); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestMiddlewareSetsUsername(t *testing.T) {
	key, verifier := newKeyPair(t)
	tokenStr := signToken(t, key, Claims{
		Username: "fallback",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	var gotUser string
	handler := verifier.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = logging.UsernameFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/items/search/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotUser != "fallback" {
		t.Errorf("username on context = %q", gotUser)
	}
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	_, verifier := newKeyPair(t)

	handler := verifier.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/items/search/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
