// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

// Package auth validates RS256 access tokens issued by the platform's
// identity provider and puts the caller's identity on the request context.
package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"

	"github.com/datalodge/metacat/internal/config"
	"github.com/datalodge/metacat/internal/logging"
	"github.com/datalodge/metacat/internal/models"
)

var (
	ErrNoCredentials      = errors.New("no credentials provided")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrExpiredCredentials = errors.New("expired credentials")
)

// Claims is the subset of token claims the catalog cares about.
type Claims struct {
	PreferredUsername string `json:"preferred_username"`
	Username          string `json:"username"`
	jwt.RegisteredClaims
}

// Identity returns the username carried by the token.
func (c *Claims) Identity() string {
	if c.PreferredUsername != "" {
		return c.PreferredUsername
	}
	return c.Username
}

// Verifier validates bearer tokens against the configured RSA public key.
type Verifier struct {
	key *rsa.PublicKey
}

// NewVerifier parses the configured public key.
func NewVerifier(cfg config.AuthConfig) (*Verifier, error) {
	pemBytes, err := cfg.DecodePublicKey()
	if err != nil {
		return nil, err
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("parse rsa public key: %w", err)
	}
	return &Verifier{key: key}, nil
}

// NewVerifierWithKey wraps an already-parsed key; used by tests.
func NewVerifierWithKey(key *rsa.PublicKey) *Verifier {
	return &Verifier{key: key}
}

// Verify parses and validates a token string.
func (v *Verifier) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredCredentials
		}
		return nil, ErrInvalidCredentials
	}
	if !token.Valid || claims.Identity() == "" {
		return nil, ErrInvalidCredentials
	}
	return claims, nil
}

// extractToken pulls the bearer token out of the Authorization header.
func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Middleware rejects requests without a valid token and records the caller's
// identity on the context.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := extractToken(r)
		if tokenStr == "" {
			unauthorized(w, "missing bearer token")
			return
		}

		claims, err := v.Verify(tokenStr)
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Msg("token rejected")
			unauthorized(w, "invalid or expired token")
			return
		}

		ctx := logging.ContextWithUsername(r.Context(), claims.Identity())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorized(w http.ResponseWriter, msg string) {
	env := models.NewErrorEnvelope(http.StatusUnauthorized, msg)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		logging.Warn().Err(err).Msg("write unauthorized response")
	}
}
