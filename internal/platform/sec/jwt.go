// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides roles and the signing of browser-session cookies.
//
// # Architecture
//
// The cookie only carries an opaque session id. The identity itself lives in
// the session store, so a stolen cookie cannot be edited to raise a role.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the payload of a session cookie token.
type SessionClaims struct {
	jwt.RegisteredClaims

	// SessionID identifies the browser session (and its persisted identity).
	SessionID string `json:"sid"`
}

// TokenService signs and verifies session cookie tokens with HS256.
type TokenService struct {
	secret []byte
	issuer string
}

// NewTokenService creates a new TokenService from a shared secret.
func NewTokenService(secret, issuer string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("sec: session secret must be at least 16 bytes")
	}
	return &TokenService{secret: []byte(secret), issuer: issuer}, nil
}

// IssueSessionToken signs a token for sessionID valid for timeToLive.
func (service *TokenService) IssueSessionToken(sessionID string, timeToLive time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(timeToLive)),
		},
		SessionID: sessionID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign session token: %w", err)
	}
	return signed, nil
}

// VerifySessionToken checks the signature, issuer and expiry of a token and
// returns the session id it carries.
func (service *TokenService) VerifySessionToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.secret, nil
	}, jwt.WithIssuer(service.issuer))
	if err != nil {
		return "", fmt.Errorf("sec: invalid session token: %w", err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return "", errors.New("sec: invalid session token claims")
	}
	return claims.SessionID, nil
}
