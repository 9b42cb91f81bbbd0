// Package jwtauth firma y verifica los access tokens del servicio (HS256).
// Implementa auth.AuthVerifier y auth.TokenIssuer.
package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"adoption-followup/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
)

const (
	MinSecretLen    = 32
	DefaultLifetime = 30 * time.Minute
)

var (
	ErrSecretTooShort = errors.New("jwt secret must have at least 32 characters")
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token expired")
)

type Config struct {
	Secret   string
	Lifetime time.Duration
	Issuer   string
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Service struct {
	secret   []byte
	lifetime time.Duration
	issuer   string
	now      func() time.Time
}

func New(cfg Config) (*Service, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if len(secret) < MinSecretLen {
		return nil, ErrSecretTooShort
	}
	lifetime := cfg.Lifetime
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	return &Service{
		secret:   []byte(secret),
		lifetime: lifetime,
		issuer:   cfg.Issuer,
		now:      time.Now,
	}, nil
}

func (s *Service) Issue(_ context.Context, c auth.Claims) (auth.Token, error) {
	if strings.TrimSpace(c.UserID) == "" {
		return auth.Token{}, errors.New("claims without user id")
	}
	now := s.now()
	exp := now.Add(s.lifetime)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: c.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.UserID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return auth.Token{}, fmt.Errorf("sign token: %w", err)
	}
	return auth.Token{AccessToken: signed, ExpiresAt: exp}, nil
}

func (s *Service) Verify(_ context.Context, token string) (auth.Claims, error) {
	var c claims
	tok, err := jwt.ParseWithClaims(strings.TrimSpace(token), &c, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return auth.Claims{}, ErrExpiredToken
		}
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid || c.Subject == "" {
		return auth.Claims{}, ErrInvalidToken
	}
	return auth.Claims{UserID: c.Subject, Role: c.Role}, nil
}
