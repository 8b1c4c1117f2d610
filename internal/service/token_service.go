package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService valida los access tokens del proveedor de identidad y puede
// emitirlos para desarrollo local y tests. El signup y login reales viven en
// el servicio de identidad, no acá.
type TokenService struct {
	secret    []byte
	accessTTL time.Duration
	issuer    string
}

type Claims struct {
	DisplayName string `json:"display_name,omitempty"`
	TokenType   string `json:"typ"`
	jwt.RegisteredClaims
}

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

func NewTokenService(secret string, accessTTL time.Duration) *TokenService {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	return &TokenService{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		issuer:    "skillswap",
	}
}

// MintAccessToken firma un access token HS256 para el subject dado.
func (s *TokenService) MintAccessToken(subject, displayName string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrTokenInvalid
	}
	if strings.TrimSpace(subject) == "" {
		return "", ErrTokenInvalid
	}
	now := time.Now().UTC()
	claims := Claims{
		DisplayName: displayName,
		TokenType:   "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseAccessToken valida el token y devuelve sus claims.
func (s *TokenService) ParseAccessToken(accessToken string) (Claims, error) {
	if len(s.secret) == 0 {
		return Claims{}, ErrTokenInvalid
	}
	if strings.TrimSpace(accessToken) == "" {
		return Claims{}, ErrTokenInvalid
	}

	var claims Claims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(accessToken, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}

	if claims.TokenType != "access" {
		return Claims{}, ErrTokenInvalid
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Claims{}, ErrTokenInvalid
	}
	if strings.TrimSpace(claims.Issuer) != s.issuer {
		return Claims{}, ErrTokenInvalid
	}
	return claims, nil
}
