package auth

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kawafuchieirin/milestone-manager/internal"
)

// JWTAuthProvider verifies HS256 bearer tokens issued by the identity
// service. The subject claim carries the user id, "email" and "name" are
// optional.
type JWTAuthProvider struct {
	secret []byte
	logger internal.Logger
}

func NewJWTAuthProvider(secret string, logger internal.Logger) *JWTAuthProvider {
	return &JWTAuthProvider{secret: []byte(secret), logger: logger}
}

func (a *JWTAuthProvider) ValidateTokenLocal(token string) (*internal.User, error) {
	return nil, errors.New("not implemented in JWTAuthProvider")
}

func (a *JWTAuthProvider) ValidateTokenRemote(ctx context.Context, tokenString string) (*internal.User, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		a.logger.Warnf("token validation failed: %v", err)
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, errors.New("token missing subject")
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)

	return &internal.User{ID: sub, Email: email, Name: name}, nil
}
