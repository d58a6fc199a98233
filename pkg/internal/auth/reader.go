package auth

import (
	"fmt"
	"strconv"

	"github.com/eventhost/pulse/pkg/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims mirrors what the external auth service signs into its tokens:
// the account id as subject plus the display name and role.
type Claims struct {
	Name string `json:"name"`
	Role string `json:"role"`

	jwt.RegisteredClaims
}

// TokenReader verifies bearer tokens issued by the auth collaborator. The
// verified role carried here is the one privileged writes are gated on; a
// connection's self-declared routing role never is.
type TokenReader struct {
	secret []byte
}

func NewTokenReader(secret string) (*TokenReader, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("jwt secret is not configured")
	}
	return &TokenReader{secret: []byte(secret)}, nil
}

func (v *TokenReader) ReadToken(token string) (models.Account, error) {
	var account models.Account

	claims := new(Claims)
	out, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return account, fmt.Errorf("unable to parse token: %v", err)
	}
	if !out.Valid {
		return account, fmt.Errorf("invalid token")
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return account, fmt.Errorf("malformed token subject: %v", err)
	}

	account = models.Account{
		BaseModel: models.BaseModel{ID: uint(id)},
		Name:      claims.Name,
		Role:      claims.Role,
	}

	return account, nil
}
