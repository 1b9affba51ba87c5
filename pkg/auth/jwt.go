package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/bookstay/bookstay/internal/domain"
)

type JWTServiceInterface interface {
	GenerateJWT(principal domain.Principal, expirationTime time.Time) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type Claims struct {
	UserID int64  `json:"user_id"`
	Kind   string `json:"kind"`
	jwt.StandardClaims
}

type JWTService struct {
	secret []byte
}

func NewJWTService(secret string) *JWTService {
	return &JWTService{secret: []byte(secret)}
}

func (s *JWTService) GenerateJWT(principal domain.Principal, expirationTime time.Time) (string, error) {
	claims := Claims{
		UserID: principal.ID,
		Kind:   string(principal.Kind),
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: expirationTime.Unix(),
			Issuer:    "bookstay",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.UserID == 0 || claims.Issuer != "bookstay" {
		return nil, errors.New("invalid token claims")
	}

	switch domain.OwnerKind(claims.Kind) {
	case domain.KindUser, domain.KindPartner, domain.KindAdmin:
	default:
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}
