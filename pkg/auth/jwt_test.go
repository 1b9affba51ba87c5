package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"

	"github.com/bookstay/bookstay/internal/domain"
)

func TestGenerateJWT(t *testing.T) {
	jwtService := NewJWTService("test-secret")

	tests := []struct {
		name           string
		principal      domain.Principal
		expirationTime time.Time
		expectError    bool
	}{
		{
			name:           "Valid Token",
			principal:      domain.Principal{ID: 123, Kind: domain.KindUser},
			expirationTime: time.Now().Add(time.Hour),
			expectError:    false,
		},
		{
			name:           "Partner Token",
			principal:      domain.Principal{ID: 7, Kind: domain.KindPartner},
			expirationTime: time.Now().Add(time.Hour),
			expectError:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := jwtService.GenerateJWT(tt.principal, tt.expirationTime)

			if tt.expectError {
				assert.Error(t, err)
				assert.Empty(t, token)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, token)
			}
		})
	}
}

func TestValidateToken(t *testing.T) {
	jwtService := NewJWTService("test-secret")

	tests := []struct {
		name        string
		tokenString string
		setup       func() string
		expectError bool
		expectKind  domain.OwnerKind
	}{
		{
			name: "Valid Token",
			setup: func() string {
				token, _ := jwtService.GenerateJWT(domain.Principal{ID: 123, Kind: domain.KindUser}, time.Now().Add(time.Hour))
				return token
			},
			expectError: false,
			expectKind:  domain.KindUser,
		},
		{
			name: "Admin Token",
			setup: func() string {
				token, _ := jwtService.GenerateJWT(domain.Principal{ID: 1, Kind: domain.KindAdmin}, time.Now().Add(time.Hour))
				return token
			},
			expectError: false,
			expectKind:  domain.KindAdmin,
		},
		{
			name:        "Invalid Token",
			tokenString: "invalid.token.string",
			expectError: true,
		},
		{
			name: "Expired Token",
			setup: func() string {
				token, _ := jwtService.GenerateJWT(domain.Principal{ID: 123, Kind: domain.KindUser}, time.Now().Add(-time.Hour))
				return token
			},
			expectError: true,
		},
		{
			name: "Wrong Secret",
			setup: func() string {
				other := NewJWTService("other-secret")
				token, _ := other.GenerateJWT(domain.Principal{ID: 123, Kind: domain.KindUser}, time.Now().Add(time.Hour))
				return token
			},
			expectError: true,
		},
		{
			name: "Unknown Kind",
			setup: func() string {
				token, _ := jwtService.GenerateJWT(domain.Principal{ID: 123, Kind: "robot"}, time.Now().Add(time.Hour))
				return token
			},
			expectError: true,
		},
		{
			name: "Missing UserID",
			setup: func() string {
				token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
					ExpiresAt: time.Now().Add(time.Hour).Unix(),
					Issuer:    "bookstay",
				})
				signedToken, _ := token.SignedString([]byte("test-secret"))
				return signedToken
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tokenString string
			if tt.setup != nil {
				tokenString = tt.setup()
			} else {
				tokenString = tt.tokenString
			}

			claims, err := jwtService.ValidateToken(tokenString)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, claims)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, claims)
				assert.Equal(t, string(tt.expectKind), claims.Kind)
			}
		})
	}
}
