package helpers

import (
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"

	"restaurant-admin/models"
)

// SignedDetails are the claims carried by a staff session token.
type SignedDetails struct {
	Staff_id string
	Email    string
	Name     string
	Role     string
	jwt.StandardClaims
}

// GenerateSessionToken signs a token for session valid for ttl.
func GenerateSessionToken(secret string, session models.Session, ttl time.Duration) (string, error) {
	claims := SignedDetails{
		Staff_id: session.StaffID,
		Email:    session.Email,
		Name:     session.Name,
		Role:     session.Role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Local().Add(ttl).Unix(),
			IssuedAt:  time.Now().Local().Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ValidateToken parses signedToken and returns its claims. Expired or tampered tokens fail.
func ValidateToken(secret, signedToken string) (*SignedDetails, error) {
	token, err := jwt.ParseWithClaims(
		signedToken,
		&SignedDetails{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		},
	)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*SignedDetails)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("the token is invalid")
	}
	if claims.Staff_id == "" || claims.Email == "" {
		return nil, fmt.Errorf("the token has no staff identity")
	}
	return claims, nil
}

// Session converts claims back into the request session.
func (d *SignedDetails) Session() models.Session {
	return models.Session{StaffID: d.Staff_id, Email: d.Email, Name: d.Name, Role: d.Role}
}
