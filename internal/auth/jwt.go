package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carried by a session token. Possession of a valid, unexpired
// token is the sole authorization mechanism; nothing is persisted
// server-side and there is no revocation list.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

func (m *Manager) IssueToken(userID, email string) (string, error) {
	now := time.Now().UTC()

	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			Subject:   userID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) VerifyToken(tokenStr string) (claims *Claims, err error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256

		_, ok := t.Method.(*jwt.SigningMethodHMAC)

		if !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})

	if err != nil {
		return
	}
	claims, ok := token.Claims.(*Claims)

	if !ok || !token.Valid {
		err = errors.New("invalid token")
		return
	}

	if claims.UserID == "" {
		err = errors.New("missing subject")
		return
	}

	return
}
