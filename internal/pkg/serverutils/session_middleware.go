package serverutils

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const SessionLocalKey = "session_id"

type SessionConfig struct {
	CookieName string
	Secret     []byte
	TTL        time.Duration
	Secure     bool
}

type sessionClaims struct {
	SessionId string `json:"sid"`
	jwt.RegisteredClaims
}

// SessionMiddleware resolves the browser session from a signed cookie, minting
// a new one when the cookie is missing, tampered with or expired. The cookie
// is re-issued on every request so the session slides with activity.
func SessionMiddleware(cfg SessionConfig) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		sessionId, err := ParseSessionToken(ctx.Cookies(cfg.CookieName), cfg.Secret)
		if err != nil {
			sessionId = uuid.NewString()
		}

		token, err := IssueSessionToken(sessionId, cfg.Secret, cfg.TTL, time.Now())
		if err != nil {
			return err
		}

		ctx.Cookie(&fiber.Cookie{
			Name:     cfg.CookieName,
			Value:    token,
			Path:     "/",
			Expires:  time.Now().Add(cfg.TTL),
			HTTPOnly: true,
			Secure:   cfg.Secure,
			SameSite: fiber.CookieSameSiteStrictMode,
		})

		ctx.Locals(SessionLocalKey, sessionId)
		return ctx.Next()
	}
}

func SessionID(ctx *fiber.Ctx) string {
	id, _ := ctx.Locals(SessionLocalKey).(string)
	return id
}

func IssueSessionToken(sessionId string, secret []byte, ttl time.Duration, now time.Time) (string, error) {
	claims := sessionClaims{
		SessionId: sessionId,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func ParseSessionToken(tokenStr string, secret []byte) (string, error) {
	if tokenStr == "" {
		return "", errors.New("missing session token")
	}

	var claims sessionClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", errors.New("invalid session token")
	}

	if _, err := uuid.Parse(claims.SessionId); err != nil {
		return "", errors.New("invalid session id")
	}
	return claims.SessionId, nil
}

// APIKey reads the model credential from X-Api-Key or a bearer Authorization header.
func APIKey(ctx *fiber.Ctx) string {
	if key := ctx.Get("X-Api-Key"); key != "" {
		return key
	}
	authHeader := ctx.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return ""
}
