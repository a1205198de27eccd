package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/aau-transit/bustrack/internal/db"
	"github.com/aau-transit/bustrack/internal/model"
	"github.com/aau-transit/bustrack/internal/redis"
)

type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWrongType    = errors.New("wrong token type")
)

// Claims carries the account id in "sub" and the session id in "ses". Every token issued at
// one sign-in shares the session id, so revoking it logs the whole session out.
type Claims struct {
	Kind    model.AccountKind `json:"kind"`
	Session string            `json:"ses"`
	Type    TokenType         `json:"type"`
	jwt.StandardClaims
}

func (c *Claims) AccountID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type TokenIssuer struct {
	cfg TokenConfig
	now func() time.Time
}

func NewTokenIssuer(cfg TokenConfig) *TokenIssuer {
	return &TokenIssuer{cfg: cfg, now: time.Now}
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	SessionID    string
}

// RefreshTTL bounds the lifetime of every token in a session.
func (t *TokenIssuer) RefreshTTL() time.Duration { return t.cfg.RefreshTTL }

func (t *TokenIssuer) sign(account *model.Account, session string, typ TokenType) (string, error) {
	secret, ttl := t.cfg.AccessSecret, t.cfg.AccessTTL
	if typ == TokenRefresh {
		secret, ttl = t.cfg.RefreshSecret, t.cfg.RefreshTTL
	}
	now := t.now()
	claims := Claims{
		Kind:    account.Kind,
		Session: session,
		Type:    typ,
		StandardClaims: jwt.StandardClaims{
			Subject:   account.ID.String(),
			Issuer:    t.cfg.Issuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// IssuePair starts a new session for account.
func (t *TokenIssuer) IssuePair(account *model.Account) (*TokenPair, error) {
	session := uuid.NewString()
	access, err := t.sign(account, session, TokenAccess)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := t.sign(account, session, TokenRefresh)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(t.cfg.AccessTTL / time.Second),
		SessionID:    session,
	}, nil
}

// IssueAccess signs a fresh access token inside an existing session.
func (t *TokenIssuer) IssueAccess(account *model.Account, session string) (string, error) {
	return t.sign(account, session, TokenAccess)
}

func (t *TokenIssuer) AccessTTL() time.Duration { return t.cfg.AccessTTL }

func (t *TokenIssuer) ParseAccess(token string) (*Claims, error) {
	return t.parse(token, t.cfg.AccessSecret, TokenAccess)
}

func (t *TokenIssuer) ParseRefresh(token string) (*Claims, error) {
	return t.parse(token, t.cfg.RefreshSecret, TokenRefresh)
}

func (t *TokenIssuer) parse(tokenString, secret string, want TokenType) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if t.cfg.Issuer != "" && !claims.VerifyIssuer(t.cfg.Issuer, true) {
		return nil, ErrInvalidToken
	}
	if claims.Type != want {
		return nil, ErrWrongType
	}
	if _, err := claims.AccountID(); err != nil || claims.Session == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// checks "Authorization: Bearer <token>", verifies it, rejects revoked sessions, loads the
// account and sets "currentAccount" in context.
func JWTMiddleware(issuer *TokenIssuer, sessions redis.Store, store db.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing auth header"})
			return
		}
		raw, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid auth header"})
			return
		}

		claims, err := issuer.ParseAccess(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		revoked, err := sessions.IsRevoked(c.Request.Context(), claims.Session)
		if err != nil {
			log.Error().Err(err).Msg("session lookup failed")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "session store unavailable"})
			return
		}
		if revoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session has ended"})
			return
		}

		accountID, _ := claims.AccountID()
		account, err := store.GetAccountByID(c.Request.Context(), accountID)
		if err != nil || !account.CanSignIn() || account.Kind != claims.Kind {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account not found"})
			return
		}

		c.Set(currentAccountKey, account)
		c.Set(currentClaimsKey, claims)
		c.Next()
	}
}
