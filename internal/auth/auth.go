// Package auth implements the Auth Gate (spec §4.7): resolving a bearer
// credential — either a user JWT or a bot-composite token — into an owner
// id.
package auth

import (
	"context"
	"crypto/rsa"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/innohassle/printhub/internal/apperr"
	"github.com/innohassle/printhub/internal/ownerid"
)

// keyTTL bounds how long a fetched identity-provider public key is trusted
// before being re-fetched, the same TTL-cache shape as the Printer Status
// Aggregator.
const keyTTL = 10 * time.Minute

// IdentityResolver resolves a telegram numeric id to an owner id, the
// identity-provider side of the bot-composite token shape.
type IdentityResolver interface {
	ResolveTelegramID(ctx context.Context, telegramID string) (ownerid.ID, error)
}

// Gate verifies bearer credentials per spec §4.7.
type Gate struct {
	IdentityProviderURL string
	BotSecret           string
	HTTP                *http.Client
	Resolver            IdentityResolver

	mu        sync.Mutex
	key       *rsa.PublicKey
	keyExpiry time.Time
}

// New returns a Gate. identityProviderURL is polled for the JWT public key;
// botSecret is the configured shared secret for bot-composite tokens.
func New(identityProviderURL, botSecret string, resolver IdentityResolver) *Gate {
	return &Gate{
		IdentityProviderURL: identityProviderURL,
		BotSecret:           botSecret,
		HTTP:     &http.Client{Timeout: 10 * time.Second},
		Resolver: resolver,
	}
}

// noCredentialsHint is attached to the error when credential is empty, so
// API clients can distinguish "you sent nothing" from "what you sent is
// wrong" (spec §4.7).
const noCredentialsHint = "no-credentials"

// Authenticate resolves credential into an owner id.
func (g *Gate) Authenticate(ctx context.Context, credential string) (ownerid.ID, error) {
	if credential == "" {
		return "", apperr.New(apperr.Unauthorized, fmt.Errorf("auth: no credentials")).WithHint(noCredentialsHint)
	}

	if telegramID, secret, ok := splitBotToken(credential); ok {
		return g.authenticateBot(ctx, telegramID, secret)
	}

	return g.authenticateJWT(ctx, credential)
}

// splitBotToken recognizes the "<telegramId>:<botSecret>" shape (spec §6):
// numeric id, a colon, then a non-empty secret.
func splitBotToken(credential string) (telegramID, secret string, ok bool) {
	i := strings.IndexByte(credential, ':')
	if i <= 0 || i == len(credential)-1 {
		return "", "", false
	}
	id, secret := credential[:i], credential[i+1:]
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return "", "", false
	}
	return id, secret, true
}

func (g *Gate) authenticateBot(ctx context.Context, telegramID, secret string) (ownerid.ID, error) {
	if subtle.ConstantTimeCompare([]byte(secret), []byte(g.BotSecret)) != 1 {
		return "", apperr.New(apperr.Unauthorized, fmt.Errorf("auth: bad bot secret"))
	}

	owner, err := g.Resolver.ResolveTelegramID(ctx, telegramID)
	if err != nil {
		return "", apperr.New(apperr.Unauthorized, fmt.Errorf("auth: resolve telegram id: %w", err))
	}
	return owner, nil
}

func (g *Gate) authenticateJWT(ctx context.Context, raw string) (ownerid.ID, error) {
	key, err := g.publicKey(ctx)
	if err != nil {
		return "", apperr.New(apperr.Unauthorized, fmt.Errorf("auth: fetch signing key: %w", err))
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return key, nil
	}, jwt.WithValidMethods([]string{"RS256"}))
	if err != nil || !token.Valid {
		return "", apperr.New(apperr.Unauthorized, fmt.Errorf("auth: invalid token: %w", err))
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", apperr.New(apperr.Unauthorized, fmt.Errorf("auth: malformed claims"))
	}

	uid, ok := claims["uid"].(string)
	if !ok || uid == "" {
		return "", apperr.New(apperr.Unauthorized, fmt.Errorf("auth: missing uid claim"))
	}

	return ownerid.ID(uid), nil
}

// publicKey returns the identity provider's current signing key, refetching
// at most once per keyTTL window.
func (g *Gate) publicKey(ctx context.Context) (*rsa.PublicKey, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.key != nil && time.Now().Before(g.keyExpiry) {
		return g.key, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.IdentityProviderURL+"/jwks", nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity provider returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var payload struct {
		PEM string `json:"public_key_pem"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(payload.PEM))
	if err != nil {
		return nil, err
	}

	g.key = key
	g.keyExpiry = time.Now().Add(keyTTL)
	return key, nil
}
