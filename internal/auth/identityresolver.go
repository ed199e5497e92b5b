package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/innohassle/printhub/internal/ownerid"
)

// HTTPIdentityResolver resolves telegram ids against the identity
// provider's user-lookup endpoint (original_source's innohassle_accounts
// client calls a sibling endpoint the same way: a GET keyed on the
// telegram id, a JSON body carrying the resolved account id).
type HTTPIdentityResolver struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// NewHTTPIdentityResolver returns a resolver hitting baseURL, authenticated
// with the identity provider's own service token.
func NewHTTPIdentityResolver(baseURL, token string) *HTTPIdentityResolver {
	return &HTTPIdentityResolver{
		BaseURL: baseURL,
		Token:   token,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (h *HTTPIdentityResolver) ResolveTelegramID(ctx context.Context, telegramID string) (ownerid.ID, error) {
	endpoint := h.BaseURL + "/users/by-telegram-id/" + url.PathEscape(telegramID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	if h.Token != "" {
		req.Header.Set("Authorization", "Bearer "+h.Token)
	}

	resp, err := h.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("auth: no innohassle account linked to telegram id %s", telegramID)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("auth: identity provider returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", err
	}

	var payload struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", err
	}
	if payload.ID == "" {
		return "", fmt.Errorf("auth: identity provider returned empty id")
	}

	return ownerid.ID(payload.ID), nil
}
