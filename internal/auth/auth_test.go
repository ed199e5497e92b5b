package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/innohassle/printhub/internal/apperr"
	"github.com/innohassle/printhub/internal/ownerid"
)

type fakeResolver struct {
	byTelegramID map[string]ownerid.ID
}

func (f fakeResolver) ResolveTelegramID(_ context.Context, telegramID string) (ownerid.ID, error) {
	owner, ok := f.byTelegramID[telegramID]
	if !ok {
		return "", errNoSuchTelegramID
	}
	return owner, nil
}

var errNoSuchTelegramID = errNoSuchTelegramIDType{}

type errNoSuchTelegramIDType struct{}

func (errNoSuchTelegramIDType) Error() string { return "no such telegram id" }

func TestBotTokenWrongSecretRejected(t *testing.T) {
	g := New("https://idp.example", "correct-secret", fakeResolver{
		byTelegramID: map[string]ownerid.ID{"42": "owner-b"},
	})

	_, err := g.Authenticate(context.Background(), "42:wrong-secret")
	require.Error(t, err)
}

func TestBotTokenCorrectSecretResolves(t *testing.T) {
	g := New("https://idp.example", "correct-secret", fakeResolver{
		byTelegramID: map[string]ownerid.ID{"42": "owner-b"},
	})

	owner, err := g.Authenticate(context.Background(), "42:correct-secret")
	require.NoError(t, err)
	require.Equal(t, ownerid.ID("owner-b"), owner)
}

func TestNoCredentialsHasHint(t *testing.T) {
	g := New("https://idp.example", "secret", fakeResolver{})

	_, err := g.Authenticate(context.Background(), "")
	require.Error(t, err)

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "no-credentials", appErr.Hint)
}

func TestNotBotShapeFallsThroughToJWT(t *testing.T) {
	g := New("https://idp.example", "secret", fakeResolver{})

	// Not "digits:secret" shaped, and not a parseable JWT either — must
	// fail, not be silently accepted as a bot token.
	_, err := g.Authenticate(context.Background(), "not-a-valid-token")
	require.Error(t, err)
}
