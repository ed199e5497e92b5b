package artifact

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/innohassle/printhub/internal/apperr"
	"github.com/innohassle/printhub/internal/ownerid"
)

func TestOwnershipIsolation(t *testing.T) {
	store := New(t.TempDir())

	a := ownerid.ID("owner-a")
	b := ownerid.ID("owner-b")

	handle, err := store.Put(a, ".pdf", strings.NewReader("hello"))
	require.NoError(t, err)

	_, err = store.Path(a, handle)
	require.NoError(t, err)

	_, err = store.Path(b, handle)
	require.Error(t, err)
	require.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := New(t.TempDir())
	owner := ownerid.ID("owner")

	handle, err := store.Put(owner, ".pdf", strings.NewReader("data"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(owner, handle))
	require.NoError(t, store.Delete(owner, handle)) // second delete is a no-op

	_, err = store.Path(owner, handle)
	require.Error(t, err)
}

func TestReplaceSwapsAtomically(t *testing.T) {
	store := New(t.TempDir())
	owner := ownerid.ID("owner")

	handle, err := store.Put(owner, ".pdf", strings.NewReader("v1"))
	require.NoError(t, err)

	oldPath, err := store.Path(owner, handle)
	require.NoError(t, err)

	newHandle, err := store.Replace(owner, handle, strings.NewReader("v2"), ".pdf")
	require.NoError(t, err)
	require.NotEqual(t, handle, newHandle)

	_, err = store.Path(owner, handle)
	require.Error(t, err, "old handle must no longer resolve")

	newPath, err := store.Path(owner, newHandle)
	require.NoError(t, err)
	require.NotEqual(t, oldPath, newPath)
}

func TestReplaceUnknownHandleFails(t *testing.T) {
	store := New(t.TempDir())
	owner := ownerid.ID("owner")

	_, err := store.Replace(owner, "does-not-exist", strings.NewReader("x"), ".pdf")
	require.Error(t, err)
	require.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestHandleHasNoPathSeparators(t *testing.T) {
	store := New(t.TempDir())
	owner := ownerid.ID("owner")

	handle, err := store.Put(owner, ".pdf", strings.NewReader("x"))
	require.NoError(t, err)
	require.NotContains(t, handle, "/")
	require.NotContains(t, handle, "\\")
}
