package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/invoicer/internal/api"
	"github.com/five82/invoicer/internal/api/apitest"
)

type stubUsers struct {
	user  api.User
	err   error
	calls int
}

func (s *stubUsers) CurrentUser(context.Context) (api.User, error) {
	s.calls++
	return s.user, s.err
}

func TestBootstrap_ExplicitOwnerSkipsLookup(t *testing.T) {
	users := &stubUsers{}
	sess, err := Bootstrap(context.Background(), "  owner-7 ", users)
	require.NoError(t, err)
	assert.Equal(t, "owner-7", sess.OwnerID)
	assert.Equal(t, "owner-7", sess.Label())
	assert.Zero(t, users.calls)
}

func TestBootstrap_FetchesCurrentUser(t *testing.T) {
	srv := apitest.NewServer("u-42")
	defer srv.Close()
	client, err := api.NewClient(api.Options{BaseURL: srv.BaseURL()})
	require.NoError(t, err)

	sess, err := Bootstrap(context.Background(), "", client)
	require.NoError(t, err)
	assert.Equal(t, "u-42", sess.OwnerID)
	assert.Equal(t, "Test Owner", sess.Label())
}

func TestBootstrap_Failures(t *testing.T) {
	_, err := Bootstrap(context.Background(), "", nil)
	assert.ErrorIs(t, err, ErrNoOwner)

	_, err = Bootstrap(context.Background(), "", &stubUsers{user: api.User{Email: "x@example.com"}})
	assert.ErrorIs(t, err, ErrNoOwner)

	boom := errors.New("boom")
	_, err = Bootstrap(context.Background(), "", &stubUsers{err: boom})
	assert.ErrorIs(t, err, boom)
}
