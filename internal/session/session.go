// Package session resolves who the client is acting for. The resulting
// Session is passed explicitly to every list and draft controller.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/five82/invoicer/internal/api"
)

// ErrNoOwner is returned when no owner id could be determined.
var ErrNoOwner = errors.New("no owner id")

// Session identifies the account records are scoped to.
type Session struct {
	OwnerID     string
	DisplayName string
	Email       string
}

// Label returns a short description for the header bar.
func (s Session) Label() string {
	switch {
	case s.DisplayName != "":
		return s.DisplayName
	case s.Email != "":
		return s.Email
	default:
		return s.OwnerID
	}
}

// UserFetcher looks up the authenticated user.
type UserFetcher interface {
	CurrentUser(ctx context.Context) (api.User, error)
}

// Bootstrap builds a Session. An explicit ownerID (from config or a flag)
// is used as-is; otherwise the backend is asked for the current user.
func Bootstrap(ctx context.Context, ownerID string, users UserFetcher) (Session, error) {
	if id := strings.TrimSpace(ownerID); id != "" {
		return Session{OwnerID: id}, nil
	}
	if users == nil {
		return Session{}, ErrNoOwner
	}
	user, err := users.CurrentUser(ctx)
	if err != nil {
		return Session{}, fmt.Errorf("fetch current user: %w", err)
	}
	if strings.TrimSpace(user.ID) == "" {
		return Session{}, ErrNoOwner
	}
	return Session{OwnerID: user.ID, DisplayName: user.Name, Email: user.Email}, nil
}
