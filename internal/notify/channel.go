package notify

import (
	"context"

	"github.com/tartampluch/birthdayd/internal/engine"
)

// Channel delivers a birthday notification to its medium. Implementations
// must be safe for sequential reuse across daily cycles.
type Channel interface {
	Name() string
	Dispatch(ctx context.Context, b engine.UpcomingBirthday) error
}

// UserDirectory resolves display metadata for a user id.
type UserDirectory interface {
	DisplayName(ctx context.Context, userID string) (string, error)
	EmailAddress(ctx context.Context, userID string) (string, error)
}

// displayNameOr resolves a user's display name, falling back to the id when
// the directory cannot answer.
func displayNameOr(ctx context.Context, dir UserDirectory, userID string) string {
	if dir == nil {
		return userID
	}
	name, err := dir.DisplayName(ctx, userID)
	if err != nil || name == "" {
		return userID
	}
	return name
}
