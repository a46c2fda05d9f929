package engine

import (
	"context"

	"github.com/tartampluch/birthdayd/internal/config"
)

// ViewerContext describes on whose behalf a query runs. The zero value is an
// anonymous viewer; batch passes run with a privileged system viewer.
type ViewerContext struct {
	ViewerID string
	LoggedIn bool
	IsAdmin  bool
}

// FriendshipChecker is the relationship lookup the friends visibility level
// delegates to.
type FriendshipChecker interface {
	AreFriends(ctx context.Context, a, b string) (bool, error)
}

// IsVisible decides whether a subject's birthday field may be shown to the
// viewer, given the field's configured visibility level.
//
// onlyme is never visible here: this engine always runs on behalf of a
// different viewer or a batch context. Unrecognized levels are permissive,
// matching how profile systems treat custom visibility registrations.
func IsVisible(ctx context.Context, level, subjectID string, viewer ViewerContext, friends FriendshipChecker) bool {
	switch level {
	case config.VisibilityPublic, "":
		return true
	case config.VisibilityLoggedIn:
		return viewer.LoggedIn
	case config.VisibilityAdminsOnly:
		return viewer.IsAdmin
	case config.VisibilityFriends:
		if viewer.IsAdmin {
			return true
		}
		if friends == nil || viewer.ViewerID == "" {
			return false
		}
		ok, err := friends.AreFriends(ctx, viewer.ViewerID, subjectID)
		return err == nil && ok
	case config.VisibilityOnlyMe:
		return false
	default:
		return true
	}
}
