package notify

import (
	"context"

	"github.com/tartampluch/birthdayd/internal/config"
	"github.com/tartampluch/birthdayd/internal/engine"
)

// ActivityPoster publishes a message to the site activity stream on behalf
// of a user.
type ActivityPoster interface {
	PostActivity(ctx context.Context, userID, message string) error
}

// ActivityChannel announces the birthday on the activity stream.
type ActivityChannel struct {
	Poster    ActivityPoster
	Directory UserDirectory
	Templates *Templates
}

func (c *ActivityChannel) Name() string { return config.ChannelActivity }

func (c *ActivityChannel) Dispatch(ctx context.Context, b engine.UpcomingBirthday) error {
	name := displayNameOr(ctx, c.Directory, b.UserID)
	return c.Poster.PostActivity(ctx, b.UserID, c.Templates.ActivityPost(name, b.AgeTurning))
}
