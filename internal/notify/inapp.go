package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tartampluch/birthdayd/internal/config"
	"github.com/tartampluch/birthdayd/internal/engine"
)

// Notifier delivers an in-app notification to a single recipient.
type Notifier interface {
	Notify(ctx context.Context, recipientID, itemID, notificationType string) error
}

// FriendLister returns the confirmed friends of a user.
type FriendLister interface {
	FriendsOf(ctx context.Context, userID string) ([]string, error)
}

// InAppChannel fans an in-app notification out to the birthday user's
// audience. With FriendsOnly set the audience is their friend list,
// otherwise every member up to the broadcast cap.
type InAppChannel struct {
	Notifier    Notifier
	Friends     FriendLister
	Members     engine.MemberDirectory
	FriendsOnly bool
}

func (c *InAppChannel) Name() string { return config.ChannelInApp }

func (c *InAppChannel) Dispatch(ctx context.Context, b engine.UpcomingBirthday) error {
	recipients, err := c.audience(ctx, b.UserID)
	if err != nil {
		return err
	}

	var firstErr error
	sent := 0
	for _, recipient := range recipients {
		if recipient == b.UserID {
			continue
		}
		if sent >= config.BroadcastRecipientCap {
			break
		}
		if err := c.Notifier.Notify(ctx, recipient, b.UserID, config.NotificationAction); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		sent++
	}

	slog.Debug(config.MsgDispatched,
		config.LogKeyComponent, config.CompNotify,
		config.LogKeyChannel, config.ChannelInApp,
		config.LogKeyUser, b.UserID,
		config.LogKeyCount, sent,
	)
	return firstErr
}

func (c *InAppChannel) audience(ctx context.Context, userID string) ([]string, error) {
	if c.FriendsOnly {
		if c.Friends == nil {
			return nil, errors.New(config.MsgRelationsAbsent)
		}
		return c.Friends.FriendsOf(ctx, userID)
	}
	// One extra so excluding the birthday user still fills the cap.
	return c.Members.ListMemberIDs(ctx, config.BroadcastRecipientCap+1)
}
