package notify

import (
	"context"
	"fmt"

	"github.com/tartampluch/birthdayd/internal/config"
	"github.com/tartampluch/birthdayd/internal/engine"
)

// EmailChannel mails birthday wishes directly to the celebrating user.
type EmailChannel struct {
	Mailer    Mailer
	Directory UserDirectory
	Templates *Templates
}

func (c *EmailChannel) Name() string { return config.ChannelEmail }

func (c *EmailChannel) Dispatch(ctx context.Context, b engine.UpcomingBirthday) error {
	addr, err := c.Directory.EmailAddress(ctx, b.UserID)
	if err != nil {
		return fmt.Errorf("%s %s: %w", config.ChannelEmail, b.UserID, err)
	}
	if addr == "" {
		return nil
	}

	name := displayNameOr(ctx, c.Directory, b.UserID)
	subject := c.Templates.EmailSubject(name, b.AgeTurning)
	body := c.Templates.EmailBody(name, b.AgeTurning)
	return c.Mailer.Send(ctx, addr, subject, body)
}
