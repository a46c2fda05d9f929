package notify

import (
	"context"
	"strings"

	"github.com/tartampluch/birthdayd/internal/engine"
)

// AdminSummary mails a daily digest of processed birthdays to the site
// administrator. An empty recipient disables it.
type AdminSummary struct {
	Mailer    Mailer
	Directory UserDirectory
	Templates *Templates
	Recipient string
}

// Send delivers the digest. It is a no-op for an empty birthday list or an
// unset recipient.
func (s *AdminSummary) Send(ctx context.Context, birthdays []engine.UpcomingBirthday) error {
	if s.Recipient == "" || len(birthdays) == 0 {
		return nil
	}

	var body strings.Builder
	body.WriteString(s.Templates.SummaryHeader())
	body.WriteString("\n\n")
	for _, b := range birthdays {
		name := displayNameOr(ctx, s.Directory, b.UserID)
		body.WriteString(s.Templates.SummaryLine(name, b.AgeTurning))
		body.WriteString("\n")
	}

	subject := s.Templates.SummarySubject(len(birthdays))
	return s.Mailer.Send(ctx, s.Recipient, subject, body.String())
}
