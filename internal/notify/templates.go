package notify

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/birthdayd/internal/config"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Templates renders localized notification texts with placeholder
// substitution ({name}, {age}, {site_name}).
type Templates struct {
	localizer *i18n.Localizer
	SiteName  string
}

// NewTemplates loads the embedded message catalogs and builds a localizer for
// the requested language, falling back to English.
func NewTemplates(lang, siteName string) *Templates {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		slog.Error(config.ErrLocalesAccess,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyError, err,
		)
		return &Templates{localizer: i18n.NewLocalizer(bundle, lang), SiteName: siteName}
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}
		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+name); err != nil {
			slog.Error(config.ErrLocaleLoad,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
				config.LogKeyError, err,
			)
			continue
		}
		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyFile, name,
		)
	}

	if lang == "" {
		lang = config.DefaultLanguage
	}
	return &Templates{localizer: i18n.NewLocalizer(bundle, lang), SiteName: siteName}
}

// get translates a key, falling back to the built-in English text.
func (t *Templates) get(key, fallback string) string {
	if t.localizer == nil {
		return fallback
	}
	msg, err := t.localizer.Localize(&i18n.LocalizeConfig{MessageID: key})
	if err != nil {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, key,
			config.LogKeyError, err,
		)
		return fallback
	}
	return msg
}

// render substitutes the message placeholders.
func (t *Templates) render(text, name string, age int) string {
	return strings.NewReplacer(
		config.PlaceholderName, name,
		config.PlaceholderAge, strconv.Itoa(age),
		config.PlaceholderSiteName, t.SiteName,
	).Replace(text)
}

// EmailSubject is the subject of the birthday email sent to the user.
func (t *Templates) EmailSubject(name string, age int) string {
	return t.render(t.get(config.TKeyEmailSubject, config.FallbackEmailSubject), name, age)
}

// EmailBody is the body of the birthday email sent to the user.
func (t *Templates) EmailBody(name string, age int) string {
	return t.render(t.get(config.TKeyEmailBody, config.FallbackEmailBody), name, age)
}

// ActivityPost is the activity-feed message posted on the user's behalf.
func (t *Templates) ActivityPost(name string, age int) string {
	return t.render(t.get(config.TKeyActivityPost, config.FallbackActivityPost), name, age)
}

// InAppText is the in-app notification text shown to recipients.
func (t *Templates) InAppText(name string) string {
	return t.render(t.get(config.TKeyInAppText, config.FallbackInAppText), name, 0)
}

// SummarySubject is the admin summary subject line for n birthdays.
func (t *Templates) SummarySubject(n int) string {
	subject := t.render(t.get(config.TKeySummarySubject, config.FallbackSummarySubject), "", 0)
	return strings.Replace(subject, "%d", strconv.Itoa(n), 1)
}

// SummaryHeader titles the admin summary body.
func (t *Templates) SummaryHeader() string {
	return t.get(config.TKeySummaryHeader, config.FallbackSummaryHeader)
}

// SummaryLine renders one processed user in the admin summary.
func (t *Templates) SummaryLine(name string, age int) string {
	return fmt.Sprintf(t.get(config.TKeySummaryLine, config.FallbackSummaryLine), name, age)
}
