package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client.
var UserAgent = "Birthdayd/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName        = "Birthdayd"
	AppID          = "com.github.tartampluch.birthdayd"
	KeyringService = "com.github.tartampluch.birthdayd"
	DefaultSite    = "Birthdayd"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	FilePermUserRW fs.FileMode = 0600

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagVersion      = "version"
	FlagDebug        = "debug"
	FlagAddr         = "addr"
	FlagStore        = "store"
	FlagDSN          = "dsn"
	FlagVCFPath      = "vcf"
	FlagVCFURL       = "vcf-url"
	FlagVCFUser      = "vcf-user"
	FlagField        = "field"
	FlagSMTPAddr     = "smtp"
	FlagSMTPFrom     = "smtp-from"
	FlagSMTPUser     = "smtp-user"
	FlagAdminEmail   = "admin-email"
	FlagSendTime     = "send-time"
	FlagSiteName     = "site-name"
	FlagLanguage     = "lang"
	FlagDescVersion  = "Show application version and exit"
	FlagDescDebug    = "Enable debug logging to stdout"
	FlagDescAddr     = "HTTP listen address for the feed server"
	FlagDescStore    = "Backing store: memory, postgres or vcf"
	FlagDescDSN      = "PostgreSQL connection string (store=postgres)"
	FlagDescVCFPath  = "Path to a local .vcf file (store=vcf)"
	FlagDescVCFURL   = "CardDAV/WebDAV URL of a .vcf file (store=vcf)"
	FlagDescVCFUser  = "HTTP basic auth username for the vCard URL"
	FlagDescField    = "Identifier of the profile date field holding birthdays"
	FlagDescSMTP     = "SMTP server address (host:port); empty disables email"
	FlagDescSMTPFrom = "Sender address for birthday emails"
	FlagDescSMTPUser = "SMTP username; password is read from the OS keyring"
	FlagDescAdmin    = "Recipient of the daily admin summary; empty disables it"
	FlagDescSendTime = "Local time of day for the daily notification pass (HH:MM)"
	FlagDescSite     = "Site name used in notification messages"
	FlagDescLanguage = "Language for notification messages (en, fr)"
	MsgVersionOutput = "%s version %s (%s/%s)\n"
)

// -----------------------------------------------------------------------------
// Query Scopes, Ranges & Visibility Levels
// -----------------------------------------------------------------------------

const (
	ScopeAll       = "all"
	ScopeFriends   = "friends"
	ScopeFollowers = "followers"

	RangeNone    = "none"
	RangeWeekly  = "weekly"
	RangeMonthly = "monthly"

	VisibilityPublic     = "public"
	VisibilityLoggedIn   = "loggedin"
	VisibilityAdminsOnly = "adminsonly"
	VisibilityFriends    = "friends"
	VisibilityOnlyMe     = "onlyme"
)

// Window lengths per range, in days.
const (
	WindowDaysWeekly  = 7
	WindowDaysMonthly = 30
	WindowDaysDefault = 365
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	StoreModeMemory   = "memory"
	StoreModePostgres = "postgres"
	StoreModeVCF      = "vcf"

	DefaultAddr       = "127.0.0.1:18080"
	DefaultSendTime   = "09:00"
	DefaultLanguage   = "en"
	DefaultDateFormat = "YYYY-MM-DD"
	DefaultFieldRef   = "field_birthday"

	// MinBirthYear bounds the accepted birth year range; the upper bound is
	// the current year at normalization time.
	MinBirthYear = 1900

	// MemberScanCap bounds the candidate set for scope=all on large member bases.
	MemberScanCap = 200

	// BroadcastRecipientCap bounds in-app notification fan-out per birthday.
	BroadcastRecipientCap = 500

	// CacheTTL is the fixed result cache expiry.
	CacheTTL = 30 * time.Minute

	// CacheNamespace groups every engine cache entry for coarse invalidation.
	CacheNamespace = "birthdays"

	// StateNamespace holds scheduler state; it survives cache flushes.
	StateNamespace = "notify_state"

	// ViewerKeySuffix separates viewer-scoped cache keys.
	ViewerKeySuffix = "_user_"

	// TrackingKey and LastCheckKey persist the daily notification state.
	TrackingKey  = "notify_sent_today"
	LastCheckKey = "notify_last_check_date"
)

// -----------------------------------------------------------------------------
// Date Formats
// -----------------------------------------------------------------------------

const (
	// DateFormatCanonical is the canonical YYYY-MM-DD storage form.
	DateFormatCanonical = "2006-01-02"
	DateFormatDateTime  = "2006-01-02 15:04:05"
	DateFormatMonthDay  = "01-02"
	DateFormatCompact   = "20060102"
)

// FallbackDateFormats lists the regional layouts tried after the configured
// format, in priority order.
var FallbackDateFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
	"01-02-2006",
	"2006/01/02",
	"02.01.2006",
	"01.02.2006",
	"2006.01.02",
}

// FreeFormDateFormats covers the loose last-resort parse attempts.
var FreeFormDateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"January 2, 2006",
	"2 January 2006",
	"Jan 2, 2006",
}

// -----------------------------------------------------------------------------
// Notification Channels & Templates
// -----------------------------------------------------------------------------

const (
	ChannelEmail    = "email"
	ChannelActivity = "activity"
	ChannelInApp    = "inapp"

	NotificationComponent = "birthdays"
	NotificationAction    = "birthday_today"

	PlaceholderName     = "{name}"
	PlaceholderAge      = "{age}"
	PlaceholderSiteName = "{site_name}"
)

// Translation keys for localized notification messages.
const (
	TKeyEmailSubject   = "email_subject"
	TKeyEmailBody      = "email_body"
	TKeyActivityPost   = "activity_post"
	TKeyInAppText      = "inapp_text"
	TKeySummarySubject = "summary_subject"
	TKeySummaryHeader  = "summary_header"
	TKeySummaryLine    = "summary_line"
)

// Fallbacks used when the localizer has no message for a key.
const (
	FallbackEmailSubject   = "Happy Birthday, {name}!"
	FallbackEmailBody      = "Dear {name},\n\nWishing you a very happy birthday from everyone at {site_name}!\n"
	FallbackActivityPost   = "Today is {name}'s birthday! Send your wishes!"
	FallbackInAppText      = "It's {name}'s birthday today!"
	FallbackSummarySubject = "[{site_name}] %d Birthday(s) Today"
	FallbackSummaryHeader  = "Today's Birthdays"
	FallbackSummaryLine    = "%s (Turning %d)"
	FallbackName           = "Unknown"
)

// -----------------------------------------------------------------------------
// Cron Schedules
// -----------------------------------------------------------------------------

const (
	// CronDailyFormat expands to "MM HH * * *" from a HH:MM send time.
	CronDailyFormat = "%d %d * * *"

	// CronCacheFlush runs the safety-net cache flush shortly after midnight.
	CronCacheFlush = "5 0 * * *"

	// CronFeedRefresh re-renders the served calendar and listing.
	CronFeedRefresh = "@hourly"
)

// -----------------------------------------------------------------------------
// Standards: iCalendar & vCard
// -----------------------------------------------------------------------------

const (
	ICalVersion = "2.0"
	ICalProdid  = "-//Birthdayd//Engine//EN"
	ICalCalName = "Birthdays"
	ICalMethod  = "PUBLISH"
	ICalScale   = "GREGORIAN"
	ICalDomain  = "birthdayd"

	PropUID        = "UID"
	PropSummary    = "SUMMARY"
	PropDTStart    = "DTSTART"
	PropDTStamp    = "DTSTAMP"
	PropRefresh    = "REFRESH-INTERVAL"
	PropVersion    = "VERSION"
	PropProdid     = "PRODID"
	PropXWRCalName = "X-WR-CALNAME"
	PropCalScale   = "CALSCALE"
	PropMethod     = "METHOD"

	VCardBDAY  = "BDAY"
	VCardFN    = "FN"
	VCardN     = "N"
	VCardUID   = "UID"
	VCardEmail = "EMAIL"

	DefaultICalRefresh = 1 * time.Hour

	FormatUID = "%s-%d@%s"

	// Event summary formats, with and without a known age.
	ICalSummaryFormat    = "%s's Birthday"
	ICalSummaryAgeFormat = "%s's Birthday (%d)"

	// StubVCalendar is the minimal valid iCalendar object used when no events exist.
	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout         = 30 * time.Second
	ShutdownTimeout     = 5 * time.Second
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 30 * time.Second
	ServerIdleTimeout   = 60 * time.Second
	RetryAfterSeconds   = "10"
	AllowedMethods      = "GET, HEAD"
	MaxHTTPResponseSize = 256 * 1024 * 1024 // 256MB
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	RouteCalendar       = "/calendar.ics"
	RouteBirthdays      = "/birthdays.json"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderUserAgent       = "User-Agent"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeApplicationJSON = "application/json; charset=utf-8"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`

	HTTPMsgMethodNotAll = "Method Not Allowed"
	HTTPMsgInitializing = "Service initializing, please retry"
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrFieldUnset       = "configuration error: birthday field reference is empty"
	ErrViewerRequired   = "configuration error: viewer required for friends/followers scope"
	ErrStoreUnsupported = "configuration error: unsupported store mode"
	ErrDSNRequired      = "configuration error: postgres DSN is empty"
	ErrVCFPathRequired  = "configuration error: vcf path and url are both empty"
	ErrSendTimeFormat   = "configuration error: send time must be HH:MM"
	ErrServerStartup    = "server startup failed"
	ErrServerShutdown   = "server shutdown failed"
	ErrAddrRequired     = "listen address is required"
	ErrInvalidURL       = "invalid URL structure"
	ErrProtocol         = "unsupported protocol scheme (http/https only)"
	ErrVCardParse       = "failed to parse vCard stream"
	ErrICalEncode       = "failed to encode iCalendar data"
	ErrJSONEncode       = "failed to encode birthday list"
	ErrDateParse        = "unable to parse date"
	ErrDateShape        = "unsupported raw date shape"
	ErrYearRange        = "birth year out of range"
	ErrAppFailed        = "application failed unexpectedly"
	ErrWriteResp        = "failed to write response body"
	ErrLocalesAccess    = "failed to access embedded locales"
	ErrLocaleLoad       = "failed to load locale file"
	ErrMigrate          = "database migration failed"
	ErrPoolConnect      = "database connection failed"
	ErrKeyringLookup    = "keyring lookup failed (password may be unset)"
	ErrCycleRunning     = "notification cycle already running"
	ErrCycleFailed      = "notification cycle failed"
)

// -----------------------------------------------------------------------------
// Log Messages
// -----------------------------------------------------------------------------

const (
	MsgAppStarting     = "Starting application"
	MsgAppStop         = "Application stopped gracefully"
	MsgServerListen    = "HTTP server listening"
	MsgServerStop      = "Shutting down HTTP server..."
	MsgFeedUpdated     = "Feed cache updated"
	MsgQueryStarted    = "Birthday query started"
	MsgQueryDone       = "Birthday query finished"
	MsgSkippedDate     = "Skipping unparseable birthday value"
	MsgSkippedMissing  = "Skipping candidate without birthday value"
	MsgSkippedHidden   = "Skipping candidate not visible to viewer"
	MsgCacheHit        = "Result cache hit"
	MsgCacheMiss       = "Result cache miss, computing"
	MsgCacheFlushed    = "Result cache flushed"
	MsgCycleStarted    = "Daily notification cycle started"
	MsgCycleDone       = "Daily notification cycle finished"
	MsgCycleSkipped    = "Notification cycle already in progress, skipping tick"
	MsgTrackingReset   = "Day rollover detected, tracking reset"
	MsgAlreadySent     = "User already processed today, skipping"
	MsgDispatched      = "Notification dispatched"
	MsgDispatchFailed  = "Notification channel failed"
	MsgSummarySent     = "Admin summary dispatched"
	MsgCronScheduled   = "Daily jobs scheduled"
	MsgBdayToday       = "Birthday found today"
	MsgLocaleSkip      = "Skipping non-locale file"
	MsgLocaleBadName   = "Skipping malformed locale filename"
	MsgLocaleLoaded    = "Locale loaded successfully"
	MsgTransMissing    = "Missing translation key"
	MsgVCFLoaded       = "vCard roster loaded"
	MsgVCFSkippedCard  = "Skipping malformed vCard"
	MsgMigrateApplied  = "Database migrations applied"
	MsgRelationsAbsent = "Relationship store unavailable, empty candidate set"
	MsgCtxCancel       = "Shutdown signal received"
	MsgPassFail        = "Password retrieval failed (might be empty)"
	MsgDemoSeeded      = "In-memory demo store seeded"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyURL       = "url"
	LogKeyStatus    = "status_code"
	LogKeyFile      = "file"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyAddr      = "addr"
	LogKeyScope     = "scope"
	LogKeyRange     = "range"
	LogKeyViewer    = "viewer"
	LogKeyUser      = "user"
	LogKeyField     = "field"
	LogKeyChannel   = "channel"
	LogKeyValue     = "value"
	LogKeyStats     = "stats"
	LogKeyTotal     = "candidates"
	LogKeyFound     = "birthdays_found"
	LogKeyToday     = "birthdays_today"
	LogKeySent      = "dispatched"
	LogKeySkipped   = "skipped"
	LogKeyCount     = "count"
	LogKeyName      = "name"
	LogKeyDOB       = "date_of_birth"
	LogKeyNext      = "next_occurrence"
	LogKeyDate      = "date"
	LogKeySizeBytes = "size_bytes"
	LogKeyETag      = "etag"
	LogKeyDuration  = "duration_ms"
	LogKeyStore     = "store"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompEngine    = "engine"
	CompCache     = "cache"
	CompScheduler = "scheduler"
	CompNotify    = "notify"
	CompFeed      = "feed"
	CompServer    = "server"
	CompStore     = "store"
	CompFetcher   = "fetcher"
	CompI18n      = "i18n"
	CompMain      = "main"
)
