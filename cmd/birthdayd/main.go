package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/zalando/go-keyring"

	"github.com/tartampluch/birthdayd/internal/cache"
	"github.com/tartampluch/birthdayd/internal/config"
	"github.com/tartampluch/birthdayd/internal/engine"
	"github.com/tartampluch/birthdayd/internal/feed"
	"github.com/tartampluch/birthdayd/internal/notify"
	"github.com/tartampluch/birthdayd/internal/scheduler"
	"github.com/tartampluch/birthdayd/internal/server"
	"github.com/tartampluch/birthdayd/internal/store"
	"github.com/tartampluch/birthdayd/internal/store/memory"
	"github.com/tartampluch/birthdayd/internal/store/postgres"
	"github.com/tartampluch/birthdayd/internal/store/vcf"
)

// options collects the parsed CLI configuration.
type options struct {
	addr      string
	storeMode string
	dsn       string
	vcfPath   string
	vcfURL    string
	vcfUser   string
	fieldRef  string
	smtpAddr  string
	smtpFrom  string
	smtpUser  string
	admin     string
	sendTime  string
	siteName  string
	language  string
}

// main delegates to runMain so deferred cleanups run before the process
// exits; os.Exit does not run defers.
func main() {
	os.Exit(runMain())
}

// runMain manages the application lifecycle, argument parsing, and exit codes.
func runMain() int {
	showVersion := flag.Bool(config.FlagVersion, false, config.FlagDescVersion)
	debugMode := flag.Bool(config.FlagDebug, false, config.FlagDescDebug)

	var opts options
	flag.StringVar(&opts.addr, config.FlagAddr, config.DefaultAddr, config.FlagDescAddr)
	flag.StringVar(&opts.storeMode, config.FlagStore, config.StoreModeMemory, config.FlagDescStore)
	flag.StringVar(&opts.dsn, config.FlagDSN, "", config.FlagDescDSN)
	flag.StringVar(&opts.vcfPath, config.FlagVCFPath, "", config.FlagDescVCFPath)
	flag.StringVar(&opts.vcfURL, config.FlagVCFURL, "", config.FlagDescVCFURL)
	flag.StringVar(&opts.vcfUser, config.FlagVCFUser, "", config.FlagDescVCFUser)
	flag.StringVar(&opts.fieldRef, config.FlagField, config.DefaultFieldRef, config.FlagDescField)
	flag.StringVar(&opts.smtpAddr, config.FlagSMTPAddr, "", config.FlagDescSMTP)
	flag.StringVar(&opts.smtpFrom, config.FlagSMTPFrom, "", config.FlagDescSMTPFrom)
	flag.StringVar(&opts.smtpUser, config.FlagSMTPUser, "", config.FlagDescSMTPUser)
	flag.StringVar(&opts.admin, config.FlagAdminEmail, "", config.FlagDescAdmin)
	flag.StringVar(&opts.sendTime, config.FlagSendTime, config.DefaultSendTime, config.FlagDescSendTime)
	flag.StringVar(&opts.siteName, config.FlagSiteName, config.DefaultSite, config.FlagDescSite)
	flag.StringVar(&opts.language, config.FlagLanguage, config.DefaultLanguage, config.FlagDescLanguage)
	flag.Parse()

	if *showVersion {
		printVersion()
		return config.ExitCodeSuccess
	}

	setupLogging(*debugMode)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logStartupInfo()

	if err := run(ctx, opts); err != nil {
		slog.Error(config.ErrAppFailed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err,
		)
		return config.ExitCodeError
	}

	slog.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
	return config.ExitCodeSuccess
}

// run wires the stores, engine, channels and servers, then blocks until the
// context is cancelled.
func run(ctx context.Context, opts options) error {
	clock := engine.RealClock{}

	backend, err := openStore(ctx, opts)
	if err != nil {
		return err
	}
	defer backend.close()

	eng := engine.New(clock, backend.profiles, backend.relations, backend.members)
	resultCache := cache.New(backend.kv)
	if backend.memoryStore != nil {
		backend.memoryStore.OnMutate = func(reason string) {
			resultCache.Invalidate(ctx, reason)
		}
	}

	templates := notify.NewTemplates(opts.language, opts.siteName)

	var mailer notify.Mailer
	if opts.smtpAddr != "" {
		mailer = &notify.SMTPMailer{
			Addr:     opts.smtpAddr,
			From:     opts.smtpFrom,
			Username: opts.smtpUser,
			Password: lookupSecret(opts.smtpUser),
		}
	}

	var channels []notify.Channel
	if mailer != nil {
		channels = append(channels, &notify.EmailChannel{
			Mailer:    mailer,
			Directory: backend.users,
			Templates: templates,
		})
	}
	if backend.broadcaster != nil {
		channels = append(channels,
			&notify.ActivityChannel{
				Poster:    backend.broadcaster,
				Directory: backend.users,
				Templates: templates,
			},
			&notify.InAppChannel{
				Notifier: backend.broadcaster,
				Friends:  backend.relations,
				Members:  backend.members,
			},
		)
	}

	sched := &scheduler.Scheduler{
		Engine:   eng,
		Clock:    clock,
		State:    backend.kv,
		Channels: channels,
		FieldRef: opts.fieldRef,
	}
	if mailer != nil && opts.admin != "" {
		sched.Summary = &notify.AdminSummary{
			Mailer:    mailer,
			Directory: backend.users,
			Templates: templates,
			Recipient: opts.admin,
		}
	}

	cronRunner, err := scheduler.StartCron(ctx, sched, resultCache, opts.sendTime)
	if err != nil {
		return err
	}
	defer cronRunner.Stop()

	srv := server.NewFeedServer(opts.addr)
	renderer := &feed.Renderer{
		Clock: clock,
		Resolve: func(userID string) string {
			name, err := backend.users.DisplayName(ctx, userID)
			if err != nil {
				return ""
			}
			return name
		},
	}

	refreshFeed := func() {
		cfg := engine.QueryConfig{
			Scope:    config.ScopeAll,
			FieldRef: opts.fieldRef,
			Range:    config.RangeMonthly,
			Viewer:   engine.ViewerContext{LoggedIn: true, IsAdmin: true},
		}
		birthdays, err := resultCache.GetOrCompute(ctx, cfg, func(ctx context.Context) ([]engine.UpcomingBirthday, error) {
			return eng.Compute(ctx, cfg, clock.Now())
		})
		if err != nil {
			slog.Error(config.ErrAppFailed,
				config.LogKeyComponent, config.CompFeed,
				config.LogKeyError, err,
			)
			return
		}

		if ics, err := renderer.Render(birthdays); err == nil {
			srv.UpdateCalendar(ics)
		} else {
			slog.Error(config.ErrICalEncode,
				config.LogKeyComponent, config.CompFeed,
				config.LogKeyError, err,
			)
		}

		if listing, err := json.Marshal(birthdays); err == nil {
			srv.UpdateListing(listing)
		} else {
			slog.Error(config.ErrJSONEncode,
				config.LogKeyComponent, config.CompFeed,
				config.LogKeyError, err,
			)
		}
	}

	refreshFeed()
	if _, err := cronRunner.AddFunc(config.CronFeedRefresh, refreshFeed); err != nil {
		return err
	}

	return srv.Start(ctx)
}

// backendSet bundles one store mode's view of the engine collaborators.
// Relations and broadcaster are nil for backends that cannot provide them.
type backendSet struct {
	profiles    engine.ProfileStore
	relations   engine.RelationshipStore
	members     engine.MemberDirectory
	users       notify.UserDirectory
	kv          store.KV
	memoryStore *memory.Store
	broadcaster *memory.Broadcaster
	close       func()
}

func openStore(ctx context.Context, opts options) (*backendSet, error) {
	switch opts.storeMode {
	case config.StoreModeMemory:
		st := memory.New()
		return &backendSet{
			profiles:    st,
			relations:   st,
			members:     st,
			users:       st,
			kv:          st,
			memoryStore: st,
			broadcaster: memory.NewBroadcaster(),
			close:       func() {},
		}, nil

	case config.StoreModePostgres:
		if opts.dsn == "" {
			return nil, errors.New(config.ErrDSNRequired)
		}
		if err := postgres.Migrate(ctx, opts.dsn); err != nil {
			return nil, err
		}
		db, err := postgres.New(ctx, opts.dsn)
		if err != nil {
			return nil, err
		}
		st := postgres.NewStore(db)
		return &backendSet{
			profiles:  st,
			relations: st,
			members:   st,
			users:     st,
			kv:        postgres.NewKV(db),
			close:     db.Close,
		}, nil

	case config.StoreModeVCF:
		st, err := openVCF(ctx, opts)
		if err != nil {
			return nil, err
		}
		return &backendSet{
			profiles: st,
			members:  st,
			users:    st,
			kv:       memory.New(),
			close:    func() {},
		}, nil

	default:
		return nil, fmt.Errorf("%s: %s", config.ErrStoreUnsupported, opts.storeMode)
	}
}

func openVCF(ctx context.Context, opts options) (*vcf.Store, error) {
	switch {
	case opts.vcfPath != "":
		return vcf.LoadFile(opts.vcfPath)
	case opts.vcfURL != "":
		return vcf.LoadURL(ctx, vcf.NewHTTPFetcher(), opts.vcfURL, opts.vcfUser, lookupSecret(opts.vcfUser))
	default:
		return nil, errors.New(config.ErrVCFPathRequired)
	}
}

// lookupSecret reads the password for a username from the OS keyring. An
// empty username or a failed lookup yields an empty password.
func lookupSecret(username string) string {
	if username == "" {
		return ""
	}
	pwd, err := keyring.Get(config.KeyringService, username)
	if err != nil {
		slog.Warn(config.MsgPassFail,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyUser, username,
			config.LogKeyError, err,
		)
		return ""
	}
	return pwd
}

func printVersion() {
	fmt.Printf(config.MsgVersionOutput,
		config.AppName,
		config.Version,
		runtime.GOOS,
		runtime.GOARCH,
	)
}

func logStartupInfo() {
	slog.Info(config.MsgAppStarting,
		config.LogKeyComponent, config.CompMain,
		slog.Group(config.LogKeyBuild,
			slog.String(config.LogKeyApp, config.AppName),
			slog.String(config.LogKeyVersion, config.Version),
			slog.String(config.LogKeyGoVer, runtime.Version()),
		),
		slog.Group(config.LogKeyEnv,
			slog.String(config.LogKeyOS, runtime.GOOS),
			slog.String(config.LogKeyArch, runtime.GOARCH),
			slog.Int(config.LogKeyPID, os.Getpid()),
		),
	)
}

// setupLogging configures the default slog logger with a JSON handler.
func setupLogging(debugMode bool) {
	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: debugMode,
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, opts)))
}
