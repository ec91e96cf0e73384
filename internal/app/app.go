// Package app wires configuration, storage, the gate machine and the Telegram
// runtime into a runnable bot.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/gatebot/core/bootstrap"
	corecmd "github.com/m3rciful/gatebot/core/cmd"
	"github.com/m3rciful/gatebot/core/logger"
	coretelegram "github.com/m3rciful/gatebot/core/telegram"
	"github.com/m3rciful/gatebot/core/telegram/router"
	"github.com/m3rciful/gatebot/core/telegram/sender"
	"github.com/m3rciful/gatebot/internal/config"
	"github.com/m3rciful/gatebot/internal/filter"
	"github.com/m3rciful/gatebot/internal/gate"
	"github.com/m3rciful/gatebot/internal/metrics"
	"github.com/m3rciful/gatebot/internal/moderation"
	"github.com/m3rciful/gatebot/internal/store"
	"github.com/m3rciful/gatebot/internal/transport"
)

// App holds the long-lived components of a running bot.
type App struct {
	cfg        *config.Config
	bot        *tele.Bot
	dispatcher *sender.Dispatcher
	store      *store.Store
	handler    *moderation.Handler
	metrics    *metrics.Metrics
	server     *metrics.Server
}

// LoadConfig adapts config.Load to the runner.
func LoadConfig(path string) (corecmd.ConfigCarrier, error) {
	return config.Load(path)
}

// Bootstrap builds the App from a loaded configuration.
func Bootstrap(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*config.Config)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}

	opts := bootstrap.Options{Config: &cfg.Config}
	if cfg.Store.Backend == config.BackendPostgres {
		opts.Database = &cfg.Store.Postgres
	}
	infra, err := bootstrap.Run(ctx, opts)
	if err != nil {
		return nil, err
	}

	backend, err := openBackend(cfg, infra)
	if err != nil {
		return nil, err
	}
	st := store.Open(ctx, backend)

	bot, err := coretelegram.BuildBot(&cfg.Config)
	if err != nil {
		_ = st.Close(ctx)
		return nil, err
	}

	m := metrics.New(st.Len)
	dispatcher := sender.NewDispatcher(sender.Options{
		MaxRetries: 2,
		OnResult:   m.Outbound,
	})

	f := filter.New(cfg.Gate.BlockedTerms, cfg.Gate.ForeignScriptEnabled())
	h, err := moderation.New(moderation.Options{
		Gate:         gate.New(st, cfg.Gate.OwnerID),
		Filter:       f,
		Transport:    transport.New(bot, dispatcher),
		ReferenceURL: cfg.Gate.ReferenceURL,
		Messages:     cfg.Messages,
		Metrics:      m,
	})
	if err != nil {
		dispatcher.Close()
		_ = st.Close(ctx)
		return nil, err
	}

	if f.Terms() == 0 {
		logger.Warn(ctx, "app", "filter.no_terms",
			slog.String("status", "skip"),
			slog.String("reason", "blocked_terms empty"),
		)
	}
	logger.Info(ctx, "app", "app.wired",
		slog.String("status", "ok"),
		slog.String("backend", cfg.Store.Backend),
		slog.Int("count", st.Len()),
		slog.Bool("foreign_script", f.ForeignScriptEnabled()),
		slog.Int("blocked_terms", f.Terms()),
	)

	return &App{
		cfg:        cfg,
		bot:        bot,
		dispatcher: dispatcher,
		store:      st,
		handler:    h,
		metrics:    m,
	}, nil
}

func openBackend(cfg *config.Config, infra *bootstrap.Result) (store.Backend, error) {
	switch cfg.Store.Backend {
	case config.BackendRedis:
		return store.NewRedisBackend(store.NewRedisClient(cfg.Store.Redis), cfg.Store.Redis.Key), nil
	case config.BackendPostgres:
		if infra == nil || infra.DB == nil {
			return nil, errors.New("app: postgres backend selected but no database connection")
		}
		return store.NewPostgresBackend(infra.DB), nil
	default:
		return store.NewFileBackend(cfg.Store.FilePath), nil
	}
}

// TelegramRunOptions assembles middlewares, routes and lifecycle hooks.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	onCallback := CallbackHandler(a.handler)
	for _, action := range []string{moderation.ActionGetLink, moderation.ActionSubscribed} {
		if err := reg.RegisterCallback(action, onCallback); err != nil {
			return coretelegram.RunOptions{}, err
		}
	}
	// Unknown actions still reach the handler, which answers them itself.
	reg.SetCallbackNotFound(onCallback)
	reg.SetTextHandler(TextHandler(a.handler))

	routes := []coretelegram.Route{router.CallbackRoute(reg)}
	routes = append(routes, router.TextRoutes(reg)...)

	return coretelegram.RunOptions{
		Config:      &a.cfg.Config,
		Bot:         a.bot,
		Dispatcher:  a.dispatcher,
		Middlewares: coretelegram.DefaultMiddlewares(coretelegram.SelfSenderOptions(a.bot)),
		Routes:      routes,
		OnStart:     a.start,
		OnStop:      a.stop,
	}, nil
}

func (a *App) start(ctx context.Context, _ coretelegram.Runtime) error {
	if a.cfg.Metrics.Listen != "" {
		a.server = a.metrics.Start(ctx, a.cfg.Metrics.Listen)
	}
	return nil
}

func (a *App) stop(ctx context.Context, _ coretelegram.Runtime) error {
	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("metrics shutdown: %w", err))
	}
	if err := a.store.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}
	return errors.Join(errs...)
}
