package cli

import (
	"context"
	"fmt"
	"io"

	launcher "github.com/goliatone/go-launcher"
	"github.com/goliatone/go-launcher/internal/config"
	"github.com/goliatone/go-launcher/internal/sysconfig"
	"github.com/goliatone/go-launcher/pkg/activity"
	"github.com/goliatone/go-launcher/pkg/backup"
	"github.com/goliatone/go-launcher/pkg/launch"
	"github.com/goliatone/go-launcher/pkg/persist"
	"github.com/goliatone/go-launcher/pkg/rules"
	"github.com/rs/zerolog"
)

// primary is the full-mode store of the launcher process and the services
// wired to it.
type primary struct {
	store    *launcher.Store
	adapter  *persist.Adapter
	backups  *backup.Manager
	launcher *launch.Launcher
	closer   io.Closer
	logger   zerolog.Logger
}

func openPrimary(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*primary, error) {
	backend, closer, err := cfg.OpenBackend()
	if err != nil {
		return nil, err
	}
	hooks := activity.Hooks{activityLogger(logger)}

	record, meta := persist.Load(ctx, backend, persist.WithLogger(logger))
	store := launcher.New(launcher.ModeFull,
		launcher.WithSeed(record.Seed()),
		launcher.WithLogger(logger),
	)
	sysconfig.Apply(store, cfg.LauncherConfigPath(), logger)

	engine, err := rules.New(cfg.RulesEngine,
		rules.WithFunctionRegistry(rules.LauncherFunctions()),
		rules.WithEvaluatorLogger(rules.ZerologLogger(logger)),
	)
	if err != nil {
		closer.Close()
		return nil, err
	}

	p := &primary{
		store:    store,
		adapter:  persist.Attach(store, backend, persist.WithLogger(logger), persist.WithActivityHooks(hooks)),
		backups:  backup.New(store, backup.WithBaseDir(cfg.DataDir), backup.WithLogger(logger), backup.WithActivityHooks(hooks)),
		launcher: launch.New(store, engine, launch.WithLogger(logger), launch.WithActivityHooks(hooks)),
		closer:   closer,
		logger:   logger,
	}
	if err := p.backups.Refresh(ctx); err != nil {
		logger.Warn().Err(err).Msg("backup list unavailable")
	}
	store.Dispatch(launcher.SetIsLauncherInitialized(true))
	logger.Debug().Str("snapshot_id", meta.SnapshotID).Msg("primary store ready")
	return p, nil
}

func (p *primary) Close() error {
	err := p.adapter.Close()
	if cerr := p.closer.Close(); err == nil {
		err = cerr
	}
	return err
}

func activityLogger(logger zerolog.Logger) activity.ActivityHook {
	return activity.HookFunc(func(_ context.Context, event activity.Event) error {
		logger.Debug().
			Str("verb", event.Verb).
			Str("object_type", event.ObjectType).
			Str("object_id", event.ObjectID).
			Interface("metadata", event.Metadata).
			Msg("activity")
		return nil
	})
}

func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func usageError(format string, args ...any) error {
	return fmt.Errorf("usage: "+format, args...)
}
