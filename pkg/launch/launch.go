// Package launch starts the game (or a tool) from a launcher button.
package launch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	launcher "github.com/goliatone/go-launcher"
	"github.com/goliatone/go-launcher/pkg/activity"
	"github.com/goliatone/go-launcher/pkg/rules"
	"github.com/rs/zerolog"
)

var (
	ErrButtonNotFound = errors.New("launch: button not found")
	ErrGameRunning    = errors.New("launch: game already running")
	ErrHiddenButton   = errors.New("launch: button hidden by rule")
)

// Option configures a Launcher.
type Option func(*Launcher)

func WithLogger(logger zerolog.Logger) Option {
	return func(l *Launcher) {
		l.logger = logger
	}
}

func WithStarter(starter Starter) Option {
	return func(l *Launcher) {
		if starter != nil {
			l.starter = starter
		}
	}
}

func WithActivityHooks(hooks activity.Hooks) Option {
	return func(l *Launcher) {
		l.hooks = hooks
	}
}

// WithClock overrides the time source used for settings.lastLaunchedAt.
func WithClock(now func() time.Time) Option {
	return func(l *Launcher) {
		if now != nil {
			l.now = now
		}
	}
}

// Launcher resolves buttons against the store and starts their processes.
type Launcher struct {
	store   *launcher.Store
	engine  *rules.Engine
	starter Starter
	logger  zerolog.Logger
	hooks   activity.Hooks
	emitter *activity.Emitter
	now     func() time.Time

	// mu serializes the running check with the start.
	mu sync.Mutex
}

// New returns a Launcher. engine may be nil, in which case rule expressions
// are ignored and every button and argument is used.
func New(store *launcher.Store, engine *rules.Engine, opts ...Option) *Launcher {
	l := &Launcher{
		store:   store,
		engine:  engine,
		starter: ExecStarter{},
		logger:  zerolog.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	l.logger = l.logger.With().Str("component", "launch").Logger()
	l.emitter = activity.NewEmitter(l.hooks, activity.Config{Enabled: len(l.hooks) > 0})
	return l
}

// Buttons returns the configured buttons whose rule holds for the current
// state.
func (l *Launcher) Buttons() ([]launcher.Button, error) {
	root := l.store.GetState()
	if root.System == nil {
		return nil, nil
	}
	ctx := rules.NewContext(root)
	out := make([]launcher.Button, 0, len(root.System.Buttons))
	for _, button := range root.System.Buttons {
		ok, err := l.allow(ctx, "button:"+button.ID, button.When)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, button)
		}
	}
	return out, nil
}

// Resolve builds the command for buttonID: placeholders are expanded, guarded
// arguments whose rule fails are dropped and settings.extraLaunchArgs are
// appended when the store holds the settings slice.
func (l *Launcher) Resolve(buttonID string, args map[string]any) (Command, error) {
	root := l.store.GetState()
	button, ok := findButton(root, buttonID)
	if !ok {
		return Command{}, fmt.Errorf("%w: %q", ErrButtonNotFound, buttonID)
	}

	ctx := rules.NewContext(root)
	ctx.Args = args
	visible, err := l.allow(ctx, "button:"+button.ID, button.When)
	if err != nil {
		return Command{}, err
	}
	if !visible {
		return Command{}, fmt.Errorf("%w: %q", ErrHiddenButton, buttonID)
	}

	paths := root.System.CustomPaths
	cmd := Command{
		ButtonID: button.ID,
		Path:     ExpandPlaceholders(button.Path, paths),
	}
	cmd.Dir = filepath.Dir(cmd.Path)
	for _, arg := range button.Args {
		ok, err := l.allow(ctx, "arg:"+arg.Value, arg.When)
		if err != nil {
			return Command{}, err
		}
		if ok {
			cmd.Args = append(cmd.Args, ExpandPlaceholders(arg.Value, paths))
		}
	}
	if root.Settings != nil {
		for _, extra := range root.Settings.ExtraLaunchArgs {
			cmd.Args = append(cmd.Args, ExpandPlaceholders(extra, paths))
		}
	}
	if missing := Unresolved(cmd.Path); len(missing) > 0 {
		l.logger.Warn().Str("button", button.ID).Strs("placeholders", missing).Msg("unresolved placeholders in path")
	}
	return cmd, nil
}

// Run is a started process. Done is closed after the process exits and the
// store has been updated.
type Run struct {
	Command  Command
	PID      int
	ExitCode int
	Err      error
	Done     <-chan struct{}
}

// Launch starts the process for buttonID and marks the game as running until
// it exits.
func (l *Launcher) Launch(ctx context.Context, buttonID string, args map[string]any) (*Run, error) {
	l.mu.Lock()
	root := l.store.GetState()
	if root.Main != nil && root.Main.IsGameRunning {
		l.mu.Unlock()
		return nil, ErrGameRunning
	}
	cmd, err := l.Resolve(buttonID, args)
	if err != nil {
		l.mu.Unlock()
		return nil, err
	}

	proc, err := l.starter.Start(ctx, cmd)
	if err != nil {
		l.mu.Unlock()
		return nil, fmt.Errorf("launch: start %s: %w", cmd.Path, err)
	}

	startedAt := l.now()
	l.store.Dispatch(launcher.SetIsGameRunning(true))
	l.mu.Unlock()
	l.store.Dispatch(launcher.SetLastLaunchedAt(startedAt))
	l.logger.Info().Str("button", cmd.ButtonID).Str("path", cmd.Path).Strs("args", cmd.Args).Int("pid", proc.PID()).Msg("game started")
	l.emit(ctx, activity.BuildGameLaunchedEvent(activity.LaunchInput{
		ButtonID:   cmd.ButtonID,
		Path:       cmd.Path,
		Args:       cmd.Args,
		PID:        proc.PID(),
		OccurredAt: startedAt,
	}))

	done := make(chan struct{})
	run := &Run{Command: cmd, PID: proc.PID(), Done: done}
	go func() {
		defer close(done)
		code, err := proc.Wait()
		run.ExitCode = code
		run.Err = err
		l.store.Dispatch(launcher.SetIsGameRunning(false))
		entry := l.logger.Info()
		if err != nil {
			entry = l.logger.Warn().Err(err)
		}
		entry.Str("button", cmd.ButtonID).Int("exit_code", code).Msg("game exited")
		l.emit(context.Background(), activity.BuildGameExitedEvent(activity.LaunchInput{
			ButtonID:   cmd.ButtonID,
			Path:       cmd.Path,
			PID:        run.PID,
			ExitCode:   &code,
			OccurredAt: l.now(),
		}))
	}()
	return run, nil
}

func (l *Launcher) allow(ctx rules.Context, label, expression string) (bool, error) {
	if l.engine == nil || expression == "" {
		return true, nil
	}
	ctx.Label = label
	return l.engine.Allow(ctx, expression)
}

func (l *Launcher) emit(ctx context.Context, event activity.Event) {
	if err := l.emitter.Emit(ctx, event); err != nil {
		l.logger.Warn().Err(err).Str("verb", event.Verb).Msg("activity hook failed")
	}
}

func findButton(root launcher.RootState, id string) (launcher.Button, bool) {
	if root.System == nil {
		return launcher.Button{}, false
	}
	for _, button := range root.System.Buttons {
		if button.ID == id {
			return button, true
		}
	}
	return launcher.Button{}, false
}
