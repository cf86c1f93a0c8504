package launch

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	launcher "github.com/goliatone/go-launcher"
	"github.com/goliatone/go-launcher/pkg/activity"
	"github.com/goliatone/go-launcher/pkg/rules"
)

type fakeProcess struct {
	exit chan int
}

func (p *fakeProcess) PID() int { return 4242 }

func (p *fakeProcess) Wait() (int, error) { return <-p.exit, nil }

type recordingStarter struct {
	commands []Command
	proc     *fakeProcess
	err      error
}

func (s *recordingStarter) Start(_ context.Context, cmd Command) (Process, error) {
	s.commands = append(s.commands, cmd)
	if s.err != nil {
		return nil, s.err
	}
	return s.proc, nil
}

func newStore(t *testing.T) *launcher.Store {
	t.Helper()
	system := launcher.DefaultSystemState()
	system.CustomPaths = map[string]string{"GAME_DIR": "/games/arx", "docs": "/home/me/docs"}
	system.Buttons = []launcher.Button{
		{
			ID:   "play",
			Path: "%GAME_DIR%/arx.exe",
			Args: []launcher.ButtonArg{
				{Value: "-profile=%DOCS%/profile"},
				{Value: "-light", When: `userSettings.theme == "light"`},
				{Value: "-dark", When: `userSettings.theme == "dark"`},
			},
		},
		{ID: "editor", Path: "%GAME_DIR%/editor.exe", When: "developer.isDevtoolsEnabled"},
	}
	settings := launcher.DefaultSettingsState()
	settings.ExtraLaunchArgs = []string{"-nosound"}
	store := launcher.New(launcher.ModeFull, launcher.WithSeed(launcher.RootState{
		System:   &system,
		Settings: &settings,
	}))
	return store
}

func newEngine(t *testing.T) *rules.Engine {
	t.Helper()
	engine, err := rules.New(rules.EngineExpr)
	if err != nil {
		t.Fatalf("rules engine: %v", err)
	}
	return engine
}

func TestExpandPlaceholders(t *testing.T) {
	paths := map[string]string{"GAME_DIR": "/games/arx", "%MODS%": "/mods"}
	cases := map[string]string{
		"%GAME_DIR%/bin":    filepath.FromSlash("/games/arx") + "/bin",
		"%game_dir%":        filepath.FromSlash("/games/arx"),
		"%MODS%;%GAME_DIR%": filepath.FromSlash("/mods") + ";" + filepath.FromSlash("/games/arx"),
		"%UNKNOWN%/x":       "%UNKNOWN%/x",
		"100% sure":         "100% sure",
		"no placeholders":   "no placeholders",
	}
	for in, want := range cases {
		if got := ExpandPlaceholders(in, paths); got != want {
			t.Fatalf("ExpandPlaceholders(%q) = %q, want %q", in, got, want)
		}
	}
	if got := Unresolved("%A%/%B%"); !reflect.DeepEqual(got, []string{"%A%", "%B%"}) {
		t.Fatalf("unexpected unresolved tokens %v", got)
	}
}

func TestResolveFiltersArgsByRules(t *testing.T) {
	l := New(newStore(t), newEngine(t))
	cmd, err := l.Resolve("play", nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := []string{"-profile=" + filepath.FromSlash("/home/me/docs") + "/profile", "-dark", "-nosound"}
	if !reflect.DeepEqual(cmd.Args, want) {
		t.Fatalf("expected args %v, got %v", want, cmd.Args)
	}
	if cmd.Path != filepath.FromSlash("/games/arx")+"/arx.exe" {
		t.Fatalf("unexpected path %q", cmd.Path)
	}
}

func TestResolveFollowsStateChanges(t *testing.T) {
	store := newStore(t)
	l := New(store, newEngine(t))
	store.Dispatch(launcher.SetUserTheme("light"))
	cmd, err := l.Resolve("play", nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cmd.Args[1] != "-light" {
		t.Fatalf("expected -light after theme change, got %v", cmd.Args)
	}
}

func TestResolveWithoutEngineKeepsEveryArg(t *testing.T) {
	l := New(newStore(t), nil)
	cmd, err := l.Resolve("play", nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(cmd.Args) != 4 {
		t.Fatalf("expected all args, got %v", cmd.Args)
	}
}

func TestResolveUnknownButton(t *testing.T) {
	l := New(newStore(t), newEngine(t))
	if _, err := l.Resolve("missing", nil); !errors.Is(err, ErrButtonNotFound) {
		t.Fatalf("expected ErrButtonNotFound, got %v", err)
	}
}

func TestButtonsHiddenByRule(t *testing.T) {
	store := newStore(t)
	l := New(store, newEngine(t))
	buttons, err := l.Buttons()
	if err != nil {
		t.Fatalf("buttons: %v", err)
	}
	if len(buttons) != 1 || buttons[0].ID != "play" {
		t.Fatalf("expected only play, got %+v", buttons)
	}
	if _, err := l.Resolve("editor", nil); !errors.Is(err, ErrHiddenButton) {
		t.Fatalf("expected ErrHiddenButton, got %v", err)
	}

	store.Dispatch(launcher.SetIsDevtoolsEnabled(true))
	buttons, err = l.Buttons()
	if err != nil {
		t.Fatalf("buttons: %v", err)
	}
	if len(buttons) != 2 {
		t.Fatalf("expected both buttons, got %+v", buttons)
	}
}

func TestLaunchTracksRunningState(t *testing.T) {
	store := newStore(t)
	proc := &fakeProcess{exit: make(chan int, 1)}
	starter := &recordingStarter{proc: proc}
	hook := &activity.CaptureHook{}
	startedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l := New(store, newEngine(t),
		WithStarter(starter),
		WithActivityHooks(activity.Hooks{hook}),
		WithClock(func() time.Time { return startedAt }),
	)

	run, err := l.Launch(context.Background(), "play", nil)
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	if run.PID != 4242 || len(starter.commands) != 1 {
		t.Fatalf("unexpected run %+v commands %d", run, len(starter.commands))
	}
	root := store.GetState()
	if !root.Main.IsGameRunning {
		t.Fatalf("expected game running")
	}
	if !root.Settings.LastLaunchedAt.Equal(startedAt) {
		t.Fatalf("expected lastLaunchedAt %v, got %v", startedAt, root.Settings.LastLaunchedAt)
	}
	if _, err := l.Launch(context.Background(), "play", nil); !errors.Is(err, ErrGameRunning) {
		t.Fatalf("expected ErrGameRunning, got %v", err)
	}

	proc.exit <- 3
	<-run.Done
	if run.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %d", run.ExitCode)
	}
	if store.GetState().Main.IsGameRunning {
		t.Fatalf("expected game stopped")
	}
	if got := hook.Verbs(); !reflect.DeepEqual(got, []string{activity.VerbGameLaunched, activity.VerbGameExited}) {
		t.Fatalf("unexpected verbs %v", got)
	}
}

func TestLaunchStartFailureLeavesStateUntouched(t *testing.T) {
	store := newStore(t)
	l := New(store, nil, WithStarter(&recordingStarter{err: errors.New("no such file")}))
	if _, err := l.Launch(context.Background(), "play", nil); err == nil {
		t.Fatalf("expected start error")
	}
	root := store.GetState()
	if root.Main.IsGameRunning || !root.Settings.LastLaunchedAt.IsZero() {
		t.Fatalf("state should not change on failed start")
	}
}

func TestConcurrentLaunchStartsOneProcess(t *testing.T) {
	store := newStore(t)
	proc := &fakeProcess{exit: make(chan int, 1)}
	var started atomic.Int32
	starter := StarterFunc(func(context.Context, Command) (Process, error) {
		started.Add(1)
		time.Sleep(20 * time.Millisecond)
		return proc, nil
	})
	l := New(store, nil, WithStarter(starter))

	var (
		wg      sync.WaitGroup
		refused atomic.Int32
		runs    = make(chan *Run, 2)
	)
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run, err := l.Launch(context.Background(), "play", nil)
			if errors.Is(err, ErrGameRunning) {
				refused.Add(1)
				return
			}
			if err != nil {
				t.Errorf("launch: %v", err)
				return
			}
			runs <- run
		}()
	}
	wg.Wait()
	close(runs)

	if started.Load() != 1 || refused.Load() != 1 {
		t.Fatalf("expected one start and one refusal, got started=%d refused=%d", started.Load(), refused.Load())
	}
	proc.exit <- 0
	for run := range runs {
		<-run.Done
	}
}
