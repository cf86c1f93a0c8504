package launcher

import (
	"reflect"
	"sync"
	"testing"
)

func TestNewFullModeRegistersEverySlice(t *testing.T) {
	store := New(ModeFull)
	state := store.GetState()
	if state.System == nil || state.Config == nil || state.Settings == nil || state.UserSettings == nil ||
		state.GameSettings == nil || state.Main == nil || state.Developer == nil {
		t.Fatalf("expected every slice in full mode, got %+v", state)
	}
	if len(store.Slices()) != 7 {
		t.Fatalf("expected 7 slices, got %v", store.Slices())
	}
}

func TestPartialModeExposesOnlyItsSlices(t *testing.T) {
	store := New(ModePartial)
	state := store.GetState()
	if state.System == nil || state.Main == nil || state.Developer == nil {
		t.Fatalf("expected system, main and developer, got %+v", state)
	}
	if state.Config != nil || state.Settings != nil || state.UserSettings != nil || state.GameSettings != nil {
		t.Fatalf("expected other slices absent, got %+v", state)
	}

	store.Dispatch(SetUserTheme("light"))
	if store.GetState().UserSettings != nil {
		t.Fatalf("expected action for unregistered slice to be ignored")
	}
}

func TestUnknownModeFallsBackToFull(t *testing.T) {
	store := New(Mode("other"))
	if store.Mode() != ModeFull {
		t.Fatalf("expected full mode, got %s", store.Mode())
	}
}

func TestDispatchUnknownKeepsEverySlicePointer(t *testing.T) {
	store := New(ModeFull)
	before := store.GetState()

	store.Dispatch(Message[Empty]{Kind: "UNKNOWN"})

	after := store.GetState()
	if before.System != after.System || before.Config != after.Config || before.Settings != after.Settings ||
		before.UserSettings != after.UserSettings || before.GameSettings != after.GameSettings ||
		before.Main != after.Main || before.Developer != after.Developer {
		t.Fatalf("expected every slice pointer unchanged")
	}
}

func TestDispatchKeepsUnchangedSlicePointers(t *testing.T) {
	store := New(ModeFull)
	before := store.GetState()

	store.Dispatch(SetIsGameRunning(true))

	after := store.GetState()
	if after.Main == before.Main {
		t.Fatalf("expected main slice to change")
	}
	if after.System != before.System || after.Settings != before.Settings {
		t.Fatalf("expected untouched slices to keep identity")
	}
	if before.Main.IsGameRunning {
		t.Fatalf("expected previous snapshot untouched")
	}
}

func TestSubscribeNotifiesEveryDispatch(t *testing.T) {
	store := New(ModeFull)
	var calls int
	var seen []bool
	unsubscribe := store.Subscribe(func() {
		calls++
		seen = append(seen, store.GetState().Main.IsGameRunning)
	})

	store.Dispatch(SetIsGameRunning(true))
	store.Dispatch(Message[Empty]{Kind: "UNKNOWN"})
	if calls != 2 {
		t.Fatalf("expected 2 notifications, got %d", calls)
	}
	if !seen[0] {
		t.Fatalf("expected listener to observe the new state")
	}

	unsubscribe()
	unsubscribe()
	store.Dispatch(SetIsGameRunning(false))
	if calls != 2 {
		t.Fatalf("expected no notifications after unsubscribe, got %d", calls)
	}
}

func TestUnsubscribeRemovesOnlyItsListener(t *testing.T) {
	store := New(ModeFull)
	var a, b int
	unsubscribeA := store.Subscribe(func() { a++ })
	store.Subscribe(func() { b++ })

	unsubscribeA()
	store.Dispatch(SetLanguage("de"))

	if a != 0 || b != 1 {
		t.Fatalf("unexpected counts a=%d b=%d", a, b)
	}
}

func TestListenerMayDispatch(t *testing.T) {
	store := New(ModeFull)
	store.Subscribe(func() {
		if store.GetState().Main.IsGameRunning && !store.GetState().Main.IsLauncherInitialized {
			store.Dispatch(SetIsLauncherInitialized(true))
		}
	})

	store.Dispatch(SetIsGameRunning(true))

	if !store.GetState().Main.IsLauncherInitialized {
		t.Fatalf("expected nested dispatch to apply")
	}
}

func TestSeedReplacesWholeSlices(t *testing.T) {
	settings := SettingsState{BackupsDir: "custom"}
	store := New(ModeFull, WithSeed(RootState{Settings: &settings}))

	state := store.GetState()
	if state.Settings.BackupsDir != "custom" {
		t.Fatalf("expected seeded backups dir, got %q", state.Settings.BackupsDir)
	}
	if state.Settings.ExtraLaunchArgs != nil {
		t.Fatalf("expected seed to replace the slice wholesale, got %#v", state.Settings.ExtraLaunchArgs)
	}
	if state.UserSettings.Theme != "dark" {
		t.Fatalf("expected default for unseeded slice, got %q", state.UserSettings.Theme)
	}

	settings.BackupsDir = "mutated"
	if store.GetState().Settings.BackupsDir != "custom" {
		t.Fatalf("expected seed to be detached from caller value")
	}
}

func TestBootstrapFidelity(t *testing.T) {
	primary := New(ModeFull)
	primary.Dispatch(SetIsFirstLaunch(false))
	primary.Dispatch(SetWindowBounds(Bounds{Width: 1600, Height: 900}))
	primary.Dispatch(AddMessages([]LauncherMessage{{ID: "m1", Status: MessageInfo, Text: "hi"}}))
	primary.Dispatch(SetIsDevWindowOpen(true))

	secondary := New(ModePartial, WithSeed(primary.GetState()))

	got := secondary.GetState()
	want := primary.GetState()
	if !reflect.DeepEqual(got.System, want.System) || !reflect.DeepEqual(got.Main, want.Main) ||
		!reflect.DeepEqual(got.Developer, want.Developer) {
		t.Fatalf("expected partial slices equal to primary")
	}
	if got.Settings != nil || got.Config != nil {
		t.Fatalf("expected seeds outside the mode to be dropped")
	}
}

func TestReplaceResyncsAndNotifies(t *testing.T) {
	store := New(ModePartial)
	var calls int
	store.Subscribe(func() { calls++ })

	main := DefaultMainState()
	main.IsGameRunning = true
	store.Replace(RootState{Main: &main})

	state := store.GetState()
	if !state.Main.IsGameRunning {
		t.Fatalf("expected replaced main slice")
	}
	if state.System.Width != 1024 {
		t.Fatalf("expected defaults for slices missing from replacement")
	}
	if calls != 1 {
		t.Fatalf("expected one notification, got %d", calls)
	}
}

func TestDefaultStateMatchesDefaults(t *testing.T) {
	state := DefaultState(ModeFull)
	if !reflect.DeepEqual(*state.UserSettings, DefaultUserSettingsState()) {
		t.Fatalf("unexpected user settings %+v", state.UserSettings)
	}
	if !reflect.DeepEqual(*state.System, DefaultSystemState()) {
		t.Fatalf("unexpected system %+v", state.System)
	}
}

func TestConcurrentDispatchAndRead(t *testing.T) {
	store := New(ModeFull)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			store.Dispatch(SetWindowBounds(Bounds{Width: 1024 + i, Height: 768}))
		}(i)
		go func() {
			defer wg.Done()
			_ = store.GetState().System.Width
		}()
	}
	wg.Wait()
	if store.GetState().System.Height != 768 {
		t.Fatalf("unexpected height")
	}
}

func TestNilActionIsIgnored(t *testing.T) {
	store := New(ModeFull)
	var calls int
	store.Subscribe(func() { calls++ })
	store.Dispatch(nil)
	if calls != 0 {
		t.Fatalf("expected no notification for nil action")
	}
}
