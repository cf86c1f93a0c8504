package launcher

import (
	"encoding/json"
	"testing"
)

func TestProjectKeepsOnlyWhitelistedSlices(t *testing.T) {
	store := New(ModeFull)
	store.Dispatch(SetUserTheme("light"))
	store.Dispatch(SetIsGameRunning(true))

	raw, err := json.Marshal(Project(store.GetState()))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected exactly settings and userSettings, got %s", raw)
	}
	if _, ok := decoded["settings"]; !ok {
		t.Fatalf("missing settings in %s", raw)
	}
	if _, ok := decoded["userSettings"]; !ok {
		t.Fatalf("missing userSettings in %s", raw)
	}
}

func TestProjectDetachesFromState(t *testing.T) {
	store := New(ModeFull)
	store.Dispatch(SetExtraLaunchArgs([]string{"-windowed"}))

	record := Project(store.GetState())
	record.Settings.ExtraLaunchArgs[0] = "mutated"

	if store.GetState().Settings.ExtraLaunchArgs[0] != "-windowed" {
		t.Fatalf("expected projection to copy slices")
	}
}

func TestProjectPartialStateLeavesNil(t *testing.T) {
	record := Project(New(ModePartial).GetState())
	if record.Settings != nil || record.UserSettings != nil {
		t.Fatalf("expected nil slices, got %+v", record)
	}
}

func TestRecordSeedRoundTrip(t *testing.T) {
	primary := New(ModeFull)
	primary.Dispatch(SetUserTheme("light"))
	primary.Dispatch(SetBackupsDir("saves"))

	restarted := New(ModeFull, WithSeed(Project(primary.GetState()).Seed()))

	if restarted.GetState().UserSettings.Theme != "light" || restarted.GetState().Settings.BackupsDir != "saves" {
		t.Fatalf("expected persisted slices restored, got %+v %+v", restarted.GetState().UserSettings, restarted.GetState().Settings)
	}
	if !restarted.GetState().System.IsFirstLaunch {
		t.Fatalf("expected non-persisted slices at defaults")
	}
}

func TestDefaultRecord(t *testing.T) {
	record := DefaultRecord()
	if record.Settings == nil || record.UserSettings == nil {
		t.Fatalf("expected both slices, got %+v", record)
	}
	if record.UserSettings.Theme != "dark" || record.Settings.BackupsDir != "backups" {
		t.Fatalf("unexpected defaults %+v %+v", record.Settings, record.UserSettings)
	}
	if len(PersistedSlices()) != 2 {
		t.Fatalf("unexpected persisted slices %v", PersistedSlices())
	}
}
