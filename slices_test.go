package launcher

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func TestSetIsFirstLaunchChangesOnlyThatField(t *testing.T) {
	store := New(ModeFull)
	before := *store.GetState().System
	if !before.IsFirstLaunch {
		t.Fatalf("expected first launch default true")
	}

	store.Dispatch(SetIsFirstLaunch(false))

	after := *store.GetState().System
	if after.IsFirstLaunch {
		t.Fatalf("expected isFirstLaunch false")
	}
	after.IsFirstLaunch = true
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("expected every other field unchanged:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestCreatorsAreDeterministic(t *testing.T) {
	a := SetButtons([]Button{{ID: "play", Args: []ButtonArg{{Value: "-w"}}}})
	b := SetButtons([]Button{{ID: "play", Args: []ButtonArg{{Value: "-w"}}}})
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected equal actions for equal input")
	}
	if a.Type() != SetButtonsType {
		t.Fatalf("unexpected type %s", a.Type())
	}
}

func TestMessageJSONShape(t *testing.T) {
	raw, err := json.Marshal(SetUserTheme("light"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"type":"SET_USER_THEME","payload":"light"}` {
		t.Fatalf("unexpected json %s", raw)
	}
}

func TestSliceHandlers(t *testing.T) {
	launched := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		action Action
		check  func(t *testing.T, s RootState)
	}{
		{
			name:   "window bounds",
			action: SetWindowBounds(Bounds{Width: 1280, Height: 900}),
			check: func(t *testing.T, s RootState) {
				if s.System.Width != 1280 || s.System.Height != 900 || s.System.MinWidth != 1024 {
					t.Fatalf("unexpected system %+v", s.System)
				}
			},
		},
		{
			name:   "custom paths",
			action: SetCustomPaths(map[string]string{"%GAME_DIR%": "C:/game"}),
			check: func(t *testing.T, s RootState) {
				if s.System.CustomPaths["%GAME_DIR%"] != "C:/game" {
					t.Fatalf("unexpected custom paths %+v", s.System.CustomPaths)
				}
			},
		},
		{
			name:   "mod organizer",
			action: SetModOrganizer(ModOrganizer{IsUsed: true, Version: 2}),
			check: func(t *testing.T, s RootState) {
				if !s.System.ModOrganizer.IsUsed || s.System.ModOrganizer.Version != 2 {
					t.Fatalf("unexpected mod organizer %+v", s.System.ModOrganizer)
				}
			},
		},
		{
			name:   "config path",
			action: SetConfigPath("/etc/launcher/config.json"),
			check: func(t *testing.T, s RootState) {
				if s.Config.Path != "/etc/launcher/config.json" || s.Config.IsLoaded {
					t.Fatalf("unexpected config %+v", s.Config)
				}
			},
		},
		{
			name:   "backups dir",
			action: SetBackupsDir("saves"),
			check: func(t *testing.T, s RootState) {
				if s.Settings.BackupsDir != "saves" {
					t.Fatalf("unexpected settings %+v", s.Settings)
				}
			},
		},
		{
			name:   "last launched",
			action: SetLastLaunchedAt(launched),
			check: func(t *testing.T, s RootState) {
				if !s.Settings.LastLaunchedAt.Equal(launched) {
					t.Fatalf("unexpected last launched %v", s.Settings.LastLaunchedAt)
				}
			},
		},
		{
			name:   "theme",
			action: SetUserTheme("light"),
			check: func(t *testing.T, s RootState) {
				if s.UserSettings.Theme != "light" || s.UserSettings.Language != "en" {
					t.Fatalf("unexpected user settings %+v", s.UserSettings)
				}
			},
		},
		{
			name:   "resolution",
			action: SetResolution(Resolution{Width: 1920, Height: 1080}),
			check: func(t *testing.T, s RootState) {
				if s.GameSettings.Resolution != (Resolution{Width: 1920, Height: 1080}) {
					t.Fatalf("unexpected resolution %+v", s.GameSettings.Resolution)
				}
			},
		},
		{
			name:   "game running",
			action: SetIsGameRunning(true),
			check: func(t *testing.T, s RootState) {
				if !s.Main.IsGameRunning || s.Main.IsLauncherInitialized {
					t.Fatalf("unexpected main %+v", s.Main)
				}
			},
		},
		{
			name:   "log level",
			action: SetLogLevel("debug"),
			check: func(t *testing.T, s RootState) {
				if s.Developer.LogLevel != "debug" || s.Developer.IsDevWindowOpen {
					t.Fatalf("unexpected developer %+v", s.Developer)
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := New(ModeFull)
			store.Dispatch(tc.action)
			tc.check(t, store.GetState())
		})
	}
}

func TestFieldReplacementIsIdempotent(t *testing.T) {
	actions := []Action{
		SetIsResizable(true),
		SetIsConfigLoaded(true),
		SetExtraLaunchArgs([]string{"-nosound"}),
		SetLanguage("ru"),
		SetMOProfile("Default"),
		SetIsGameSettingsSaving(true),
		SetIsDevtoolsEnabled(true),
		SetBackups([]BackupInfo{{ID: "b1", Files: []string{"a.ini"}}}),
	}
	for _, action := range actions {
		t.Run(string(action.Type()), func(t *testing.T) {
			once := New(ModeFull)
			once.Dispatch(action)
			twice := New(ModeFull)
			twice.Dispatch(action)
			twice.Dispatch(action)
			if !reflect.DeepEqual(once.GetState(), twice.GetState()) {
				t.Fatalf("expected dispatching twice to equal dispatching once")
			}
		})
	}
}

func TestConfigIssuesAppendAndClear(t *testing.T) {
	store := New(ModeFull)
	store.Dispatch(AddConfigIssues([]ConfigIssue{{Path: "width", Message: "too small"}}))
	store.Dispatch(AddConfigIssues([]ConfigIssue{{Path: "buttons[0].path", Message: "empty"}}))

	issues := store.GetState().Config.Issues
	if len(issues) != 2 || issues[0].Path != "width" || issues[1].Path != "buttons[0].path" {
		t.Fatalf("unexpected issues %+v", issues)
	}

	store.Dispatch(ClearConfigIssues())
	if got := store.GetState().Config.Issues; len(got) != 0 || got == nil {
		t.Fatalf("expected empty issues, got %#v", got)
	}
}

func TestMessagesAddAndDelete(t *testing.T) {
	store := New(ModeFull)
	store.Dispatch(AddMessages([]LauncherMessage{
		{ID: "1", Status: MessageInfo, Text: "ready"},
		{ID: "2", Status: MessageError, Text: "failed"},
	}))
	store.Dispatch(AddMessages([]LauncherMessage{{ID: "3", Status: MessageSuccess, Text: "saved"}}))
	store.Dispatch(DeleteMessages([]string{"2", "missing"}))

	messages := store.GetState().Main.Messages
	if len(messages) != 2 || messages[0].ID != "1" || messages[1].ID != "3" {
		t.Fatalf("unexpected messages %+v", messages)
	}
}

func TestUpdateGameSettingsOptionsMerges(t *testing.T) {
	store := New(ModeFull)
	store.Dispatch(SetGameSettingsOptions(map[string]GameSettingOption{
		"a": {File: "game.ini", Name: "a", Value: "1"},
		"b": {File: "game.ini", Name: "b", Value: "2"},
	}))
	before := store.GetState().GameSettings.Options

	store.Dispatch(UpdateGameSettingsOptions(map[string]GameSettingOption{
		"b": {File: "game.ini", Name: "b", Value: "3"},
		"c": {File: "game.ini", Name: "c", Value: "4"},
	}))

	after := store.GetState().GameSettings.Options
	if len(after) != 3 || after["a"].Value != "1" || after["b"].Value != "3" || after["c"].Value != "4" {
		t.Fatalf("unexpected merged options %+v", after)
	}
	if before["b"].Value != "2" || len(before) != 2 {
		t.Fatalf("expected previous map untouched, got %+v", before)
	}

	store.Dispatch(SetGameSettingsOptions(map[string]GameSettingOption{"z": {Name: "z"}}))
	if got := store.GetState().GameSettings.Options; len(got) != 1 {
		t.Fatalf("expected replace semantics, got %+v", got)
	}
}

func TestSetSystemConfigDetachesPayload(t *testing.T) {
	config := DefaultSystemState()
	config.GameName = "Skyrim"
	config.CustomPaths = map[string]string{"%GAME%": "C:/game"}
	store := New(ModeFull)

	store.Dispatch(SetSystemConfig(config))
	config.CustomPaths["%GAME%"] = "mutated"

	system := store.GetState().System
	if system.GameName != "Skyrim" || system.CustomPaths["%GAME%"] != "C:/game" {
		t.Fatalf("unexpected system %+v", system)
	}
}

func TestActionTypesUniqueWithinSlice(t *testing.T) {
	for name, types := range ActionTypes() {
		seen := map[ActionType]bool{}
		for _, actionType := range types {
			if seen[actionType] {
				t.Fatalf("slice %s registers %s twice", name, actionType)
			}
			seen[actionType] = true
		}
	}
	themeOwners := 0
	for _, types := range ActionTypes() {
		for _, actionType := range types {
			if actionType == SetUserThemeType {
				themeOwners++
			}
		}
	}
	if themeOwners != 1 {
		t.Fatalf("expected a single slice to handle %s, got %d", SetUserThemeType, themeOwners)
	}
}
