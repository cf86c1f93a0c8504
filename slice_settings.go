package launcher

import "time"

// SettingsState holds launcher-level preferences that survive restarts.
type SettingsState struct {
	BackupsDir      string    `json:"backupsDir"`
	ExtraLaunchArgs []string  `json:"extraLaunchArgs"`
	LastLaunchedAt  time.Time `json:"lastLaunchedAt"`
}

func DefaultSettingsState() SettingsState {
	return SettingsState{
		BackupsDir:      "backups",
		ExtraLaunchArgs: []string{},
	}
}

const (
	SetBackupsDirType      ActionType = "SET_BACKUPS_DIR"
	SetExtraLaunchArgsType ActionType = "SET_EXTRA_LAUNCH_ARGS"
	SetLastLaunchedAtType  ActionType = "SET_LAST_LAUNCHED_AT"
)

func SetBackupsDir(dir string) Message[string] {
	return Message[string]{Kind: SetBackupsDirType, Payload: dir}
}

func SetExtraLaunchArgs(args []string) Message[[]string] {
	return Message[[]string]{Kind: SetExtraLaunchArgsType, Payload: cloneSlice(args)}
}

func SetLastLaunchedAt(at time.Time) Message[time.Time] {
	return Message[time.Time]{Kind: SetLastLaunchedAtType, Payload: at}
}

func newSettingsReducer() *SliceReducer[SettingsState] {
	r := NewSliceReducer(SliceSettings, DefaultSettingsState())
	Handle(r, SetBackupsDirType, func(s SettingsState, dir string) SettingsState {
		s.BackupsDir = dir
		return s
	})
	Handle(r, SetExtraLaunchArgsType, func(s SettingsState, args []string) SettingsState {
		s.ExtraLaunchArgs = cloneSlice(args)
		return s
	})
	Handle(r, SetLastLaunchedAtType, func(s SettingsState, at time.Time) SettingsState {
		s.LastLaunchedAt = at
		return s
	})
	return r
}
