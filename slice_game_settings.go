package launcher

import "maps"

// GameSettingsFile is a game configuration file the launcher reads and writes.
type GameSettingsFile struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Encoding string `json:"encoding,omitempty"`
	View     string `json:"view"`
}

// GameSettingOption is one parameter value read from a game settings file.
type GameSettingOption struct {
	File  string `json:"file"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Resolution is the in-game render resolution.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// GameSettingsState mirrors the game settings files and their current values.
type GameSettingsState struct {
	MOProfile  string                       `json:"moProfile"`
	Files      map[string]GameSettingsFile  `json:"files"`
	Options    map[string]GameSettingOption `json:"options"`
	Resolution Resolution                   `json:"resolution"`
}

func DefaultGameSettingsState() GameSettingsState {
	return GameSettingsState{
		Files:   map[string]GameSettingsFile{},
		Options: map[string]GameSettingOption{},
	}
}

const (
	SetGameSettingsFilesType      ActionType = "SET_GAME_SETTINGS_FILES"
	SetGameSettingsOptionsType    ActionType = "SET_GAME_SETTINGS_OPTIONS"
	UpdateGameSettingsOptionsType ActionType = "UPDATE_GAME_SETTINGS_OPTIONS"
	SetMOProfileType              ActionType = "SET_MO_PROFILE"
	SetResolutionType             ActionType = "SET_RESOLUTION"
)

func SetGameSettingsFiles(files map[string]GameSettingsFile) Message[map[string]GameSettingsFile] {
	return Message[map[string]GameSettingsFile]{Kind: SetGameSettingsFilesType, Payload: maps.Clone(files)}
}

// SetGameSettingsOptions replaces every option value.
func SetGameSettingsOptions(options map[string]GameSettingOption) Message[map[string]GameSettingOption] {
	return Message[map[string]GameSettingOption]{Kind: SetGameSettingsOptionsType, Payload: maps.Clone(options)}
}

// UpdateGameSettingsOptions overwrites the given keys and keeps the rest.
func UpdateGameSettingsOptions(options map[string]GameSettingOption) Message[map[string]GameSettingOption] {
	return Message[map[string]GameSettingOption]{Kind: UpdateGameSettingsOptionsType, Payload: maps.Clone(options)}
}

func SetMOProfile(profile string) Message[string] {
	return Message[string]{Kind: SetMOProfileType, Payload: profile}
}

func SetResolution(resolution Resolution) Message[Resolution] {
	return Message[Resolution]{Kind: SetResolutionType, Payload: resolution}
}

func newGameSettingsReducer() *SliceReducer[GameSettingsState] {
	r := NewSliceReducer(SliceGameSettings, DefaultGameSettingsState())
	Handle(r, SetGameSettingsFilesType, func(s GameSettingsState, files map[string]GameSettingsFile) GameSettingsState {
		s.Files = maps.Clone(files)
		return s
	})
	Handle(r, SetGameSettingsOptionsType, func(s GameSettingsState, options map[string]GameSettingOption) GameSettingsState {
		s.Options = maps.Clone(options)
		return s
	})
	Handle(r, UpdateGameSettingsOptionsType, func(s GameSettingsState, options map[string]GameSettingOption) GameSettingsState {
		next := make(map[string]GameSettingOption, len(s.Options)+len(options))
		maps.Copy(next, s.Options)
		maps.Copy(next, options)
		s.Options = next
		return s
	})
	Handle(r, SetMOProfileType, func(s GameSettingsState, profile string) GameSettingsState {
		s.MOProfile = profile
		return s
	})
	Handle(r, SetResolutionType, func(s GameSettingsState, resolution Resolution) GameSettingsState {
		s.Resolution = resolution
		return s
	})
	return r
}
