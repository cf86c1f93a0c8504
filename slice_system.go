package launcher

import "maps"

// ModOrganizer describes an optional Mod Organizer installation the game is
// started through.
type ModOrganizer struct {
	IsUsed         bool   `json:"isUsed"`
	Version        int    `json:"version"`
	Path           string `json:"path"`
	PathToINI      string `json:"pathToINI"`
	PathToProfiles string `json:"pathToProfiles"`
	PathToMods     string `json:"pathToMods"`
}

// Button is a launcher button that starts an executable. Path and Args may
// contain %PLACEHOLDER% tokens resolved through SystemState.CustomPaths. When
// holds an optional rule expression; the button is hidden when it evaluates
// to false.
type Button struct {
	ID    string      `json:"id"`
	Label string      `json:"label"`
	Path  string      `json:"path"`
	Args  []ButtonArg `json:"args,omitempty"`
	When  string      `json:"when,omitempty"`
}

// ButtonArg is a single command line argument, optionally guarded by a rule.
type ButtonArg struct {
	Value string `json:"value"`
	When  string `json:"when,omitempty"`
}

// Bounds is a window size.
type Bounds struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// SystemState holds the launcher configuration read from the launcher config
// file.
type SystemState struct {
	IsResizable       bool              `json:"isResizable"`
	IsFirstLaunch     bool              `json:"isFirstLaunch"`
	Width             int               `json:"width"`
	Height            int               `json:"height"`
	MinWidth          int               `json:"minWidth"`
	MinHeight         int               `json:"minHeight"`
	GameName          string            `json:"gameName"`
	BaseFilesEncoding string            `json:"baseFilesEncoding"`
	ModOrganizer      ModOrganizer      `json:"modOrganizer"`
	CustomPaths       map[string]string `json:"customPaths"`
	Buttons           []Button          `json:"buttons"`
}

// DefaultSystemState returns the hard-coded system defaults.
func DefaultSystemState() SystemState {
	return SystemState{
		IsResizable:       false,
		IsFirstLaunch:     true,
		Width:             1024,
		Height:            768,
		MinWidth:          1024,
		MinHeight:         768,
		BaseFilesEncoding: "win1251",
		CustomPaths:       map[string]string{},
		Buttons:           []Button{},
	}
}

const (
	SetSystemConfigType  ActionType = "SET_SYSTEM_CONFIG"
	SetIsFirstLaunchType ActionType = "SET_IS_FIRST_LAUNCH"
	SetIsResizableType   ActionType = "SET_IS_RESIZABLE"
	SetWindowBoundsType  ActionType = "SET_WINDOW_BOUNDS"
	SetModOrganizerType  ActionType = "SET_MOD_ORGANIZER"
	SetCustomPathsType   ActionType = "SET_CUSTOM_PATHS"
	SetButtonsType       ActionType = "SET_BUTTONS"
)

func SetSystemConfig(config SystemState) Message[SystemState] {
	return Message[SystemState]{Kind: SetSystemConfigType, Payload: config}
}

func SetIsFirstLaunch(isFirstLaunch bool) Message[bool] {
	return Message[bool]{Kind: SetIsFirstLaunchType, Payload: isFirstLaunch}
}

func SetIsResizable(isResizable bool) Message[bool] {
	return Message[bool]{Kind: SetIsResizableType, Payload: isResizable}
}

func SetWindowBounds(bounds Bounds) Message[Bounds] {
	return Message[Bounds]{Kind: SetWindowBoundsType, Payload: bounds}
}

func SetModOrganizer(mo ModOrganizer) Message[ModOrganizer] {
	return Message[ModOrganizer]{Kind: SetModOrganizerType, Payload: mo}
}

func SetCustomPaths(paths map[string]string) Message[map[string]string] {
	return Message[map[string]string]{Kind: SetCustomPathsType, Payload: maps.Clone(paths)}
}

func SetButtons(buttons []Button) Message[[]Button] {
	return Message[[]Button]{Kind: SetButtonsType, Payload: cloneSlice(buttons)}
}

func newSystemReducer() *SliceReducer[SystemState] {
	r := NewSliceReducer(SliceSystem, DefaultSystemState())
	Handle(r, SetSystemConfigType, func(_ SystemState, config SystemState) SystemState {
		return cloneSlice(config)
	})
	Handle(r, SetIsFirstLaunchType, func(s SystemState, v bool) SystemState {
		s.IsFirstLaunch = v
		return s
	})
	Handle(r, SetIsResizableType, func(s SystemState, v bool) SystemState {
		s.IsResizable = v
		return s
	})
	Handle(r, SetWindowBoundsType, func(s SystemState, b Bounds) SystemState {
		s.Width = b.Width
		s.Height = b.Height
		return s
	})
	Handle(r, SetModOrganizerType, func(s SystemState, mo ModOrganizer) SystemState {
		s.ModOrganizer = mo
		return s
	})
	Handle(r, SetCustomPathsType, func(s SystemState, paths map[string]string) SystemState {
		s.CustomPaths = maps.Clone(paths)
		return s
	})
	Handle(r, SetButtonsType, func(s SystemState, buttons []Button) SystemState {
		s.Buttons = cloneSlice(buttons)
		return s
	})
	return r
}
