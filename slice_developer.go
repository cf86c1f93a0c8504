package launcher

// DeveloperState controls the developer window.
type DeveloperState struct {
	IsDevWindowOpen   bool   `json:"isDevWindowOpen"`
	IsDevtoolsEnabled bool   `json:"isDevtoolsEnabled"`
	LogLevel          string `json:"logLevel"`
}

func DefaultDeveloperState() DeveloperState {
	return DeveloperState{LogLevel: "info"}
}

const (
	SetIsDevWindowOpenType   ActionType = "SET_IS_DEV_WINDOW_OPEN"
	SetIsDevtoolsEnabledType ActionType = "SET_IS_DEVTOOLS_ENABLED"
	SetLogLevelType          ActionType = "SET_LOG_LEVEL"
)

func SetIsDevWindowOpen(v bool) Message[bool] {
	return Message[bool]{Kind: SetIsDevWindowOpenType, Payload: v}
}

func SetIsDevtoolsEnabled(v bool) Message[bool] {
	return Message[bool]{Kind: SetIsDevtoolsEnabledType, Payload: v}
}

func SetLogLevel(level string) Message[string] {
	return Message[string]{Kind: SetLogLevelType, Payload: level}
}

func newDeveloperReducer() *SliceReducer[DeveloperState] {
	r := NewSliceReducer(SliceDeveloper, DefaultDeveloperState())
	Handle(r, SetIsDevWindowOpenType, func(s DeveloperState, v bool) DeveloperState {
		s.IsDevWindowOpen = v
		return s
	})
	Handle(r, SetIsDevtoolsEnabledType, func(s DeveloperState, v bool) DeveloperState {
		s.IsDevtoolsEnabled = v
		return s
	})
	Handle(r, SetLogLevelType, func(s DeveloperState, level string) DeveloperState {
		s.LogLevel = level
		return s
	})
	return r
}
