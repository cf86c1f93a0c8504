package launcher

// UserSettingsState holds user interface preferences. It owns the theme and
// auto-close actions; no other slice registers them.
type UserSettingsState struct {
	Theme       string `json:"theme"`
	IsAutoClose bool   `json:"isAutoClose"`
	Language    string `json:"language"`
}

func DefaultUserSettingsState() UserSettingsState {
	return UserSettingsState{
		Theme:    "dark",
		Language: "en",
	}
}

const (
	SetUserThemeType   ActionType = "SET_USER_THEME"
	SetIsAutoCloseType ActionType = "SET_IS_AUTO_CLOSE"
	SetLanguageType    ActionType = "SET_LANGUAGE"
)

func SetUserTheme(theme string) Message[string] {
	return Message[string]{Kind: SetUserThemeType, Payload: theme}
}

func SetIsAutoClose(isAutoClose bool) Message[bool] {
	return Message[bool]{Kind: SetIsAutoCloseType, Payload: isAutoClose}
}

func SetLanguage(language string) Message[string] {
	return Message[string]{Kind: SetLanguageType, Payload: language}
}

func newUserSettingsReducer() *SliceReducer[UserSettingsState] {
	r := NewSliceReducer(SliceUserSettings, DefaultUserSettingsState())
	Handle(r, SetUserThemeType, func(s UserSettingsState, theme string) UserSettingsState {
		s.Theme = theme
		return s
	})
	Handle(r, SetIsAutoCloseType, func(s UserSettingsState, v bool) UserSettingsState {
		s.IsAutoClose = v
		return s
	})
	Handle(r, SetLanguageType, func(s UserSettingsState, language string) UserSettingsState {
		s.Language = language
		return s
	})
	return r
}
