package launcher

import (
	"slices"
	"time"
)

// MessageStatus classifies a user-facing launcher message.
type MessageStatus string

const (
	MessageInfo    MessageStatus = "info"
	MessageSuccess MessageStatus = "success"
	MessageWarning MessageStatus = "warning"
	MessageError   MessageStatus = "error"
)

// LauncherMessage is a notification shown by the launcher.
type LauncherMessage struct {
	ID     string        `json:"id"`
	Status MessageStatus `json:"status"`
	Text   string        `json:"text"`
}

// BackupInfo describes one backup of the game settings files.
type BackupInfo struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Files     []string  `json:"files"`
}

// MainState is the launcher window state.
type MainState struct {
	IsLauncherInitialized bool              `json:"isLauncherInitialized"`
	IsGameRunning         bool              `json:"isGameRunning"`
	IsGameSettingsLoaded  bool              `json:"isGameSettingsLoaded"`
	IsGameSettingsSaving  bool              `json:"isGameSettingsSaving"`
	Messages              []LauncherMessage `json:"messages"`
	Backups               []BackupInfo      `json:"backups"`
}

func DefaultMainState() MainState {
	return MainState{
		Messages: []LauncherMessage{},
		Backups:  []BackupInfo{},
	}
}

const (
	SetIsLauncherInitializedType ActionType = "SET_IS_LAUNCHER_INITIALIZED"
	SetIsGameRunningType         ActionType = "SET_IS_GAME_RUNNING"
	SetIsGameSettingsLoadedType  ActionType = "SET_IS_GAME_SETTINGS_LOADED"
	SetIsGameSettingsSavingType  ActionType = "SET_IS_GAME_SETTINGS_SAVING"
	AddMessagesType              ActionType = "ADD_MESSAGES"
	DeleteMessagesType           ActionType = "DELETE_MESSAGES"
	SetBackupsType               ActionType = "SET_BACKUPS"
)

func SetIsLauncherInitialized(v bool) Message[bool] {
	return Message[bool]{Kind: SetIsLauncherInitializedType, Payload: v}
}

func SetIsGameRunning(v bool) Message[bool] {
	return Message[bool]{Kind: SetIsGameRunningType, Payload: v}
}

func SetIsGameSettingsLoaded(v bool) Message[bool] {
	return Message[bool]{Kind: SetIsGameSettingsLoadedType, Payload: v}
}

func SetIsGameSettingsSaving(v bool) Message[bool] {
	return Message[bool]{Kind: SetIsGameSettingsSavingType, Payload: v}
}

// AddMessages appends messages after the existing ones.
func AddMessages(messages []LauncherMessage) Message[[]LauncherMessage] {
	return Message[[]LauncherMessage]{Kind: AddMessagesType, Payload: cloneSlice(messages)}
}

// DeleteMessages removes the messages with the given ids.
func DeleteMessages(ids []string) Message[[]string] {
	return Message[[]string]{Kind: DeleteMessagesType, Payload: cloneSlice(ids)}
}

func SetBackups(backups []BackupInfo) Message[[]BackupInfo] {
	return Message[[]BackupInfo]{Kind: SetBackupsType, Payload: cloneSlice(backups)}
}

func newMainReducer() *SliceReducer[MainState] {
	r := NewSliceReducer(SliceMain, DefaultMainState())
	Handle(r, SetIsLauncherInitializedType, func(s MainState, v bool) MainState {
		s.IsLauncherInitialized = v
		return s
	})
	Handle(r, SetIsGameRunningType, func(s MainState, v bool) MainState {
		s.IsGameRunning = v
		return s
	})
	Handle(r, SetIsGameSettingsLoadedType, func(s MainState, v bool) MainState {
		s.IsGameSettingsLoaded = v
		return s
	})
	Handle(r, SetIsGameSettingsSavingType, func(s MainState, v bool) MainState {
		s.IsGameSettingsSaving = v
		return s
	})
	Handle(r, AddMessagesType, func(s MainState, messages []LauncherMessage) MainState {
		next := make([]LauncherMessage, 0, len(s.Messages)+len(messages))
		next = append(next, s.Messages...)
		s.Messages = append(next, messages...)
		return s
	})
	Handle(r, DeleteMessagesType, func(s MainState, ids []string) MainState {
		next := make([]LauncherMessage, 0, len(s.Messages))
		for _, message := range s.Messages {
			if slices.Contains(ids, message.ID) {
				continue
			}
			next = append(next, message)
		}
		s.Messages = next
		return s
	})
	Handle(r, SetBackupsType, func(s MainState, backups []BackupInfo) MainState {
		s.Backups = cloneSlice(backups)
		return s
	})
	return r
}
