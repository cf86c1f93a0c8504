package launcher

import (
	"github.com/goliatone/go-launcher/pkg/activity"
	"github.com/rs/zerolog"
)

// ActionType identifies a state transition. Values are unique within the table
// of the slice that registers them.
type ActionType string

// Action describes a requested state change.
type Action interface {
	Type() ActionType
}

// Message is the concrete Action carrying a typed payload. Creators in this
// package always return a Message whose payload type matches the handler
// registered for Kind.
type Message[P any] struct {
	Kind    ActionType `json:"type"`
	Payload P          `json:"payload,omitempty"`
}

// Type implements Action.
func (m Message[P]) Type() ActionType {
	return m.Kind
}

// Empty is the payload of actions that carry no data.
type Empty struct{}

// SliceName names one partition of RootState.
type SliceName string

const (
	SliceSystem       SliceName = "system"
	SliceConfig       SliceName = "config"
	SliceSettings     SliceName = "settings"
	SliceUserSettings SliceName = "userSettings"
	SliceGameSettings SliceName = "gameSettings"
	SliceMain         SliceName = "main"
	SliceDeveloper    SliceName = "developer"
)

// Mode fixes the set of slices a Store composes.
type Mode string

const (
	// ModeFull composes every slice. Used by the primary process.
	ModeFull Mode = "full"
	// ModePartial composes the slices a display surface needs.
	ModePartial Mode = "partial"
)

// Slices returns the slice names registered for the mode, in composition order.
func (m Mode) Slices() []SliceName {
	switch m {
	case ModePartial:
		return []SliceName{SliceSystem, SliceMain, SliceDeveloper}
	default:
		return []SliceName{
			SliceSystem,
			SliceConfig,
			SliceSettings,
			SliceUserSettings,
			SliceGameSettings,
			SliceMain,
			SliceDeveloper,
		}
	}
}

// Has reports whether name is part of the mode.
func (m Mode) Has(name SliceName) bool {
	for _, candidate := range m.Slices() {
		if candidate == name {
			return true
		}
	}
	return false
}

// RootState maps every registered slice to its current value. A nil field means
// the slice is not part of the store's mode (or, for a seed, that the slice
// should fall back to its default).
type RootState struct {
	System       *SystemState       `json:"system,omitempty"`
	Config       *ConfigState       `json:"config,omitempty"`
	Settings     *SettingsState     `json:"settings,omitempty"`
	UserSettings *UserSettingsState `json:"userSettings,omitempty"`
	GameSettings *GameSettingsState `json:"gameSettings,omitempty"`
	Main         *MainState         `json:"main,omitempty"`
	Developer    *DeveloperState    `json:"developer,omitempty"`
}

// Listener is notified after every dispatch. It receives no arguments; call
// Store.GetState to read the new value.
type Listener func()

// Option configures a Store.
type Option func(*storeConfig)

type storeConfig struct {
	seed          *RootState
	logger        zerolog.Logger
	activityHooks activity.Hooks
	channel       string
}

func applyOptions(opts []Option) storeConfig {
	cfg := storeConfig{logger: zerolog.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithSeed bootstraps the store with slices taken from seed. Slices left nil
// fall back to their defaults; slices outside the store mode are dropped.
func WithSeed(seed RootState) Option {
	return func(cfg *storeConfig) {
		cfg.seed = &seed
	}
}

// WithLogger attaches a logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *storeConfig) {
		cfg.logger = logger
	}
}
