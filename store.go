package launcher

import (
	"sync"

	"github.com/goliatone/go-launcher/layering"
	"github.com/goliatone/go-launcher/pkg/activity"
	"github.com/rs/zerolog"
)

// Store composes the slice reducers of one Mode into a single root state. It
// is the only owner of state for its process; construct it once and pass it
// down to the components that read or change state.
type Store struct {
	mode     Mode
	bindings []sliceBinding
	logger   zerolog.Logger
	hooks    activity.Hooks
	emitter  *activity.Emitter

	mu    sync.RWMutex
	state RootState

	listenersMu sync.Mutex
	listeners   []subscription
	nextID      uint64
}

type subscription struct {
	id uint64
	fn Listener
}

// New constructs a store for mode. Initial slice values are the defaults,
// replaced by any slice supplied through WithSeed.
func New(mode Mode, opts ...Option) *Store {
	if mode != ModePartial {
		mode = ModeFull
	}
	cfg := applyOptions(opts)
	registry := sliceBindings()
	bindings := make([]sliceBinding, 0, len(registry))
	for _, name := range mode.Slices() {
		bindings = append(bindings, registry[name])
	}

	s := &Store{
		mode:     mode,
		bindings: bindings,
		logger:   cfg.logger.With().Str("component", "store").Str("mode", string(mode)).Logger(),
		hooks:    cfg.activityHooks,
		emitter: activity.NewEmitter(cfg.activityHooks, activity.Config{
			Enabled: len(cfg.activityHooks) > 0,
			Channel: cfg.channel,
		}),
	}
	var seed RootState
	if cfg.seed != nil {
		seed = *cfg.seed
	}
	s.state = s.seeded(seed)
	return s
}

// Mode returns the composition mode fixed at construction.
func (s *Store) Mode() Mode {
	return s.mode
}

// Slices returns the names of the slices this store holds.
func (s *Store) Slices() []SliceName {
	return s.mode.Slices()
}

// GetState returns the current root state. Slice values are shared with the
// store and must be treated as read-only.
func (s *Store) GetState() RootState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch routes action through every slice reducer, stores the new root
// state and then calls every current subscriber. Actions no reducer handles
// leave every slice untouched.
func (s *Store) Dispatch(action Action) {
	if action == nil {
		return
	}

	s.mu.Lock()
	next := s.state
	var changed []SliceName
	for _, binding := range s.bindings {
		if binding.reduce(&next, action) {
			changed = append(changed, binding.name)
		}
	}
	s.state = next
	s.mu.Unlock()

	if len(changed) == 0 {
		s.logger.Debug().Str("action", string(action.Type())).Msg("action ignored")
	} else {
		s.logger.Debug().Str("action", string(action.Type())).Strs("slices", sliceStrings(changed)).Msg("action reduced")
		s.emitDispatched(action.Type(), changed)
	}
	s.notify()
}

// Subscribe registers fn to run after every dispatch and returns a function
// that removes it. Calling the returned function more than once is a no-op.
func (s *Store) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	s.listenersMu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			defer s.listenersMu.Unlock()
			for i, sub := range s.listeners {
				if sub.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Replace swaps the whole root state for seed using the same rules as
// WithSeed, then notifies subscribers. Used when resyncing with the primary
// process.
func (s *Store) Replace(seed RootState) {
	s.mu.Lock()
	s.state = s.seeded(seed)
	s.mu.Unlock()
	s.logger.Debug().Msg("state replaced")
	s.notify()
}

func (s *Store) notify() {
	s.listenersMu.Lock()
	current := make([]subscription, len(s.listeners))
	copy(current, s.listeners)
	s.listenersMu.Unlock()

	for _, sub := range current {
		sub.fn()
	}
}

func (s *Store) seeded(seed RootState) RootState {
	var root RootState
	for _, binding := range s.bindings {
		binding.seed(&root, seed)
	}
	return root
}

// DefaultState returns the default root state for mode.
func DefaultState(mode Mode) RootState {
	return New(mode).GetState()
}

// sliceBinding connects one slice reducer to its RootState field.
type sliceBinding struct {
	name   SliceName
	types  func() []ActionType
	reduce func(root *RootState, action Action) bool
	seed   func(dst *RootState, src RootState)
}

func bind[S any](r *SliceReducer[S], field func(*RootState) **S) sliceBinding {
	return sliceBinding{
		name:  r.Name(),
		types: r.Types,
		reduce: func(root *RootState, action Action) bool {
			current := field(root)
			next := r.Reduce(*current, action)
			if next == *current {
				return false
			}
			*current = next
			return true
		},
		seed: func(dst *RootState, src RootState) {
			if value := *field(&src); value != nil {
				cloned := cloneSlice(*value)
				*field(dst) = &cloned
				return
			}
			initial := r.Initial()
			*field(dst) = &initial
		},
	}
}

var (
	systemReducer       = newSystemReducer()
	configReducer       = newConfigReducer()
	settingsReducer     = newSettingsReducer()
	userSettingsReducer = newUserSettingsReducer()
	gameSettingsReducer = newGameSettingsReducer()
	mainReducer         = newMainReducer()
	developerReducer    = newDeveloperReducer()
)

func sliceBindings() map[SliceName]sliceBinding {
	return map[SliceName]sliceBinding{
		SliceSystem:       bind(systemReducer, func(r *RootState) **SystemState { return &r.System }),
		SliceConfig:       bind(configReducer, func(r *RootState) **ConfigState { return &r.Config }),
		SliceSettings:     bind(settingsReducer, func(r *RootState) **SettingsState { return &r.Settings }),
		SliceUserSettings: bind(userSettingsReducer, func(r *RootState) **UserSettingsState { return &r.UserSettings }),
		SliceGameSettings: bind(gameSettingsReducer, func(r *RootState) **GameSettingsState { return &r.GameSettings }),
		SliceMain:         bind(mainReducer, func(r *RootState) **MainState { return &r.Main }),
		SliceDeveloper:    bind(developerReducer, func(r *RootState) **DeveloperState { return &r.Developer }),
	}
}

// ActionTypes returns the action types registered for each slice.
func ActionTypes() map[SliceName][]ActionType {
	out := make(map[SliceName][]ActionType)
	for name, binding := range sliceBindings() {
		out[name] = binding.types()
	}
	return out
}

func cloneSlice[T any](value T) T {
	return layering.Clone(value)
}

func sliceStrings(names []SliceName) []string {
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = string(name)
	}
	return out
}
