package launcher

import (
	"context"

	"github.com/goliatone/go-launcher/pkg/activity"
)

// WithActivityHooks attaches activity hooks notified after each dispatch that
// changed at least one slice. Hooks are cloned and nil entries dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *storeConfig) {
		cfg.activityHooks = normalized
	}
}

// WithActivityChannel overrides the channel stamped on emitted events.
func WithActivityChannel(channel string) Option {
	return func(cfg *storeConfig) {
		cfg.channel = channel
	}
}

// ActivityHooks returns a cloned slice of the hooks configured on the store.
// The returned slice can be safely mutated by the caller.
func (s *Store) ActivityHooks() activity.Hooks {
	if s == nil {
		return nil
	}
	return cloneActivityHooks(s.hooks)
}

func (s *Store) emitDispatched(t ActionType, changed []SliceName) {
	if !s.emitter.Enabled() {
		return
	}
	event := activity.BuildActionDispatchedEvent(activity.DispatchInput{
		ActionType: string(t),
		Mode:       string(s.mode),
		Slices:     sliceStrings(changed),
	})
	if err := s.emitter.Emit(context.Background(), event); err != nil {
		s.logger.Warn().Err(err).Str("action", string(t)).Msg("activity hook failed")
	}
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}
