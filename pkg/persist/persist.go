// Package persist keeps the launcher's persisted slices in a state backend:
// Load reads the record once at startup and Adapter rewrites it after every
// dispatch.
package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	launcher "github.com/goliatone/go-launcher"
	"github.com/goliatone/go-launcher/internal/hydrate"
	"github.com/goliatone/go-launcher/pkg/activity"
	"github.com/goliatone/go-launcher/pkg/state"
	"github.com/rs/zerolog"
)

// DefaultRef is where the launcher record lives.
var DefaultRef = state.Ref{Namespace: state.DefaultNamespace, Domain: "state"}

// Backend stores the record as a plain JSON object so unknown or stale keys
// can be dropped while decoding.
type Backend = state.Store[map[string]any]

// Option configures Load and Attach.
type Option func(*config)

type config struct {
	ref     state.Ref
	logger  zerolog.Logger
	hooks   activity.Hooks
	timeout time.Duration
}

func applyOptions(opts []Option) config {
	cfg := config{ref: DefaultRef, logger: zerolog.Nop(), timeout: 5 * time.Second}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithRef overrides DefaultRef.
func WithRef(ref state.Ref) Option {
	return func(cfg *config) {
		cfg.ref = ref
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithActivityHooks attaches hooks notified after each write attempt.
func WithActivityHooks(hooks activity.Hooks) Option {
	return func(cfg *config) {
		cfg.hooks = hooks
	}
}

// WithTimeout bounds each backend write.
func WithTimeout(timeout time.Duration) Option {
	return func(cfg *config) {
		if timeout > 0 {
			cfg.timeout = timeout
		}
	}
}

var recordDecoder = hydrate.NewDecoder(
	hydrate.WithKeys[launcher.PersistedRecord](sliceKeys()...),
	hydrate.WithBase(launcher.DefaultRecord),
	hydrate.WithDefaults(launcher.DefaultRecord),
)

func sliceKeys() []string {
	names := launcher.PersistedSlices()
	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = string(name)
	}
	return keys
}

// Load reads the persisted record. A missing or unreadable record yields
// DefaultRecord; the failure is logged and never returned.
func Load(ctx context.Context, backend Backend, opts ...Option) (launcher.PersistedRecord, state.Meta) {
	cfg := applyOptions(opts)
	logger := cfg.logger.With().Str("component", "persist").Logger()
	if backend == nil {
		return launcher.DefaultRecord(), state.Meta{}
	}

	doc, meta, ok, err := backend.Load(ctx, cfg.ref)
	if err != nil {
		logger.Warn().Err(err).Msg("persisted record unreadable, using defaults")
		return launcher.DefaultRecord(), state.Meta{}
	}
	if !ok || doc == nil {
		logger.Debug().Msg("no persisted record, using defaults")
		return launcher.DefaultRecord(), state.Meta{}
	}

	key, _ := cfg.ref.Identifier()
	record, err := recordDecoder.Decode(hydrate.Context{Source: "persist", Key: key}, doc)
	if err != nil {
		logger.Warn().Err(err).Msg("persisted record corrupt, using defaults")
		return launcher.DefaultRecord(), state.Meta{}
	}
	logger.Debug().Str("snapshot_id", meta.SnapshotID).Msg("persisted record loaded")
	return record, meta
}

// Encode converts a record to the document form written to the backend.
func Encode(record launcher.PersistedRecord) (map[string]any, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("persist: encode record: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("persist: encode record: %w", err)
	}
	return doc, nil
}

// Adapter writes the persisted projection of a store after every dispatch.
// Writes run on one background goroutine and only the latest pending record
// is written.
type Adapter struct {
	backend Backend
	cfg     config
	logger  zerolog.Logger
	emitter *activity.Emitter

	unsubscribe func()
	wake        chan struct{}
	done        chan struct{}
	wg          sync.WaitGroup

	mu        sync.Mutex
	pending *launcher.PersistedRecord
	closed  bool
}

// Attach subscribes an adapter to store. Call Close to flush the last record
// and stop the writer.
func Attach(store *launcher.Store, backend Backend, opts ...Option) *Adapter {
	cfg := applyOptions(opts)
	a := &Adapter{
		backend: backend,
		cfg:     cfg,
		logger:  cfg.logger.With().Str("component", "persist").Logger(),
		emitter: activity.NewEmitter(cfg.hooks, activity.Config{Enabled: len(cfg.hooks) > 0}),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	a.wg.Add(1)
	go a.run()
	a.unsubscribe = store.Subscribe(func() {
		a.enqueue(launcher.Project(store.GetState()))
	})
	return a
}

func (a *Adapter) enqueue(record launcher.PersistedRecord) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.pending = &record
	a.mu.Unlock()

	select {
	case a.wake <- struct{}{}:
	default:
	}
}

func (a *Adapter) run() {
	defer a.wg.Done()
	for {
		select {
		case <-a.wake:
			a.flush()
		case <-a.done:
			return
		}
	}
}

func (a *Adapter) take() *launcher.PersistedRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	record := a.pending
	a.pending = nil
	return record
}

func (a *Adapter) flush() {
	record := a.take()
	if record == nil {
		return
	}
	if err := a.write(*record); err != nil {
		a.logger.Error().Err(err).Msg("persist write failed")
	}
}

func (a *Adapter) write(record launcher.PersistedRecord) error {
	doc, err := Encode(record)
	if err != nil {
		a.emit(state.Meta{}, err)
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.timeout)
	defer cancel()
	meta, err := a.backend.Save(ctx, a.cfg.ref, doc, state.Meta{})
	if err != nil {
		err = fmt.Errorf("persist: save: %w", err)
		a.emit(meta, err)
		return err
	}

	a.logger.Debug().Str("snapshot_id", meta.SnapshotID).Msg("persisted record written")
	a.emit(meta, nil)
	return nil
}

func (a *Adapter) emit(meta state.Meta, err error) {
	if !a.emitter.Enabled() {
		return
	}
	key, _ := a.cfg.ref.Identifier()
	event := activity.BuildStatePersistedEvent(activity.PersistInput{
		Key:        key,
		SnapshotID: meta.SnapshotID,
		Slices:     sliceKeys(),
		Err:        err,
	})
	if hookErr := a.emitter.Emit(context.Background(), event); hookErr != nil {
		a.logger.Warn().Err(hookErr).Msg("activity hook failed")
	}
}

// Close unsubscribes from the store, stops the writer and writes the latest
// pending record. It returns that final write's error. Calling Close again
// is a no-op.
func (a *Adapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	close(a.done)
	a.wg.Wait()

	record := a.take()
	if record == nil {
		return nil
	}
	return a.write(*record)
}

// Update edits the stored record in place without a running store. The
// record is decoded like Load (a missing record starts from defaults), passed
// to fn and written back. When meta.ETag is set the write fails with
// state.ErrETagMismatch if the record changed since it was read.
func Update(ctx context.Context, backend Backend, meta state.Meta, fn func(*launcher.PersistedRecord) error, opts ...Option) (launcher.PersistedRecord, state.Meta, error) {
	cfg := applyOptions(opts)
	key, err := cfg.ref.Identifier()
	if err != nil {
		return launcher.PersistedRecord{}, state.Meta{}, err
	}
	var record launcher.PersistedRecord
	_, saved, err := state.Mutate(ctx, backend, cfg.ref, meta, func(doc *map[string]any) error {
		record = launcher.DefaultRecord()
		if *doc != nil {
			decoded, err := recordDecoder.Decode(hydrate.Context{Source: "persist", Key: key}, *doc)
			if err != nil {
				return fmt.Errorf("persist: decode record: %w", err)
			}
			record = decoded
		}
		if err := fn(&record); err != nil {
			return err
		}
		next, err := Encode(record)
		if err != nil {
			return err
		}
		*doc = next
		return nil
	})
	if err != nil {
		return launcher.PersistedRecord{}, saved, err
	}
	cfg.logger.Debug().Str("component", "persist").Str("snapshot_id", saved.SnapshotID).Msg("persisted record updated")
	return record, saved, nil
}
