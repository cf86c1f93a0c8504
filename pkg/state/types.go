package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultNamespace is used by refs that leave Namespace empty.
const DefaultNamespace = "launcher"

var ErrETagMismatch = errors.New("state: etag mismatch")

// Ref identifies one persisted record.
type Ref struct {
	Namespace string
	Domain    string
}

// Meta is storage-owned metadata used for audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads and saves one record per Ref. Save overwrites the record in
// full.
type Store[T any] interface {
	Load(ctx context.Context, ref Ref) (snapshot T, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, snapshot T, meta Meta) (Meta, error)
}

// Validator is implemented by snapshots that can check themselves before a
// mutation is saved.
type Validator interface {
	Validate() error
}

type Mutator[T any] func(*T) error

// Identifier returns the canonical storage key, "namespace/domain".
func (r Ref) Identifier() (string, error) {
	domain := strings.TrimSpace(r.Domain)
	if domain == "" {
		return "", fmt.Errorf("state: domain is required")
	}
	namespace := strings.TrimSpace(r.Namespace)
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if strings.Contains(domain, "/") || strings.Contains(namespace, "/") {
		return "", fmt.Errorf("state: ref %q/%q must not contain '/'", namespace, domain)
	}
	return namespace + "/" + domain, nil
}

// Mutate loads one record, applies fn, validates the result and saves it.
// When meta.ETag is set it must match the stored record's ETag. A missing
// record starts from the zero value.
func Mutate[T any](ctx context.Context, store Store[T], ref Ref, meta Meta, fn Mutator[T]) (T, Meta, error) {
	var zero T
	if store == nil {
		return zero, Meta{}, fmt.Errorf("state: store is required")
	}
	if fn == nil {
		return zero, Meta{}, fmt.Errorf("state: mutator is required")
	}
	if _, err := ref.Identifier(); err != nil {
		return zero, Meta{}, err
	}

	snapshot, loadedMeta, ok, err := store.Load(ctx, ref)
	if err != nil {
		return zero, Meta{}, fmt.Errorf("state: load %q: %w", ref.Domain, err)
	}
	if !ok {
		snapshot = zero
		loadedMeta = Meta{}
	}

	if meta.ETag != "" && loadedMeta.ETag != "" && meta.ETag != loadedMeta.ETag {
		return zero, loadedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loadedMeta.ETag)
	}

	if err := fn(&snapshot); err != nil {
		return zero, loadedMeta, err
	}

	if validator, ok := any(snapshot).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return zero, loadedMeta, err
		}
	}

	saveMeta := mergeMeta(Meta{Extra: loadedMeta.Extra}, Meta{
		SnapshotID: meta.SnapshotID,
		UpdatedAt:  meta.UpdatedAt,
		Extra:      meta.Extra,
	})
	savedMeta, err := store.Save(ctx, ref, snapshot, saveMeta)
	if err != nil {
		return zero, loadedMeta, fmt.Errorf("state: save %q: %w", ref.Domain, err)
	}
	return snapshot, savedMeta, nil
}

// Stamp fills the metadata a backend assigns on save: a snapshot id when
// absent, a fresh ETag and the update time.
func Stamp(meta Meta, now time.Time) Meta {
	out := cloneMeta(meta)
	if out.SnapshotID == "" {
		out.SnapshotID = uuid.NewString()
	}
	out.ETag = uuid.NewString()
	if out.UpdatedAt.IsZero() {
		out.UpdatedAt = now.UTC()
	}
	return out
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.SnapshotID != "" {
		out.SnapshotID = override.SnapshotID
	}
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}

func cloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra == nil {
		return out
	}
	out.Extra = make(map[string]string, len(meta.Extra))
	for k, v := range meta.Extra {
		out.Extra[k] = v
	}
	return out
}
