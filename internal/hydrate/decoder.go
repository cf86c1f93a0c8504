// Package hydrate turns loosely typed JSON documents (a persisted record, a
// launcher config file) into typed values, with hooks before and after
// decoding.
package hydrate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-launcher/layering"
)

// Context identifies the document being decoded in errors and hooks.
type Context struct {
	Source string
	Key    string
}

func (c Context) String() string {
	if c.Key == "" {
		return c.Source
	}
	return c.Source + ":" + c.Key
}

// PreHook lets callers filter or normalise the payload before decoding.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook lets callers adjust or validate the decoded value.
type PostHook[T any] func(Context, *T) error

// DecoderOption configures a Decoder instance.
type DecoderOption[T any] func(*Decoder[T])

// Decoder converts JSON objects into T.
type Decoder[T any] struct {
	base         func() T
	preHooks     []PreHook
	postHooks    []PostHook[T]
	configureDec []func(*json.Decoder)
}

// WithPreHook applies hook prior to decoding.
func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.preHooks = append(d.preHooks, hook)
	}
}

// WithPostHook applies hook after decoding completes.
func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.postHooks = append(d.postHooks, hook)
	}
}

// WithDisallowUnknownFields invokes json.Decoder.DisallowUnknownFields.
func WithDisallowUnknownFields[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.configureDec = append(d.configureDec, func(dec *json.Decoder) {
			dec.DisallowUnknownFields()
		})
	}
}

// WithKeys drops every top-level key not listed.
func WithKeys[T any](keys ...string) DecoderOption[T] {
	return WithPreHook[T](KeepKeys(keys...))
}

// WithDefaults fills nil maps, slices and pointers of the decoded value from
// defaults().
func WithDefaults[T any](defaults func() T) DecoderOption[T] {
	return WithPostHook[T](func(_ Context, value *T) error {
		*value = layering.MergeLayers(*value, defaults())
		return nil
	})
}

// WithBase decodes over the value returned by base instead of the zero value,
// so fields missing from the payload keep their base value.
func WithBase[T any](base func() T) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.base = base
	}
}

// KeepKeys returns a pre-hook that keeps only the listed top-level keys.
func KeepKeys(keys ...string) PreHook {
	allowed := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		allowed[key] = struct{}{}
	}
	return func(_ Context, payload map[string]any) (map[string]any, error) {
		out := make(map[string]any, len(allowed))
		for key, value := range payload {
			if _, ok := allowed[key]; ok {
				out[key] = value
			}
		}
		return out, nil
	}
}

func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// DecodeBytes parses raw as a JSON object and decodes it.
func (d *Decoder[T]) DecodeBytes(ctx Context, raw []byte) (T, error) {
	var zero T
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return zero, fmt.Errorf("hydrate: parse %s: %w", ctx, err)
	}
	return d.Decode(ctx, payload)
}

// Decode converts payload into T applying configured hooks.
func (d *Decoder[T]) Decode(ctx Context, payload map[string]any) (T, error) {
	var zero T

	if payload == nil {
		return zero, fmt.Errorf("hydrate: payload is nil for %s", ctx)
	}

	current, err := clonePayload(payload)
	if err != nil {
		return zero, fmt.Errorf("hydrate: clone payload for %s: %w", ctx, err)
	}

	for _, hook := range d.preHooks {
		if hook == nil {
			continue
		}
		next, err := hook(ctx, current)
		if err != nil {
			return zero, fmt.Errorf("hydrate: pre-hook for %s failed: %w", ctx, err)
		}
		if next != nil {
			current = next
		}
	}

	buffer, err := json.Marshal(current)
	if err != nil {
		return zero, fmt.Errorf("hydrate: marshal payload for %s: %w", ctx, err)
	}
	decoder := json.NewDecoder(bytes.NewReader(buffer))
	for _, configure := range d.configureDec {
		if configure != nil {
			configure(decoder)
		}
	}
	var result T
	if d.base != nil {
		result = d.base()
	}
	if err := decoder.Decode(&result); err != nil {
		return zero, fmt.Errorf("hydrate: decode %s: %w", ctx, err)
	}

	for _, hook := range d.postHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, &result); err != nil {
			return zero, fmt.Errorf("hydrate: post-hook for %s failed: %w", ctx, err)
		}
	}

	return result, nil
}

func clonePayload(payload map[string]any) (map[string]any, error) {
	buffer, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(buffer, &out); err != nil {
		return nil, err
	}
	return out, nil
}
