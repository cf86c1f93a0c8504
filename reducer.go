package launcher

import "fmt"

// SliceReducer dispatches actions to the handler registered for their type.
// Unregistered types, and actions whose payload variant does not match the
// registered handler, leave the state untouched.
type SliceReducer[S any] struct {
	name     SliceName
	initial  S
	handlers map[ActionType]func(S, Action) (S, bool)
	types    []ActionType
}

// NewSliceReducer creates an empty dispatch table with the given initial state.
func NewSliceReducer[S any](name SliceName, initial S) *SliceReducer[S] {
	return &SliceReducer[S]{
		name:     name,
		initial:  initial,
		handlers: make(map[ActionType]func(S, Action) (S, bool)),
	}
}

// Handle registers fn for action type t. Registering the same type twice on
// one reducer panics: type constants must be unique within a slice.
//
// This is a top-level function because methods cannot declare type parameters.
func Handle[S, P any](r *SliceReducer[S], t ActionType, fn func(S, P) S) {
	if fn == nil {
		panic(fmt.Sprintf("launcher: nil handler for %s/%s", r.name, t))
	}
	if _, exists := r.handlers[t]; exists {
		panic(fmt.Sprintf("launcher: duplicate action type %s/%s", r.name, t))
	}
	r.handlers[t] = func(state S, action Action) (S, bool) {
		msg, ok := action.(Message[P])
		if !ok {
			return state, false
		}
		return fn(state, msg.Payload), true
	}
	r.types = append(r.types, t)
}

// Reduce applies action to state. A nil state is replaced by the initial
// value. When no handler applies the same pointer is returned.
func (r *SliceReducer[S]) Reduce(state *S, action Action) *S {
	if state == nil {
		initial := r.Initial()
		state = &initial
	}
	if action == nil {
		return state
	}
	handler, ok := r.handlers[action.Type()]
	if !ok {
		return state
	}
	next, handled := handler(*state, action)
	if !handled {
		return state
	}
	return &next
}

// Handles reports whether t has a registered handler.
func (r *SliceReducer[S]) Handles(t ActionType) bool {
	_, ok := r.handlers[t]
	return ok
}

// Types returns the registered action types in registration order.
func (r *SliceReducer[S]) Types() []ActionType {
	return append([]ActionType(nil), r.types...)
}

// Initial returns a copy of the initial state.
func (r *SliceReducer[S]) Initial() S {
	return cloneSlice(r.initial)
}

// Name returns the slice the reducer serves.
func (r *SliceReducer[S]) Name() SliceName {
	return r.name
}
