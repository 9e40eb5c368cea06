package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// HandlerFunc handles an action invoked by name with a JSON payload.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) (any, error)

// ActionTable is implemented by stores that register named actions.
// Every store embedding Base implements it.
type ActionTable interface {
	Actions() []string
	Action(name string) (HandlerFunc, bool)
}

// Handle registers fn as the handler for action.
func (b *Base) Handle(action string, fn HandlerFunc) {
	b.actionsMu.Lock()
	defer b.actionsMu.Unlock()
	b.actions[action] = fn
}

// Actions returns the registered action names, sorted.
func (b *Base) Actions() []string {
	b.actionsMu.RLock()
	defer b.actionsMu.RUnlock()
	names := make([]string, 0, len(b.actions))
	for name := range b.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Action returns the handler for name.
func (b *Base) Action(name string) (HandlerFunc, bool) {
	b.actionsMu.RLock()
	defer b.actionsMu.RUnlock()
	fn, ok := b.actions[name]
	return fn, ok
}

// Dispatch invokes action on the store named name.
func (r *Registry) Dispatch(ctx context.Context, name, action string, payload json.RawMessage) (any, error) {
	inst, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	table, ok := inst.(ActionTable)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownAction, name, action)
	}
	fn, ok := table.Action(action)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownAction, name, action)
	}
	return fn(ctx, payload)
}

// NoPayload adapts an action without arguments. Any payload is ignored.
func NoPayload(fn func()) HandlerFunc {
	return func(ctx context.Context, _ json.RawMessage) (any, error) {
		fn()
		return nil, nil
	}
}

// NoPayloadErr adapts a fallible action without arguments.
func NoPayloadErr(fn func(ctx context.Context) error) HandlerFunc {
	return func(ctx context.Context, _ json.RawMessage) (any, error) {
		return nil, fn(ctx)
	}
}

// Payload adapts an action taking a JSON-decoded argument.
func Payload[P any](fn func(ctx context.Context, p P) error) HandlerFunc {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		p, err := Decode[P](raw)
		if err != nil {
			return nil, err
		}
		return nil, fn(ctx, p)
	}
}

// PayloadResult adapts an action taking an argument and returning a value.
func PayloadResult[P, R any](fn func(ctx context.Context, p P) (R, error)) HandlerFunc {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		p, err := Decode[P](raw)
		if err != nil {
			return nil, err
		}
		return fn(ctx, p)
	}
}

// Decode strictly decodes a payload. Unknown fields, trailing data and an
// empty payload are errors wrapping ErrBadPayload.
func Decode[P any](raw json.RawMessage) (P, error) {
	var p P
	if len(bytes.TrimSpace(raw)) == 0 {
		return p, fmt.Errorf("%w: empty payload", ErrBadPayload)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return p, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if dec.More() {
		return p, fmt.Errorf("%w: trailing data", ErrBadPayload)
	}
	return p, nil
}
