package class

import (
	"github.com/hupe1980/twinmesh/event"
)

// Side identifies one half of a synchronized entity.
type Side int

const (
	// Host is the side holding canonical application logic.
	Host Side = iota
	// Remote is the mirrored side living in the connected runtime.
	Remote
)

// String returns the side name.
func (s Side) String() string {
	switch s {
	case Host:
		return "host"
	case Remote:
		return "remote"
	default:
		return "unknown"
	}
}

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == Host {
		return Remote
	}
	return Host
}

// Instance is the view of a synchronized object handed to hooks and
// declared handlers.
type Instance interface {
	ID() string
	Side() Side
	Get(name string) (any, bool)
	Set(name string, value any) error
	Emit(typ string, data map[string]any) error
}

// HandlerFunc is the body of a declared handler.
type HandlerFunc func(self Instance, ev event.Event)

// PropertyDecl declares a property owned by the side it is declared on.
type PropertyDecl struct {
	Name      string
	Default   any
	Normalize Normalizer
	Doc       string
}

// EmitterDecl declares an event type that may only be emitted on the side
// it is declared on.
type EmitterDecl struct {
	Name string
	Doc  string
}

// HandlerDecl declares a handler and the event types it listens for. The
// types are the handler's interest strings.
type HandlerDecl struct {
	Name  string
	Types []string
	Fn    HandlerFunc
}

// Hooks are the construction and serialization hooks a class may
// re-declare to override inherited behavior.
type Hooks struct {
	// Init runs after construction, once initial values are applied.
	Init func(self Instance) error
	// Encode adds fields to the entity reference record of an instance.
	Encode func(self Instance) map[string]any
}

// Members groups the declarations made for one side of a class.
type Members struct {
	Properties []PropertyDecl
	Emitters   []EmitterDecl
	Handlers   []HandlerDecl
	// Attributes names plain (unsynchronized) members. They block proxy
	// creation for properties of the same name.
	Attributes []string
	// Constants are static values delivered with the class payload.
	Constants map[string]any
	Hooks     Hooks
}

// Declaration is the input to Catalog.Declare.
type Declaration struct {
	Name   string
	Doc    string
	Bases  []*Descriptor
	Host   Members
	Remote Members
	// Style is delivered to the remote runtime alongside the class source.
	Style string
}
