package testutil

import (
	"github.com/hupe1980/twinmesh/class"
)

// DeclarationBuilder helps construct class declarations with fluent chaining.
// Example:
//
//	decl := NewDeclarationBuilder("Counter").HostProperty("count", 0, class.Int).RemoteHandler("on_count", nil, "count").Build()
type DeclarationBuilder struct {
	decl class.Declaration
}

// NewDeclarationBuilder starts a declaration for class name.
func NewDeclarationBuilder(name string) *DeclarationBuilder {
	return &DeclarationBuilder{decl: class.Declaration{Name: name}}
}

// Bases sets the base classes (chainable).
func (b *DeclarationBuilder) Bases(bases ...*class.Descriptor) *DeclarationBuilder {
	b.decl.Bases = append(b.decl.Bases, bases...)
	return b
}

// HostProperty declares a host owned property (chainable).
func (b *DeclarationBuilder) HostProperty(name string, def any, norm class.Normalizer) *DeclarationBuilder {
	b.decl.Host.Properties = append(b.decl.Host.Properties, class.PropertyDecl{Name: name, Default: def, Normalize: norm})
	return b
}

// RemoteProperty declares a remote owned property (chainable).
func (b *DeclarationBuilder) RemoteProperty(name string, def any, norm class.Normalizer) *DeclarationBuilder {
	b.decl.Remote.Properties = append(b.decl.Remote.Properties, class.PropertyDecl{Name: name, Default: def, Normalize: norm})
	return b
}

// HostEmitter declares an event emitted on the host (chainable).
func (b *DeclarationBuilder) HostEmitter(name string) *DeclarationBuilder {
	b.decl.Host.Emitters = append(b.decl.Host.Emitters, class.EmitterDecl{Name: name})
	return b
}

// RemoteEmitter declares an event emitted on the remote side (chainable).
func (b *DeclarationBuilder) RemoteEmitter(name string) *DeclarationBuilder {
	b.decl.Remote.Emitters = append(b.decl.Remote.Emitters, class.EmitterDecl{Name: name})
	return b
}

// HostHandler declares a host handler listening for types (chainable).
func (b *DeclarationBuilder) HostHandler(name string, fn class.HandlerFunc, types ...string) *DeclarationBuilder {
	b.decl.Host.Handlers = append(b.decl.Host.Handlers, class.HandlerDecl{Name: name, Types: types, Fn: fn})
	return b
}

// RemoteHandler declares a remote handler listening for types (chainable).
func (b *DeclarationBuilder) RemoteHandler(name string, fn class.HandlerFunc, types ...string) *DeclarationBuilder {
	b.decl.Remote.Handlers = append(b.decl.Remote.Handlers, class.HandlerDecl{Name: name, Types: types, Fn: fn})
	return b
}

// HostHooks sets the host hooks (chainable).
func (b *DeclarationBuilder) HostHooks(h class.Hooks) *DeclarationBuilder {
	b.decl.Host.Hooks = h
	return b
}

// RemoteHooks sets the remote hooks (chainable).
func (b *DeclarationBuilder) RemoteHooks(h class.Hooks) *DeclarationBuilder {
	b.decl.Remote.Hooks = h
	return b
}

// Build returns the declaration.
func (b *DeclarationBuilder) Build() class.Declaration { return b.decl }

// Declare declares the built class in c.
func (b *DeclarationBuilder) Declare(c *class.Catalog) (*class.Descriptor, error) {
	return c.Declare(b.decl)
}
