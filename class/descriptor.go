package class

import (
	"fmt"

	"github.com/agnivade/levenshtein"

	"github.com/hupe1980/twinmesh/serialize"
)

// Property is one side's view of a declared property. Exactly one side
// owns it; the other side holds a proxy mirror.
type Property struct {
	Name    string
	Owner   Side
	Proxy   bool
	Default any
	Doc     string

	normalize Normalizer
}

// Normalize applies the property's normalizer. Proxies return v unchanged.
func (p *Property) Normalize(v any) (any, error) {
	if p.Proxy || p.normalize == nil {
		return v, nil
	}
	return p.normalize(v)
}

// Emitter is one side's view of a declared event type. A proxy emitter
// marks an event that can only be emitted on the other side.
type Emitter struct {
	Name  string
	Owner Side
	Proxy bool
	Doc   string
}

// Handler is a declared handler with its interest strings.
type Handler struct {
	Name  string
	Types []string
	Fn    HandlerFunc
}

// Payload is the generated artifact delivered once per session to the
// remote runtime before the class is first instantiated there.
type Payload struct {
	Class  string
	Source string
	Style  string
}

// Encode renders the payload as the single-line record carried by a DEFINE
// command.
func (p Payload) Encode() (string, error) {
	return serialize.Default.Encode(map[string]any{"class": p.Class, "source": p.Source, "style": p.Style})
}

// ParsePayload decodes a record produced by Payload.Encode.
func ParsePayload(text string) (Payload, error) {
	v, err := serialize.Default.Decode(text)
	if err != nil {
		return Payload{}, err
	}
	rec, ok := v.(map[string]any)
	if !ok {
		return Payload{}, fmt.Errorf("payload: expected a record, got %T", v)
	}
	p := Payload{}
	p.Class, _ = rec["class"].(string)
	p.Source, _ = rec["source"].(string)
	p.Style, _ = rec["style"].(string)
	if p.Class == "" {
		return Payload{}, fmt.Errorf("payload: missing class")
	}
	return p, nil
}

// SideDescriptor is the merged, immutable declaration set of one side.
type SideDescriptor struct {
	side       Side
	properties map[string]*Property
	emitters   map[string]*Emitter
	handlers   []*Handler
	attributes map[string]struct{}
	constants  map[string]any
	hooks      Hooks

	propertyNames []string
	proxyNames    []string
	emitterNames  []string
	interests     []string
}

func newSideDescriptor(side Side) *SideDescriptor {
	return &SideDescriptor{
		side:       side,
		properties: make(map[string]*Property),
		emitters:   make(map[string]*Emitter),
		attributes: make(map[string]struct{}),
		constants:  make(map[string]any),
	}
}

// Side reports which side this descriptor describes.
func (d *SideDescriptor) Side() Side { return d.side }

// Property returns the named property, authoritative or proxy.
func (d *SideDescriptor) Property(name string) (*Property, bool) {
	p, ok := d.properties[name]
	return p, ok
}

// PropertyNames returns all property names, sorted.
func (d *SideDescriptor) PropertyNames() []string { return append([]string(nil), d.propertyNames...) }

// ProxyNames returns the names of proxy properties, sorted.
func (d *SideDescriptor) ProxyNames() []string { return append([]string(nil), d.proxyNames...) }

// Emitter returns the named emitter.
func (d *SideDescriptor) Emitter(name string) (*Emitter, bool) {
	e, ok := d.emitters[name]
	return e, ok
}

// EmitterNames returns all emitter names, sorted.
func (d *SideDescriptor) EmitterNames() []string { return append([]string(nil), d.emitterNames...) }

// Handlers returns the declared handlers in inheritance order.
func (d *SideDescriptor) Handlers() []*Handler { return append([]*Handler(nil), d.handlers...) }

// Interests returns the sorted, de-duplicated event types the declared
// handlers listen for.
func (d *SideDescriptor) Interests() []string { return append([]string(nil), d.interests...) }

// HasAttribute reports whether name is a plain attribute on this side.
func (d *SideDescriptor) HasAttribute(name string) bool {
	_, ok := d.attributes[name]
	return ok
}

// Constants returns a copy of the side's constants.
func (d *SideDescriptor) Constants() map[string]any {
	out := make(map[string]any, len(d.constants))
	for k, v := range d.constants {
		out[k] = v
	}
	return out
}

// Hooks returns the effective hooks.
func (d *SideDescriptor) Hooks() Hooks { return d.hooks }

// has reports whether any member of this side uses name.
func (d *SideDescriptor) has(name string) bool {
	if _, ok := d.properties[name]; ok {
		return true
	}
	if _, ok := d.emitters[name]; ok {
		return true
	}
	if _, ok := d.attributes[name]; ok {
		return true
	}
	return d.handlerIndex(name) >= 0
}

func (d *SideDescriptor) handlerIndex(name string) int {
	for i, h := range d.handlers {
		if h.Name == name {
			return i
		}
	}
	return -1
}

// Suggest returns the property name closest to name, or "" when nothing
// is within two edits.
func (d *SideDescriptor) Suggest(name string) string {
	best, bestDist := "", 3
	for _, candidate := range d.propertyNames {
		if dist := levenshtein.ComputeDistance(name, candidate); dist < bestDist {
			best, bestDist = candidate, dist
		}
	}
	return best
}

// Descriptor is the immutable result of declaring a class: one merged
// descriptor per side plus the remote payload.
type Descriptor struct {
	name    string
	doc     string
	bases   []*Descriptor
	host    *SideDescriptor
	remote  *SideDescriptor
	payload Payload
}

// Name returns the class name.
func (d *Descriptor) Name() string { return d.name }

// Doc returns the class documentation.
func (d *Descriptor) Doc() string { return d.doc }

// Bases returns the direct base classes in declaration order.
func (d *Descriptor) Bases() []*Descriptor { return append([]*Descriptor(nil), d.bases...) }

// Host returns the host side descriptor.
func (d *Descriptor) Host() *SideDescriptor { return d.host }

// Remote returns the remote side descriptor.
func (d *Descriptor) Remote() *SideDescriptor { return d.remote }

// Side returns the descriptor for s.
func (d *Descriptor) Side(s Side) *SideDescriptor {
	if s == Remote {
		return d.remote
	}
	return d.host
}

// Payload returns the generated remote payload.
func (d *Descriptor) Payload() Payload { return d.payload }

// Lineage returns the class followed by its ancestors, depth first in base
// order, each class listed once.
func (d *Descriptor) Lineage() []*Descriptor {
	var out []*Descriptor
	seen := map[*Descriptor]bool{}
	var walk func(c *Descriptor)
	walk = func(c *Descriptor) {
		if seen[c] {
			return
		}
		seen[c] = true
		out = append(out, c)
		for _, b := range c.bases {
			walk(b)
		}
	}
	walk(d)
	return out
}

// IsA reports whether the class is name or derives from it.
func (d *Descriptor) IsA(name string) bool {
	for _, c := range d.Lineage() {
		if c.name == name {
			return true
		}
	}
	return false
}
