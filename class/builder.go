package class

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/hupe1980/twinmesh/logging"
	"github.com/hupe1980/twinmesh/serialize"
)

var classNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*[A-Za-z_]$|^[A-Za-z_]$`)

// reservedPrefix marks remote names that may not be overridden by a
// subclass unless they are one of the Hooks.
const reservedPrefix = "__"

// builder turns one Declaration into a Descriptor.
type builder struct {
	decl   Declaration
	logger logging.Logger
}

func (b *builder) fail(side Side, member string, err error) error {
	return &DeclarationError{Class: b.decl.Name, Side: side, Member: member, Err: err}
}

func (b *builder) build() (*Descriptor, error) {
	decl := b.decl
	if !classNamePattern.MatchString(decl.Name) {
		return nil, b.fail(Host, "", fmt.Errorf("%w: %q", ErrInvalidClassName, decl.Name))
	}
	for i, base := range decl.Bases {
		if base == nil {
			return nil, b.fail(Host, "", fmt.Errorf("%w: base %d is nil", ErrUnknownClass, i))
		}
	}

	if err := b.checkBaseConflicts(); err != nil {
		return nil, err
	}

	host := newSideDescriptor(Host)
	remote := newSideDescriptor(Remote)
	for _, base := range decl.Bases {
		host.inherit(base.host)
		remote.inherit(base.remote)
	}

	if err := b.apply(host, decl.Host); err != nil {
		return nil, err
	}
	if err := b.apply(remote, decl.Remote); err != nil {
		return nil, err
	}
	if err := b.checkOwnership(host, remote); err != nil {
		return nil, err
	}

	b.synthesizeProxies(host, remote)
	b.synthesizeProxies(remote, host)
	host.finalize()
	remote.finalize()

	d := &Descriptor{
		name:   decl.Name,
		doc:    decl.Doc,
		bases:  append([]*Descriptor(nil), decl.Bases...),
		host:   host,
		remote: remote,
	}
	payload, err := synthesizePayload(d, decl.Style)
	if err != nil {
		return nil, b.fail(Remote, "", err)
	}
	d.payload = payload
	return d, nil
}

// inherit copies members of a base side that are not yet present. Bases
// are visited in order, so the first base wins.
func (d *SideDescriptor) inherit(base *SideDescriptor) {
	for name, p := range base.properties {
		if !d.has(name) {
			d.properties[name] = p
		}
	}
	for name, e := range base.emitters {
		if !d.has(name) {
			d.emitters[name] = e
		}
	}
	for name := range base.attributes {
		if !d.has(name) {
			d.attributes[name] = struct{}{}
		}
	}
	for _, h := range base.handlers {
		if !d.has(h.Name) {
			d.handlers = append(d.handlers, h)
		}
	}
	for k, v := range base.constants {
		if _, ok := d.constants[k]; !ok {
			d.constants[k] = v
		}
	}
	if d.hooks.Init == nil {
		d.hooks.Init = base.hooks.Init
	}
	if d.hooks.Encode == nil {
		d.hooks.Encode = base.hooks.Encode
	}
}

// drop removes any inherited member named name so an own declaration can
// take its place.
func (d *SideDescriptor) drop(name string) {
	delete(d.properties, name)
	delete(d.emitters, name)
	delete(d.attributes, name)
	if i := d.handlerIndex(name); i >= 0 {
		d.handlers = append(d.handlers[:i:i], d.handlers[i+1:]...)
	}
}

// apply overrides inherited members with the class's own declarations.
func (b *builder) apply(d *SideDescriptor, own Members) error {
	seen := map[string]bool{}
	claim := func(name string) error {
		if strings.TrimSpace(name) == "" {
			return b.fail(d.side, name, fmt.Errorf("%w: empty member name", ErrAmbiguousOwnership))
		}
		if seen[name] {
			return b.fail(d.side, name, fmt.Errorf("%w: declared more than once", ErrAmbiguousOwnership))
		}
		seen[name] = true
		d.drop(name)
		return nil
	}

	for _, pd := range own.Properties {
		if err := claim(pd.Name); err != nil {
			return err
		}
		p := &Property{Name: pd.Name, Owner: d.side, Default: pd.Default, Doc: pd.Doc, normalize: pd.Normalize}
		def, err := p.Normalize(pd.Default)
		if err != nil {
			return b.fail(d.side, pd.Name, fmt.Errorf("%w: %v", ErrInvalidDefault, err))
		}
		p.Default = def
		d.properties[pd.Name] = p
	}
	for _, ed := range own.Emitters {
		if err := claim(ed.Name); err != nil {
			return err
		}
		d.emitters[ed.Name] = &Emitter{Name: ed.Name, Owner: d.side, Doc: ed.Doc}
	}
	for _, hd := range own.Handlers {
		if err := claim(hd.Name); err != nil {
			return err
		}
		d.handlers = append(d.handlers, &Handler{Name: hd.Name, Types: append([]string(nil), hd.Types...), Fn: hd.Fn})
	}
	for _, name := range own.Attributes {
		if err := claim(name); err != nil {
			return err
		}
		d.attributes[name] = struct{}{}
	}

	for k, v := range own.Constants {
		if d.side == Remote && strings.HasPrefix(k, reservedPrefix) {
			b.logger.Debug("Ignoring reserved remote constant", "class", b.decl.Name, "name", k)
			continue
		}
		d.constants[k] = v
	}
	if own.Hooks.Init != nil {
		d.hooks.Init = own.Hooks.Init
	}
	if own.Hooks.Encode != nil {
		d.hooks.Encode = own.Hooks.Encode
	}
	return nil
}

// checkBaseConflicts rejects a name owned by two bases through different
// declarations unless the class redeclares it. A member reached through a
// shared ancestor is the same declaration and does not conflict.
func (b *builder) checkBaseConflicts() error {
	if len(b.decl.Bases) < 2 {
		return nil
	}
	own := map[string]bool{}
	for _, m := range []Members{b.decl.Host, b.decl.Remote} {
		for _, p := range m.Properties {
			own[p.Name] = true
		}
		for _, e := range m.Emitters {
			own[e.Name] = true
		}
		for _, h := range m.Handlers {
			own[h.Name] = true
		}
		for _, a := range m.Attributes {
			own[a] = true
		}
	}

	type origin struct {
		member any
		base   string
	}
	seen := map[string]origin{}
	claim := func(side Side, name string, member any, base string) error {
		if own[name] {
			return nil
		}
		if prev, ok := seen[name]; ok && prev.member != member {
			return b.fail(side, name, fmt.Errorf("%w: owned by both bases %s and %s", ErrAmbiguousOwnership, prev.base, base))
		}
		seen[name] = origin{member: member, base: base}
		return nil
	}
	for _, base := range b.decl.Bases {
		for _, sd := range []*SideDescriptor{base.host, base.remote} {
			for _, name := range sd.propertyNames {
				if p := sd.properties[name]; !p.Proxy {
					if err := claim(sd.side, name, p, base.name); err != nil {
						return err
					}
				}
			}
			for _, name := range sd.emitterNames {
				if e := sd.emitters[name]; !e.Proxy {
					if err := claim(sd.side, name, e, base.name); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// checkOwnership rejects properties that are authoritative on both sides.
func (b *builder) checkOwnership(host, remote *SideDescriptor) error {
	for name, p := range host.properties {
		if p.Proxy {
			continue
		}
		if rp, ok := remote.properties[name]; ok && !rp.Proxy {
			return b.fail(Host, name, fmt.Errorf("%w: property is authoritative on both sides", ErrAmbiguousOwnership))
		}
	}
	return nil
}

// synthesizeProxies gives to a proxy for every authoritative property and
// emitter of from it lacks. A non-proxy member of the same name blocks the
// proxy; that case is logged and skipped.
func (b *builder) synthesizeProxies(from, to *SideDescriptor) {
	for _, name := range sortedKeys(from.properties) {
		p := from.properties[name]
		if p.Proxy {
			continue
		}
		if existing, ok := to.properties[name]; ok && existing.Proxy {
			to.properties[name] = proxyOf(p)
			continue
		}
		if to.has(name) {
			b.logger.Warn("Property not proxied, it would hide an existing member",
				"class", b.decl.Name, "property", name, "owner", from.side.String(), "side", to.side.String())
			continue
		}
		to.properties[name] = proxyOf(p)
	}
	for _, name := range sortedKeys(from.emitters) {
		e := from.emitters[name]
		if e.Proxy || to.has(name) {
			continue
		}
		to.emitters[name] = &Emitter{Name: name, Owner: e.Owner, Proxy: true, Doc: e.Doc}
	}

	// Proxies whose owner vanished (overridden by a plain member) go too.
	for name, p := range to.properties {
		if !p.Proxy {
			continue
		}
		if owner, ok := from.properties[name]; !ok || owner.Proxy {
			delete(to.properties, name)
		}
	}
	for name, e := range to.emitters {
		if !e.Proxy {
			continue
		}
		if owner, ok := from.emitters[name]; !ok || owner.Proxy {
			delete(to.emitters, name)
		}
	}
}

func proxyOf(p *Property) *Property {
	return &Property{Name: p.Name, Owner: p.Owner, Proxy: true, Default: p.Default, Doc: p.Doc}
}

// finalize recomputes the sorted name lists once.
func (d *SideDescriptor) finalize() {
	d.propertyNames = sortedKeys(d.properties)
	d.proxyNames = d.proxyNames[:0]
	for _, name := range d.propertyNames {
		if d.properties[name].Proxy {
			d.proxyNames = append(d.proxyNames, name)
		}
	}
	d.emitterNames = sortedKeys(d.emitters)

	set := map[string]struct{}{}
	for _, h := range d.handlers {
		for _, t := range h.Types {
			set[t] = struct{}{}
		}
	}
	d.interests = sortedKeys(set)
}

// synthesizePayload renders the remote side as a JSON manifest. It runs
// once per class.
func synthesizePayload(d *Descriptor, style string) (Payload, error) {
	rs := d.remote
	bases := make([]any, 0, len(d.bases))
	for _, b := range d.bases {
		bases = append(bases, b.name)
	}
	props := make([]any, 0, len(rs.propertyNames))
	for _, name := range rs.propertyNames {
		p := rs.properties[name]
		props = append(props, map[string]any{"name": name, "owner": p.Owner.String(), "proxy": p.Proxy, "default": p.Default})
	}
	handlers := make([]any, 0, len(rs.handlers))
	for _, h := range rs.handlers {
		handlers = append(handlers, map[string]any{"name": h.Name, "types": h.Types})
	}
	doc := map[string]any{
		"class":      d.name,
		"bases":      bases,
		"properties": props,
		"emitters":   rs.EmitterNames(),
		"handlers":   handlers,
	}
	if len(rs.constants) > 0 {
		doc["constants"] = rs.Constants()
	}

	// Defaults and constants may hold tagged values, so the serializer
	// renders the manifest rather than encoding/json.
	src, err := serialize.Default.Encode(doc)
	if err != nil {
		return Payload{}, err
	}
	return Payload{Class: d.name, Source: src, Style: style}, nil
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
