package class

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Manifest is a declarative, TOML encoded set of class declarations.
//
//	[[class]]
//	name = "Counter"
//
//	[[class.host.property]]
//	name = "count"
//	type = "int"
//	default = 0
//
//	[[class.remote.handler]]
//	name = "on_count"
//	types = ["count"]
type Manifest struct {
	Classes []ClassSpec `toml:"class"`
}

// ClassSpec is one class entry of a Manifest.
type ClassSpec struct {
	Name   string   `toml:"name"`
	Doc    string   `toml:"doc"`
	Bases  []string `toml:"bases"`
	Style  string   `toml:"style"`
	Host   SideSpec `toml:"host"`
	Remote SideSpec `toml:"remote"`
}

// SideSpec lists the members declared for one side.
type SideSpec struct {
	Properties []PropertySpec `toml:"property"`
	Emitters   []EmitterSpec  `toml:"emitter"`
	Handlers   []HandlerSpec  `toml:"handler"`
	Attributes []string       `toml:"attributes"`
	Constants  map[string]any `toml:"constants"`
}

// PropertySpec declares one property. Type selects a built-in normalizer:
// int, float, string, bool, enum (with Options) or any.
type PropertySpec struct {
	Name    string   `toml:"name"`
	Type    string   `toml:"type"`
	Default any      `toml:"default"`
	Options []string `toml:"options"`
	Doc     string   `toml:"doc"`
}

// EmitterSpec declares one emitter.
type EmitterSpec struct {
	Name string `toml:"name"`
	Doc  string `toml:"doc"`
}

// HandlerSpec declares one handler and its interest strings.
type HandlerSpec struct {
	Name  string   `toml:"name"`
	Types []string `toml:"types"`
}

// HandlerBinder supplies the body of a handler declared in a manifest.
// Returning nil keeps the handler's interest without a body.
type HandlerBinder func(class string, side Side, handler string) HandlerFunc

// ParseManifest decodes a manifest, rejecting unknown keys.
func ParseManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	md, err := toml.NewDecoder(r).Decode(&m)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("manifest: unknown keys %s", strings.Join(keys, ", "))
	}
	return &m, nil
}

// LoadManifest reads and decodes the manifest file at path.
func LoadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseManifest(f)
}

// Declare declares every class of the manifest in c, in file order. Bases
// must already be declared in c or appear earlier in the manifest.
func (m *Manifest) Declare(c *Catalog, bind HandlerBinder) ([]*Descriptor, error) {
	out := make([]*Descriptor, 0, len(m.Classes))
	for _, spec := range m.Classes {
		decl, err := spec.declaration(c, bind)
		if err != nil {
			return out, err
		}
		d, err := c.Declare(decl)
		if err != nil {
			return out, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (s ClassSpec) declaration(c *Catalog, bind HandlerBinder) (Declaration, error) {
	decl := Declaration{Name: s.Name, Doc: s.Doc, Style: s.Style}
	for _, name := range s.Bases {
		base, err := c.Resolve(name)
		if err != nil {
			return Declaration{}, &DeclarationError{Class: s.Name, Err: err}
		}
		decl.Bases = append(decl.Bases, base)
	}
	var err error
	if decl.Host, err = s.Host.members(s.Name, Host, bind); err != nil {
		return Declaration{}, err
	}
	if decl.Remote, err = s.Remote.members(s.Name, Remote, bind); err != nil {
		return Declaration{}, err
	}
	return decl, nil
}

func (s SideSpec) members(class string, side Side, bind HandlerBinder) (Members, error) {
	m := Members{Attributes: s.Attributes, Constants: s.Constants}
	for _, p := range s.Properties {
		norm, err := normalizerFor(p)
		if err != nil {
			return Members{}, &DeclarationError{Class: class, Side: side, Member: p.Name, Err: err}
		}
		m.Properties = append(m.Properties, PropertyDecl{Name: p.Name, Default: p.Default, Normalize: norm, Doc: p.Doc})
	}
	for _, e := range s.Emitters {
		m.Emitters = append(m.Emitters, EmitterDecl{Name: e.Name, Doc: e.Doc})
	}
	for _, h := range s.Handlers {
		hd := HandlerDecl{Name: h.Name, Types: h.Types}
		if bind != nil {
			hd.Fn = bind(class, side, h.Name)
		}
		m.Handlers = append(m.Handlers, hd)
	}
	return m, nil
}

func normalizerFor(p PropertySpec) (Normalizer, error) {
	switch strings.ToLower(p.Type) {
	case "", "any":
		return nil, nil
	case "int":
		return Int, nil
	case "float":
		return Float, nil
	case "string":
		return String, nil
	case "bool":
		return Bool, nil
	case "enum":
		if len(p.Options) == 0 {
			return nil, fmt.Errorf("enum property needs options")
		}
		return OneOf(p.Options...), nil
	default:
		return nil, fmt.Errorf("unknown property type %q", p.Type)
	}
}
