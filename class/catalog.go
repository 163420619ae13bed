package class

import (
	"fmt"
	"sync"

	"github.com/hupe1980/twinmesh/logging"
)

// CatalogOptions configures a Catalog.
type CatalogOptions struct {
	// Logger receives declaration diagnostics (skipped proxies, ignored
	// reserved names). Defaults to NoOpLogger.
	Logger logging.Logger
}

// Catalog holds the built descriptors of one process. Classes are declared
// once and live for the catalog's lifetime.
type Catalog struct {
	mu      sync.RWMutex
	classes map[string]*Descriptor
	order   []*Descriptor
	logger  logging.Logger
}

// NewCatalog returns an empty catalog.
func NewCatalog(optFns ...func(o *CatalogOptions)) *Catalog {
	opts := CatalogOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Catalog{classes: make(map[string]*Descriptor), logger: logging.OrNoOp(opts.Logger)}
}

// Default is the process wide catalog used by Declare.
var Default = NewCatalog()

// Declare builds and registers a class in the Default catalog.
func Declare(decl Declaration) (*Descriptor, error) { return Default.Declare(decl) }

// MustDeclare is like Declare but panics on error. Intended for package
// level class declarations.
func MustDeclare(decl Declaration) *Descriptor {
	d, err := Default.Declare(decl)
	if err != nil {
		panic(err)
	}
	return d
}

// Declare builds the merged host and remote descriptors for decl and
// registers the result under decl.Name.
func (c *Catalog) Declare(decl Declaration) (*Descriptor, error) {
	c.mu.RLock()
	_, exists := c.classes[decl.Name]
	c.mu.RUnlock()
	if exists {
		return nil, &DeclarationError{Class: decl.Name, Err: ErrDuplicateClass}
	}

	b := &builder{decl: decl, logger: c.logger}
	d, err := b.build()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.classes[decl.Name]; exists {
		return nil, &DeclarationError{Class: decl.Name, Err: ErrDuplicateClass}
	}
	c.classes[decl.Name] = d
	c.order = append(c.order, d)
	c.logger.Debug("Declared class", "class", d.name, "host_properties", len(d.host.propertyNames), "remote_properties", len(d.remote.propertyNames))
	return d, nil
}

// Lookup returns the descriptor declared under name.
func (c *Catalog) Lookup(name string) (*Descriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.classes[name]
	return d, ok
}

// Resolve is like Lookup but returns ErrUnknownClass when absent.
func (c *Catalog) Resolve(name string) (*Descriptor, error) {
	d, ok := c.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownClass, name)
	}
	return d, nil
}

// Classes returns all descriptors in declaration order.
func (c *Catalog) Classes() []*Descriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*Descriptor(nil), c.order...)
}
