package twin

import (
	"errors"
	"fmt"
)

var (
	// ErrWrongSide is returned when an operation reserved for one side is
	// invoked on the other.
	ErrWrongSide = errors.New("operation not available on this side")
	// ErrProxyProperty is returned when setting a property whose
	// authoritative owner is the other side.
	ErrProxyProperty = fmt.Errorf("%w: property is a proxy here", ErrWrongSide)
	// ErrUnknownProperty is returned for names the class does not declare.
	ErrUnknownProperty = errors.New("unknown property")
	// ErrUnknownInstance is returned for commands addressing an id with no
	// live object.
	ErrUnknownInstance = errors.New("unknown instance")
	// ErrUndefinedClass is returned when instantiating a class whose payload
	// has not been delivered.
	ErrUndefinedClass = errors.New("class not defined")
	// ErrNoSession is returned when no session is given and no default
	// session is available.
	ErrNoSession = errors.New("no session available")
)
