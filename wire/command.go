package wire

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedCommand is returned for lines that do not follow the grammar.
var ErrMalformedCommand = errors.New("malformed command")

// Verb names a command.
type Verb string

const (
	// VerbSetProp pushes a property value to the other side.
	VerbSetProp Verb = "SETPROP"
	// VerbEvent forwards an emitted event.
	VerbEvent Verb = "EVENT"
	// VerbRegEvents announces the event types the sender has handlers for.
	VerbRegEvents Verb = "REG_EVENTS"
	// VerbInstantiate asks the remote runtime to create a twin.
	VerbInstantiate Verb = "INSTANTIATE"
	// VerbDefine delivers a class payload. Its target is the class name.
	VerbDefine Verb = "DEFINE"
	// VerbSetAttr pushes a raw attribute holding an entity reference.
	VerbSetAttr Verb = "SETATTR"
)

// arity is the number of tokens after the target.
var arity = map[Verb]int{
	VerbSetProp:     2,
	VerbEvent:       2,
	VerbSetAttr:     2,
	VerbRegEvents:   1,
	VerbInstantiate: 1,
	VerbDefine:      1,
}

// Known reports whether v is part of the grammar.
func (v Verb) Known() bool {
	_, ok := arity[v]
	return ok
}

// Command is one parsed or to-be-sent command line.
type Command struct {
	Verb   Verb
	Target string
	// Args holds the tokens after the target. The last one is the encoded
	// payload.
	Args []string
}

// SetProp builds a SETPROP command.
func SetProp(id, name, value string) Command {
	return Command{Verb: VerbSetProp, Target: id, Args: []string{name, value}}
}

// Event builds an EVENT command.
func Event(id, typ, payload string) Command {
	return Command{Verb: VerbEvent, Target: id, Args: []string{typ, payload}}
}

// SetAttr builds a SETATTR command.
func SetAttr(id, name, value string) Command {
	return Command{Verb: VerbSetAttr, Target: id, Args: []string{name, value}}
}

// RegEvents builds a REG_EVENTS command.
func RegEvents(id, types string) Command {
	return Command{Verb: VerbRegEvents, Target: id, Args: []string{types}}
}

// Instantiate builds an INSTANTIATE command.
func Instantiate(id, interest string) Command {
	return Command{Verb: VerbInstantiate, Target: id, Args: []string{interest}}
}

// Define builds a DEFINE command.
func Define(class, payload string) Command {
	return Command{Verb: VerbDefine, Target: class, Args: []string{payload}}
}

// Name returns the member name of a two-argument command.
func (c Command) Name() string {
	if len(c.Args) < 2 {
		return ""
	}
	return c.Args[0]
}

// Payload returns the encoded payload token.
func (c Command) Payload() string {
	if len(c.Args) == 0 {
		return ""
	}
	return c.Args[len(c.Args)-1]
}

// Validate checks the command against the grammar.
func (c Command) Validate() error {
	n, ok := arity[c.Verb]
	if !ok {
		return fmt.Errorf("%w: unknown verb %q", ErrMalformedCommand, c.Verb)
	}
	if !isToken(c.Target) {
		return fmt.Errorf("%w: %s target %q", ErrMalformedCommand, c.Verb, c.Target)
	}
	if len(c.Args) != n {
		return fmt.Errorf("%w: %s takes %d arguments, got %d", ErrMalformedCommand, c.Verb, n, len(c.Args))
	}
	for _, a := range c.Args[:n-1] {
		if !isToken(a) {
			return fmt.Errorf("%w: %s argument %q", ErrMalformedCommand, c.Verb, a)
		}
	}
	if strings.ContainsAny(c.Payload(), "\r\n") || c.Payload() == "" {
		return fmt.Errorf("%w: %s payload must be a non-empty single line", ErrMalformedCommand, c.Verb)
	}
	return nil
}

// Encode validates the command and renders it as a line.
func (c Command) Encode() (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	return c.String(), nil
}

// String renders the command without validation.
func (c Command) String() string {
	var b strings.Builder
	b.WriteString(string(c.Verb))
	b.WriteByte(' ')
	b.WriteString(c.Target)
	for _, a := range c.Args {
		b.WriteByte(' ')
		b.WriteString(a)
	}
	return b.String()
}

// Parse splits a command line. The payload token keeps any spaces it
// contains.
func Parse(line string) (Command, error) {
	line = strings.TrimRight(line, "\r\n")
	verb, rest, _ := strings.Cut(line, " ")
	v := Verb(verb)
	n, ok := arity[v]
	if !ok {
		return Command{}, fmt.Errorf("%w: unknown verb %q", ErrMalformedCommand, verb)
	}
	parts := strings.SplitN(rest, " ", n+1)
	if len(parts) != n+1 {
		return Command{}, fmt.Errorf("%w: %s needs a target and %d arguments", ErrMalformedCommand, v, n)
	}
	c := Command{Verb: v, Target: parts[0], Args: parts[1:]}
	if err := c.Validate(); err != nil {
		return Command{}, err
	}
	return c, nil
}

func isToken(s string) bool {
	return s != "" && !strings.ContainsAny(s, " \t\r\n")
}
