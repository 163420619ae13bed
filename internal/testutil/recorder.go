package testutil

import (
	"github.com/hupe1980/twinmesh/class"
	"github.com/hupe1980/twinmesh/wire"
)

// Recorder captures executed command lines and registered classes. It
// satisfies the host session and remote sender contracts.
type Recorder struct {
	lines      []string
	registered []string
}

// Execute records line.
func (r *Recorder) Execute(line string) { r.lines = append(r.lines, line) }

// RegisterClass records the class name on every call.
func (r *Recorder) RegisterClass(desc *class.Descriptor) {
	r.registered = append(r.registered, desc.Name())
}

// Lines returns the recorded lines in order.
func (r *Recorder) Lines() []string { return append([]string(nil), r.lines...) }

// Registered returns the class names passed to RegisterClass.
func (r *Recorder) Registered() []string { return append([]string(nil), r.registered...) }

// Commands parses the recorded lines, keeping those with one of verbs (all
// when none is given). Unparseable lines are skipped.
func (r *Recorder) Commands(verbs ...wire.Verb) []wire.Command {
	var out []wire.Command
	for _, line := range r.lines {
		cmd, err := wire.Parse(line)
		if err != nil {
			continue
		}
		if len(verbs) == 0 || containsVerb(verbs, cmd.Verb) {
			out = append(out, cmd)
		}
	}
	return out
}

// Take returns the recorded lines and forgets them.
func (r *Recorder) Take() []string {
	out := r.lines
	r.lines = nil
	return out
}

// Reset forgets everything recorded.
func (r *Recorder) Reset() {
	r.lines = nil
	r.registered = nil
}

// Pump hands each line to handle in order and stops at the first error.
func Pump(lines []string, handle func(line string) error) error {
	for _, line := range lines {
		if err := handle(line); err != nil {
			return err
		}
	}
	return nil
}

func containsVerb(verbs []wire.Verb, v wire.Verb) bool {
	for _, candidate := range verbs {
		if candidate == v {
			return true
		}
	}
	return false
}
