// Package twin implements the synchronized object pair: a host side Object
// holding canonical state and its remote twin, kept eventually consistent
// through text commands.
//
// Each property is authoritative on exactly one side. Setting it there
// normalizes and stores the value and pushes a SETPROP command; the other
// side holds a proxy that only changes when such a command arrives.
// Events emitted on one side are forwarded as EVENT commands only when the
// other side announced (REG_EVENTS) a handler for their type. Inbound
// events are never delivered on arrival: they are queued per object and
// drained together by one deferred callback.
//
// A Runtime owns one side. The host runtime constructs objects with New;
// the remote runtime creates twins when INSTANTIATE commands arrive through
// Handle. Neither runtime is safe for concurrent use: drive each from a
// single goroutine, such as a loop.Loop.
package twin
