// Package session implements the host side channel to one remote runtime.
//
// A Session writes command lines to a Transport in send order, delivers
// each class payload at most once (bases first) and silently drops commands
// once closed. The Manager keeps the sessions of a process and names the
// default session used when an object is constructed without one.
//
// Transports are deliberately small: QueueTransport buffers lines for a
// caller that pumps them to the remote runtime, FuncTransport adapts any
// function. Socket handling belongs to the caller.
package session
