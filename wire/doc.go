// Package wire defines the text command grammar exchanged between the host
// and remote runtimes.
//
// A command is a single line, verb first, space delimited. The last token
// is an encoded payload and may itself contain spaces:
//
//	SETPROP <id> <name> <value>
//	EVENT <id> <type> <payload>
//	SETATTR <id> <name> <value>
//	REG_EVENTS <id> <types>
//	INSTANTIATE <id> <interest>
//	DEFINE <class> <payload>
package wire
