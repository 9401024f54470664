package jaudio

import "errors"

// Sentinel errors surfaced by the sequencer/track/controller layer
// (§7 "Sequencer" and "Resource" error kinds). IO/format and decode
// errors live alongside their packages (binreader, codec, aaf, wsys,
// ibnk).
var (
	// ErrCallstackUnderflow is returned when a track executes Return or
	// ReturnF with an empty callstack (§7 "Resource" error kind).
	ErrCallstackUnderflow = errors.New("jaudio: callstack underflow")
)
