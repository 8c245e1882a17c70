package qualification

import "errors"

var (
	// ErrNilSession is returned when ProcessTurn is called without a session.
	ErrNilSession = errors.New("qualification: session is nil")
	// ErrUnknownStage indicates a persisted session carries a stage the machine does not know.
	ErrUnknownStage = errors.New("qualification: unknown stage")
	// ErrFieldAlreadySet indicates an attempt to overwrite a collected profile field.
	ErrFieldAlreadySet = errors.New("qualification: field already set")
	// ErrMissingSlots indicates slot selection was reached without offered slots.
	ErrMissingSlots = errors.New("qualification: no slots offered")
)
