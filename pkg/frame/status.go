package frame

// Status is the outcome of the most recent operation on a Packet.
//
// It is a tagged value with three classes: in-progress (StatusBuilding),
// completed (StatusReceived, StatusGetByteFinished) and failed (the rest
// except StatusOK). The classes are exposed through InProgress, Completed
// and Failed so steady-state continuation is never mistaken for an error.
type Status uint8

const (
	// StatusOK reports a plain successful operation.
	StatusOK Status = iota
	// StatusBuilding reports an inbound frame still being assembled.
	StatusBuilding
	// StatusReceived reports a complete inbound frame with a valid
	// checksum. Terminal until the packet is reset.
	StatusReceived
	// StatusGetByteFinished reports the emission cursor ran past the end
	// of the frame. Not an error; the cursor is rewound for reuse.
	StatusGetByteFinished
	// StatusHeaderNotFound reports a byte that broke the magic header
	// sequence. The receiver restarts at position 0 on the next byte.
	StatusHeaderNotFound
	// StatusChecksumError reports a complete inbound frame whose checksum
	// did not match. Terminal until the packet is reset.
	StatusChecksumError
	// StatusOverflow reports bytes beyond the packet capacity or the
	// declared payload length. Terminal until the packet is reset.
	StatusOverflow
	// StatusInvalidLength reports a declared payload length exceeding
	// the packet capacity. Terminal until the packet is reset.
	StatusInvalidLength
)

// InProgress indicates the frame is still being assembled.
func (s Status) InProgress() bool {
	return s == StatusBuilding
}

// Completed indicates a successful terminal state.
func (s Status) Completed() bool {
	return s == StatusReceived || s == StatusGetByteFinished
}

// Failed indicates a real failure, as opposed to steady-state progress or
// successful completion.
func (s Status) Failed() bool {
	return s >= StatusHeaderNotFound
}

// Terminal indicates the current frame is finished, successfully or not,
// and the packet must be reset before reuse. StatusHeaderNotFound is not
// terminal: the receiver resynchronizes by itself.
func (s Status) Terminal() bool {
	return s == StatusReceived || s == StatusChecksumError ||
		s == StatusOverflow || s == StatusInvalidLength
}

// Err maps failure statuses to their sentinel errors, nil otherwise.
func (s Status) Err() error {
	switch s {
	case StatusHeaderNotFound:
		return ErrHeaderNotFound
	case StatusChecksumError:
		return ErrChecksum
	case StatusOverflow:
		return ErrOverflow
	case StatusInvalidLength:
		return ErrInvalidLength
	}
	return nil
}

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusBuilding:
		return "building"
	case StatusReceived:
		return "received"
	case StatusGetByteFinished:
		return "get-byte-finished"
	case StatusHeaderNotFound:
		return "header-not-found"
	case StatusChecksumError:
		return "checksum-error"
	case StatusOverflow:
		return "overflow"
	case StatusInvalidLength:
		return "invalid-length"
	}
	return "unknown"
}
