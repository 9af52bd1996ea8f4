package frame

import "errors"

var (
	// ErrCapacity indicates the requested payload capacity does not fit
	// the 16-bit length field.
	ErrCapacity = errors.New("capacity out of range")
	// ErrHeaderNotFound indicates the magic header bytes were not seen.
	// The receiver self-resets, so the caller just keeps feeding bytes.
	ErrHeaderNotFound = errors.New("header bytes not found")
	// ErrChecksum indicates the recomputed CRC did not match the frame.
	ErrChecksum = errors.New("checksum mismatch")
	// ErrOverflow indicates data does not fit the packet capacity.
	ErrOverflow = errors.New("packet overflow")
	// ErrInvalidLength indicates a declared payload length exceeding the
	// packet capacity.
	ErrInvalidLength = errors.New("invalid data length")
	// ErrNameTooLong indicates a descriptor name exceeding the fixed
	// name field width.
	ErrNameTooLong = errors.New("descriptor name too long")
	// ErrShortDescriptor indicates not enough bytes to parse a Descriptor.
	ErrShortDescriptor = errors.New("descriptor too short")
)
