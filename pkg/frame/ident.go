package frame

import "encoding/binary"

const (
	// NameSize is the fixed byte width of the descriptor name field.
	NameSize = 25
	// DescriptorSize is the serialized byte length of a Descriptor:
	// version triple, little-endian maximum packet size, name field.
	DescriptorSize = 3 + 2 + NameSize
)

// Descriptor is the capability record exchanged during the reserved
// identity request. It lets two endpoints agree on versions and packet
// limits before exchanging application frames. Immutable once built.
type Descriptor struct {
	major, minor, patch uint8
	maxPacketSize       uint16
	name                [NameSize]byte
}

// NewDescriptor builds a Descriptor from fields. A name longer than
// NameSize fails with ErrNameTooLong rather than truncating silently;
// shorter names are zero-padded.
func NewDescriptor(name string, major, minor, patch uint8, maxPacketSize uint16) (*Descriptor, error) {
	if len(name) > NameSize {
		return nil, ErrNameTooLong
	}
	d := &Descriptor{
		major:         major,
		minor:         minor,
		patch:         patch,
		maxPacketSize: maxPacketSize,
	}
	copy(d.name[:], name)
	return d, nil
}

// ParseDescriptor maps serialized bytes back into a Descriptor. Any byte
// values are accepted; only a short input fails.
func ParseDescriptor(b []byte) (*Descriptor, error) {
	if len(b) < DescriptorSize {
		return nil, ErrShortDescriptor
	}
	d := &Descriptor{
		major:         b[0],
		minor:         b[1],
		patch:         b[2],
		maxPacketSize: binary.LittleEndian.Uint16(b[3:5]),
	}
	copy(d.name[:], b[5:DescriptorSize])
	return d, nil
}

// Major returns the major version.
func (d *Descriptor) Major() uint8 { return d.major }

// Minor returns the minor version.
func (d *Descriptor) Minor() uint8 { return d.minor }

// Patch returns the patch version.
func (d *Descriptor) Patch() uint8 { return d.patch }

// MaxPacketSize returns the largest payload the endpoint accepts.
func (d *Descriptor) MaxPacketSize() uint16 { return d.maxPacketSize }

// Name returns the name with zero padding trimmed. The name field is not
// necessarily zero-terminated: a NameSize-byte name fills it completely.
func (d *Descriptor) Name() string {
	n := len(d.name)
	for n > 0 && d.name[n-1] == 0 {
		n--
	}
	return string(d.name[:n])
}

// Bytes returns the serialized descriptor in the canonical explicit-width
// layout. Field order and widths are fixed by the wire format, never by
// in-memory layout, so the encoding is identical across platforms.
func (d *Descriptor) Bytes() []byte {
	b := make([]byte, DescriptorSize)
	b[0], b[1], b[2] = d.major, d.minor, d.patch
	binary.LittleEndian.PutUint16(b[3:5], d.maxPacketSize)
	copy(b[5:], d.name[:])
	return b
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (d *Descriptor) MarshalBinary() ([]byte, error) {
	return d.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (d *Descriptor) UnmarshalBinary(b []byte) error {
	parsed, err := ParseDescriptor(b)
	if err != nil {
		return err
	}
	*d = *parsed
	return nil
}
