package frame

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDescriptorRoundTrip(t *testing.T) {
	d, err := NewDescriptor("abc", 1, 2, 3, 64)
	require.NoError(t, err)

	raw := d.Bytes()
	require.Len(t, raw, DescriptorSize)
	require.Equal(t, []byte{1, 2, 3}, raw[0:3])
	require.Equal(t, []byte{64, 0}, raw[3:5])
	expectName := append([]byte("abc"), make([]byte, NameSize-3)...)
	require.Equal(t, expectName, raw[5:])

	parsed, err := ParseDescriptor(raw)
	require.NoError(t, err)
	require.Equal(t, uint8(1), parsed.Major())
	require.Equal(t, uint8(2), parsed.Minor())
	require.Equal(t, uint8(3), parsed.Patch())
	require.Equal(t, uint16(64), parsed.MaxPacketSize())
	require.Equal(t, "abc", parsed.Name())
	require.Equal(t, raw, parsed.Bytes())
}

func TestDescriptorNameWidth(t *testing.T) {
	full := strings.Repeat("x", NameSize)
	d, err := NewDescriptor(full, 0, 0, 1, 128)
	require.NoError(t, err)
	require.Equal(t, full, d.Name())

	_, err = NewDescriptor(full+"y", 0, 0, 1, 128)
	require.Equal(t, ErrNameTooLong, err)
}

func TestParseDescriptorShort(t *testing.T) {
	_, err := ParseDescriptor(make([]byte, DescriptorSize-1))
	require.Equal(t, ErrShortDescriptor, err)

	// longer inputs are fine, trailing bytes ignored
	_, err = ParseDescriptor(make([]byte, DescriptorSize+7))
	require.NoError(t, err)
}

func TestDescriptorBinaryMarshaler(t *testing.T) {
	d, err := NewDescriptor("peer", 4, 5, 6, 512)
	require.NoError(t, err)
	raw, err := d.MarshalBinary()
	require.NoError(t, err)

	var back Descriptor
	require.NoError(t, back.UnmarshalBinary(raw))
	require.Equal(t, *d, back)

	require.Equal(t, ErrShortDescriptor, back.UnmarshalBinary(raw[:10]))
	// a failed unmarshal leaves the descriptor untouched
	require.Equal(t, *d, back)
}
