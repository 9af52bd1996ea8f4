package frame

import "encoding/binary"

const (
	// Header is the 16-bit magic value opening every frame.
	Header uint16 = 0x5555
	// HeaderSize is the byte width of the fixed framing fields: magic,
	// checksum, request, response and length, two bytes each.
	HeaderSize = 10
	// MaxCapacity is the largest payload capacity representable in the
	// length field.
	MaxCapacity = 0xfffe
)

const headerByte byte = 0x55

// Reserved request codes.
const (
	// RequestIdent asks the peer for its capability Descriptor.
	RequestIdent uint16 = 0x0001
)

// Reserved response codes.
const (
	// ResponsePending indicates the request was accepted and the reply
	// will arrive asynchronously.
	ResponsePending uint16 = 0x0000
	// ResponseSuccess indicates the request succeeded.
	ResponseSuccess uint16 = 0x0001
	// ResponseUnknownRequest indicates the peer does not implement the
	// request code.
	ResponseUnknownRequest uint16 = 0xfffe
	// ResponseChecksumError indicates the peer received a corrupt frame.
	ResponseChecksumError uint16 = 0xffff
)

// Packet is a fixed-capacity framed buffer. One instance drives one
// direction of one logical channel: either populated and emitted, or fed
// from the wire through Construct. It is constructed once and reused, with
// Reset or ResetLazy between frames. Not safe for concurrent use.
type Packet struct {
	header   uint16
	checksum uint16
	request  uint16
	response uint16
	length   uint16

	// buf holds the serialized frame image: HeaderSize framing bytes
	// followed by exactly Capacity payload bytes.
	buf []byte

	counter int // construct/emit position in the frame image
	dataLen int // payload bytes written during construct
	status  Status
}

// New creates a Packet holding at most capacity payload bytes. The single
// buffer allocated here is the only allocation the packet ever makes.
func New(capacity int) (*Packet, error) {
	if capacity < 0 || capacity > MaxCapacity {
		return nil, ErrCapacity
	}
	return &Packet{buf: make([]byte, HeaderSize+capacity)}, nil
}

// Capacity returns the fixed payload capacity.
func (p *Packet) Capacity() int {
	return len(p.buf) - HeaderSize
}

// Request returns the request code.
func (p *Packet) Request() uint16 { return p.request }

// SetRequest sets the request code.
func (p *Packet) SetRequest(request uint16) { p.request = request }

// Response returns the response code.
func (p *Packet) Response() uint16 { return p.response }

// SetResponse sets the response code.
func (p *Packet) SetResponse(response uint16) { p.response = response }

// Length returns the count of valid payload bytes.
func (p *Packet) Length() uint16 { return p.length }

// Checksum returns the stored checksum value.
func (p *Packet) Checksum() uint16 { return p.checksum }

// Status returns the outcome of the most recent operation.
func (p *Packet) Status() Status { return p.status }

// Data returns the valid payload bytes. The slice aliases the packet
// buffer and is invalidated by the next reset or Construct sequence.
func (p *Packet) Data() []byte {
	return p.buf[HeaderSize : HeaderSize+int(p.length)]
}

// FrameLen returns the serialized byte length of the frame, framing
// fields included.
func (p *Packet) FrameLen() int {
	return HeaderSize + int(p.length)
}

// AddData appends data to the payload. On overflow no byte is written,
// the payload keeps its pre-call state and ErrOverflow is returned.
func (p *Packet) AddData(data []byte) error {
	if len(data)+int(p.length) > p.Capacity() {
		p.status = StatusOverflow
		return ErrOverflow
	}
	copy(p.buf[HeaderSize+int(p.length):], data)
	p.length += uint16(len(data))
	p.status = StatusOK
	return nil
}

// Pack finalizes the outbound frame: it serializes the field values,
// stores the checksum over everything past the checksum field and writes
// the magic header. Call it after the last AddData and before emission.
func (p *Packet) Pack() {
	p.header = Header
	binary.LittleEndian.PutUint16(p.buf[0:2], p.header)
	binary.LittleEndian.PutUint16(p.buf[4:6], p.request)
	binary.LittleEndian.PutUint16(p.buf[6:8], p.response)
	binary.LittleEndian.PutUint16(p.buf[8:10], p.length)
	p.checksum = CRC16(p.buf[4:p.FrameLen()])
	binary.LittleEndian.PutUint16(p.buf[2:4], p.checksum)
	p.status = StatusOK
}

// Bytes returns the serialized frame, valid after Pack. The slice aliases
// the packet buffer.
func (p *Packet) Bytes() []byte {
	return p.buf[:p.FrameLen()]
}

// GetByte emits the next byte of a finalized frame, for transports that
// transmit one byte at a time. Past the last byte it reports
// StatusGetByteFinished and rewinds the cursor so the frame can be
// emitted again.
func (p *Packet) GetByte() (byte, Status) {
	if p.counter >= p.FrameLen() {
		p.counter = 0
		p.status = StatusGetByteFinished
		return 0, p.status
	}
	b := p.buf[p.counter]
	p.counter++
	p.status = StatusOK
	return b, p.status
}

// Construct consumes one byte of an inbound stream and advances the
// receive state machine.
//
// It reports StatusBuilding while the frame assembles, StatusReceived or
// StatusChecksumError when the frame completes, StatusHeaderNotFound when
// the magic bytes break (the position rewinds to 0, so a desynchronized
// stream recovers as soon as two consecutive magic bytes arrive), and
// StatusInvalidLength or StatusOverflow when the declared length cannot be
// trusted. Terminal statuses stick until the packet is reset.
func (p *Packet) Construct(b byte) Status {
	if p.status.Terminal() {
		// the previous frame was not reset; anything further is past
		// the frame end
		p.status = StatusOverflow
		return p.status
	}
	switch i := p.counter; {
	case i < 2:
		// positions 0-1: magic header, low byte first
		if b != headerByte {
			p.counter = 0
			p.status = StatusHeaderNotFound
			return p.status
		}
		p.buf[i] = b
		if i == 1 {
			p.header = binary.LittleEndian.Uint16(p.buf[0:2])
		}
	case i < HeaderSize:
		// positions 2-9: checksum, request, response, length
		p.buf[i] = b
		switch i {
		case 3:
			p.checksum = binary.LittleEndian.Uint16(p.buf[2:4])
		case 5:
			p.request = binary.LittleEndian.Uint16(p.buf[4:6])
		case 7:
			p.response = binary.LittleEndian.Uint16(p.buf[6:8])
		case 9:
			p.length = binary.LittleEndian.Uint16(p.buf[8:10])
			p.dataLen = 0
			if int(p.length) > p.Capacity() {
				p.status = StatusInvalidLength
				return p.status
			}
			if p.length == 0 {
				return p.validate()
			}
		}
	default:
		// positions 10 .. 10+length-1: payload, re-checked against the
		// declared length even though position 9 already bounded it
		if p.dataLen >= int(p.length) {
			p.status = StatusOverflow
			return p.status
		}
		p.buf[HeaderSize+p.dataLen] = b
		p.dataLen++
		if p.dataLen == int(p.length) {
			return p.validate()
		}
	}
	p.counter++
	p.status = StatusBuilding
	return p.status
}

func (p *Packet) validate() Status {
	if CRC16(p.buf[4:p.FrameLen()]) == p.checksum {
		p.status = StatusReceived
	} else {
		p.status = StatusChecksumError
	}
	return p.status
}

// ResetLazy clears the framing fields and counters only, leaving stale
// payload bytes in place. Safe because bytes beyond the length are never
// considered valid; use Reset when the payload must not linger.
func (p *Packet) ResetLazy() {
	p.reset(true)
}

// Reset clears the packet including the payload buffer.
func (p *Packet) Reset() {
	p.reset(false)
}

func (p *Packet) reset(lazy bool) {
	p.header, p.checksum, p.request, p.response, p.length = 0, 0, 0, 0, 0
	p.counter, p.dataLen = 0, 0
	p.status = StatusOK
	end := HeaderSize
	if !lazy {
		end = len(p.buf)
	}
	for i := 0; i < end; i++ {
		p.buf[i] = 0
	}
}

// PackRequest builds a complete request frame carrying data. The response
// field is left at ResponsePending: it belongs to the answering side.
func (p *Packet) PackRequest(request uint16, data []byte) error {
	return p.packWith(request, ResponsePending, data)
}

// PackData builds a complete frame carrying data as a successful answer
// to request. It surfaces the same overflow error as AddData.
func (p *Packet) PackData(request uint16, data []byte) error {
	return p.packWith(request, ResponseSuccess, data)
}

// PackError builds a complete payload-free frame reporting response as
// the outcome of request.
func (p *Packet) PackError(request, response uint16) {
	p.packWith(request, response, nil)
}

// PackIdent builds the identity exchange answer carrying the serialized
// Descriptor.
func (p *Packet) PackIdent(d *Descriptor) error {
	return p.packWith(RequestIdent, ResponseSuccess, d.Bytes())
}

func (p *Packet) packWith(request, response uint16, data []byte) error {
	p.ResetLazy()
	p.request = request
	p.response = response
	if len(data) > 0 {
		if err := p.AddData(data); err != nil {
			return err
		}
	}
	p.Pack()
	return nil
}
