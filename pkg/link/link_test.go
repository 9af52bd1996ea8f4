package link

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/framelink/framelink.go/pkg/frame"
)

// pipeEnd is one end of an in-memory byte duplex, standing in for a
// serial port.
type pipeEnd struct {
	readCh  chan byte
	writeCh chan byte
}

func (p *pipeEnd) Read(b []byte) (int, error) {
	b[0] = <-p.readCh
	return 1, nil
}

func (p *pipeEnd) Write(b []byte) (int, error) {
	for _, c := range b {
		p.writeCh <- c
	}
	return len(b), nil
}

func newPipe() (*pipeEnd, *pipeEnd) {
	ab := make(chan byte, 1024)
	ba := make(chan byte, 1024)
	return &pipeEnd{readCh: ba, writeCh: ab}, &pipeEnd{readCh: ab, writeCh: ba}
}

// readFrame drains one complete frame from end into a fresh packet.
func readFrame(t *testing.T, end *pipeEnd, capacity int) *frame.Packet {
	rx, err := frame.New(capacity)
	require.NoError(t, err)
	for {
		select {
		case b := <-end.readCh:
			if st := rx.Construct(b); st.Terminal() {
				require.Equal(t, frame.StatusReceived, st)
				return rx
			}
		case <-time.After(500 * time.Millisecond):
			t.Fatal("frame timeout")
		}
	}
}

func mustDescriptor(t *testing.T) *frame.Descriptor {
	d, err := frame.NewDescriptor("test-host", 1, 2, 3, 64)
	require.NoError(t, err)
	return d
}

func TestLinkSendVariants(t *testing.T) {
	a, b := newPipe()
	l, err := New(a, 64)
	require.NoError(t, err)

	require.NoError(t, l.SendRequest(0x0010, []byte{1, 2}))
	pkt := readFrame(t, b, 64)
	require.Equal(t, uint16(0x0010), pkt.Request())
	require.Equal(t, frame.ResponsePending, pkt.Response())
	require.Equal(t, []byte{1, 2}, pkt.Data())

	require.NoError(t, l.SendError(0x0010, frame.ResponseUnknownRequest))
	pkt = readFrame(t, b, 64)
	require.Equal(t, frame.ResponseUnknownRequest, pkt.Response())
	require.Equal(t, uint16(0), pkt.Length())

	require.NoError(t, l.SendIdent(mustDescriptor(t)))
	pkt = readFrame(t, b, 64)
	require.Equal(t, frame.RequestIdent, pkt.Request())
	d, err := frame.ParseDescriptor(pkt.Data())
	require.NoError(t, err)
	require.Equal(t, "test-host", d.Name())
}

func TestLinkReceive(t *testing.T) {
	a, b := newPipe()
	l, err := New(b, 64)
	require.NoError(t, err)

	frameCh := make(chan Event, 1)
	l.Handler = HandleFrameFunc(func(ctx context.Context, pkt *frame.Packet) {
		frameCh <- Event{
			Request:  pkt.Request(),
			Response: pkt.Response(),
			Data:     append([]byte(nil), pkt.Data()...),
		}
	})
	statusCh := make(chan frame.Status, 1)
	l.Notifier = StatusChangedFunc(func(ctx context.Context, st frame.Status, pkt *frame.Packet) {
		statusCh <- st
	})

	ctx, cancel := context.WithCancel(context.TODO())
	defer cancel()
	go l.Run(ctx)

	tx, err := frame.New(64)
	require.NoError(t, err)
	require.NoError(t, tx.PackRequest(7, []byte{0xab}))
	_, err = a.Write(tx.Bytes())
	require.NoError(t, err)

	select {
	case ev := <-frameCh:
		require.Equal(t, uint16(7), ev.Request)
		require.Equal(t, []byte{0xab}, ev.Data)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("frame timeout")
	}

	// corrupt payload: notifier fires, link resynchronizes for the next
	// clean frame
	raw := append([]byte(nil), tx.Bytes()...)
	raw[len(raw)-1] ^= 0xff
	_, err = a.Write(raw)
	require.NoError(t, err)
	select {
	case st := <-statusCh:
		require.Equal(t, frame.StatusChecksumError, st)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("status timeout")
	}

	_, err = a.Write(tx.Bytes())
	require.NoError(t, err)
	select {
	case ev := <-frameCh:
		require.Equal(t, []byte{0xab}, ev.Data)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("frame timeout after resync")
	}

	stats := l.Stats()
	require.Equal(t, uint64(2), stats.Received)
	require.Equal(t, uint64(1), stats.Errors)
}

func TestResponder(t *testing.T) {
	clientEnd, hostEnd := newPipe()
	hostLink, err := New(hostEnd, 64)
	require.NoError(t, err)
	r := NewResponder(hostLink, mustDescriptor(t))
	r.Handle(0x0020, func(ctx context.Context, data []byte) ([]byte, uint16) {
		// echo reversed
		out := make([]byte, len(data))
		for i, b := range data {
			out[len(data)-1-i] = b
		}
		return out, frame.ResponseSuccess
	})

	ctx, cancel := context.WithCancel(context.TODO())
	defer cancel()
	go r.Run(ctx)

	tx, err := frame.New(64)
	require.NoError(t, err)

	// registered request
	require.NoError(t, tx.PackRequest(0x0020, []byte{1, 2, 3}))
	_, err = clientEnd.Write(tx.Bytes())
	require.NoError(t, err)
	reply := readFrame(t, clientEnd, 64)
	require.Equal(t, uint16(0x0020), reply.Request())
	require.Equal(t, frame.ResponseSuccess, reply.Response())
	require.Equal(t, []byte{3, 2, 1}, reply.Data())

	// identity exchange
	require.NoError(t, tx.PackRequest(frame.RequestIdent, nil))
	_, err = clientEnd.Write(tx.Bytes())
	require.NoError(t, err)
	reply = readFrame(t, clientEnd, 64)
	require.Equal(t, frame.RequestIdent, reply.Request())
	d, err := frame.ParseDescriptor(reply.Data())
	require.NoError(t, err)
	require.Equal(t, "test-host", d.Name())
	require.Equal(t, uint16(64), d.MaxPacketSize())

	// unknown request
	require.NoError(t, tx.PackRequest(0x0099, nil))
	_, err = clientEnd.Write(tx.Bytes())
	require.NoError(t, err)
	reply = readFrame(t, clientEnd, 64)
	require.Equal(t, uint16(0x0099), reply.Request())
	require.Equal(t, frame.ResponseUnknownRequest, reply.Response())

	// corrupt frame: answered with the checksum-error code
	require.NoError(t, tx.PackRequest(0x0020, []byte{5}))
	raw := append([]byte(nil), tx.Bytes()...)
	raw[len(raw)-1] ^= 0x01
	_, err = clientEnd.Write(raw)
	require.NoError(t, err)
	reply = readFrame(t, clientEnd, 64)
	require.Equal(t, uint16(0x0020), reply.Request())
	require.Equal(t, frame.ResponseChecksumError, reply.Response())
}
