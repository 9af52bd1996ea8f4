package link

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/framelink/framelink.go/pkg/frame"
)

// FrameHandler is called when a complete frame is received. The packet is
// reused for the next frame as soon as the handler returns; handlers must
// copy whatever they keep.
type FrameHandler interface {
	HandleFrame(context.Context, *frame.Packet)
}

// HandleFrameFunc is func type of FrameHandler.
type HandleFrameFunc func(context.Context, *frame.Packet)

// HandleFrame implements FrameHandler.
func (f HandleFrameFunc) HandleFrame(ctx context.Context, pkt *frame.Packet) {
	f(ctx, pkt)
}

// StatusNotifier is called when an inbound frame fails. The packet still
// holds whatever framing fields were decoded before the failure and is
// reset as soon as the notifier returns.
type StatusNotifier interface {
	StatusChanged(context.Context, frame.Status, *frame.Packet)
}

// StatusChangedFunc is func type of StatusNotifier.
type StatusChangedFunc func(context.Context, frame.Status, *frame.Packet)

// StatusChanged implements StatusNotifier.
func (f StatusChangedFunc) StatusChanged(ctx context.Context, st frame.Status, pkt *frame.Packet) {
	f(ctx, st, pkt)
}

// Stats counts frames seen by a Link.
type Stats struct {
	Received uint64
	Errors   uint64
}

// Link owns one receive packet and one transmit packet over a byte
// transport. Run pumps inbound bytes; Send serializes outbound frames.
// One Link serves one logical channel.
type Link struct {
	ReadWriter io.ReadWriter
	Handler    FrameHandler
	Notifier   StatusNotifier

	rx, tx   *frame.Packet
	sendLock sync.Mutex

	received uint64
	errors   uint64
}

// New creates a Link with dedicated packets of the given payload capacity.
func New(rw io.ReadWriter, capacity int) (*Link, error) {
	rx, err := frame.New(capacity)
	if err != nil {
		return nil, err
	}
	tx, err := frame.New(capacity)
	if err != nil {
		return nil, err
	}
	return &Link{ReadWriter: rw, rx: rx, tx: tx}, nil
}

// Stats returns frame counters.
func (l *Link) Stats() Stats {
	return Stats{
		Received: atomic.LoadUint64(&l.received),
		Errors:   atomic.LoadUint64(&l.errors),
	}
}

// Send builds one frame on the transmit packet using build and writes the
// finalized bytes to the transport. The packet is lazily reset before
// build runs, so build only has to populate and pack.
func (l *Link) Send(build func(*frame.Packet) error) error {
	l.sendLock.Lock()
	defer l.sendLock.Unlock()
	l.tx.ResetLazy()
	if err := build(l.tx); err != nil {
		return err
	}
	_, err := l.ReadWriter.Write(l.tx.Bytes())
	return err
}

// SendRequest sends a request frame carrying data.
func (l *Link) SendRequest(request uint16, data []byte) error {
	return l.Send(func(p *frame.Packet) error {
		return p.PackRequest(request, data)
	})
}

// SendData sends a frame carrying data as a successful answer to request.
func (l *Link) SendData(request uint16, data []byte) error {
	return l.Send(func(p *frame.Packet) error {
		return p.PackData(request, data)
	})
}

// SendError sends a payload-free frame reporting response for request.
func (l *Link) SendError(request, response uint16) error {
	return l.Send(func(p *frame.Packet) error {
		p.PackError(request, response)
		return nil
	})
}

// SendIdent sends the identity exchange answer carrying d.
func (l *Link) SendIdent(d *frame.Descriptor) error {
	return l.Send(func(p *frame.Packet) error {
		return p.PackIdent(d)
	})
}

// Run reads the transport one byte at a time and feeds the receive state
// machine until the context is canceled or the transport fails.
func (l *Link) Run(ctx context.Context) error {
	byteCh, errCh := make(chan byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go l.readLoop(subCtx, byteCh, errCh)
	for {
		select {
		case b := <-byteCh:
			l.feed(ctx, b)
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *Link) readLoop(ctx context.Context, byteCh chan byte, errCh chan error) {
	buf := make([]byte, 1)
	for {
		select {
		case <-ctx.Done():
			return
		default:
			n, err := l.ReadWriter.Read(buf)
			if err != nil {
				errCh <- err
				return
			}
			if n == 0 {
				continue
			}
			select {
			case byteCh <- buf[0]:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (l *Link) feed(ctx context.Context, b byte) {
	switch st := l.rx.Construct(b); {
	case st == frame.StatusReceived:
		atomic.AddUint64(&l.received, 1)
		if h := l.Handler; h != nil {
			h.HandleFrame(ctx, l.rx)
		}
		l.rx.ResetLazy()
	case st == frame.StatusHeaderNotFound:
		// self-resynchronizing, keep feeding
	case st.Failed():
		atomic.AddUint64(&l.errors, 1)
		if n := l.Notifier; n != nil {
			n.StatusChanged(ctx, st, l.rx)
		}
		l.rx.ResetLazy()
	}
}
