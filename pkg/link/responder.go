package link

import (
	"context"
	"sync"

	"github.com/framelink/framelink.go/pkg/frame"
)

// RequestHandlerFunc serves one request code. It returns the response
// payload and the response code to reply with (frame.ResponseSuccess for
// a plain successful answer).
type RequestHandlerFunc func(ctx context.Context, data []byte) ([]byte, uint16)

// Responder serves inbound request frames on the host side of a link.
// The reserved identity request is answered with the local descriptor;
// unregistered request codes are answered with ResponseUnknownRequest and
// corrupt frames with ResponseChecksumError.
type Responder struct {
	link     *Link
	ident    *frame.Descriptor
	handlers map[uint16]RequestHandlerFunc
	lock     sync.RWMutex
}

// NewResponder creates a responder and installs it as the link frame
// handler and status notifier.
func NewResponder(l *Link, ident *frame.Descriptor) *Responder {
	r := &Responder{
		link:     l,
		ident:    ident,
		handlers: make(map[uint16]RequestHandlerFunc),
	}
	l.Handler = r
	l.Notifier = r
	return r
}

// Link gets the wrapped Link.
func (r *Responder) Link() *Link {
	return r.link
}

// Ident returns the local capability descriptor.
func (r *Responder) Ident() *frame.Descriptor {
	return r.ident
}

// Handle registers fn to serve a request code.
func (r *Responder) Handle(request uint16, fn RequestHandlerFunc) {
	r.lock.Lock()
	r.handlers[request] = fn
	r.lock.Unlock()
}

// HandleFrame implements FrameHandler.
func (r *Responder) HandleFrame(ctx context.Context, pkt *frame.Packet) {
	request := pkt.Request()
	if request == frame.RequestIdent {
		r.link.SendIdent(r.ident)
		return
	}

	r.lock.RLock()
	fn := r.handlers[request]
	r.lock.RUnlock()
	if fn == nil {
		r.link.SendError(request, frame.ResponseUnknownRequest)
		return
	}

	data := append([]byte(nil), pkt.Data()...)
	out, response := fn(ctx, data)
	if len(out) == 0 {
		r.link.SendError(request, response)
		return
	}
	r.link.Send(func(p *frame.Packet) error {
		p.SetRequest(request)
		p.SetResponse(response)
		if err := p.AddData(out); err != nil {
			return err
		}
		p.Pack()
		return nil
	})
}

// StatusChanged implements StatusNotifier: a frame that failed its
// checksum is answered so the peer can resend.
func (r *Responder) StatusChanged(ctx context.Context, st frame.Status, rx *frame.Packet) {
	if st == frame.StatusChecksumError {
		r.link.SendError(rx.Request(), frame.ResponseChecksumError)
	}
}

// Run wraps Link.Run to implement Runnable.
func (r *Responder) Run(ctx context.Context) error {
	return r.link.Run(ctx)
}
