package link

import (
	"context"
	"sync"

	"github.com/framelink/framelink.go/pkg/frame"
)

// Result is the result of a command sent with Do.
type Result struct {
	Err      error
	Response uint16
	Data     []byte
}

// Event is an unsolicited frame pushed by the peer, i.e. one whose
// request code matches no outstanding command.
type Event struct {
	Request  uint16
	Response uint16
	Data     []byte
}

// Client provides request/response operations over a Link. Responses are
// matched to requests by their request code, in send order.
type Client struct {
	link     *Link
	eventCh  chan Event
	cmdsHead *Command
	cmdsTail *Command
	cmdsLock sync.Mutex
}

// Command represents a pending request waiting for its response frame.
type Command struct {
	request  uint16
	resultCh chan Result
	next     *Command
}

// Request returns the request code the command was sent with.
func (c *Command) Request() uint16 {
	return c.request
}

// ResultChan returns the chan to retrieve the result.
func (c *Command) ResultChan() <-chan Result {
	return c.resultCh
}

// NewClient creates a client and installs it as the link frame handler.
func NewClient(l *Link) *Client {
	c := &Client{
		link:    l,
		eventCh: make(chan Event, 1),
	}
	l.Handler = c
	return c
}

// Link gets the wrapped Link.
func (c *Client) Link() *Link {
	return c.link
}

// EventChan retrieves the chan reporting unsolicited frames.
func (c *Client) EventChan() <-chan Event {
	return c.eventCh
}

// DoWith sends a request and expects the result in the provided chan.
func (c *Client) DoWith(request uint16, data []byte, ch chan Result) *Command {
	cmd := &Command{request: request, resultCh: ch}

	c.cmdsLock.Lock()
	defer c.cmdsLock.Unlock()
	if err := c.link.SendRequest(request, data); err != nil {
		cmd.resultCh <- Result{Err: err}
		return cmd
	}
	if c.cmdsHead == nil {
		c.cmdsHead = cmd
	} else {
		c.cmdsTail.next = cmd
	}
	c.cmdsTail = cmd
	return cmd
}

// Do sends a request and returns a Command for the result.
func (c *Client) Do(request uint16, data []byte) *Command {
	return c.DoWith(request, data, make(chan Result, 1))
}

// Ident performs the reserved identity exchange and returns the peer
// capability descriptor.
func (c *Client) Ident(ctx context.Context) (*frame.Descriptor, error) {
	cmd := c.Do(frame.RequestIdent, nil)
	select {
	case res := <-cmd.ResultChan():
		if res.Err != nil {
			return nil, res.Err
		}
		return frame.ParseDescriptor(res.Data)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// HandleFrame implements FrameHandler.
func (c *Client) HandleFrame(ctx context.Context, pkt *frame.Packet) {
	request := pkt.Request()
	response := pkt.Response()
	data := append([]byte(nil), pkt.Data()...)

	c.cmdsLock.Lock()
	head := c.cmdsHead
	curr := c.cmdsHead
	for ; curr != nil; curr = curr.next {
		if curr.request == request {
			if c.cmdsHead = curr.next; c.cmdsHead == nil {
				c.cmdsTail = nil
			}
			curr.next = nil
			break
		}
	}
	c.cmdsLock.Unlock()
	if curr == nil {
		select {
		case c.eventCh <- Event{Request: request, Response: response, Data: data}:
		case <-ctx.Done():
		}
		return
	}
	for ; head != curr; head = head.next {
		head.resultCh <- Result{Err: ErrNoReply}
	}
	switch response {
	case frame.ResponseUnknownRequest, frame.ResponseChecksumError:
		curr.resultCh <- Result{Err: &RemoteError{Request: request, Response: response}}
	default:
		curr.resultCh <- Result{Response: response, Data: data}
	}
}

// Run wraps Link.Run to implement Runnable.
func (c *Client) Run(ctx context.Context) error {
	return c.link.Run(ctx)
}
