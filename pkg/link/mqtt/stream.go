package mqtt

import (
	"context"
	"io"
	"sync"
)

// Topic suffixes for the two directions of a link. The host reads
// commands and writes messages; a client does the opposite.
const (
	TopicCmd = "cmd"
	TopicMsg = "msg"
)

// Stream bridges a pair of pub/sub topics into an io.ReadWriter so a
// link can run over the broker unchanged.
type Stream struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	recvCh   chan []byte
	leftover []byte

	closeOnce sync.Once
	closedCh  chan struct{}
}

// NewStream creates a Stream over q with explicit topics.
func NewStream(q *Queue, subTopic, pubTopic string) *Stream {
	return &Stream{
		Queue:    q,
		SubTopic: subTopic,
		PubTopic: pubTopic,
		recvCh:   make(chan []byte, 16),
		closedCh: make(chan struct{}),
	}
}

// HostStream creates the host side of a named link: it consumes
// name/cmd and emits name/msg.
func HostStream(q *Queue, name string) *Stream {
	return NewStream(q, name+"/"+TopicCmd, name+"/"+TopicMsg)
}

// ClientStream creates the client side of a named link.
func ClientStream(q *Queue, name string) *Stream {
	return NewStream(q, name+"/"+TopicMsg, name+"/"+TopicCmd)
}

// Read implements io.Reader. Message boundaries are not preserved,
// which is fine: the framing layer reassembles from the byte stream.
func (s *Stream) Read(b []byte) (int, error) {
	for len(s.leftover) == 0 {
		select {
		case payload := <-s.recvCh:
			s.leftover = payload
		case <-s.closedCh:
			return 0, io.EOF
		}
	}
	n := copy(b, s.leftover)
	s.leftover = s.leftover[n:]
	return n, nil
}

// Write implements io.Writer, publishing b as one message.
func (s *Stream) Write(b []byte) (int, error) {
	token := s.Queue.Pub(s.PubTopic, b)
	token.Wait()
	if err := token.Error(); err != nil {
		return 0, err
	}
	return len(b), nil
}

// Close implements io.Closer and unblocks pending reads.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() { close(s.closedCh) })
	return nil
}

// Run subscribes the inbound topic until the context is canceled.
func (s *Stream) Run(ctx context.Context) error {
	sub := s.Queue.Sub(s.SubTopic, func(topic string, payload []byte) {
		select {
		case s.recvCh <- append([]byte(nil), payload...):
		case <-s.closedCh:
		}
	})
	if sub.Token != nil {
		sub.Token.Wait()
		if err := sub.Token.Error(); err != nil {
			sub.Close()
			return err
		}
	}
	defer sub.Close()
	<-ctx.Done()
	s.Close()
	return context.Canceled
}
