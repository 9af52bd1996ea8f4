// Package link drives framed packets over a byte-oriented transport.
package link

// The frame core is deliberately transport-agnostic: it only ever sees one
// byte at a time. This package supplies the collaborators around it for
// hosts and clients that talk over an io.ReadWriter (a serial port, a
// pipe, a message-queue bridge):
//
//   Link      pumps bytes between the transport and a pair of dedicated
//             receive/transmit packets
//   Client    matches response frames to outstanding requests
//   Responder serves inbound request frames on the host side
//
// Retry, timeout and reconnection policy stay with the caller; the link
// only resets its packets and reports what happened.
