// Package frame implements the framed packet protocol core.
package frame

// The protocol exchanges fixed-format binary packets over any byte-oriented
// transport (UART, I2C, a message queue). Each frame is a 10-byte header
// (magic, CRC-16 checksum, request code, response code, payload length, all
// little-endian) followed by the payload bytes.
//
// A Packet is a fixed-capacity buffer reused across frames. An outbound
// packet is populated with AddData, finalized with Pack and drained with
// Bytes or GetByte. An inbound packet is driven one byte at a time through
// Construct until it reports a terminal Status.
//
// Every operation is O(1) per byte, allocates nothing after New and never
// blocks, so it is safe to call from a polling or interrupt-style loop.
