// Package referee implements the referee link protocol engine.
//
// The referee system streams game and robot telemetry over a UART and
// accepts custom client UI drawing commands on the same link.
//
// Every frame is
//
//	SOF(0xA5) | data_length(2) | seq(1) | crc8(1) | cmd_id(2) | data | crc16(2)
//
// where crc8 covers the first 4 bytes and crc16 covers everything before it.
// Multi-byte fields are little-endian.
//
// A single goroutine (Engine.Run) owns decoding, UI refresh staging,
// packing and transmitting. It is woken through a single-slot Mailbox by
// the receive driver and by the fast/slow refresh tickers.
package referee
