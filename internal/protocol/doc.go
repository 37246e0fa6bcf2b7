// Package protocol implements the PSS text protocol: datagram message
// parsing, grammar document parsing, and the concurrently replaceable
// definition table used to recognize incoming stream codes.
package protocol
