package protocol

import (
	"fmt"
	"strings"
)

// Separator is the field delimiter used on the wire and in grammar
// document stream lists.
const Separator = ";"

// Message represents a single decoded PSS datagram.
// Layout: <stream>;<arg>;<arg>;... with a trailing separator allowed.
type Message struct {
	Stream    string   // stream code, e.g. "pt1"
	Arguments []string // non-empty argument fields in wire order
	Raw       string   // payload text with surrounding whitespace trimmed
}

// ParseMessage decodes a PSS datagram payload.
//
// The payload is trimmed, split on ";", and the first field becomes the
// stream code. Empty argument fields produced by doubled or trailing
// separators are dropped. Fields are not re-parsed for embedded stream
// codes: a console that concatenates "wg1;1;wg2;2;" yields one message for
// stream "wg1" with arguments ["1", "wg2", "2"].
func ParseMessage(text string) (*Message, error) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidFormat)
	}

	fields := strings.Split(raw, Separator)
	if fields[0] == "" {
		return nil, fmt.Errorf("%w: missing stream code", ErrInvalidFormat)
	}

	args := make([]string, 0, len(fields)-1)
	for _, f := range fields[1:] {
		if f != "" {
			args = append(args, f)
		}
	}

	return &Message{Stream: fields[0], Arguments: args, Raw: raw}, nil
}

// String returns a human-readable representation of the message.
func (m *Message) String() string {
	return fmt.Sprintf("Message{Stream:%s, Arguments:%q}", m.Stream, m.Arguments)
}
