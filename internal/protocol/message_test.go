package protocol

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name        string
		payload     string
		wantStream  string
		wantArgs    []string
		wantRaw     string
		expectError bool
	}{
		{
			name:       "athlete 1 head point",
			payload:    "pt1;3;",
			wantStream: "pt1",
			wantArgs:   []string{"3"},
			wantRaw:    "pt1;3;",
		},
		{
			name:       "athlete 1 hit level",
			payload:    "hl1;75;",
			wantStream: "hl1",
			wantArgs:   []string{"75"},
			wantRaw:    "hl1;75;",
		},
		{
			name:       "concatenated warning streams stay one message",
			payload:    "wg1;1;wg2;2;",
			wantStream: "wg1",
			wantArgs:   []string{"1", "wg2", "2"},
			wantRaw:    "wg1;1;wg2;2;",
		},
		{
			name:       "injury time with action",
			payload:    "ij1;1:23;show;",
			wantStream: "ij1",
			wantArgs:   []string{"1:23", "show"},
			wantRaw:    "ij1;1:23;show;",
		},
		{
			name:       "stream code only",
			payload:    "brk",
			wantStream: "brk",
			wantArgs:   []string{},
			wantRaw:    "brk",
		},
		{
			name:       "surrounding whitespace trimmed",
			payload:    "  clk;1:30;start;\r\n",
			wantStream: "clk",
			wantArgs:   []string{"1:30", "start"},
			wantRaw:    "clk;1:30;start;",
		},
		{
			name:       "doubled separators dropped",
			payload:    "ch0;;accepted;;",
			wantStream: "ch0",
			wantArgs:   []string{"accepted"},
			wantRaw:    "ch0;;accepted;;",
		},
		{
			name:        "empty payload",
			payload:     "",
			expectError: true,
		},
		{
			name:        "whitespace only payload",
			payload:     " \t\n",
			expectError: true,
		},
		{
			name:        "missing stream code",
			payload:     ";1;",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ParseMessage(tt.payload)

			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error, got message %v", msg)
				}
				if !errors.Is(err, ErrInvalidFormat) {
					t.Errorf("expected ErrInvalidFormat, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if msg.Stream != tt.wantStream {
				t.Errorf("stream: expected %q, got %q", tt.wantStream, msg.Stream)
			}
			if !reflect.DeepEqual(msg.Arguments, tt.wantArgs) {
				t.Errorf("arguments: expected %q, got %q", tt.wantArgs, msg.Arguments)
			}
			if msg.Raw != tt.wantRaw {
				t.Errorf("raw: expected %q, got %q", tt.wantRaw, msg.Raw)
			}
		})
	}
}

func TestParseMessageRoundTrip(t *testing.T) {
	// Without empty fields, stream plus arguments rejoined with the
	// separator reproduces the trimmed payload.
	payloads := []string{
		"pt2;1;",
		"wmh;HUSSAIN A.;PTF;",
		"wrd;1;2;1;",
	}

	for _, payload := range payloads {
		msg, err := ParseMessage(payload)
		if err != nil {
			t.Fatalf("ParseMessage(%q): %v", payload, err)
		}
		joined := msg.Stream + Separator + strings.Join(msg.Arguments, Separator) + Separator
		if joined != msg.Raw {
			t.Errorf("rejoined %q does not match raw %q", joined, msg.Raw)
		}
	}
}

func TestParseMessageDoesNotMutateArguments(t *testing.T) {
	msg, err := ParseMessage("wmh;HUSSAIN A.;PTF;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Argument text is carried through untouched, including inner spaces.
	if msg.Arguments[0] != "HUSSAIN A." {
		t.Errorf("expected argument %q, got %q", "HUSSAIN A.", msg.Arguments[0])
	}
}
