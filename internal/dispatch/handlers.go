package dispatch

import (
	"strconv"
	"strings"

	"github.com/reStrike-d-o-o/reStrike-VTA/internal/event"
	"github.com/reStrike-d-o-o/reStrike-VTA/internal/protocol"
)

// builder decodes one message into an event. ok is false when the message
// lacks a field its family requires; such messages are dropped without
// noise, matching console behavior during warm-up.
type builder func(msg *protocol.Message) (event.Event, bool)

// routes maps exact stream codes to their decoder. Score streams are not
// listed: consoles emit many s-prefixed variants, so route matches them by
// prefix after the exact codes.
var routes = map[string]builder{
	"pt1": buildPoint, "pt2": buildPoint,
	"hl1": buildHitLevel, "hl2": buildHitLevel,
	"wg1": buildWarnings, "wg2": buildWarnings,
	"ij0": buildInjury, "ij1": buildInjury, "ij2": buildInjury,
	"ch0": buildChallenge, "ch1": buildChallenge, "ch2": buildChallenge,
	"brk": buildBreak,
	"wrd": buildWinnerRounds,
	"wmh": buildMatchWinner,
	"clk": buildClock,
}

// route resolves the decoder for a stream code, or nil when the stream has
// no semantic handling.
func route(stream string) builder {
	if b, ok := routes[stream]; ok {
		return b
	}
	if strings.HasPrefix(stream, "s") {
		return buildScore
	}
	return nil
}

func buildPoint(msg *protocol.Message) (event.Event, bool) {
	code, ok := firstArg(msg)
	if !ok {
		return nil, false
	}
	return event.Point{
		Stream:  msg.Stream,
		Athlete: streamAthlete(msg.Stream),
		Type:    pointType(code),
		Code:    code,
	}, true
}

func buildHitLevel(msg *protocol.Message) (event.Event, bool) {
	raw, ok := firstArg(msg)
	if !ok {
		return nil, false
	}
	// Consoles send the impact strength as an unsigned byte. Anything else
	// is noise and is dropped silently.
	level, err := strconv.ParseUint(raw, 10, 8)
	if err != nil {
		return nil, false
	}
	return event.HitLevel{
		Stream:  msg.Stream,
		Athlete: streamAthlete(msg.Stream),
		Level:   int(level),
	}, true
}

func buildWarnings(msg *protocol.Message) (event.Event, bool) {
	return event.Warnings{Stream: msg.Stream, Raw: msg.Raw}, true
}

func buildInjury(msg *protocol.Message) (event.Event, bool) {
	t, ok := firstArg(msg)
	if !ok {
		return nil, false
	}
	return event.InjuryTime{
		Stream:  msg.Stream,
		Athlete: streamAthlete(msg.Stream),
		Time:    t,
	}, true
}

func buildChallenge(msg *protocol.Message) (event.Event, bool) {
	return event.Challenge{
		Stream: msg.Stream,
		By:     streamAthlete(msg.Stream),
		Args:   msg.Arguments,
	}, true
}

func buildBreak(msg *protocol.Message) (event.Event, bool) {
	t, ok := firstArg(msg)
	if !ok {
		return nil, false
	}
	return event.BreakTime{Stream: msg.Stream, Time: t}, true
}

func buildWinnerRounds(msg *protocol.Message) (event.Event, bool) {
	return event.WinnerRounds{Stream: msg.Stream, Raw: msg.Raw}, true
}

func buildMatchWinner(msg *protocol.Message) (event.Event, bool) {
	name, ok := firstArg(msg)
	if !ok {
		return nil, false
	}
	return event.MatchWinner{
		Stream:         msg.Stream,
		Name:           name,
		Classification: argOr(msg, 1, ""),
	}, true
}

func buildClock(msg *protocol.Message) (event.Event, bool) {
	t, ok := firstArg(msg)
	if !ok {
		return nil, false
	}
	return event.Clock{
		Stream: msg.Stream,
		Time:   t,
		Action: argOr(msg, 1, ""),
	}, true
}

func buildScore(msg *protocol.Message) (event.Event, bool) {
	return event.Score{Stream: msg.Stream, Args: msg.Arguments}, true
}

// streamAthlete maps a stream code's trailing digit to an athlete. Codes
// ending in 0 (referee challenges, shared injury clock) address nobody.
func streamAthlete(stream string) event.Athlete {
	switch stream[len(stream)-1] {
	case '1':
		return event.Athlete1
	case '2':
		return event.Athlete2
	default:
		return event.AthleteNone
	}
}

// pointType decodes the wire value of a point stream's first argument.
func pointType(code string) event.PointType {
	switch code {
	case "1":
		return event.PointPunch
	case "2":
		return event.PointBody
	case "3":
		return event.PointHead
	case "4":
		return event.PointTechnicalBody
	case "5":
		return event.PointTechnicalHead
	default:
		return event.PointUnknown
	}
}

// firstArg returns the message's first argument.
func firstArg(msg *protocol.Message) (string, bool) {
	if len(msg.Arguments) == 0 {
		return "", false
	}
	return msg.Arguments[0], true
}

// argOr returns the argument at index i, or def when absent.
func argOr(msg *protocol.Message, i int, def string) string {
	if i >= len(msg.Arguments) {
		return def
	}
	return msg.Arguments[i]
}
