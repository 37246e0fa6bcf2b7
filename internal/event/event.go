package event

// Kind identifies the semantic family of a decoded event. Values double as
// metric labels and as recorder row types, so they stay lowercase and
// stable.
type Kind string

const (
	KindPoint        Kind = "point"
	KindHitLevel     Kind = "hit_level"
	KindWarnings     Kind = "warnings"
	KindInjury       Kind = "injury"
	KindChallenge    Kind = "challenge"
	KindBreak        Kind = "break"
	KindWinnerRounds Kind = "winner_rounds"
	KindMatchWinner  Kind = "match_winner"
	KindClock        Kind = "clock"
	KindScore        Kind = "score"
)

// Athlete identifies a competitor as encoded in PSS stream codes. Zero
// addresses no specific athlete: referee challenges and the shared injury
// clock use it.
type Athlete uint8

const (
	AthleteNone Athlete = 0
	Athlete1    Athlete = 1
	Athlete2    Athlete = 2
)

// PointType is the scoring action carried by point streams.
type PointType uint8

const (
	PointUnknown       PointType = 0
	PointPunch         PointType = 1
	PointBody          PointType = 2
	PointHead          PointType = 3
	PointTechnicalBody PointType = 4
	PointTechnicalHead PointType = 5
)

// Label returns the broadcast wording for the point type.
func (p PointType) Label() string {
	switch p {
	case PointPunch:
		return "Punch point"
	case PointBody:
		return "Body point"
	case PointHead:
		return "Head point"
	case PointTechnicalBody:
		return "Technical body point"
	case PointTechnicalHead:
		return "Technical head point"
	default:
		return "Unknown point type"
	}
}

// Event is one decoded PSS telemetry fact. Concrete types carry the stream
// code that produced them.
type Event interface {
	Kind() Kind
}

// Point reports a scoring action for one athlete.
type Point struct {
	Stream  string    `json:"stream"`
	Athlete Athlete   `json:"athlete"`
	Type    PointType `json:"type"`
	Code    string    `json:"code"` // raw wire value, kept for unknown types
}

func (Point) Kind() Kind { return KindPoint }

// HitLevel reports the impact strength registered by the body protector.
type HitLevel struct {
	Stream  string  `json:"stream"`
	Athlete Athlete `json:"athlete"`
	Level   int     `json:"level"`
}

func (HitLevel) Kind() Kind { return KindHitLevel }

// Warnings carries a warnings (gam-jeom) update. The raw payload is kept
// whole because consoles concatenate both athletes' counters into one
// datagram.
type Warnings struct {
	Stream string `json:"stream"`
	Raw    string `json:"raw"`
}

func (Warnings) Kind() Kind { return KindWarnings }

// InjuryTime reports the injury clock, addressed to one athlete or to no
// athlete in particular on stream ij0.
type InjuryTime struct {
	Stream  string  `json:"stream"`
	Athlete Athlete `json:"athlete"`
	Time    string  `json:"time"`
}

func (InjuryTime) Kind() Kind { return KindInjury }

// Challenge reports a video-review request. By is AthleteNone when the
// referee raised it.
type Challenge struct {
	Stream string   `json:"stream"`
	By     Athlete  `json:"by"`
	Args   []string `json:"args,omitempty"`
}

func (Challenge) Kind() Kind { return KindChallenge }

// BreakTime reports the between-rounds break clock.
type BreakTime struct {
	Stream string `json:"stream"`
	Time   string `json:"time"`
}

func (BreakTime) Kind() Kind { return KindBreak }

// WinnerRounds carries the per-round winners summary as received.
type WinnerRounds struct {
	Stream string `json:"stream"`
	Raw    string `json:"raw"`
}

func (WinnerRounds) Kind() Kind { return KindWinnerRounds }

// MatchWinner announces the match result.
type MatchWinner struct {
	Stream         string `json:"stream"`
	Name           string `json:"name"`
	Classification string `json:"classification,omitempty"` // e.g. "PTF", empty when the console omits it
}

func (MatchWinner) Kind() Kind { return KindMatchWinner }

// Clock reports the match clock, optionally with a start or stop action.
type Clock struct {
	Stream string `json:"stream"`
	Time   string `json:"time"`
	Action string `json:"action,omitempty"`
}

func (Clock) Kind() Kind { return KindClock }

// Score carries a score-family update that has no dedicated decoder;
// arguments pass through as received.
type Score struct {
	Stream string   `json:"stream"`
	Args   []string `json:"args,omitempty"`
}

func (Score) Kind() Kind { return KindScore }
