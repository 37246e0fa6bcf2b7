package match

import (
	"context"
	"sync"
	"time"

	"github.com/reStrike-d-o-o/reStrike-VTA/internal/event"
)

// AthleteState holds the folded per-athlete view of the current match.
type AthleteState struct {
	Points     uint64 `json:"points"`
	LastPoint  string `json:"last_point,omitempty"`
	HitLevel   int    `json:"hit_level,omitempty"`
	InjuryTime string `json:"injury_time,omitempty"`
	Challenges uint64 `json:"challenges"`
}

// Snapshot is a point-in-time view of the tracked match state for monitoring APIs.
type Snapshot struct {
	EventsSeen  uint64    `json:"events_seen"`
	LastEventAt time.Time `json:"last_event_at"`

	Athlete1 AthleteState `json:"athlete1"`
	Athlete2 AthleteState `json:"athlete2"`

	Warnings   string              `json:"warnings,omitempty"`
	RoundWins  string              `json:"round_wins,omitempty"`
	Scores     map[string][]string `json:"scores,omitempty"`
	InjuryTime string              `json:"injury_time,omitempty"`

	Clock       string `json:"clock,omitempty"`
	ClockAction string `json:"clock_action,omitempty"`
	BreakTime   string `json:"break_time,omitempty"`

	RefereeReviews uint64 `json:"referee_reviews"`

	Winner         string `json:"winner,omitempty"`
	Classification string `json:"classification,omitempty"`
	Finished       bool   `json:"finished"`
}

// Tracker folds the event stream into the state of the match currently on the mat.
// It implements event.Sink so it can be fanned out to alongside other sinks.
type Tracker struct {
	mu sync.RWMutex

	eventsSeen  uint64
	lastEventAt time.Time

	athletes [2]AthleteState

	warnings   string
	roundWins  string
	scores     map[string][]string
	injuryTime string

	clock       string
	clockAction string
	breakTime   string

	refereeReviews uint64

	winner         string
	classification string
	finished       bool
}

// NewTracker creates an empty match tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Publish folds a single event into the match state. It never fails.
func (t *Tracker) Publish(_ context.Context, ev event.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.eventsSeen++
	t.lastEventAt = time.Now()

	switch e := ev.(type) {
	case event.Point:
		if a := t.athlete(e.Athlete); a != nil {
			// Point type codes double as point values under current WT rules.
			a.Points += uint64(e.Type)
			a.LastPoint = e.Type.Label()
		}

	case event.HitLevel:
		if a := t.athlete(e.Athlete); a != nil {
			a.HitLevel = e.Level
		}

	case event.Warnings:
		t.warnings = e.Raw

	case event.InjuryTime:
		if a := t.athlete(e.Athlete); a != nil {
			a.InjuryTime = e.Time
		} else {
			t.injuryTime = e.Time
		}

	case event.Challenge:
		if a := t.athlete(e.By); a != nil {
			a.Challenges++
		} else {
			t.refereeReviews++
		}

	case event.BreakTime:
		t.breakTime = e.Time

	case event.WinnerRounds:
		t.roundWins = e.Raw

	case event.MatchWinner:
		t.winner = e.Name
		t.classification = e.Classification
		t.finished = true

	case event.Clock:
		t.clock = e.Time
		t.clockAction = e.Action

	case event.Score:
		if t.scores == nil {
			t.scores = make(map[string][]string)
		}
		args := make([]string, len(e.Args))
		copy(args, e.Args)
		t.scores[e.Stream] = args
	}

	return nil
}

// Snapshot returns a copy of the current match state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := Snapshot{
		EventsSeen:     t.eventsSeen,
		LastEventAt:    t.lastEventAt,
		Athlete1:       t.athletes[0],
		Athlete2:       t.athletes[1],
		Warnings:       t.warnings,
		RoundWins:      t.roundWins,
		InjuryTime:     t.injuryTime,
		Clock:          t.clock,
		ClockAction:    t.clockAction,
		BreakTime:      t.breakTime,
		RefereeReviews: t.refereeReviews,
		Winner:         t.winner,
		Classification: t.classification,
		Finished:       t.finished,
	}

	if len(t.scores) > 0 {
		snap.Scores = make(map[string][]string, len(t.scores))
		for stream, args := range t.scores {
			copied := make([]string, len(args))
			copy(copied, args)
			snap.Scores[stream] = copied
		}
	}

	return snap
}

// athlete maps an event athlete to mutable state, nil when unattributed.
func (t *Tracker) athlete(a event.Athlete) *AthleteState {
	switch a {
	case event.Athlete1:
		return &t.athletes[0]
	case event.Athlete2:
		return &t.athletes[1]
	default:
		return nil
	}
}
