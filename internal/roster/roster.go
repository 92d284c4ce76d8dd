package roster

import (
	"fmt"
	"slices"
)

// MaxShown is the number of participants bound to a quadrant.
const MaxShown = 3

type Role string

const (
	RoleHost        Role = "host"
	RoleCoHost      Role = "co-host"
	RoleParticipant Role = "participant"
	RoleAttendee    Role = "attendee"
)

type Participant struct {
	ID         string `json:"participantId" yaml:"id"`
	ScreenName string `json:"screenName" yaml:"screen_name"`
	Role       Role   `json:"role" yaml:"role"`
}

type Status string

const (
	StatusJoin  Status = "join"
	StatusLeave Status = "leave"
)

type Event struct {
	Participant
	Status Status `json:"status"`
}

type State int

const (
	StateAbsent State = iota
	StateInRoster
	StateShown
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateInRoster:
		return "in-roster"
	case StateShown:
		return "shown"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type (
	// Effect is work the caller performs after the tracker changed.
	Effect interface {
		isEffect()
	}

	// Draw renders quadrant Index.
	Draw struct {
		Index int
	}

	// Clear removes a participant's video from the host.
	Clear struct {
		ParticipantID string
	}
)

func (Draw) isEffect()  {}
func (Clear) isEffect() {}

// Tracker holds the meeting roster and the participants bound to quadrants.
// It is not safe for concurrent use.
type Tracker struct {
	roster []Participant
	shown  []Participant
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Seed binds the local user to the first quadrant followed by the first
// others in roster order.
func (t *Tracker) Seed(local Participant, others []Participant) {
	t.roster = t.roster[:0]
	t.shown = t.shown[:0]

	if local.ID != "" {
		t.roster = append(t.roster, local)
		t.shown = append(t.shown, local)
	}

	for _, p := range others {
		if p.ID == "" || t.indexRoster(p.ID) != -1 {
			continue
		}
		t.roster = append(t.roster, p)
		if len(t.shown) < MaxShown {
			t.shown = append(t.shown, p)
		}
	}
}

func (t *Tracker) Apply(ev Event) []Effect {
	switch ev.Status {
	case StatusJoin:
		return t.join(ev.Participant)
	case StatusLeave:
		return t.leave(ev.Participant.ID)
	default:
		return nil
	}
}

func (t *Tracker) ApplyChange(evs []Event) []Effect {
	var effects []Effect
	for _, ev := range evs {
		effects = append(effects, t.Apply(ev)...)
	}
	return effects
}

func (t *Tracker) join(p Participant) []Effect {
	if p.ID == "" || t.indexRoster(p.ID) != -1 {
		return nil
	}

	t.roster = append(t.roster, p)
	if len(t.shown) >= MaxShown {
		return nil
	}

	t.shown = append(t.shown, p)
	return []Effect{Draw{Index: len(t.shown)}}
}

// leave looks the participant up in each collection on its own. Remaining
// shown participants keep their slice order and are not redrawn.
func (t *Tracker) leave(id string) []Effect {
	i := t.indexRoster(id)
	if i == -1 {
		return nil
	}
	t.roster = slices.Delete(t.roster, i, i+1)

	j := t.indexShown(id)
	if j == -1 {
		return nil
	}
	t.shown = slices.Delete(t.shown, j, j+1)

	return []Effect{Clear{ParticipantID: id}}
}

func (t *Tracker) State(id string) State {
	if t.indexShown(id) != -1 {
		return StateShown
	}
	if t.indexRoster(id) != -1 {
		return StateInRoster
	}
	return StateAbsent
}

func (t *Tracker) Contains(id string) bool {
	return t.indexRoster(id) != -1
}

func (t *Tracker) Roster() []Participant {
	return slices.Clone(t.roster)
}

func (t *Tracker) Shown() []Participant {
	return slices.Clone(t.shown)
}

func (t *Tracker) indexRoster(id string) int {
	return slices.IndexFunc(t.roster, func(p Participant) bool { return p.ID == id })
}

func (t *Tracker) indexShown(id string) int {
	return slices.IndexFunc(t.shown, func(p Participant) bool { return p.ID == id })
}
