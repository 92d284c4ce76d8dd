package app

import (
	"github.com/ItsNotGoodName/x-immersive/internal/message"
	"github.com/ItsNotGoodName/x-immersive/internal/relay"
	"github.com/ItsNotGoodName/x-immersive/internal/roster"
	"github.com/ItsNotGoodName/x-immersive/mosaic"
)

// Msg is an input to the controller loop.
type Msg interface {
	msg()
}

type (
	// ParticipantChange is a batch of roster notifications from the host.
	ParticipantChange struct {
		Events []roster.Event
	}
	// Resize carries the latest viewport. Drawing waits for the resize
	// debounce.
	Resize struct {
		Viewport mosaic.Viewport
	}
	// Relay is a message received from another client.
	Relay struct {
		Envelope relay.Envelope
	}
	// Local is a UI change made on this client. It is applied and then posted
	// to the other clients.
	Local struct {
		Message message.Message
	}
	// Redraw draws every quadrant.
	Redraw struct{}
	// Seed replaces the roster with the participants already in the meeting.
	Seed struct {
		Participants []roster.Participant
	}

	snapshot struct {
		reply chan State
	}
)

func (ParticipantChange) msg() {}
func (Resize) msg()            {}
func (Relay) msg()             {}
func (Local) msg()             {}
func (Redraw) msg()            {}
func (Seed) msg()              {}
func (snapshot) msg()          {}
