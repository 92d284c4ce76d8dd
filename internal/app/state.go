package app

import (
	"slices"

	"github.com/ItsNotGoodName/x-immersive/internal/roster"
	"github.com/ItsNotGoodName/x-immersive/mosaic"
)

// State is a copy of the controller state.
type State struct {
	ClientID     string               `json:"clientId"`
	Role         string               `json:"role"`
	Active       bool                 `json:"active"`
	Topic        string               `json:"topic"`
	Topics       []string             `json:"topics"`
	Color        string               `json:"color"`
	CustomColor  string               `json:"customColor"`
	Info         string               `json:"info"`
	Participants []roster.Participant `json:"participants"`
	Roster       []roster.Participant `json:"roster"`
	Shown        []roster.Participant `json:"shown"`
	Viewport     mosaic.Viewport      `json:"viewport"`
}

func (s State) clone() State {
	s.Topics = slices.Clone(s.Topics)
	s.Participants = slices.Clone(s.Participants)
	s.Roster = slices.Clone(s.Roster)
	s.Shown = slices.Clone(s.Shown)
	return s
}

// addTopic appends topic unless it is already listed.
func (s *State) addTopic(topic string) {
	if !slices.Contains(s.Topics, topic) {
		s.Topics = append(s.Topics, topic)
	}
	s.Topic = topic
}
