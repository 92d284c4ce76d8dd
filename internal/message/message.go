// Package message is the UI state carried between clients of one meeting.
package message

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ItsNotGoodName/x-immersive/internal/raster"
	"github.com/ItsNotGoodName/x-immersive/internal/roster"
)

var (
	ErrUnknownType    = errors.New("unknown message type")
	ErrInvalidPayload = errors.New("invalid message payload")
)

type Type string

const (
	TypeColor       Type = "color"
	TypeCustomColor Type = "custom-color"
	TypeInfo        Type = "info"
	TypeTopicAdd    Type = "topic-add"
	TypeRoster      Type = "roster"
)

// Message is one of Color, CustomColor, Info, TopicAdd or Roster.
type Message interface {
	Type() Type
	validate() error
}

type (
	// Color selects the background color.
	Color struct {
		Color string `json:"color"`
	}
	// CustomColor selects a color picked outside the preset list.
	CustomColor struct {
		Color string `json:"color"`
	}
	Info struct {
		Text string `json:"text"`
	}
	TopicAdd struct {
		Topic string `json:"topic"`
	}
	// Roster is a snapshot of every participant in the meeting.
	Roster struct {
		Participants []roster.Participant `json:"participants"`
	}
)

func (Color) Type() Type       { return TypeColor }
func (CustomColor) Type() Type { return TypeCustomColor }
func (Info) Type() Type        { return TypeInfo }
func (TopicAdd) Type() Type    { return TypeTopicAdd }
func (Roster) Type() Type      { return TypeRoster }

func (m Color) validate() error {
	_, err := raster.ParseHex(m.Color)
	return err
}

func (m CustomColor) validate() error {
	_, err := raster.ParseHex(m.Color)
	return err
}

func (Info) validate() error { return nil }

func (m TopicAdd) validate() error {
	if strings.TrimSpace(m.Topic) == "" {
		return errors.New("empty topic")
	}
	return nil
}

func (m Roster) validate() error {
	for i, p := range m.Participants {
		if p.ID == "" {
			return fmt.Errorf("participant %d: missing id", i)
		}
	}
	return nil
}

type envelope struct {
	Type Type            `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Encode writes m as {"type":...,"data":{...}}.
func Encode(m Message) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil message", ErrInvalidPayload)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidPayload, m.Type(), err)
	}

	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}

	return json.Marshal(envelope{Type: m.Type(), Data: data})
}

func Decode(b []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	return DecodeData(env.Type, env.Data)
}

// DecodeData decodes the data of an already split envelope.
func DecodeData(t Type, data []byte) (Message, error) {
	switch t {
	case TypeColor:
		m, err := decodeAs[Color](data)
		return check(m, err)
	case TypeCustomColor:
		m, err := decodeAs[CustomColor](data)
		return check(m, err)
	case TypeInfo:
		m, err := decodeAs[Info](data)
		return check(m, err)
	case TypeTopicAdd:
		m, err := decodeAs[TopicAdd](data)
		return check(m, err)
	case TypeRoster:
		m, err := decodeAs[Roster](data)
		return check(m, err)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
}

func decodeAs[T Message](data []byte) (T, error) {
	var m T
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return m, errors.New("missing data")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return m, err
	}
	return m, nil
}

func check[T Message](m T, err error) (Message, error) {
	if err == nil {
		err = m.validate()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidPayload, m.Type(), err)
	}
	return m, nil
}
