// Package api exposes the controller over HTTP.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"strconv"

	"github.com/ItsNotGoodName/x-immersive/internal/app"
	"github.com/ItsNotGoodName/x-immersive/internal/message"
	"github.com/ItsNotGoodName/x-immersive/internal/relay"
	"github.com/ItsNotGoodName/x-immersive/internal/roster"
	"github.com/ItsNotGoodName/x-immersive/mosaic"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/google/uuid"
)

// Controller is the part of app.Controller the API drives.
type Controller interface {
	Send(ctx context.Context, msg app.Msg) error
	Snapshot(ctx context.Context) (app.State, error)
}

// Preview renders what the host currently shows.
type Preview interface {
	Frame() *image.NRGBA
	SetMode(immersive, inClient, inMeeting bool)
}

type Handler struct {
	Controller Controller
	Relay      *relay.Hub
	Preview    Preview
}

type StateOutput struct {
	Body app.State
}

type ParticipantEvent struct {
	ParticipantID string        `json:"participantId,omitempty" doc:"generated on join when empty"`
	ScreenName    string        `json:"screenName,omitempty"`
	Role          roster.Role   `json:"role,omitempty" enum:"host,co-host,participant,attendee"`
	Status        roster.Status `json:"status" enum:"join,leave"`
}

type ParticipantsInput struct {
	Body struct {
		Events []ParticipantEvent `json:"events" minItems:"1"`
	}
}

type ParticipantsOutput struct {
	Body struct {
		Events []ParticipantEvent `json:"events"`
	}
}

type SeedInput struct {
	Body struct {
		Participants []roster.Participant `json:"participants"`
	}
}

type ViewportInput struct {
	Body mosaic.Viewport
}

type ModeInput struct {
	Body struct {
		Immersive bool `json:"immersive"`
		InClient  bool `json:"inClient"`
		InMeeting bool `json:"inMeeting"`
	}
}

type MessageInput struct {
	From string `query:"from" doc:"post as another client instead of this one"`
	Body struct {
		Type message.Type  `json:"type" enum:"color,custom-color,info,topic-add,roster"`
		Data map[string]any `json:"data"`
	}
}

type MessageStreamInput struct {
	ClientID string `query:"clientId" doc:"client to read as, messages it posted are skipped"`
}

type MessageEvent struct {
	ID   string          `json:"id"`
	From string          `json:"from"`
	Type message.Type    `json:"type"`
	Data message.Message `json:"data"`
}

type FrameOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

func (h Handler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-state",
		Method:      http.MethodGet,
		Path:        "/api/state",
		Summary:     "Get controller state",
	}, h.GetState)

	huma.Register(api, huma.Operation{
		OperationID: "post-participants",
		Method:      http.MethodPost,
		Path:        "/api/participants",
		Summary:     "Apply a participant change",
	}, h.PostParticipants)

	huma.Register(api, huma.Operation{
		OperationID:   "post-seed",
		Method:        http.MethodPost,
		Path:          "/api/seed",
		Summary:       "Seed the roster",
		DefaultStatus: http.StatusNoContent,
	}, h.PostSeed)

	huma.Register(api, huma.Operation{
		OperationID:   "post-viewport",
		Method:        http.MethodPost,
		Path:          "/api/viewport",
		Summary:       "Resize the viewport",
		DefaultStatus: http.StatusNoContent,
	}, h.PostViewport)

	huma.Register(api, huma.Operation{
		OperationID:   "post-redraw",
		Method:        http.MethodPost,
		Path:          "/api/redraw",
		Summary:       "Draw every quadrant",
		DefaultStatus: http.StatusNoContent,
	}, h.PostRedraw)

	huma.Register(api, huma.Operation{
		OperationID:   "post-mode",
		Method:        http.MethodPost,
		Path:          "/api/mode",
		Summary:       "Set the host rendering mode",
		DefaultStatus: http.StatusNoContent,
	}, h.PostMode)

	huma.Register(api, huma.Operation{
		OperationID:   "post-message",
		Method:        http.MethodPost,
		Path:          "/api/messages",
		Summary:       "Post a message",
		DefaultStatus: http.StatusNoContent,
	}, h.PostMessage)

	sse.Register(api, huma.Operation{
		OperationID: "stream-messages",
		Method:      http.MethodGet,
		Path:        "/api/messages/stream",
		Summary:     "Stream relayed messages",
	}, map[string]any{
		"message": MessageEvent{},
	}, h.StreamMessages)

	huma.Register(api, huma.Operation{
		OperationID: "get-frame",
		Method:      http.MethodGet,
		Path:        "/frame.png",
		Summary:     "Preview the composited frame",
	}, h.GetFrame)
}

func (h Handler) GetState(ctx context.Context, input *struct{}) (*StateOutput, error) {
	state, err := h.Controller.Snapshot(ctx)
	if err != nil {
		return nil, unavailable(err)
	}
	return &StateOutput{Body: state}, nil
}

func (h Handler) PostParticipants(ctx context.Context, input *ParticipantsInput) (*ParticipantsOutput, error) {
	var change app.ParticipantChange
	for i, ev := range input.Body.Events {
		if ev.ParticipantID == "" {
			if ev.Status != roster.StatusJoin {
				return nil, huma.Error422UnprocessableEntity("missing participant id", &huma.ErrorDetail{
					Location: "body.events[" + strconv.Itoa(i) + "].participantId",
					Message:  "required when leaving",
				})
			}
			input.Body.Events[i].ParticipantID = uuid.NewString()
			ev = input.Body.Events[i]
		}
		if ev.Role == "" {
			ev.Role = roster.RoleParticipant
			input.Body.Events[i].Role = ev.Role
		}

		change.Events = append(change.Events, roster.Event{
			Participant: roster.Participant{
				ID:         ev.ParticipantID,
				ScreenName: ev.ScreenName,
				Role:       ev.Role,
			},
			Status: ev.Status,
		})
	}

	if err := h.Controller.Send(ctx, change); err != nil {
		return nil, unavailable(err)
	}

	out := &ParticipantsOutput{}
	out.Body.Events = input.Body.Events
	return out, nil
}

func (h Handler) PostSeed(ctx context.Context, input *SeedInput) (*struct{}, error) {
	if err := h.Controller.Send(ctx, app.Seed{Participants: input.Body.Participants}); err != nil {
		return nil, unavailable(err)
	}
	return nil, nil
}

func (h Handler) PostViewport(ctx context.Context, input *ViewportInput) (*struct{}, error) {
	if err := input.Body.Validate(); err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	if err := h.Controller.Send(ctx, app.Resize{Viewport: input.Body}); err != nil {
		return nil, unavailable(err)
	}
	return nil, nil
}

func (h Handler) PostRedraw(ctx context.Context, input *struct{}) (*struct{}, error) {
	if err := h.Controller.Send(ctx, app.Redraw{}); err != nil {
		return nil, unavailable(err)
	}
	return nil, nil
}

func (h Handler) PostMode(ctx context.Context, input *ModeInput) (*struct{}, error) {
	if h.Preview == nil {
		return nil, huma.Error501NotImplemented("host mode is not configurable")
	}
	h.Preview.SetMode(input.Body.Immersive, input.Body.InClient, input.Body.InMeeting)
	if err := h.Controller.Send(ctx, app.Redraw{}); err != nil {
		return nil, unavailable(err)
	}
	return nil, nil
}

func (h Handler) PostMessage(ctx context.Context, input *MessageInput) (*struct{}, error) {
	data, err := json.Marshal(input.Body.Data)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity("invalid data", err)
	}

	msg, err := message.DecodeData(input.Body.Type, data)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}

	if input.From != "" {
		err = h.Relay.Post(ctx, relay.Envelope{From: input.From, Message: msg})
	} else {
		err = h.Controller.Send(ctx, app.Local{Message: msg})
	}
	if err != nil {
		return nil, unavailable(err)
	}
	return nil, nil
}

func (h Handler) StreamMessages(ctx context.Context, input *MessageStreamInput, send sse.Sender) {
	clientID := input.ClientID
	if clientID == "" {
		clientID = uuid.NewString()
	}

	c, unsubscribe := h.Relay.Subscribe(clientID)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case env := <-c:
			if err := send.Data(MessageEvent{
				ID:   env.ID,
				From: env.From,
				Type: env.Message.Type(),
				Data: env.Message,
			}); err != nil {
				return
			}
		}
	}
}

func (h Handler) GetFrame(ctx context.Context, input *struct{}) (*FrameOutput, error) {
	if h.Preview == nil {
		return nil, huma.Error501NotImplemented("host has no preview")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, h.Preview.Frame()); err != nil {
		return nil, huma.Error500InternalServerError("failed to encode frame", err)
	}

	return &FrameOutput{
		ContentType: "image/png",
		Body:        buf.Bytes(),
	}, nil
}

func unavailable(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return huma.Error503ServiceUnavailable("controller unavailable", err)
	}
	return huma.Error500InternalServerError("controller failed", err)
}
