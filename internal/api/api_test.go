package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ItsNotGoodName/x-immersive/internal/app"
	"github.com/ItsNotGoodName/x-immersive/internal/message"
	"github.com/ItsNotGoodName/x-immersive/internal/relay"
	"github.com/ItsNotGoodName/x-immersive/internal/roster"
	"github.com/ItsNotGoodName/x-immersive/mosaic"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	mu   sync.Mutex
	msgs []app.Msg
	err  error
}

func (f *fakeController) Send(ctx context.Context, msg app.Msg) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeController) Snapshot(ctx context.Context) (app.State, error) {
	if f.err != nil {
		return app.State{}, f.err
	}
	return app.State{
		ClientID: "local",
		Role:     "host",
		Topics:   []string{"Roadmap"},
		Color:    "#2D8CFF",
		Viewport: mosaic.Viewport{Width: 1280, Height: 720, PixelRatio: 1},
	}, nil
}

func (f *fakeController) sent() []app.Msg {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]app.Msg(nil), f.msgs...)
}

type fakePreview struct {
	mode [3]bool
}

func (p *fakePreview) Frame() *image.NRGBA {
	return image.NewNRGBA(image.Rect(0, 0, 4, 2))
}

func (p *fakePreview) SetMode(immersive, inClient, inMeeting bool) {
	p.mode = [3]bool{immersive, inClient, inMeeting}
}

func setup(t *testing.T) (humatest.TestAPI, *fakeController, *fakePreview, *relay.Hub) {
	_, api := humatest.New(t)
	ctrl := &fakeController{}
	preview := &fakePreview{}
	hub := relay.NewHub()
	Handler{Controller: ctrl, Relay: hub, Preview: preview}.Register(api)
	return api, ctrl, preview, hub
}

func TestGetState(t *testing.T) {
	api, _, _, _ := setup(t)

	resp := api.Get("/api/state")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var state app.State
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &state))
	assert.Equal(t, "local", state.ClientID)
	assert.Equal(t, []string{"Roadmap"}, state.Topics)
	assert.Equal(t, 1280, state.Viewport.Width)
}

func TestGetStateUnavailable(t *testing.T) {
	api, ctrl, _, _ := setup(t)
	ctrl.err = context.DeadlineExceeded

	resp := api.Get("/api/state")
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestPostParticipants(t *testing.T) {
	api, ctrl, _, _ := setup(t)

	resp := api.Post("/api/participants", map[string]any{
		"events": []map[string]any{
			{"participantId": "p1", "screenName": "Ann", "role": "host", "status": "join"},
			{"screenName": "Bob", "status": "join"},
			{"participantId": "p1", "status": "leave"},
		},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	sent := ctrl.sent()
	require.Len(t, sent, 1)
	change := sent[0].(app.ParticipantChange)
	require.Len(t, change.Events, 3)

	assert.Equal(t, roster.Participant{ID: "p1", ScreenName: "Ann", Role: roster.RoleHost}, change.Events[0].Participant)
	_, err := uuid.Parse(change.Events[1].ID)
	assert.NoError(t, err)
	assert.Equal(t, roster.RoleParticipant, change.Events[1].Role)
	assert.Equal(t, roster.StatusLeave, change.Events[2].Status)

	var out struct {
		Events []ParticipantEvent `json:"events"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, change.Events[1].ID, out.Events[1].ParticipantID)
}

func TestPostParticipantsInvalid(t *testing.T) {
	api, ctrl, _, _ := setup(t)

	resp := api.Post("/api/participants", map[string]any{
		"events": []map[string]any{{"status": "leave"}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp = api.Post("/api/participants", map[string]any{
		"events": []map[string]any{{"participantId": "p1", "status": "wave"}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp = api.Post("/api/participants", map[string]any{"events": []map[string]any{}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	assert.Empty(t, ctrl.sent())
}

func TestPostViewport(t *testing.T) {
	api, ctrl, _, _ := setup(t)

	resp := api.Post("/api/viewport", map[string]any{"width": 800, "height": 600, "pixelRatio": 2})
	require.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())
	assert.Equal(t, []app.Msg{app.Resize{Viewport: mosaic.Viewport{Width: 800, Height: 600, PixelRatio: 2}}}, ctrl.sent())

	resp = api.Post("/api/viewport", map[string]any{"width": 0, "height": 600, "pixelRatio": 1})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Len(t, ctrl.sent(), 1)
}

func TestPostSeedAndRedraw(t *testing.T) {
	api, ctrl, _, _ := setup(t)

	resp := api.Post("/api/seed", map[string]any{
		"participants": []map[string]any{{"participantId": "a", "screenName": "A", "role": "participant"}},
	})
	require.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())

	resp = api.Post("/api/redraw")
	require.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())

	assert.Equal(t, []app.Msg{
		app.Seed{Participants: []roster.Participant{{ID: "a", ScreenName: "A", Role: roster.RoleParticipant}}},
		app.Redraw{},
	}, ctrl.sent())
}

func TestPostMode(t *testing.T) {
	api, ctrl, preview, _ := setup(t)

	resp := api.Post("/api/mode", map[string]any{"immersive": false, "inClient": true, "inMeeting": true})
	require.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())
	assert.Equal(t, [3]bool{false, true, true}, preview.mode)
	assert.Equal(t, []app.Msg{app.Redraw{}}, ctrl.sent())
}

func TestPostMessageLocal(t *testing.T) {
	api, ctrl, _, _ := setup(t)

	resp := api.Post("/api/messages", map[string]any{"type": "topic-add", "data": map[string]any{"topic": "Roadmap"}})
	require.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())
	assert.Equal(t, []app.Msg{app.Local{Message: message.TopicAdd{Topic: "Roadmap"}}}, ctrl.sent())
}

func TestPostMessageFromRemote(t *testing.T) {
	api, ctrl, _, hub := setup(t)
	c, unsubscribe := hub.Subscribe("local")
	defer unsubscribe()

	resp := api.Post("/api/messages?from=remote", map[string]any{"type": "color", "data": map[string]any{"color": "#FF0000"}})
	require.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())

	select {
	case env := <-c:
		assert.Equal(t, "remote", env.From)
		assert.Equal(t, message.Color{Color: "#FF0000"}, env.Message)
	case <-time.After(time.Second):
		t.Fatal("message was not relayed")
	}
	assert.Empty(t, ctrl.sent())
}

func TestPostMessageInvalid(t *testing.T) {
	api, ctrl, _, _ := setup(t)

	resp := api.Post("/api/messages", map[string]any{"type": "color", "data": map[string]any{"color": "blue"}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp = api.Post("/api/messages", map[string]any{"type": "volume", "data": map[string]any{}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	assert.Empty(t, ctrl.sent())
}

func TestGetFrame(t *testing.T) {
	api, _, _, _ := setup(t)

	resp := api.Get("/frame.png")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "image/png", resp.Header().Get("Content-Type"))

	img, err := png.Decode(bytes.NewReader(resp.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 2), img.Bounds())
}

func TestRouter(t *testing.T) {
	router := NewRouter(Handler{Controller: &fakeController{}, Relay: relay.NewHub()})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/frame.png", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}
