package ws

import (
	"encoding/json"
	"testing"

	"chat-relay/domain/event"
	"chat-relay/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestEncodeEvent_Wraps_The_Kind_And_Payload(t *testing.T) {
	req := require.New(t)

	frame, err := encodeEvent(event.OnlineUsers{UserIDs: []string{"alice", "bob"}})
	req.NoError(err)

	var env envelope
	req.NoError(json.Unmarshal(frame, &env))
	req.Equal("online-users", env.Type)

	var roster event.OnlineUsers
	req.NoError(json.Unmarshal(env.Payload, &roster))
	req.Equal([]string{"alice", "bob"}, roster.UserIDs)
}

func TestEncodeEvent_Signal_Uses_Its_Dynamic_Kind(t *testing.T) {
	req := require.New(t)

	frame, err := encodeEvent(event.Signal{
		SignalKind: event.KindWebRTCOffer,
		SenderID:   "alice",
		Payload:    json.RawMessage(`{"sdp":"v=0"}`),
	})
	req.NoError(err)

	var env envelope
	req.NoError(json.Unmarshal(frame, &env))
	req.Equal("webrtc-offer", env.Type)
	req.NotContains(string(env.Payload), "webrtc-offer")
}

func TestDecode_SendMessagePayload(t *testing.T) {
	conversationID := uuid.NewString()

	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{
			name:    "valid text message",
			raw:     `{"conversation_id":"` + conversationID + `","text":"hello"}`,
			wantErr: false,
		},
		{
			name:    "valid media message without text",
			raw:     `{"conversation_id":"` + conversationID + `","media":[{"url":"https://cdn.example/a.jpg","kind":"image"}]}`,
			wantErr: false,
		},
		{
			name:    "missing conversation id",
			raw:     `{"text":"hello"}`,
			wantErr: true,
		},
		{
			name:    "malformed conversation id",
			raw:     `{"conversation_id":"not-a-uuid","text":"hello"}`,
			wantErr: true,
		},
		{
			name:    "media entry without url",
			raw:     `{"conversation_id":"` + conversationID + `","media":[{"kind":"image"}]}`,
			wantErr: true,
		},
		{
			name:    "unknown media kind",
			raw:     `{"conversation_id":"` + conversationID + `","media":[{"url":"https://cdn.example/a","kind":"hologram"}]}`,
			wantErr: true,
		},
		{
			name:    "malformed reply reference",
			raw:     `{"conversation_id":"` + conversationID + `","text":"hi","reply_to":"garbage"}`,
			wantErr: true,
		},
		{
			name:    "not json at all",
			raw:     `"hello"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			var payload sendMessagePayload
			err := decode(json.RawMessage(tt.raw), &payload)
			if tt.wantErr {
				req.ErrorIs(err, errors.ErrInvalidPayload)
			} else {
				req.NoError(err)
			}
		})
	}
}

func TestDecode_DeleteMessagePayload_Scope(t *testing.T) {
	req := require.New(t)
	messageID := uuid.NewString()

	var payload deleteMessagePayload
	req.NoError(decode(json.RawMessage(`{"message_id":"`+messageID+`","scope":"everyone"}`), &payload))
	req.Equal("everyone", payload.Scope)

	payload = deleteMessagePayload{}
	err := decode(json.RawMessage(`{"message_id":"`+messageID+`","scope":"all"}`), &payload)
	req.ErrorIs(err, errors.ErrInvalidPayload)
}

func TestDecode_CallRecordEndPayload_Reason(t *testing.T) {
	req := require.New(t)
	callID := uuid.NewString()

	var payload callRecordEndPayload
	req.NoError(decode(json.RawMessage(`{"call_id":"`+callID+`","reason":"completed"}`), &payload))

	payload = callRecordEndPayload{}
	err := decode(json.RawMessage(`{"call_id":"`+callID+`","reason":"vanished"}`), &payload)
	req.ErrorIs(err, errors.ErrInvalidPayload)
}

func TestParseID(t *testing.T) {
	req := require.New(t)

	id := uuid.New()
	parsed, err := parseID(id.String())
	req.NoError(err)
	req.Equal(id, parsed)

	_, err = parseID("garbage")
	req.ErrorIs(err, errors.ErrInvalidReference)
}

func TestParseOptionalID(t *testing.T) {
	req := require.New(t)

	parsed, err := parseOptionalID("")
	req.NoError(err)
	req.Nil(parsed)

	id := uuid.New()
	parsed, err = parseOptionalID(id.String())
	req.NoError(err)
	req.Equal(id, *parsed)

	_, err = parseOptionalID("garbage")
	req.ErrorIs(err, errors.ErrInvalidReference)
}

func TestSendMessagePayload_Media_Defaults_To_Image(t *testing.T) {
	req := require.New(t)

	payload := sendMessagePayload{
		Media: []mediaDescriptor{{URL: "https://cdn.example/a"}},
	}
	media := payload.media()
	req.Len(media, 1)
	req.Equal("image", string(media[0].Kind))
}
