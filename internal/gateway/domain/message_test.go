package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPayloadType(t *testing.T) {
	assert.Equal(t, MessageTypeText, Payload{Text: "hi"}.Type())
	assert.Equal(t, MessageTypeImage, Payload{Image: &ImageRef{URL: "/up/a.jpg"}}.Type())
	assert.Equal(t, MessageTypeDocument, Payload{Document: &DocumentRef{URL: "/up/a.pdf"}}.Type())
	assert.Equal(t, MessageTypeUnknown, Payload{}.Type())
}

func TestPayloadPreviewText(t *testing.T) {
	assert.Equal(t, "hello", Payload{Text: "hello"}.PreviewText())
	assert.Equal(t, "[image]", Payload{Image: &ImageRef{URL: "x"}}.PreviewText())
	assert.Equal(t, "caption", Payload{Image: &ImageRef{URL: "x", Caption: " caption "}}.PreviewText())
	assert.Equal(t, "[document] report.pdf", Payload{Document: &DocumentRef{URL: "x", FileName: "report.pdf"}}.PreviewText())
	assert.Equal(t, "[document]", Payload{Document: &DocumentRef{URL: "x"}}.PreviewText())
}

func TestIsGroupJID(t *testing.T) {
	assert.True(t, IsGroupJID("1234-5678@g.us"))
	assert.False(t, IsGroupJID("27821234567@s.whatsapp.net"))
	assert.False(t, IsGroupJID(""))
}

func TestLastActivityPrefersStatusTs(t *testing.T) {
	rec := MessageRecord{Ts: 100}
	assert.EqualValues(t, 100, rec.LastActivity())
	rec.StatusTs = 250
	assert.EqualValues(t, 250, rec.LastActivity())
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, MessageStatusSent.Terminal())
	assert.True(t, MessageStatusFailed.Terminal())
	assert.False(t, MessageStatusQueued.Terminal())
	assert.False(t, MessageStatusRetrying.Terminal())
}

func TestNewIDCarriesPrefix(t *testing.T) {
	id := NewID("msg")
	assert.True(t, strings.HasPrefix(id, "msg_"))
	assert.NotEqual(t, id, NewID("msg"))
}
