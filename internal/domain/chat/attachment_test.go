package chat

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateAttachmentSize(t *testing.T) {
	assert.NoError(t, ValidateAttachmentSize(MaxAttachmentBytes))
	assert.ErrorIs(t, ValidateAttachmentSize(MaxAttachmentBytes+1), ErrAttachmentTooLarge)
	assert.ErrorIs(t, ValidateAttachmentSize(11<<20), ErrAttachmentTooLarge)
}

func TestAttachmentPath(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	p := AttachmentPath("c1", KindForContentType("image/png"), "../my photo.png", []byte("data"), at)

	assert.True(t, strings.HasPrefix(p, "chat/c1/images/1700000000000_"), p)
	assert.True(t, strings.HasSuffix(p, "_my_photo.png"), p)

	other := AttachmentPath("c1", KindForContentType("image/png"), "../my photo.png", []byte("other"), at)
	assert.NotEqual(t, p, other)

	assert.Equal(t, AttachmentFile, KindForContentType("application/pdf"))
	assert.Contains(t, AttachmentPath("c1", AttachmentFile, "", nil, at), "/files/")
}

func TestConversationOfPath(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	id, ok := ConversationOfPath(AttachmentPath("c1", AttachmentImage, "a.png", nil, at))
	assert.True(t, ok)
	assert.Equal(t, "c1", id)

	for _, p := range []string{"", "chat/missing.png", "chat//images/a.png", "other/c1/images/a.png"} {
		_, ok := ConversationOfPath(p)
		assert.False(t, ok, p)
	}
}

func TestUploadResultPayload(t *testing.T) {
	img := UploadResult{URL: "u", Kind: AttachmentImage}
	assert.Equal(t, Payload{ImageURL: "u"}, img.Payload())

	file := UploadResult{URL: "u", Kind: AttachmentFile, FileName: "a.pdf", FileSize: 3}
	assert.Equal(t, Payload{FileURL: "u", FileName: "a.pdf", FileSize: 3}, file.Payload())
}
