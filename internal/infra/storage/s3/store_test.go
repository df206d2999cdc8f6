package s3

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAttachmentStore_Validates(t *testing.T) {
	_, err := NewAttachmentStore(Options{Bucket: "b"}, nil)
	assert.Error(t, err)
	_, err = NewAttachmentStore(Options{Endpoint: "http://localhost:9000"}, nil)
	assert.Error(t, err)
}

func TestAttachmentStore_ObjectURL(t *testing.T) {
	s, err := NewAttachmentStore(Options{
		Endpoint:       "http://minio:9000",
		Bucket:         "chat-files",
		PublicEndpoint: "https://cdn.campus.edu/",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.campus.edu/chat-files/chat/c1/images/a.png", s.objectURL("/chat/c1/images/a.png"))

	fallback, err := NewAttachmentStore(Options{Endpoint: "http://minio:9000", Bucket: "chat-files"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000/chat-files/k", fallback.objectURL("k"))
}

func TestAttachmentStore_PutRejectsEmptyKey(t *testing.T) {
	s, err := NewAttachmentStore(Options{Endpoint: "http://minio:9000", Bucket: "chat-files"}, nil)
	require.NoError(t, err)
	_, err = s.Put(context.Background(), " / ", strings.NewReader("x"), 1, "text/plain")
	assert.Error(t, err)
	_, err = s.Put(context.Background(), "k", nil, 0, "")
	assert.Error(t, err)
}

func TestParseEndpointAndPolicy(t *testing.T) {
	assert.Equal(t, "minio:9000", parseEndpoint("http://minio:9000"))
	assert.Equal(t, "minio:9000", parseEndpoint("minio:9000"))
	assert.Contains(t, publicReadPolicy("chat-files"), "arn:aws:s3:::chat-files/*")
}
