package mail

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessage_PlainText(t *testing.T) {
	raw, err := buildMessage("ops@water.example", Message{
		To:      "thandi@example.com",
		Subject: "Order #1042 is on its way",
		Body:    "Hello",
	})
	require.NoError(t, err)

	parsed, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "thandi@example.com", parsed.Header.Get("To"))
	assert.Equal(t, "text/plain; charset=UTF-8", parsed.Header.Get("Content-Type"))

	subject, err := new(mime.WordDecoder).DecodeHeader(parsed.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "Order #1042 is on its way", subject)

	body, err := io.ReadAll(parsed.Body)
	require.NoError(t, err)
	assert.Equal(t, "Hello", string(body))
}

func TestBuildMessage_WithAttachment(t *testing.T) {
	content := []byte(strings.Repeat("invoice line\n", 20))
	raw, err := buildMessage(buildFromAddress("ops@water.example", "Water Distribution"), Message{
		To:      "thandi@example.com",
		Subject: "Invoice",
		Body:    "Please find your invoice attached.",
		Attachments: []Attachment{
			{Filename: "invoice-1042.txt", ContentType: "text/plain", Content: content},
		},
	})
	require.NoError(t, err)

	parsed, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Contains(t, parsed.Header.Get("From"), "Water Distribution")

	mediaType, params, err := mime.ParseMediaType(parsed.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/mixed", mediaType)

	reader := multipart.NewReader(parsed.Body, params["boundary"])

	bodyPart, err := reader.NextPart()
	require.NoError(t, err)
	body, err := io.ReadAll(bodyPart)
	require.NoError(t, err)
	assert.Equal(t, "Please find your invoice attached.", string(body))

	attachment, err := reader.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "invoice-1042.txt", attachment.FileName())
	assert.Equal(t, "base64", attachment.Header.Get("Content-Transfer-Encoding"))
	decoded, err := io.ReadAll(base64.NewDecoder(base64.StdEncoding, attachment))
	require.NoError(t, err)
	assert.Equal(t, content, decoded)

	_, err = reader.NextPart()
	assert.ErrorIs(t, err, io.EOF)
}

func TestWrapBase64_LineLength(t *testing.T) {
	wrapped := wrapBase64(bytes.Repeat([]byte{0xff}, 300))

	for _, line := range strings.Split(string(wrapped), "\r\n") {
		assert.LessOrEqual(t, len(line), 76)
	}
}
