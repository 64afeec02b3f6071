package mail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
)

// buildMessage renders msg as RFC 5322 text. Messages with attachments are
// sent as multipart/mixed with base64 parts.
func buildMessage(from string, msg Message) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", msg.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")

	if len(msg.Attachments) == 0 {
		buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		buf.WriteString(msg.Body)
		return buf.Bytes(), nil
	}

	w := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", w.Boundary())

	body, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=UTF-8"},
	})
	if err != nil {
		return nil, formatError("body part", err)
	}
	if _, err = body.Write([]byte(msg.Body)); err != nil {
		return nil, formatError("body part", err)
	}

	for _, a := range msg.Attachments {
		contentType := a.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		part, partErr := w.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {contentType},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename})},
		})
		if partErr != nil {
			return nil, formatError("attachment "+a.Filename, partErr)
		}
		if _, partErr = part.Write(wrapBase64(a.Content)); partErr != nil {
			return nil, formatError("attachment "+a.Filename, partErr)
		}
	}

	if err = w.Close(); err != nil {
		return nil, formatError("close", err)
	}
	return buf.Bytes(), nil
}

// wrapBase64 encodes b in 76 character lines.
func wrapBase64(b []byte) []byte {
	encoded := base64.StdEncoding.EncodeToString(b)

	var out bytes.Buffer
	for len(encoded) > 76 {
		out.WriteString(encoded[:76])
		out.WriteString("\r\n")
		encoded = encoded[76:]
	}
	out.WriteString(encoded)
	return out.Bytes()
}
