package mail

import (
	"bytes"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	netmail "net/mail"
	"net/textproto"
	"strings"
)

// Address formats a display name and address for a header, encoding
// non-ASCII names.
func Address(name, addr string) string {
	return (&netmail.Address{Name: name, Address: addr}).String()
}

// Bytes renders msg as a multipart/alternative RFC 5322 message.
func (m Message) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	headers := []struct{ key, value string }{
		{"From", m.From},
		{"To", m.To},
		{"Reply-To", m.ReplyTo},
		{"Subject", mime.QEncoding.Encode("utf-8", m.Subject)},
		{"MIME-Version", "1.0"},
		{"Content-Type", "multipart/alternative; boundary=" + mw.Boundary()},
	}

	var head bytes.Buffer
	for _, h := range headers {
		if h.value == "" {
			continue
		}
		fmt.Fprintf(&head, "%s: %s\r\n", h.key, stripCRLF(h.value))
	}
	head.WriteString("\r\n")

	if err := writePart(mw, "text/plain; charset=UTF-8", m.Text); err != nil {
		return nil, err
	}
	if err := writePart(mw, "text/html; charset=UTF-8", m.HTML); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	return append(head.Bytes(), buf.Bytes()...), nil
}

func writePart(mw *multipart.Writer, contentType, body string) error {
	h := textproto.MIMEHeader{}
	h.Set("Content-Type", contentType)
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	pw, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	qp := quotedprintable.NewWriter(pw)
	if _, err := qp.Write([]byte(body)); err != nil {
		return err
	}
	return qp.Close()
}

func stripCRLF(s string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}
