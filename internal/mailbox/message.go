package mailbox

import (
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message/mail"
)

// Message is one mailbox message reduced to what ingestion needs.
type Message struct {
	SeqNum      uint32
	Body        string
	Attachments []Attachment
}

// Attachment is a decoded MIME attachment.
type Attachment struct {
	Filename string
	Data     []byte
}

// DecodeMessage pulls the plain-text body and the attachments out of a raw
// RFC 822 message. The first text/plain part wins; another text part is the
// fallback when the message carries no plain-text alternative.
func DecodeMessage(r io.Reader) (string, []Attachment, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return "", nil, fmt.Errorf("read message: %w", err)
	}

	var (
		plain, fallback string
		atts            []Attachment
	)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", nil, fmt.Errorf("read message part: %w", err)
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			ct, _, _ := h.ContentType()
			if !strings.HasPrefix(ct, "text/") {
				continue
			}
			b, err := io.ReadAll(part.Body)
			if err != nil {
				return "", nil, fmt.Errorf("read message body: %w", err)
			}
			if ct == "text/plain" && plain == "" {
				plain = string(b)
			} else if fallback == "" {
				fallback = string(b)
			}
		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			data, err := io.ReadAll(part.Body)
			if err != nil {
				return "", nil, fmt.Errorf("read attachment %q: %w", filename, err)
			}
			atts = append(atts, Attachment{Filename: filename, Data: data})
		}
	}

	if plain == "" {
		plain = fallback
	}
	return plain, atts, nil
}
