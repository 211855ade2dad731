package mailbox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const multipartMessage = "MIME-Version: 1.0\r\n" +
	"From: Jane Doe <jane@example.com>\r\n" +
	"To: jobs@company.com\r\n" +
	"Subject: Application\r\n" +
	"Content-Type: multipart/mixed; boundary=frontier\r\n" +
	"\r\n" +
	"--frontier\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"Hello, my resume is attached.\r\n" +
	"--frontier\r\n" +
	"Content-Type: application/pdf\r\n" +
	"Content-Disposition: attachment; filename=\"resume.pdf\"\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"\r\n" +
	"JVBERi0xLjQ=\r\n" +
	"--frontier--\r\n"

func TestDecodeMessage(t *testing.T) {
	body, atts, err := DecodeMessage(strings.NewReader(multipartMessage))
	require.NoError(t, err)

	assert.Contains(t, body, "Hello, my resume is attached.")
	require.Len(t, atts, 1)
	assert.Equal(t, "resume.pdf", atts[0].Filename)
	assert.Equal(t, []byte("%PDF-1.4"), atts[0].Data, "base64 transfer encoding is decoded")
}

func TestDecodeMessagePlainText(t *testing.T) {
	raw := "From: john@example.com\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"Just a plain body.\r\n"

	body, atts, err := DecodeMessage(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Contains(t, body, "Just a plain body.")
	assert.Empty(t, atts)
}

func TestDecodeMessagePrefersPlainOverHTML(t *testing.T) {
	raw := "MIME-Version: 1.0\r\n" +
		"From: jane@example.com\r\n" +
		"Content-Type: multipart/alternative; boundary=alt\r\n" +
		"\r\n" +
		"--alt\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<p>html body</p>\r\n" +
		"--alt\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"plain body\r\n" +
		"--alt--\r\n"

	body, _, err := DecodeMessage(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Contains(t, body, "plain body")
	assert.NotContains(t, body, "<p>")
}

func TestDecodeMessageGarbage(t *testing.T) {
	_, _, err := DecodeMessage(strings.NewReader(""))
	assert.Error(t, err)
}
