package mailbox

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"applicant-tracker/internal/storage"
)

type fakeStore struct {
	byEmail   map[string]storage.Attributes
	names     map[string]string
	nextID    int64
	existsErr error
	createErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{byEmail: map[string]storage.Attributes{}, names: map[string]string{}}
}

func (s *fakeStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	if s.existsErr != nil {
		return false, s.existsErr
	}
	_, ok := s.byEmail[email]
	return ok, nil
}

func (s *fakeStore) CreateApplicant(_ context.Context, name, email string, attrs storage.Attributes) (int64, error) {
	if s.createErr != nil {
		return 0, s.createErr
	}
	s.byEmail[email] = attrs
	s.names[email] = name
	s.nextID++
	return s.nextID, nil
}

type fakeConverter struct {
	pdf       []byte
	convErr   error
	textErr   error
	pdfCalls  int
	textCalls int
}

func (c *fakeConverter) ToPDF(_ context.Context, data []byte, ext string) ([]byte, error) {
	c.pdfCalls++
	if c.convErr != nil {
		return nil, c.convErr
	}
	return c.pdf, nil
}

func (c *fakeConverter) ExtractText(data []byte, ext string) (string, error) {
	c.textCalls++
	if c.textErr != nil {
		return "", c.textErr
	}
	return "resume text", nil
}

type staticExtractor []string

func (s staticExtractor) People(string) ([]string, error) { return s, nil }

const applicationBody = "From: Jane Doe <Jane@Example.com>\n\nHello, my resume is attached.\nSee github.com/janedoe for my projects.\n"

func TestIngestCreatesApplicant(t *testing.T) {
	store := newFakeStore()
	conv := &fakeConverter{}
	ing := NewIngestor(store, conv, staticExtractor{"Jane Doe"})

	msg := &Message{
		Body:        applicationBody,
		Attachments: []Attachment{{Filename: "resume.pdf", Data: []byte("%PDF-1.4")}},
	}
	disp, err := ing.Ingest(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, MarkSeen, disp)

	attrs, ok := store.byEmail["jane@example.com"]
	require.True(t, ok, "applicant stored under lowercased email")
	assert.Equal(t, "Jane Doe", store.names["jane@example.com"])
	assert.Equal(t, []byte("%PDF-1.4"), attrs.Resume)
	assert.Equal(t, "https://github.com/janedoe", attrs.GithubURL)
	assert.Equal(t, storage.StageUnprocessed, attrs.Stage)
	assert.Empty(t, attrs.Ratings)
	assert.False(t, attrs.DateSubmitted.IsZero())
	assert.Equal(t, 0, conv.pdfCalls, "pdf attachments skip conversion")
	assert.Equal(t, 1, conv.textCalls)
}

func TestIngestConvertsNonPDFAttachment(t *testing.T) {
	store := newFakeStore()
	conv := &fakeConverter{pdf: []byte("%PDF converted")}
	ing := NewIngestor(store, conv, staticExtractor{"Jane Doe"})

	msg := &Message{
		Body:        applicationBody,
		Attachments: []Attachment{{Filename: "Resume.DOCX", Data: []byte("docx bytes")}},
	}
	disp, err := ing.Ingest(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, MarkSeen, disp)
	assert.Equal(t, 1, conv.pdfCalls)
	assert.Equal(t, []byte("%PDF converted"), store.byEmail["jane@example.com"].Resume)
}

func TestIngestOnlyFirstAttachmentConsidered(t *testing.T) {
	store := newFakeStore()
	conv := &fakeConverter{}
	ing := NewIngestor(store, conv, staticExtractor{"Jane Doe"})

	msg := &Message{
		Body: applicationBody,
		Attachments: []Attachment{
			{Filename: "resume.pdf", Data: []byte("first")},
			{Filename: "cover-letter.pdf", Data: []byte("second")},
		},
	}
	_, err := ing.Ingest(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), store.byEmail["jane@example.com"].Resume)
}

func TestIngestDuplicateSkipped(t *testing.T) {
	store := newFakeStore()
	ing := NewIngestor(store, &fakeConverter{}, staticExtractor{"Jane Doe"})
	msg := &Message{Body: applicationBody}

	disp, err := ing.Ingest(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, MarkSeen, disp)

	// Second message from the same address: dropped, never merged, and the
	// source message stays unseen.
	disp, err = ing.Ingest(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, LeaveUnseen, disp)
	assert.Len(t, store.byEmail, 1)
}

func TestIngestConversionFailureLeavesMessageUnseen(t *testing.T) {
	store := newFakeStore()
	conv := &fakeConverter{convErr: errors.New("soffice exploded")}
	ing := NewIngestor(store, conv, staticExtractor{"Jane Doe"})

	msg := &Message{
		Body:        applicationBody,
		Attachments: []Attachment{{Filename: "resume.docx", Data: []byte("docx")}},
	}
	disp, err := ing.Ingest(context.Background(), msg)
	assert.Error(t, err)
	assert.Equal(t, LeaveUnseen, disp, "message stays unseen for retry next cycle")
	assert.Empty(t, store.byEmail, "no applicant stored on conversion failure")
}

func TestIngestTextExtractionFailureIsNonFatal(t *testing.T) {
	store := newFakeStore()
	conv := &fakeConverter{textErr: errors.New("no text layer")}
	ing := NewIngestor(store, conv, staticExtractor{"Jane Doe"})

	msg := &Message{
		Body:        applicationBody,
		Attachments: []Attachment{{Filename: "resume.pdf", Data: []byte("%PDF")}},
	}
	disp, err := ing.Ingest(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, MarkSeen, disp)
	assert.Empty(t, store.byEmail["jane@example.com"].ResumeText)
}

func TestIngestNoSenderMarksSeen(t *testing.T) {
	store := newFakeStore()
	ing := NewIngestor(store, &fakeConverter{}, staticExtractor{})

	disp, err := ing.Ingest(context.Background(), &Message{Body: "no headers here, just text"})
	require.NoError(t, err)
	assert.Equal(t, MarkSeen, disp, "a message with no sender will never parse better")
	assert.Empty(t, store.byEmail)
}

func TestIngestNoAttachmentMeansEmptyResume(t *testing.T) {
	store := newFakeStore()
	conv := &fakeConverter{}
	ing := NewIngestor(store, conv, staticExtractor{"Jane Doe"})

	disp, err := ing.Ingest(context.Background(), &Message{Body: applicationBody})
	require.NoError(t, err)
	assert.Equal(t, MarkSeen, disp)
	assert.Empty(t, store.byEmail["jane@example.com"].Resume)
	assert.Equal(t, 0, conv.textCalls)
}

func TestIngestStoreErrorLeavesMessageUnseen(t *testing.T) {
	store := newFakeStore()
	store.existsErr = errors.New("db down")
	ing := NewIngestor(store, &fakeConverter{}, staticExtractor{"Jane Doe"})

	disp, err := ing.Ingest(context.Background(), &Message{Body: applicationBody})
	assert.Error(t, err)
	assert.Equal(t, LeaveUnseen, disp)
}
