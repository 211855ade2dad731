package mailbox

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"applicant-tracker/internal/extract"
	"applicant-tracker/internal/storage"
)

// Store is the slice of the applicant store that ingestion needs.
type Store interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CreateApplicant(ctx context.Context, name, email string, attrs storage.Attributes) (int64, error)
}

// PDFConverter converts resume attachments and extracts their text.
type PDFConverter interface {
	ToPDF(ctx context.Context, data []byte, ext string) ([]byte, error)
	ExtractText(data []byte, ext string) (string, error)
}

// Disposition tells the poller what to do with the source message after an
// ingestion attempt.
type Disposition int

const (
	// LeaveUnseen keeps the message unseen so the next cycle retries it
	// (conversion failures) or skips it again (duplicates).
	LeaveUnseen Disposition = iota
	// MarkSeen flags the message seen so it is never scanned again.
	MarkSeen
)

// Ingestor turns one mailbox message into a stored applicant. It holds the
// per-message decision logic and is independent of the IMAP transport.
type Ingestor struct {
	store     Store
	converter PDFConverter
	extractor extract.PersonExtractor
}

func NewIngestor(store Store, converter PDFConverter, extractor extract.PersonExtractor) *Ingestor {
	return &Ingestor{store: store, converter: converter, extractor: extractor}
}

// Ingest parses the message, deduplicates by sender address, converts the
// first attachment to PDF when needed and persists the applicant. The
// returned Disposition is valid even when err != nil.
func (in *Ingestor) Ingest(ctx context.Context, msg *Message) (Disposition, error) {
	res, err := extract.ParseEmail(in.extractor, msg.Body)
	if err != nil {
		return LeaveUnseen, fmt.Errorf("parse email: %w", err)
	}

	if res.Email == "" {
		// No sender header anywhere in the message; it will never parse
		// better, so don't rescan it.
		log.Printf("[Ingest] no sender address found, skipping message")
		return MarkSeen, nil
	}

	exists, err := in.store.ExistsByEmail(ctx, res.Email)
	if err != nil {
		return LeaveUnseen, fmt.Errorf("check duplicate: %w", err)
	}
	if exists {
		log.Printf("[Ingest] skipping duplicate for: %s", res.Email)
		return LeaveUnseen, nil
	}

	log.Printf("[Ingest] applicant name: %s", res.Name)
	log.Printf("[Ingest] applicant email: %s", res.Email)
	if res.GithubURL != "" {
		log.Printf("[Ingest] applicant github: %s", res.GithubURL)
	}

	var resume []byte
	var resumeText string
	if len(msg.Attachments) > 0 {
		// Only the first attachment is considered.
		att := msg.Attachments[0]
		resume = att.Data
		ext := strings.ToLower(filepath.Ext(att.Filename))
		if ext != ".pdf" {
			resume, err = in.converter.ToPDF(ctx, att.Data, ext)
			if err != nil {
				// Leave the message unseen so the next cycle retries.
				return LeaveUnseen, fmt.Errorf("convert attachment %q: %w", att.Filename, err)
			}
		}
		resumeText, err = in.converter.ExtractText(resume, ".pdf")
		if err != nil {
			log.Printf("[Ingest] resume text extraction failed: %v", err)
			resumeText = ""
		}
	}

	attrs := storage.Attributes{
		GithubURL:     res.GithubURL,
		EmailText:     res.Body,
		Resume:        resume,
		ResumeText:    resumeText,
		Ratings:       []storage.Rating{},
		Stage:         storage.StageUnprocessed,
		DateSubmitted: time.Now().UTC(),
	}
	id, err := in.store.CreateApplicant(ctx, res.Name, res.Email, attrs)
	if err != nil {
		return LeaveUnseen, fmt.Errorf("create applicant: %w", err)
	}

	log.Printf("[Ingest] created applicant %d (%s)", id, res.Email)
	return MarkSeen, nil
}
