package mailbox

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	"applicant-tracker/internal/config"
)

// Poller watches the configured IMAP folder for unseen messages and feeds
// them to the Ingestor. It is a single sequential loop: the connection is
// held for one scan, released, and re-established on the next cycle, so a
// transient mailbox failure costs one cycle, not the process.
type Poller struct {
	cfg      *config.Config
	ingestor *Ingestor
}

func NewPoller(cfg *config.Config, ingestor *Ingestor) *Poller {
	return &Poller{cfg: cfg, ingestor: ingestor}
}

// Run scans the mailbox in a poll-sleep cycle until ctx is cancelled. With
// once set it terminates after a single pass.
func (p *Poller) Run(ctx context.Context, once bool) error {
	for {
		if err := p.scan(ctx); err != nil {
			log.Printf("[Poller] scan failed: %v", err)
		}
		if once {
			return nil
		}
		log.Printf("[Poller] waiting %s...", p.cfg.PollInterval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.cfg.PollInterval):
		}
	}
}

func (p *Poller) scan(ctx context.Context) error {
	c, err := client.DialTLS(p.cfg.IMAPHost, &tls.Config{})
	if err != nil {
		return fmt.Errorf("dial %s: %w", p.cfg.IMAPHost, err)
	}
	defer c.Logout()

	if err := c.Login(p.cfg.IMAPEmail, p.cfg.IMAPPassword); err != nil {
		return fmt.Errorf("imap login: %w", err)
	}
	if _, err := c.Select(p.cfg.IMAPFolder, false); err != nil {
		return fmt.Errorf("select folder %s: %w", p.cfg.IMAPFolder, err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	seqNums, err := c.Search(criteria)
	if err != nil {
		return fmt.Errorf("search unseen: %w", err)
	}
	if len(seqNums) == 0 {
		return nil
	}
	log.Printf("[Poller] %d unseen message(s)", len(seqNums))

	msgs, err := p.fetch(c, seqNums)
	if err != nil {
		return err
	}

	var processed []uint32
	for _, msg := range msgs {
		disp, err := p.ingestor.Ingest(ctx, msg)
		if err != nil {
			log.Printf("[Poller] message %d: %v", msg.SeqNum, err)
		}
		if disp == MarkSeen {
			processed = append(processed, msg.SeqNum)
		}
	}

	if len(processed) > 0 {
		seqset := new(imap.SeqSet)
		seqset.AddNum(processed...)
		item := imap.FormatFlagsOp(imap.AddFlags, true)
		if err := c.Store(seqset, item, []interface{}{imap.SeenFlag}, nil); err != nil {
			return fmt.Errorf("mark seen: %w", err)
		}
	}
	return nil
}

// fetch downloads full message bodies without flipping the \Seen flag;
// ingestion outcome decides that explicitly.
func (p *Poller) fetch(c *client.Client, seqNums []uint32) ([]*Message, error) {
	seqset := new(imap.SeqSet)
	seqset.AddNum(seqNums...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{section.FetchItem()}

	ch := make(chan *imap.Message, len(seqNums))
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, items, ch)
	}()

	var msgs []*Message
	for imapMsg := range ch {
		r := imapMsg.GetBody(section)
		if r == nil {
			log.Printf("[Poller] message %d has no body section", imapMsg.SeqNum)
			continue
		}
		body, atts, err := DecodeMessage(r)
		if err != nil {
			log.Printf("[Poller] decode message %d: %v", imapMsg.SeqNum, err)
			continue
		}
		msgs = append(msgs, &Message{SeqNum: imapMsg.SeqNum, Body: body, Attachments: atts})
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}
	return msgs, nil
}
