package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// Result is the applicant identity recovered from one email body.
//
// A missing From header is a degraded result, not an error: Email and Name
// come back empty and the caller decides what to do with the message.
type Result struct {
	Name      string
	Email     string // lowercased sender address
	GithubURL string // fully-qualified, or ""
	Body      string // cleaned body text
}

var (
	forwardedBannerRe = regexp.MustCompile(`(?i)[-*]{3,}\s*forwarded\s+message\s*[-*]{3,}`)
	beginForwardedRe  = regexp.MustCompile(`Begin forwarded message:`)
	quotePrefixRe     = regexp.MustCompile(`(?m)^[> ]+`)
	fromHeaderRe      = regexp.MustCompile(`(?m)^\*?From:\*?\s*(.*?)\s+<(\S+@\S+\.\S+)>`)
	parenRe           = regexp.MustCompile(`\(.*\)`)
	headerBlockRe     = regexp.MustCompile(`\n(\*?(From|To|Date|Subject):\*?[^\n]*\n)+`)
	blankOnlyRe       = regexp.MustCompile(`(?m)^[ \t]+$`)
	multiBlankRe      = regexp.MustCompile(`\n\n+`)
	githubRe          = regexp.MustCompile(`github\.com/\S+`)
)

// ParseEmail cleans a raw email body (quoted replies, forwarding banners,
// header blocks) and resolves the applicant's identity from it. The sender's
// display name primes the extractor ("Hi, I'm {name}. ") and the most
// frequent detected name wins; when the extractor finds nobody, the sender
// display name is the fallback.
func ParseEmail(x PersonExtractor, body string) (Result, error) {
	body = strings.ReplaceAll(body, "\r\n", "\n")

	// Only what follows the last forwarding marker matters.
	body = lastSegment(forwardedBannerRe, body)
	body = lastSegment(beginForwardedRe, body)

	body = quotePrefixRe.ReplaceAllString(body, "")

	// The last From header in document order is the authoritative sender.
	var senderName, senderEmail, prefix string
	if matches := fromHeaderRe.FindAllStringSubmatch(body, -1); len(matches) > 0 {
		m := matches[len(matches)-1]
		name := parenRe.ReplaceAllString(m[1], "")
		if i := strings.Index(name, ","); i >= 0 {
			// "Last, First" -> "First Last"
			name = name[i+1:] + " " + name[:i]
		}
		senderName = NormalizeName(name)
		senderEmail = strings.ToLower(m[2])
		prefix = fmt.Sprintf("Hi, I'm %s. ", senderName)
	}

	body = lastSegment(headerBlockRe, body)
	body = dropNonASCII(body)
	body = blankOnlyRe.ReplaceAllString(body, "")
	body = multiBlankRe.ReplaceAllString(body, "\n\n")
	body = strings.TrimSpace(body)

	people, err := x.People(prefix + body)
	if err != nil {
		return Result{}, fmt.Errorf("person extraction: %w", err)
	}
	name := MostFrequentName(people)
	if name == "" {
		name = senderName
	}

	var github string
	if m := githubRe.FindString(body); m != "" {
		github = "https://" + strings.TrimRight(m, "/.,;:!?")
	}

	return Result{
		Name:      name,
		Email:     senderEmail,
		GithubURL: github,
		Body:      body,
	}, nil
}

// lastSegment keeps only the text after the last occurrence of re.
func lastSegment(re *regexp.Regexp, s string) string {
	parts := re.Split(s, -1)
	return parts[len(parts)-1]
}

func dropNonASCII(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
