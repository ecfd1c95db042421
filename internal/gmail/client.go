package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
	"time"

	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/inboxkit/triage/internal/model"
)

// Client wraps the Gmail API as the thread fetch collaborator. It performs
// the expensive fetches the thread cache fronts; it does no caching itself.
type Client struct {
	Service *gmailapi.Service
}

// NewClient creates a Gmail client from an authenticated service
func NewClient(service *gmailapi.Service) *Client {
	return &Client{Service: service}
}

// FetchThread retrieves a full conversation and derives its context
// annotations. Errors are returned to the caller unchanged in meaning; the
// cache layer decides nothing about retries.
func (c *Client) FetchThread(ctx context.Context, threadID string) (*model.ThreadData, error) {
	if c == nil || c.Service == nil {
		return nil, fmt.Errorf("gmail client not initialized")
	}
	if threadID == "" {
		return nil, fmt.Errorf("threadID cannot be empty")
	}

	thread, err := c.Service.Users.Threads.Get("me", threadID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch thread: %w", err)
	}

	data := &model.ThreadData{ThreadID: threadID}
	var combined strings.Builder

	for _, msg := range thread.Messages {
		body := ExtractPlainText(msg)
		subject := extractHeader(msg, "Subject")

		data.Messages = append(data.Messages, model.ThreadMessage{
			ID:      msg.Id,
			From:    extractHeader(msg, "From"),
			Subject: subject,
			Snippet: msg.Snippet,
			Body:    body,
			Date:    time.Unix(0, msg.InternalDate*int64(time.Millisecond)),
		})

		combined.WriteString(subject)
		combined.WriteString("\n")
		combined.WriteString(body)
		combined.WriteString("\n")
	}

	text := combined.String()
	data.DetectedDates = ExtractDates(text)
	data.DetectedAmounts = ExtractAmounts(text)
	return data, nil
}

// Annotation extractors. These are pure so thread context stays reproducible
// for a given fetched payload.
var (
	weekdayPattern  = regexp.MustCompile(`(?i)\b(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday|today|tomorrow|tonight)\b`)
	monthDayPattern = regexp.MustCompile(`(?i)\b(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2}(?:st|nd|rd|th)?\b`)
	numericPattern  = regexp.MustCompile(`\b\d{1,2}/\d{1,2}(?:/\d{2,4})?\b`)
	amountPattern   = regexp.MustCompile(`\$\s?\d+(?:,\d{3})*(?:\.\d{2})?`)
)

// ExtractDates returns the distinct date mentions found in text, in order of
// first appearance
func ExtractDates(text string) []string {
	var out []string
	for _, p := range []*regexp.Regexp{weekdayPattern, monthDayPattern, numericPattern} {
		out = append(out, p.FindAllString(text, -1)...)
	}
	return dedupe(out)
}

// ExtractAmounts returns the distinct monetary amounts found in text, in
// order of first appearance
func ExtractAmounts(text string) []string {
	return dedupe(amountPattern.FindAllString(text, -1))
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

// ExtractPlainText returns the text/plain content of a message, falling back
// to the snippet when no plain part exists
func ExtractPlainText(msg *gmailapi.Message) string {
	if msg == nil {
		return ""
	}
	if msg.Payload != nil {
		if text := plainTextFromPart(msg.Payload); text != "" {
			return text
		}
	}
	return msg.Snippet
}

func plainTextFromPart(part *gmailapi.MessagePart) string {
	if part == nil {
		return ""
	}
	if part.MimeType == "text/plain" && part.Body != nil && part.Body.Data != "" {
		decoded, err := base64.URLEncoding.DecodeString(part.Body.Data)
		if err != nil {
			// Some senders pad non-canonically; try the raw variant
			decoded, err = base64.RawURLEncoding.DecodeString(part.Body.Data)
			if err != nil {
				return ""
			}
		}
		return string(decoded)
	}
	for _, sub := range part.Parts {
		if text := plainTextFromPart(sub); text != "" {
			return text
		}
	}
	return ""
}

func extractHeader(msg *gmailapi.Message, headerName string) string {
	if msg.Payload == nil || msg.Payload.Headers == nil {
		return ""
	}
	for _, header := range msg.Payload.Headers {
		if header.Name == headerName {
			return header.Value
		}
	}
	return ""
}
