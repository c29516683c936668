package tools

import (
	"bytes"
	"encoding/json"
	"errors"

	"github-mcp/internal/github"
)

// ContentTypeText is the only content type produced by the tools.
const ContentTypeText = "text"

// Content is one item of an Envelope.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Envelope is the uniform result of a completed invocation.
type Envelope struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError"`
}

// Text joins the text of all content items.
func (e Envelope) Text() string {
	var b bytes.Buffer
	for i, c := range e.Content {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(c.Text)
	}
	return b.String()
}

func textEnvelope(text string, isError bool) Envelope {
	return Envelope{Content: []Content{{Type: ContentTypeText, Text: text}}, IsError: isError}
}

// ToEnvelope maps a handler outcome onto an Envelope. A successful body is
// re-indented with two spaces, keeping its key order. An upstream failure
// becomes an error envelope carrying the upstream message verbatim. Any
// other error is returned unchanged and no envelope is produced.
func ToEnvelope(body json.RawMessage, err error) (Envelope, error) {
	if err != nil {
		var apiErr *github.APIError
		if errors.As(err, &apiErr) {
			return textEnvelope("GitHub API error: "+apiErr.Message, true), nil
		}
		return Envelope{}, err
	}

	if len(body) == 0 {
		body = json.RawMessage("null")
	}
	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err != nil {
		return Envelope{}, internalError(err, "formatting upstream response: %v", err)
	}
	return textEnvelope(out.String(), false), nil
}
