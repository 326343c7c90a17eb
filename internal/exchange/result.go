package exchange

import (
	"fmt"
	"strings"
	"time"
)

// Outcome says which resolution path an exchange took.
type Outcome int

const (
	// OutcomeReply: 2xx JSON body carrying a reply field.
	OutcomeReply Outcome = iota
	// OutcomeShapeFallback: 2xx JSON body without a reply field; the whole body is shown.
	OutcomeShapeFallback
	// OutcomeUnexpectedBody: 2xx body that is not JSON, echoed back verbatim.
	OutcomeUnexpectedBody
	// OutcomeHTTPError: non-2xx status.
	OutcomeHTTPError
	// OutcomeTransport: no response at all.
	OutcomeTransport
)

func (o Outcome) String() string {
	switch o {
	case OutcomeReply:
		return "reply"
	case OutcomeShapeFallback:
		return "shape_fallback"
	case OutcomeUnexpectedBody:
		return "unexpected_body"
	case OutcomeHTTPError:
		return "http_error"
	case OutcomeTransport:
		return "transport"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the settled state of one exchange. Failures are values here, not
// Go errors: every path ends with Text being shown to the user.
type Result struct {
	Outcome Outcome
	Text    string

	Status      int
	StatusLine  string
	ContentType string
	Body        string
	Err         error
	Latency     time.Duration
}

// Diagnostic reports whether Text describes a failure rather than a reply.
func (r Result) Diagnostic() bool {
	switch r.Outcome {
	case OutcomeUnexpectedBody, OutcomeHTTPError, OutcomeTransport:
		return true
	}
	return false
}

func transportText(err error) string {
	return "Sorry, I encountered an error. Please try again. Details: " + err.Error()
}

func httpErrorText(statusLine, body string) string {
	var b strings.Builder
	b.WriteString("Sorry, the chat service responded with ")
	b.WriteString(statusLine)
	b.WriteString(".")
	if strings.TrimSpace(body) != "" {
		b.WriteString("\n\n")
		b.WriteString(body)
	}
	return b.String()
}

func unexpectedBodyText(contentType, body string) string {
	if contentType == "" {
		contentType = "no content type"
	}
	return fmt.Sprintf("The chat service returned an unexpected response (%s):\n\n%s", contentType, body)
}
