package server

import (
	"fmt"
	"strings"
	"time"
)

// Responder produces the answer for a submitted question. The real
// deployment plugs an inference backend in here; the dev server ships
// with the canned one below.
type Responder interface {
	Respond(subject, question, model string, hasFile bool) (answer string, latency float64)
}

// CannedResponder is a deterministic stand-in for a model. The answer
// depends only on the inputs, which keeps client tests reproducible.
type CannedResponder struct {
	// Delay is added before answering to make latency reporting and
	// loading placeholders observable. Zero is fine for tests.
	Delay time.Duration
}

func (r *CannedResponder) Respond(subject, question, model string, hasFile bool) (string, float64) {
	start := time.Now()
	if r.Delay > 0 {
		time.Sleep(r.Delay)
	}

	var b strings.Builder
	switch {
	case hasFile && strings.TrimSpace(question) == "":
		fmt.Fprintf(&b, "Thanks for the file! I've added it to our %s notes.", subject)
	case hasFile:
		fmt.Fprintf(&b, "Looking at your file alongside the question: %q is a good one for %s.", question, subject)
	default:
		fmt.Fprintf(&b, "Here's what I can tell you about %q in %s.", question, subject)
	}
	if model != "" {
		fmt.Fprintf(&b, " (answered by %s)", model)
	}

	return b.String(), time.Since(start).Seconds()
}
