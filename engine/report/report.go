// package report provides the single error-reporting channel the engine uses
// for domain failures. Usage errors, shader compile/link failures, and GPU
// resource exhaustion are surfaced as reports rather than returned errors so
// the calling thread can keep processing subsequent independent operations.
package report

import (
	"log"
	"sync"
)

// Kind classifies a failure report.
type Kind int

const (
	// KindUsage indicates the caller violated a documented precondition
	// (out-of-range write, wrong usage flags, too many bound textures).
	// The triggering call is a no-op beyond the report.
	KindUsage Kind = iota

	// KindShaderCompile indicates the GPU compiler rejected a shader stage.
	// The report text carries the driver's diagnostic log.
	KindShaderCompile

	// KindProgramLink indicates the GPU linker rejected a program. The
	// report text carries the driver's diagnostic log.
	KindProgramLink

	// KindOutOfResources indicates a GPU texture or buffer allocation
	// failed. The affected allocation degrades to CPU-only mode.
	KindOutOfResources
)

// String returns a short human-readable label for the kind.
func (k Kind) String() string {
	switch k {
	case KindUsage:
		return "usage error"
	case KindShaderCompile:
		return "shader compile error"
	case KindProgramLink:
		return "program link error"
	case KindOutOfResources:
		return "out of resources"
	default:
		return "unknown error"
	}
}

// Message is a single failure report.
type Message struct {
	// Kind classifies the failure.
	Kind Kind
	// Text is the human-readable description, including any driver log.
	Text string
}

// Reporter is the sink every engine component reports failures through.
type Reporter interface {
	// Report records one failure.
	//
	// Parameters:
	//   - kind: the failure classification
	//   - text: the human-readable description
	Report(kind Kind, text string)
}

// Func adapts a plain function to the Reporter interface.
type Func func(kind Kind, text string)

func (f Func) Report(kind Kind, text string) {
	f(kind, text)
}

// logReporter writes every report to the standard logger.
type logReporter struct{}

var _ Reporter = logReporter{}

// NewLogReporter returns a Reporter that writes each report to the standard
// logger. This is the default sink when no other reporter is configured.
//
// Returns:
//   - Reporter: the log-backed reporter
func NewLogReporter() Reporter {
	return logReporter{}
}

func (logReporter) Report(kind Kind, text string) {
	log.Printf("%s: %s", kind, text)
}

// Recorder accumulates reports in memory for later inspection. Used by tests
// and diagnostic tooling.
type Recorder struct {
	mu   sync.Mutex
	msgs []Message
}

var _ Reporter = &Recorder{}

// NewRecorder returns an empty Recorder.
//
// Returns:
//   - *Recorder: the new recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Report(kind Kind, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, Message{Kind: kind, Text: text})
}

// Messages returns a copy of every recorded report in order.
//
// Returns:
//   - []Message: the recorded reports
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]Message, len(r.msgs))
	copy(cp, r.msgs)
	return cp
}

// Count returns the number of recorded reports of the given kind.
//
// Parameters:
//   - kind: the failure classification to count
//
// Returns:
//   - int: the number of matching reports
func (r *Recorder) Count(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.msgs {
		if m.Kind == kind {
			n++
		}
	}
	return n
}

// Reset discards all recorded reports.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = nil
}

// channelReporter forwards reports to a channel without blocking; reports
// that would block fall back to the standard logger.
type channelReporter struct {
	ch chan<- Message
}

var _ Reporter = channelReporter{}

// NewChannelReporter returns a Reporter that forwards each report to ch.
// The send is non-blocking: if the channel is full the report is written to
// the standard logger instead so a stalled consumer can never stall the
// reporting thread.
//
// Parameters:
//   - ch: the destination channel
//
// Returns:
//   - Reporter: the channel-backed reporter
func NewChannelReporter(ch chan<- Message) Reporter {
	return channelReporter{ch: ch}
}

func (c channelReporter) Report(kind Kind, text string) {
	select {
	case c.ch <- Message{Kind: kind, Text: text}:
	default:
		log.Printf("%s (dropped, channel full): %s", kind, text)
	}
}
