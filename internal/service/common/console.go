//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	domain "github.com/oshokin/recall-lens/internal/domain/recall"
	"github.com/oshokin/recall-lens/internal/flow"
	"github.com/oshokin/recall-lens/internal/logger"
)

var (
	// ErrSessionFailed is returned by the command line binaries when a session ends in the failed phase.
	ErrSessionFailed = errors.New("verification failed")
	// errEventsClosed is returned when the event stream ends before the session does.
	errEventsClosed = errors.New("event stream closed before the session finished")
)

// Answerer accepts the answer to a clarifying question.
type Answerer interface {
	SubmitAnswer(ctx context.Context, sessionID, answer string) error
}

// Outcome is what the user was shown for one session.
type Outcome struct {
	// Phase is the terminal phase the session reached.
	Phase domain.Phase
	// Label is the result card, nil for failed sessions.
	Label *flow.Label
	// RemediationURL is set only for confirmed recalls with a URL.
	RemediationURL string
	// Notice is the neutral failure message.
	Notice string
}

// Console renders flow events in a terminal and reads answers from input.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsole creates a console over the given streams.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Follow renders the events of one session, asking the user whenever a
// clarifying question is shown, until the session returns to idle.
func (c *Console) Follow(
	ctx context.Context,
	events <-chan flow.Event,
	sessionID string,
	answerer Answerer,
) (*Outcome, error) {
	outcome := new(Outcome)

	for {
		var (
			event flow.Event
			ok    bool
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case event, ok = <-events:
			if !ok {
				return nil, errEventsClosed
			}
		}

		if event.SessionID != sessionID {
			continue
		}

		switch event.Kind {
		case flow.EventPhase:
			logger.DebugKV(ctx, "Session phase changed", "phase", event.Phase.String())

			if event.Phase.IsTerminal() {
				outcome.Phase = event.Phase
			}

			if event.Phase == domain.PhaseIdle && outcome.Phase.IsTerminal() {
				return outcome, nil
			}
		case flow.EventBusy:
			if event.Busy {
				c.printf("Checking...\n")
			}
		case flow.EventPrompt:
			if err := c.ask(ctx, event, answerer); err != nil {
				return nil, err
			}
		case flow.EventLabel:
			outcome.Label = event.Label
		case flow.EventRemediation:
			outcome.RemediationURL = event.URL
		case flow.EventNotice:
			outcome.Notice = event.Text
			c.printf("%s\n", event.Text)
		}
	}
}

// PrintResult renders the result card of a finished session.
func (c *Console) PrintResult(outcome *Outcome) {
	if outcome == nil {
		return
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(c.out)
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("Recall check")

	if outcome.Label != nil {
		tw.AppendRow(table.Row{"Object", outcome.Label.Title})
		tw.AppendRow(table.Row{"Status", outcome.Label.Status})
	}

	if outcome.RemediationURL != "" {
		tw.AppendRow(table.Row{"Remediation", outcome.RemediationURL})
	}

	if outcome.Notice != "" {
		tw.AppendRow(table.Row{"Notice", outcome.Notice})
	}

	tw.Render()
}

func (c *Console) ask(ctx context.Context, event flow.Event, answerer Answerer) error {
	c.printf("%s\n%s\n> ", event.Title, event.Text)

	answer, err := c.readLine(ctx)
	if err != nil {
		return fmt.Errorf("read answer: %w", err)
	}

	if err := answerer.SubmitAnswer(ctx, event.SessionID, answer); err != nil {
		return fmt.Errorf("submit answer: %w", err)
	}

	return nil
}

// readLine reads one line of input without outliving ctx.
func (c *Console) readLine(ctx context.Context) (string, error) {
	type result struct {
		line string
		err  error
	}

	lines := make(chan result, 1)

	go func() {
		line, err := c.in.ReadString('\n')
		lines <- result{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-lines:
		if r.err != nil && (!errors.Is(r.err, io.EOF) || r.line == "") {
			return "", r.err
		}

		return strings.TrimSpace(r.line), nil
	}
}

func (c *Console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}
