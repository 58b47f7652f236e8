// Package replay drives onboarding sessions from YAML scripts without a terminal.
//
// The runner plays the part of the view layer: focus effects turn into edit
// begin/end events, submit requests turn into submits, and tick requests are
// answered from a fake clock that only moves on wait steps.
package replay

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/evanschultz/kanstart/internal/localize"
	"github.com/evanschultz/kanstart/internal/onboarding"
	"github.com/evanschultz/kanstart/internal/template"
)

// maxChained bounds how many follow-up events one scripted step may cause.
const maxChained = 256

// Options configures a replay run.
type Options struct {
	Provider *template.Provider
	Limits   onboarding.Limits
	Layout   *onboarding.Layout
	Recorder onboarding.Recorder
	Logger   *log.Logger
	Start    time.Time
}

// Transition records a flow or overlay change.
type Transition struct {
	Index   int
	Event   string
	Flow    onboarding.FlowStep
	Overlay onboarding.OverlayStep
}

// Result summarizes a replay run.
type Result struct {
	Template    template.Type
	Transitions []Transition
	Effects     int
	Outputs     onboarding.Outputs
	Board       *template.Board
	// Completed is the session's completion channel. It holds the board until a consumer reads it.
	Completed <-chan template.Board
}

// host answers session effects the way an interactive view would.
type host struct {
	session *onboarding.Session
	now     time.Time
	focused *onboarding.Field
	pending []time.Time
	limit   int
	logger  *log.Logger
	result  *Result
}

// Run replays script and returns the final state.
func Run(ctx context.Context, script Script, opts Options) (Result, error) {
	kind, err := template.ParseType(script.Template)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}
	provider := opts.Provider
	if provider == nil {
		p := template.NewProvider(localize.English())
		provider = &p
	}
	tpl, err := provider.Template(kind)
	if err != nil {
		return Result{}, err
	}
	env, err := script.Environment.environment()
	if err != nil {
		return Result{}, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	start := opts.Start
	if start.IsZero() {
		start = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	result := &Result{Template: kind}
	h := &host{now: start, limit: maxChained, logger: logger, result: result}
	sessionOpts := []onboarding.Option{
		onboarding.WithClock(func() time.Time { return h.now }),
		onboarding.WithEnvironment(env),
		onboarding.WithLimits(opts.Limits),
		onboarding.WithRecorder(opts.Recorder),
		onboarding.WithCharmLogger(logger),
	}
	if provider.Localizer != nil {
		sessionOpts = append(sessionOpts, onboarding.WithLocalizer(provider.Localizer))
	}
	if opts.Layout != nil {
		sessionOpts = append(sessionOpts, onboarding.WithLayout(*opts.Layout))
	}
	h.session = onboarding.New(tpl.Board, onboarding.CountsFor(tpl.Board), sessionOpts...)
	result.Completed = h.session.Completed()

	for i, step := range script.Events {
		if err := ctx.Err(); err != nil {
			return *result, err
		}
		ev, err := step.event()
		if err != nil {
			return *result, fmt.Errorf("event %d: %w", i, err)
		}
		if step.Type == "wait" {
			if err := h.wait(i, time.Duration(step.MS)*time.Millisecond); err != nil {
				return *result, fmt.Errorf("event %d: %w", i, err)
			}
			continue
		}
		if f, ok := onboarding.EventField(ev); ok && !h.session.Counts().Contains(f) {
			return *result, fmt.Errorf("event %d: %w: field %s is outside the %s template", i, ErrInvalidScript, f, kind)
		}
		if err := h.run(i, ev); err != nil {
			return *result, fmt.Errorf("event %d: %w", i, err)
		}
	}
	result.Outputs = h.session.Outputs()
	return *result, nil
}

// run dispatches a scripted event and every follow-up it causes.
func (h *host) run(index int, root onboarding.Event) error {
	switch ev := root.(type) {
	case onboarding.EditBegan:
		f := ev.Field
		h.focused = &f
	case onboarding.EditEnded:
		if h.focused != nil && *h.focused == ev.Field {
			h.focused = nil
		}
	}

	queue := []onboarding.Event{root}
	for n := 0; len(queue) > 0; n++ {
		if n >= h.limit {
			return fmt.Errorf("replay: more than %d chained events", h.limit)
		}
		ev := queue[0]
		queue = queue[1:]
		queue = append(queue, h.dispatch(index, ev)...)
	}
	return nil
}

// dispatch applies one event and returns the follow-up events its effects imply.
func (h *host) dispatch(index int, ev onboarding.Event) []onboarding.Event {
	flow, overlay := h.session.FlowStep(), h.session.OverlayStep()
	effects := h.session.Dispatch(ev)
	h.result.Effects += len(effects)
	if h.session.FlowStep() != flow || h.session.OverlayStep() != overlay {
		h.result.Transitions = append(h.result.Transitions, Transition{
			Index:   index,
			Event:   eventName(ev),
			Flow:    h.session.FlowStep(),
			Overlay: h.session.OverlayStep(),
		})
	}

	var next []onboarding.Event
	tickNow := false
	for _, eff := range effects {
		switch eff := eff.(type) {
		case onboarding.FocusRequested:
			next = append(next, h.focus(eff.Field, eff.Focused)...)
		case onboarding.SubmitFocusedRequested:
			if h.focused != nil {
				next = append(next, onboarding.EditSubmitted{Field: *h.focused})
			}
		case onboarding.TickRequested:
			if eff.At.After(h.now) {
				h.pending = append(h.pending, eff.At)
			} else {
				tickNow = true
			}
		case onboarding.BoardCompleted:
			board := eff.Board
			h.result.Board = &board
			h.logger.Debug("replay board completed", "board", board.Name())
		}
	}
	if tickNow {
		next = append(next, onboarding.ClockTicked{Now: h.now})
	}
	return next
}

// focus moves the simulated keyboard focus and returns the edit events it causes.
func (h *host) focus(f onboarding.Field, on bool) []onboarding.Event {
	if !on {
		if h.focused != nil && *h.focused == f {
			h.focused = nil
			return []onboarding.Event{onboarding.EditEnded{Field: f}}
		}
		return nil
	}
	if h.focused != nil && *h.focused == f {
		return nil
	}
	var out []onboarding.Event
	if h.focused != nil {
		out = append(out, onboarding.EditEnded{Field: *h.focused})
	}
	h.focused = &f
	return append(out, onboarding.EditBegan{Field: f})
}

// wait advances the fake clock and settles timers that came due.
func (h *host) wait(index int, d time.Duration) error {
	h.now = h.now.Add(d)
	due := false
	kept := h.pending[:0]
	for _, at := range h.pending {
		if at.After(h.now) {
			kept = append(kept, at)
			continue
		}
		due = true
	}
	h.pending = kept
	if !due {
		return nil
	}
	return h.run(index, onboarding.ClockTicked{Now: h.now})
}

// eventName returns a short event type name.
func eventName(ev onboarding.Event) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", ev), "onboarding.")
}
