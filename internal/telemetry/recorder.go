package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/evanschultz/kanstart/internal/onboarding"
	"github.com/evanschultz/kanstart/internal/template"
)

// Recorder counts onboarding analytics events.
type Recorder struct {
	template string
	overlays metric.Int64Counter
	buttons  metric.Int64Counter
	typed    metric.Int64Counter
	created  metric.Int64Counter
}

var _ onboarding.Recorder = (*Recorder)(nil)

// NewRecorder registers the onboarding counters on meter.
func NewRecorder(meter metric.Meter, templateType template.Type) (*Recorder, error) {
	overlays, err := meter.Int64Counter("onboarding.overlay.seen",
		metric.WithDescription("Overlays shown for the first time in a session"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: overlay counter: %w", err)
	}
	buttons, err := meter.Int64Counter("onboarding.button.tapped",
		metric.WithDescription("Buttons tapped at least once in a session"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: button counter: %w", err)
	}
	typed, err := meter.Int64Counter("onboarding.name.typed",
		metric.WithDescription("Fields given a custom name"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: typed counter: %w", err)
	}
	created, err := meter.Int64Counter("onboarding.board.created",
		metric.WithDescription("Boards completed through onboarding"))
	if err != nil {
		return nil, fmt.Errorf("telemetry: created counter: %w", err)
	}
	return &Recorder{
		template: string(templateType),
		overlays: overlays,
		buttons:  buttons,
		typed:    typed,
		created:  created,
	}, nil
}

// OverlaySeen counts an overlay.
func (r *Recorder) OverlaySeen(step onboarding.OverlayStep) {
	r.overlays.Add(context.Background(), 1, r.attrs(attribute.String("step", step.String())))
}

// ButtonTapped counts a button.
func (r *Recorder) ButtonTapped(button onboarding.Button) {
	r.buttons.Add(context.Background(), 1, r.attrs(attribute.String("button", string(button))))
}

// NameTyped counts a named field group.
func (r *Recorder) NameTyped(field onboarding.Field) {
	r.typed.Add(context.Background(), 1, r.attrs(attribute.String("field", field.Kind.String())))
}

// BoardCreated counts a completed board.
func (r *Recorder) BoardCreated(board template.Board) {
	r.created.Add(context.Background(), 1, r.attrs(
		attribute.Int("lists", len(board.Lists)),
		attribute.String("background", board.Background.BackgroundKey()),
	))
}

// attrs adds the template attribute to kv.
func (r *Recorder) attrs(kv ...attribute.KeyValue) metric.AddOption {
	return metric.WithAttributes(append([]attribute.KeyValue{attribute.String("template", r.template)}, kv...)...)
}
