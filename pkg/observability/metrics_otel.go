package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// otelInstruments mirrors the decision and audit-drop counters to an
// OpenTelemetry meter. A nil *otelInstruments records nothing.
type otelInstruments struct {
	decisions  metric.Int64Counter
	auditDrops metric.Int64Counter
}

// EnableOTel additionally records decisions and audit drops through meter
func (m *Metrics) EnableOTel(meter metric.Meter) error {
	decisions, err := meter.Int64Counter(
		"csn.authz.decisions",
		metric.WithDescription("Authorization decisions by outcome and denial kind"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create authz decisions counter: %w", err)
	}

	auditDrops, err := meter.Int64Counter(
		"csn.audit.dropped",
		metric.WithDescription("Audit records dropped by reason"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create audit dropped counter: %w", err)
	}

	m.otel = &otelInstruments{decisions: decisions, auditDrops: auditDrops}
	return nil
}

func (o *otelInstruments) recordDecision(outcome, kind string) {
	if o == nil {
		return
	}
	o.decisions.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("kind", kind),
	))
}

func (o *otelInstruments) recordAuditDrop(reason string) {
	if o == nil {
		return
	}
	o.auditDrops.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("reason", reason),
	))
}
