package imapclient

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/hussein-aitlahcen/imap/imapclient"

// Line kinds recorded by the imap.client.lines counter.
const (
	lineKindTagged   = "tagged"
	lineKindUntagged = "untagged"
	lineKindUnparsed = "unparsed"
	lineKindTooLong  = "too_long"
)

type clientMetrics struct {
	lines       metric.Int64Counter
	commands    metric.Int64Counter
	dropped     metric.Int64Counter
	orphans     metric.Int64Counter
	cmdDuration metric.Float64Histogram
}

func newClientMetrics(provider metric.MeterProvider) *clientMetrics {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(meterName)

	var (
		m   clientMetrics
		err error
	)
	// Instrument constructors return a usable no-op instrument on error.
	m.lines, err = meter.Int64Counter("imap.client.lines",
		metric.WithDescription("Server lines read, by kind."),
		metric.WithUnit("{line}"))
	handleErr(err)
	m.commands, err = meter.Int64Counter("imap.client.commands",
		metric.WithDescription("Commands completed, by result state."),
		metric.WithUnit("{command}"))
	handleErr(err)
	m.dropped, err = meter.Int64Counter("imap.client.unsolicited.dropped",
		metric.WithDescription("Unsolicited results dropped because the queue was full."),
		metric.WithUnit("{result}"))
	handleErr(err)
	m.orphans, err = meter.Int64Counter("imap.client.orphans.dropped",
		metric.WithDescription("Tagged responses discarded because no command was sent with their tag."),
		metric.WithUnit("{response}"))
	handleErr(err)
	m.cmdDuration, err = meter.Float64Histogram("imap.client.command.duration",
		metric.WithDescription("Time between sending a command and its completion."),
		metric.WithUnit("s"))
	handleErr(err)
	return &m
}

func handleErr(err error) {
	if err != nil {
		otel.Handle(err)
	}
}

func (m *clientMetrics) line(kind string) {
	m.lines.Add(context.Background(), 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (m *clientMetrics) droppedUnsolicited() {
	m.dropped.Add(context.Background(), 1)
}

func (m *clientMetrics) orphan() {
	m.orphans.Add(context.Background(), 1)
}

// command records a finished command. state is the tagged result state, or
// "error" when no tagged result was received.
func (m *clientMetrics) command(state string, start time.Time) {
	attrs := metric.WithAttributes(attribute.String("state", state))
	m.commands.Add(context.Background(), 1, attrs)
	m.cmdDuration.Record(context.Background(), time.Since(start).Seconds(), attrs)
}
