package telemetry

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/mkd/internal/core/ports"
)

// Bridge implements sdktrace.SpanProcessor to bridge finished OTel spans to the debug log.
type Bridge struct {
	logger ports.Logger
}

// NewBridge returns a new Bridge.
func NewBridge(logger ports.Logger) *Bridge {
	return &Bridge{
		logger: logger,
	}
}

// OnStart does nothing. Spans are reported once they end.
func (b *Bridge) OnStart(_ context.Context, _ sdktrace.ReadWriteSpan) {}

// OnEnd logs the span name, duration and attributes.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.logger == nil || !s.SpanContext().IsValid() {
		return
	}
	b.logger.Debug(FormatSpan(s))
}

// FormatSpan renders a finished span as a single log line.
func FormatSpan(s sdktrace.ReadOnlySpan) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)", s.Name(), s.EndTime().Sub(s.StartTime()).Round(time.Millisecond))

	attrs := make([]string, 0, len(s.Attributes()))
	for _, kv := range s.Attributes() {
		attrs = append(attrs, string(kv.Key)+"="+kv.Value.Emit())
	}
	slices.Sort(attrs)
	for _, a := range attrs {
		sb.WriteString(" ")
		sb.WriteString(a)
	}

	if s.Status().Code == codes.Error {
		desc := s.Status().Description
		if desc == "" {
			desc = "failed"
		}
		sb.WriteString(" error=")
		sb.WriteString(desc)
	}
	return sb.String()
}

// ForceFlush does nothing.
func (b *Bridge) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *Bridge) Shutdown(_ context.Context) error {
	return nil
}
