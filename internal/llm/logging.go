package llm

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LoggingProvider writes one structured log line per request.
type LoggingProvider struct {
	inner Provider
	log   zerolog.Logger
}

// WithLogging wraps p.
func WithLogging(p Provider, log zerolog.Logger) Provider {
	return &LoggingProvider{inner: p, log: log}
}

func (l *LoggingProvider) ModelID() string { return l.inner.ModelID() }

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)

	var ev *zerolog.Event
	if err != nil {
		ev = l.log.Warn().Err(err)
	} else {
		ev = l.log.Debug().
			Str("served_by", resp.Model).
			Int("input_tokens", resp.Usage.InputTokens).
			Int("output_tokens", resp.Usage.OutputTokens).
			Str("stop", resp.StopReason)
	}
	if req.Schema != nil {
		ev = ev.Str("schema", req.Schema.Name)
	}
	ev.Str("model", l.inner.ModelID()).
		Str("purpose", PurposeFrom(ctx)).
		Dur("latency", time.Since(start)).
		Msg("llm request")

	return resp, err
}
