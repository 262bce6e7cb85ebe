package authoring

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// fallbackGenerator tries primary and falls back to secondary on error.
type fallbackGenerator struct {
	primary   Generator
	secondary Generator
	log       zerolog.Logger
}

// WithFallback returns a Generator that serves from secondary whenever
// primary fails. Cancellation is returned as is.
func WithFallback(primary, secondary Generator, log zerolog.Logger) Generator {
	return &fallbackGenerator{primary: primary, secondary: secondary, log: log}
}

func (f *fallbackGenerator) Generate(ctx context.Context, req Request) (*Item, error) {
	it, err := f.primary.Generate(ctx, req)
	if err == nil {
		return it, nil
	}
	if errors.Is(err, context.Canceled) {
		return nil, err
	}
	f.log.Warn().Err(err).Str("level", string(req.Level)).Msg("primary generator failed, using fallback")
	return f.secondary.Generate(ctx, req)
}
