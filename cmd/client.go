package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/repeticio/repeticio/internal/auth"
	"github.com/repeticio/repeticio/internal/backend"
	"github.com/repeticio/repeticio/internal/config"
	"github.com/repeticio/repeticio/internal/logger"
	"github.com/repeticio/repeticio/internal/session"
	"github.com/repeticio/repeticio/internal/store"
)

// snapshotsKept is how many session snapshots survive pruning.
const snapshotsKept = 5

// clientEnv is everything a client command needs: a restored session bound
// to the backend, with attempts and snapshots persisted.
type clientEnv struct {
	cfg     *config.Config
	log     zerolog.Logger
	store   *store.Store
	machine *session.Machine
	closers []io.Closer
}

func (e *clientEnv) Close() error {
	var first error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// openClient wires config, logging, the store, the HTTP client and the
// session machine. logOut receives logs; nil sends them to the log file.
func openClient(ctx context.Context, cfg *config.Config, logOut io.Writer) (*clientEnv, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	env := &clientEnv{cfg: cfg}
	if logOut == nil {
		path := cfg.Log.File
		if path == "" {
			p, err := logger.DefaultPath()
			if err != nil {
				return nil, err
			}
			path = p
		}
		f, err := logger.OpenFile(path)
		if err != nil {
			return nil, err
		}
		env.closers = append(env.closers, f)
		logOut = f
	}
	env.log = logger.Setup(cfg.Log.Level, cfg.Log.Format, logOut)

	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	env.store = st
	env.closers = append(env.closers, st)

	opts := backend.HTTPOptions{
		BaseURL:    cfg.Backend.BaseURL,
		FetchPath:  cfg.Backend.FetchEndpoint,
		SubmitPath: cfg.Backend.SubmitEndpoint,
		RatePath:   cfg.Backend.RateEndpoint,
		Identity:   cfg.User.Identity,
	}
	if cfg.Auth.TokenSecret != "" {
		signer, err := auth.NewSigner(cfg.Auth.TokenSecret, cfg.User.Identity, cfg.Auth.TokenTTL)
		if err != nil {
			env.Close()
			return nil, err
		}
		opts.Tokens = signer
	}
	httpClient, err := backend.NewHTTPClient(opts)
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("backend client: %w", err)
	}
	client := backend.WithRecorder(httpClient, st.EventRepo(), env.log)

	m := session.NewMachine(session.Options{
		Client:  client,
		Timeout: cfg.Backend.Timeout,
		Logger:  &env.log,
	})

	restored, err := session.LoadLatest(ctx, m, st.SnapshotRepo())
	switch {
	case err != nil:
		env.log.Warn().Err(err).Msg("session snapshot not restored")
	case restored:
		env.log.Info().Str("exercise", m.State().ActiveID).Msg("session restored")
	}

	m.Subscribe(session.AttemptRecorder(st.EventRepo(), m.SessionID(), env.log))
	m.Subscribe(session.SnapshotSaver(st.SnapshotRepo(), m.SessionID(), snapshotsKept, env.log))
	env.machine = m
	return env, nil
}

// openStore opens the database for the read-only and maintenance commands.
func openStore(cfg *config.Config) (*store.Store, error) {
	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return st, nil
}
