package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/repeticio/repeticio/internal/exercise"
)

const maxBodyBytes = 1 << 20

// Header names shared with the practice backend.
const (
	HeaderRequestID = "X-Request-ID"
	HeaderIdentity  = "X-User-Identity"
)

// TokenSource produces a bearer token for the configured user.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// HTTPOptions configures an HTTPClient.
type HTTPOptions struct {
	BaseURL    string
	FetchPath  string
	SubmitPath string

	// RatePath is optional; without it Rate returns ErrRatingDisabled.
	RatePath string

	// Identity is sent as X-User-Identity on every request.
	Identity string

	// Tokens, when set, adds an Authorization bearer header.
	Tokens TokenSource

	// HTTP overrides the underlying client. Defaults to a client without
	// a timeout; deadlines come from the caller's context.
	HTTP *http.Client
}

// HTTPClient implements Client over JSON/HTTP.
type HTTPClient struct {
	http      *http.Client
	fetchURL  string
	submitURL string
	rateURL   string
	identity  string
	tokens    TokenSource
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient builds a client for the exercise endpoints.
func NewHTTPClient(opts HTTPOptions) (*HTTPClient, error) {
	fetchURL, err := joinURL(opts.BaseURL, opts.FetchPath)
	if err != nil {
		return nil, fmt.Errorf("fetch endpoint: %w", err)
	}
	submitURL, err := joinURL(opts.BaseURL, opts.SubmitPath)
	if err != nil {
		return nil, fmt.Errorf("submit endpoint: %w", err)
	}

	var rateURL string
	if opts.RatePath != "" {
		if rateURL, err = joinURL(opts.BaseURL, opts.RatePath); err != nil {
			return nil, fmt.Errorf("rate endpoint: %w", err)
		}
	}

	hc := opts.HTTP
	if hc == nil {
		hc = &http.Client{}
	}

	return &HTTPClient{
		http:      hc,
		fetchURL:  fetchURL,
		submitURL: submitURL,
		rateURL:   rateURL,
		identity:  opts.Identity,
		tokens:    opts.Tokens,
	}, nil
}

type issueEnvelope struct {
	Success  bool               `json:"success"`
	Exercise *exercise.Exercise `json:"exercise"`
	Error    string             `json:"error"`
}

type rateEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type submitEnvelope struct {
	Success bool            `json:"success"`
	Message json.RawMessage `json:"message"`
	Correct *bool           `json:"correct"`
	Error   string          `json:"error"`
}

func (c *HTTPClient) IssueExercise(ctx context.Context) (*exercise.Exercise, error) {
	status, body, err := c.do(ctx, OpFetch, http.MethodGet, c.fetchURL, nil)
	if err != nil {
		return nil, err
	}

	var env issueEnvelope
	if err := decodeEnvelope(OpFetch, status, body, issueEnvelopeSchema, &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, &BackendError{Op: OpFetch, Status: status, Message: env.Error}
	}
	return env.Exercise, nil
}

func (c *HTTPClient) SubmitAnswer(ctx context.Context, req SubmitRequest) (*exercise.Result, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal submission: %w", err)
	}

	status, body, err := c.do(ctx, OpSubmit, http.MethodPost, c.submitURL, payload)
	if err != nil {
		return nil, err
	}

	var env submitEnvelope
	if err := decodeEnvelope(OpSubmit, status, body, submitEnvelopeSchema, &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, &BackendError{Op: OpSubmit, Status: status, Message: env.Error}
	}
	return exercise.NewResult(env.Message, env.Correct), nil
}

func (c *HTTPClient) Rate(ctx context.Context, req RateRequest) error {
	if c.rateURL == "" {
		return &TransportError{Op: OpRate, Err: ErrRatingDisabled}
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal rating: %w", err)
	}

	status, body, err := c.do(ctx, OpRate, http.MethodPost, c.rateURL, payload)
	if err != nil {
		return err
	}

	var env rateEnvelope
	if err := decodeEnvelope(OpRate, status, body, rateEnvelopeSchema, &env); err != nil {
		return err
	}
	if !env.Success {
		return &BackendError{Op: OpRate, Status: status, Message: env.Error}
	}
	return nil
}

// do performs one request and returns the status and body. Any failure to
// obtain a response is a TransportError.
func (c *HTTPClient) do(ctx context.Context, op, method, target string, payload []byte) (int, []byte, error) {
	var rdr io.Reader
	if payload != nil {
		rdr = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return 0, nil, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	}
	if c.identity != "" {
		req.Header.Set(HeaderIdentity, c.identity)
	}
	if c.tokens != nil {
		tok, err := c.tokens.Token(ctx)
		if err != nil {
			return 0, nil, &TransportError{Op: op, Err: fmt.Errorf("issue token: %w", err)}
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return 0, nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, &TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	return resp.StatusCode, body, nil
}

// decodeEnvelope turns a raw response into dst, classifying failures.
// Non-success statuses become BackendErrors when the body carries an
// error message, TransportErrors otherwise.
func decodeEnvelope(op string, status int, body []byte, schema *jsonschema.Schema, dst any) error {
	if status < 200 || status > 299 {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return &BackendError{Op: op, Status: status, Message: e.Error}
		}
		return &TransportError{Op: op, Status: status, Err: errors.New(http.StatusText(status))}
	}

	if err := validateEnvelope(schema, body); err != nil {
		return &TransportError{Op: op, Status: status, Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return &TransportError{Op: op, Status: status, Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	return nil
}

func joinURL(base, path string) (string, error) {
	if base == "" {
		u, err := url.Parse(path)
		if err != nil {
			return "", err
		}
		if !u.IsAbs() {
			return "", fmt.Errorf("%q is not an absolute URL and no base URL is set", path)
		}
		return u.String(), nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	if !b.IsAbs() {
		return "", fmt.Errorf("base URL %q is not absolute", base)
	}
	return strings.TrimRight(b.String(), "/") + "/" + strings.TrimLeft(path, "/"), nil
}
