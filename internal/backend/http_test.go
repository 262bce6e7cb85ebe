package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens string

func (s staticTokens) Token(context.Context) (string, error) { return string(s), nil }

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewHTTPClient(HTTPOptions{
		BaseURL:    server.URL,
		FetchPath:  "/get_new_exercise",
		SubmitPath: "/submit_answer",
		RatePath:   "/apply_thumbs_up_or_down",
		Identity:   "ana",
		Tokens:     staticTokens("tok"),
	})
	require.NoError(t, err)
	return c
}

func TestIssueExercise_HappyPath(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/get_new_exercise", r.URL.Path)
		assert.Equal(t, "ana", r.Header.Get(HeaderIdentity))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get(HeaderRequestID))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"exercise": map[string]any{
				"exercise_id":     "ex-1",
				"initial_strings": []string{"Ella"},
				"middle_strings":  []string{"al cine."},
				"final_strings":   []string{"va", "voy"},
			},
		})
	})

	ex, err := c.IssueExercise(context.Background())
	require.NoError(t, err)
	require.NotNil(t, ex)
	assert.Equal(t, "ex-1", ex.ID)
	assert.Equal(t, []string{"va", "voy"}, ex.FinalStrings)
}

func TestIssueExercise_SuccessWithoutExercise(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":true}`)
	})

	ex, err := c.IssueExercise(context.Background())
	require.NoError(t, err)
	assert.Nil(t, ex)
}

func TestIssueExercise_BackendFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":false,"error":"no exercises left"}`)
	})

	_, err := c.IssueExercise(context.Background())
	var be *BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, OpFetch, be.Op)
	assert.Equal(t, "no exercises left", be.Message)
}

func TestIssueExercise_ErrorStatusWithBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"success":false,"error":"user not allowed"}`)
	})

	_, err := c.IssueExercise(context.Background())
	var be *BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, http.StatusForbidden, be.Status)
}

func TestIssueExercise_ErrorStatusWithoutBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.IssueExercise(context.Background())
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusBadGateway, te.Status)
}

func TestIssueExercise_MalformedJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success": tru`)
	})

	_, err := c.IssueExercise(context.Background())
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestIssueExercise_SchemaViolation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":"yes"}`)
	})

	_, err := c.IssueExercise(context.Background())
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestIssueExercise_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.IssueExercise(ctx)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestSubmitAnswer_HappyPath(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/submit_answer", r.URL.Path)
		assert.Equal(t, "application/json;charset=UTF-8", r.Header.Get("Content-Type"))

		var body SubmitRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, SubmitRequest{Answer: 1, ExerciseID: "ex-1"}, body)

		io.WriteString(w, `{"success":true,"message":"correct","correct":true}`)
	})

	res, err := c.SubmitAnswer(context.Background(), SubmitRequest{Answer: 1, ExerciseID: "ex-1"})
	require.NoError(t, err)
	assert.Equal(t, "correct", res.Message)
	require.NotNil(t, res.Correct)
	assert.True(t, *res.Correct)
}

func TestSubmitAnswer_OpaqueMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":true,"message":{"score":3}}`)
	})

	res, err := c.SubmitAnswer(context.Background(), SubmitRequest{Answer: 0, ExerciseID: "ex-1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"score":3}`, res.Message)
	assert.Nil(t, res.Correct)
}

func TestSubmitAnswer_StaleExercise(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		io.WriteString(w, `{"success":false,"error":"exercise is not pending"}`)
	})

	_, err := c.SubmitAnswer(context.Background(), SubmitRequest{Answer: 0, ExerciseID: "old"})
	var be *BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, OpSubmit, be.Op)
	assert.Equal(t, http.StatusConflict, be.Status)
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestSubmitAnswer_OtherFailuresAreNotStale(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"success":false,"error":"answer must be below 3"}`)
	})

	_, err := c.SubmitAnswer(context.Background(), SubmitRequest{Answer: 5, ExerciseID: "ex-1"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotPending)
}

func TestRate_HappyPath(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/apply_thumbs_up_or_down", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"exercise_id": "ex-1", "is_positive": false}, body)

		io.WriteString(w, `{"success":true}`)
	})

	require.NoError(t, c.Rate(context.Background(), RateRequest{ExerciseID: "ex-1", Positive: false}))
}

func TestRate_BackendFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"success":false,"error":"exercise not found"}`)
	})

	err := c.Rate(context.Background(), RateRequest{ExerciseID: "nope", Positive: true})
	var be *BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, OpRate, be.Op)
	assert.Equal(t, "exercise not found", be.Message)
}

func TestRate_Disabled(t *testing.T) {
	c, err := NewHTTPClient(HTTPOptions{
		BaseURL:    "http://localhost:1",
		FetchPath:  "/get_new_exercise",
		SubmitPath: "/submit_answer",
	})
	require.NoError(t, err)

	err = c.Rate(context.Background(), RateRequest{ExerciseID: "ex-1", Positive: true})
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, err, ErrRatingDisabled)
}

func TestNewHTTPClient_RejectsRelativeURL(t *testing.T) {
	_, err := NewHTTPClient(HTTPOptions{FetchPath: "/get_new_exercise", SubmitPath: "/submit_answer"})
	assert.Error(t, err)

	c, err := NewHTTPClient(HTTPOptions{
		FetchPath:  "http://a.example/get",
		SubmitPath: "http://b.example/post",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://a.example/get", c.fetchURL)
	assert.Equal(t, "http://b.example/post", c.submitURL)
}

func TestJoinURL(t *testing.T) {
	got, err := joinURL("http://localhost:8080/api/", "/submit_answer")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/api/submit_answer", got)
}
