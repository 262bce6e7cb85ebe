package devserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/repeticio/repeticio/internal/authoring"
	"github.com/repeticio/repeticio/internal/exercise"
)

type issueResponse struct {
	Success  bool               `json:"success"`
	Exercise *exercise.Exercise `json:"exercise"`
}

type submitBody struct {
	Answer     *int   `json:"answer" binding:"required,min=0"`
	ExerciseID string `json:"exercise_id" binding:"required"`
}

type rateBody struct {
	ExerciseID string `json:"exercise_id" binding:"required"`
	Positive   *bool  `json:"is_positive" binding:"required"`
}

type submitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Correct bool   `json:"correct"`
}

// getNewExercise re-serves the caller's pending exercise or issues a new one.
func (s *Server) getNewExercise(c *gin.Context) {
	user := c.GetString(ctxIdentity)

	if p := s.pending.Pending(user); p != nil {
		c.JSON(http.StatusOK, issueResponse{Success: true, Exercise: p.Item.Exercise(p.ID)})
		return
	}

	item, err := s.opts.Generator.Generate(c.Request.Context(), authoring.Request{
		Level: s.opts.Level,
		Prior: s.pending.Prior(user),
	})
	if err != nil {
		s.log.Warn().Err(err).Str("identity", user).Msg("exercise generation failed")
		status := http.StatusServiceUnavailable
		if errors.Is(err, authoring.ErrExhausted) {
			status = http.StatusNotFound
		}
		abortFail(c, status, "could not create an exercise")
		return
	}

	p := s.pending.Issue(user, item)
	s.log.Debug().Str("identity", user).Str("exercise_id", p.ID).Msg("exercise issued")
	c.JSON(http.StatusOK, issueResponse{Success: true, Exercise: p.Item.Exercise(p.ID)})
}

// submitAnswer grades the answer against the pending exercise and clears it.
func (s *Server) submitAnswer(c *gin.Context) {
	var body submitBody
	if fields := bindJSON(c, &body); fields != nil {
		abortFail(c, http.StatusBadRequest, joinFields(fields))
		return
	}

	user := c.GetString(ctxIdentity)
	p := s.pending.Pending(user)
	if p == nil || p.ID != body.ExerciseID {
		abortFail(c, http.StatusConflict, "exercise is not pending")
		return
	}
	if *body.Answer >= len(p.Item.FinalStrings) {
		abortFail(c, http.StatusBadRequest, fmt.Sprintf("answer must be below %d", len(p.Item.FinalStrings)))
		return
	}
	if _, ok := s.pending.Take(user, body.ExerciseID); !ok {
		abortFail(c, http.StatusConflict, "exercise is not pending")
		return
	}

	correct := *body.Answer == p.Item.Answer
	s.log.Info().
		Str("identity", user).
		Str("exercise_id", p.ID).
		Int("answer", *body.Answer).
		Bool("correct", correct).
		Msg("answer graded")
	c.JSON(http.StatusOK, submitResponse{Success: true, Message: gradeMessage(p.Item, correct), Correct: correct})
}

// applyRating records a thumbs up or down for an exercise the caller
// answered.
func (s *Server) applyRating(c *gin.Context) {
	var body rateBody
	if fields := bindJSON(c, &body); fields != nil {
		abortFail(c, http.StatusBadRequest, joinFields(fields))
		return
	}

	user := c.GetString(ctxIdentity)
	prompt, ok := s.pending.Rate(user, body.ExerciseID, *body.Positive)
	if !ok {
		abortFail(c, http.StatusNotFound, "exercise not found")
		return
	}

	s.log.Info().
		Str("identity", user).
		Str("exercise_id", body.ExerciseID).
		Str("prompt", prompt).
		Bool("positive", *body.Positive).
		Msg("exercise rated")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func gradeMessage(it *authoring.Item, correct bool) string {
	if correct {
		return "correct"
	}
	return "incorrect, the answer was " + it.AnswerText()
}
