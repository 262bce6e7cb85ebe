package exercise

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validExercise() *Exercise {
	return &Exercise{
		ID:             "ex42",
		InitialStrings: []string{"Nosotros ___ al parque los domingos."},
		MiddleStrings:  []string{"Choose the correct word to fill in the blank:"},
		FinalStrings:   []string{"a) vamos", "b) van", "c) voy", "d) vas"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(e *Exercise)
		wantErr error
	}{
		{"valid", func(e *Exercise) {}, nil},
		{"missing id", func(e *Exercise) { e.ID = "" }, ErrMissingID},
		{"empty initial", func(e *Exercise) { e.InitialStrings = []string{} }, ErrIncomplete},
		{"nil middle", func(e *Exercise) { e.MiddleStrings = nil }, ErrIncomplete},
		{"empty final", func(e *Exercise) { e.FinalStrings = nil }, ErrIncomplete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validExercise()
			tt.mutate(e)
			err := e.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	var e *Exercise
	assert.ErrorIs(t, e.Validate(), ErrIncomplete)
}

func TestChoices(t *testing.T) {
	e := validExercise()
	choices := e.Choices()
	require.Len(t, choices, 4)
	for i, c := range choices {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, e.FinalStrings[i], c.Text)
	}
}

func TestHasChoice(t *testing.T) {
	e := validExercise()
	assert.True(t, e.HasChoice(0))
	assert.True(t, e.HasChoice(3))
	assert.False(t, e.HasChoice(4))
	assert.False(t, e.HasChoice(-1))
}

func TestClone_Independent(t *testing.T) {
	e := validExercise()
	c := e.Clone()
	c.FinalStrings[0] = "changed"
	assert.Equal(t, "a) vamos", e.FinalStrings[0])
	assert.Equal(t, e.ID, c.ID)
}

func TestNewResult(t *testing.T) {
	yes := true
	r := NewResult(json.RawMessage(`"correct"`), &yes)
	assert.Equal(t, "correct", r.Message)
	require.NotNil(t, r.Correct)
	assert.True(t, *r.Correct)

	r = NewResult(json.RawMessage(`{"score":1}`), nil)
	assert.Equal(t, `{"score":1}`, r.Message)
	assert.Nil(t, r.Correct)
}
