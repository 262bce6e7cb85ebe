package authoring

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/repeticio/repeticio/internal/llm"
)

// Config controls LLMGenerator.
type Config struct {
	MaxTokens   int
	Temperature float64

	// WordsPerExercise is how many level words are offered when the
	// request names none.
	WordsPerExercise int

	// MaxPrior caps the already-served sentences included in the prompt.
	MaxPrior int
}

func DefaultConfig() Config {
	return Config{
		MaxTokens:        400,
		Temperature:      0.7,
		WordsPerExercise: 1,
		MaxPrior:         8,
	}
}

// LLMGenerator authors exercises with an llm.Provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
	rand     *rand.Rand
}

// NewLLMGenerator creates a generator.
func NewLLMGenerator(provider llm.Provider, cfg Config) *LLMGenerator {
	return &LLMGenerator{
		provider: provider,
		config:   cfg,
		rand:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// exerciseOutput is the raw model output.
type exerciseOutput struct {
	WordValues     []string `json:"word_values"`
	InitialStrings []string `json:"initial_strings"`
	MiddleStrings  []string `json:"middle_strings"`
	FinalStrings   []string `json:"final_strings"`
	Criteria       string   `json:"criteria"`
}

func (g *LLMGenerator) Generate(ctx context.Context, req Request) (*Item, error) {
	ctx = llm.WithPurpose(ctx, "exercise")
	if req.Level == "" {
		req.Level = LevelA1
	}

	words := req.Words
	if len(words) == 0 {
		words = pickWords(req.Level, g.config.WordsPerExercise, g.rand)
	}

	resp, err := g.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    llm.UserPrompt(buildUserMessage(req, words, g.config.MaxPrior)),
		Schema:      ExerciseSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generate exercise: %w", err)
	}

	var out exerciseOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse exercise: %w", err)
	}
	answer, err := criteriaIndex(out.Criteria)
	if err != nil {
		return nil, err
	}

	it := &Item{
		Words:          out.WordValues,
		InitialStrings: out.InitialStrings,
		MiddleStrings:  out.MiddleStrings,
		FinalStrings:   out.FinalStrings,
		Answer:         answer,
	}
	if len(it.Words) == 0 {
		it.Words = words
	}
	if verr := CheckItem(it, req.Prior); verr != nil {
		return nil, verr
	}
	return it, nil
}

// criteriaIndex maps the answer letter ("c", "C", "c)") to a choice index.
func criteriaIndex(c string) (int, error) {
	c = strings.ToLower(strings.TrimSpace(c))
	if c == "" || c[0] < 'a' || c[0] > 'z' || (len(c) > 1 && c[1:] != ")") {
		return 0, &ValidationError{Check: "answer", Message: fmt.Sprintf("criteria %q is not a choice letter", c)}
	}
	return int(c[0] - 'a'), nil
}
