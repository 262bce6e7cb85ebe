package authoring

import (
	"fmt"
	"strings"
)

const systemPrompt = `You write multiple-choice exercises for a Spanish course.

Rules:
- Write one natural sentence with exactly one blank (___) where the correct word goes.
- The sentence must use or practice the target words and suit the given level.
- Give the instruction "` + chooseInstruction + `" as the only middle string.
- Provide 3 to 5 choices labelled a), b), c), d), e). Exactly one is correct; distractors should be plausible forms of the same word.
- Set criteria to the letter of the correct choice.
- Do not reuse any sentence from the "already served" list.`

// buildUserMessage renders the per-request part of the prompt.
func buildUserMessage(req Request, words []string, maxPrior int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Level: %s\n", req.Level)
	fmt.Fprintf(&b, "Target words: %s\n", strings.Join(words, ", "))

	b.WriteString("\nAlready served:\n")
	prior := req.Prior
	if maxPrior > 0 && len(prior) > maxPrior {
		prior = prior[len(prior)-maxPrior:]
	}
	if len(prior) == 0 {
		b.WriteString("None")
	}
	for i, p := range prior {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, p)
	}
	return b.String()
}
