package authoring

import (
	"context"
	"errors"
	"slices"
	"sync"
)

const chooseInstruction = "Choose the correct word to fill in the blank:"

// ErrExhausted is returned when a level has no items at all.
var ErrExhausted = errors.New("authoring: no exercises for this level")

var seedItems = map[Level][]Item{
	LevelA1: {
		seed([]string{"ir"}, "Nosotros ___ al parque los domingos.", 0, "a) vamos", "b) van", "c) voy", "d) vas"),
		seed([]string{"leer"}, "Ella ___ un libro interesante.", 3, "a) leo", "b) lees", "c) leemos", "d) lee"),
		seed([]string{"correr"}, "Tú ___ muy rápido.", 1, "a) corre", "b) corres", "c) corremos", "d) corren"),
		seed([]string{"tener"}, "Yo ___ un perro y dos gatos.", 2, "a) tiene", "b) tienes", "c) tengo", "d) tenemos"),
		seed([]string{"estar"}, "La leche ___ en la mesa.", 0, "a) está", "b) es", "c) estoy", "d) son"),
		seed([]string{"comer"}, "Mis padres ___ pan por la mañana.", 3, "a) come", "b) comes", "c) como", "d) comen"),
	},
	LevelA2: {
		seed([]string{"volver"}, "Ayer ___ a casa muy tarde.", 1, "a) vuelvo", "b) volví", "c) volvemos", "d) vuelven"),
		seed([]string{"necesitar", "maleta"}, "Para el viaje, ___ una maleta grande.", 2, "a) necesitas de", "b) necesito por", "c) necesito", "d) necesitando"),
		seed([]string{"abrir"}, "La tienda ___ a las nueve.", 0, "a) abre", "b) abro", "c) abrimos", "d) abren"),
		seed([]string{"lejos"}, "El aeropuerto está ___ de la ciudad.", 3, "a) cerca", "b) encima", "c) dentro", "d) lejos"),
	},
	LevelB1: {
		seed([]string{"gustar"}, "A mis amigos les ___ las películas de terror.", 2, "a) gusta", "b) gustan a", "c) gustan", "d) gustamos"),
		seed([]string{"soler"}, "Nosotros ___ cenar a las diez.", 1, "a) solemos de", "b) solemos", "c) suelen", "d) suelo"),
		seed([]string{"decidir"}, "Es importante que ___ pronto, antes de la reunión.", 0, "a) decidas", "b) decides", "c) decidiste", "d) decidir"),
	},
}

func seed(words []string, sentence string, answer int, choices ...string) Item {
	return Item{
		Words:          words,
		InitialStrings: []string{sentence},
		MiddleStrings:  []string{chooseInstruction},
		FinalStrings:   choices,
		Answer:         answer,
	}
}

// SeedBank serves built-in Spanish exercises in order, skipping sentences
// the learner has already seen. Once every item of a level has been seen it
// repeats the one seen longest ago. It is the generator used when no LLM is
// configured.
type SeedBank struct {
	mu   sync.Mutex
	next map[Level]int
}

// NewSeedBank creates a bank positioned at the first item of each level.
func NewSeedBank() *SeedBank {
	return &SeedBank{next: make(map[Level]int)}
}

func (b *SeedBank) Generate(ctx context.Context, req Request) (*Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	level := req.Level
	if level == "" {
		level = LevelA1
	}
	items := seedItems[level]
	if len(items) == 0 {
		return nil, ErrExhausted
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	start := b.next[level]
	for i := range items {
		idx := (start + i) % len(items)
		if slices.Contains(req.Prior, items[idx].Prompt()) {
			continue
		}
		b.next[level] = idx + 1
		return items[idx].clone(), nil
	}

	// Prior is oldest first and may repeat a sentence.
	lastSeen := make(map[string]int, len(req.Prior))
	for i, p := range req.Prior {
		lastSeen[p] = i
	}
	oldest, oldestAt := 0, len(req.Prior)
	for i := range items {
		if at := lastSeen[items[i].Prompt()]; at < oldestAt {
			oldest, oldestAt = i, at
		}
	}
	b.next[level] = oldest + 1
	return items[oldest].clone(), nil
}

// Len reports how many items the bank holds for level.
func (b *SeedBank) Len(level Level) int {
	return len(seedItems[level])
}
