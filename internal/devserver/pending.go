package devserver

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/repeticio/repeticio/internal/authoring"
)

// maxPrior caps the served-sentence history kept per user.
const maxPrior = 20

// maxAnswered caps how many answered exercises per user can still be rated.
const maxAnswered = 50

// issued is an exercise handed to a user and not yet answered.
type issued struct {
	ID       string
	Item     *authoring.Item
	IssuedAt time.Time
}

type answered struct {
	ID     string
	Prompt string
}

type userState struct {
	pending  *issued
	prior    []string
	answered []answered
	ratings  map[string]bool
}

// registry tracks at most one pending exercise per user.
type registry struct {
	mu    sync.Mutex
	users map[string]*userState
	now   func() time.Time
}

func newRegistry() *registry {
	return &registry{users: make(map[string]*userState), now: time.Now}
}

func (r *registry) user(id string) *userState {
	u, ok := r.users[id]
	if !ok {
		u = &userState{}
		r.users[id] = u
	}
	return u
}

// Pending returns the user's unanswered exercise, if any.
func (r *registry) Pending(user string) *issued {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.user(user).pending
}

// Prior returns a copy of the sentences already served to user.
func (r *registry) Prior(user string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.user(user).prior...)
}

// Issue records item as the user's pending exercise under a fresh id. If
// another request issued one first, that one wins and is returned.
func (r *registry) Issue(user string, item *authoring.Item) *issued {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.user(user)
	if u.pending != nil {
		return u.pending
	}
	u.pending = &issued{ID: uuid.NewString(), Item: item, IssuedAt: r.now()}
	u.prior = append(u.prior, item.Prompt())
	if len(u.prior) > maxPrior {
		u.prior = u.prior[len(u.prior)-maxPrior:]
	}
	return u.pending
}

// Take removes and returns the pending exercise when its id matches.
func (r *registry) Take(user, id string) (*issued, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.user(user)
	if u.pending == nil || u.pending.ID != id {
		return nil, false
	}
	p := u.pending
	u.pending = nil
	u.answered = append(u.answered, answered{ID: p.ID, Prompt: p.Item.Prompt()})
	if len(u.answered) > maxAnswered {
		for _, a := range u.answered[:len(u.answered)-maxAnswered] {
			delete(u.ratings, a.ID)
		}
		u.answered = u.answered[len(u.answered)-maxAnswered:]
	}
	return p, true
}

// Rate records positive for an exercise the user answered. It reports
// false when the exercise is unknown or too old. A later rating replaces an
// earlier one.
func (r *registry) Rate(user, id string, positive bool) (prompt string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.user(user)
	for _, a := range u.answered {
		if a.ID != id {
			continue
		}
		if u.ratings == nil {
			u.ratings = make(map[string]bool)
		}
		u.ratings[id] = positive
		return a.Prompt, true
	}
	return "", false
}

// Rating returns the user's rating for id, if any.
func (r *registry) Rating(user, id string) (positive, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	positive, ok = r.user(user).ratings[id]
	return positive, ok
}
