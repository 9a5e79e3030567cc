package engine

import (
	"datalingua/internal/model"
	"hash/fnv"
	"math/rand"
)

// ShuffledOptions returns the options of q in presentation order. When the
// question asks for randomized order the options are shuffled with a seed
// derived from seed, so one respondent always sees the same order.
func ShuffledOptions(q model.Question, seed string) []string {
	opts := append([]string{}, q.Options...)
	if q.MultipleChoiceSettings == nil || !q.MultipleChoiceSettings.RandomizeOrder {
		return opts
	}
	h := fnv.New64a()
	h.Write([]byte(q.ID))
	h.Write([]byte{0})
	h.Write([]byte(seed))
	r := rand.New(rand.NewSource(int64(h.Sum64())))
	r.Shuffle(len(opts), func(i, j int) { opts[i], opts[j] = opts[j], opts[i] })
	return opts
}
