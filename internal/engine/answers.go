package engine

import "sort"

// AnswerSet maps question ids to answers. It is never mutated in place:
// With and Without return a new set and leave the receiver untouched.
type AnswerSet struct {
	m map[string]Value
}

// NewAnswerSet returns an empty set
func NewAnswerSet() AnswerSet {
	return AnswerSet{}
}

// AnswersFrom builds a set from a plain map, skipping empty values
func AnswersFrom(m map[string]Value) AnswerSet {
	set := AnswerSet{m: make(map[string]Value, len(m))}
	for id, v := range m {
		if !v.IsEmpty() {
			set.m[id] = v
		}
	}
	return set
}

// With returns a copy holding v for id. An empty v behaves like Without.
func (a AnswerSet) With(id string, v Value) AnswerSet {
	if v.IsEmpty() {
		return a.Without(id)
	}
	next := a.clone(len(a.m) + 1)
	next.m[id] = v
	return next
}

// Without returns a copy with id removed
func (a AnswerSet) Without(id string) AnswerSet {
	if _, ok := a.m[id]; !ok {
		return a
	}
	next := a.clone(len(a.m))
	delete(next.m, id)
	return next
}

func (a AnswerSet) clone(size int) AnswerSet {
	m := make(map[string]Value, size)
	for k, v := range a.m {
		m[k] = v
	}
	return AnswerSet{m: m}
}

// Get returns the answer for id
func (a AnswerSet) Get(id string) (Value, bool) {
	v, ok := a.m[id]
	return v, ok
}

// Answered reports whether id has a non-empty answer
func (a AnswerSet) Answered(id string) bool {
	v, ok := a.m[id]
	return ok && !v.IsEmpty()
}

func (a AnswerSet) Len() int { return len(a.m) }

// IDs returns the answered question ids in lexical order
func (a AnswerSet) IDs() []string {
	ids := make([]string, 0, len(a.m))
	for id := range a.m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Map returns a copy of the underlying answers
func (a AnswerSet) Map() map[string]Value {
	return a.clone(len(a.m)).m
}

// Wire returns the answers in their stored string form
func (a AnswerSet) Wire() map[string]string {
	out := make(map[string]string, len(a.m))
	for id, v := range a.m {
		out[id] = v.Wire()
	}
	return out
}
