// Reaction kinds and the per-photo mark record shared between the toggle
// store, services, and the HTTP layer.
package domain

// ReactionKind is one of the three fixed reaction categories a participant
// can apply to a photo.
type ReactionKind string

// The full, closed set of reaction kinds.
const (
	ReactionHeart   ReactionKind = "heart"
	ReactionFire    ReactionKind = "fire"
	ReactionHundred ReactionKind = "hundred"
)

// ReactionKinds returns the closed kind set in display order.
func ReactionKinds() []ReactionKind {
	return []ReactionKind{ReactionHeart, ReactionFire, ReactionHundred}
}

// ValidReactionKind reports whether k is a member of the closed kind set.
func ValidReactionKind(k ReactionKind) bool {
	switch k {
	case ReactionHeart, ReactionFire, ReactionHundred:
		return true
	}
	return false
}

// ReactionMarks records which kinds the local player has toggled on a single
// photo. Absent fields mean "not reacted" (the JSON blob stays sparse).
type ReactionMarks struct {
	Heart   bool `json:"heart,omitempty"`
	Fire    bool `json:"fire,omitempty"`
	Hundred bool `json:"hundred,omitempty"`
}

// Get returns the mark for kind k. Unknown kinds read as false.
func (m ReactionMarks) Get(k ReactionKind) bool {
	switch k {
	case ReactionHeart:
		return m.Heart
	case ReactionFire:
		return m.Fire
	case ReactionHundred:
		return m.Hundred
	}
	return false
}

// Set assigns the mark for kind k. Unknown kinds are ignored.
func (m *ReactionMarks) Set(k ReactionKind, v bool) {
	switch k {
	case ReactionHeart:
		m.Heart = v
	case ReactionFire:
		m.Fire = v
	case ReactionHundred:
		m.Hundred = v
	}
}

// Empty reports whether no kind is marked; empty records are pruned from the
// persisted blob to keep the sparse representation.
func (m ReactionMarks) Empty() bool {
	return !m.Heart && !m.Fire && !m.Hundred
}
