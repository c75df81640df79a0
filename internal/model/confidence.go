package model

import "time"

// SessionStatus is the rectification state machine position
type SessionStatus string

const (
	StatusInitialized  SessionStatus = "initialized"
	StatusAccumulating SessionStatus = "accumulating"
	StatusConverged    SessionStatus = "converged"
	StatusExhausted    SessionStatus = "exhausted"
)

// Reliability is the coarse classification of the overall confidence
type Reliability string

const (
	ReliabilityLow      Reliability = "low"
	ReliabilityMedium   Reliability = "medium"
	ReliabilityHigh     Reliability = "high"
	ReliabilityVeryHigh Reliability = "very_high"
)

// ReliabilityFor classifies a 0-100 confidence
func ReliabilityFor(confidence float64) Reliability {
	switch {
	case confidence >= 90:
		return ReliabilityVeryHigh
	case confidence >= 75:
		return ReliabilityHigh
	case confidence >= 50:
		return ReliabilityMedium
	default:
		return ReliabilityLow
	}
}

// Span is a closed interval of instants
type Span struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies in [Start, End]
func (s Span) Contains(t time.Time) bool {
	return !t.Before(s.Start) && !t.After(s.End)
}

// Duration returns End - Start
func (s Span) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// CandidateWeight is the posterior weight of one candidate birth instant
type CandidateWeight struct {
	Instant  time.Time `json:"instant"`
	Weight   float64   `json:"weight"`
	InWindow bool      `json:"in_window"` // False for boundary probe candidates
}

// ConfidenceState is the full state of one rectification session. It is
// owned by exactly one session and only replaced through evidence application.
type ConfidenceState struct {
	SessionID       string            `json:"session_id"`
	Status          SessionStatus     `json:"status"`
	Window          Span              `json:"window"`
	Reported        time.Time         `json:"reported"`
	Candidates      []CandidateWeight `json:"candidates"`
	Applied         []AppliedEvidence `json:"applied"`
	Confidence      float64           `json:"confidence"` // 0-100
	Reliability     Reliability       `json:"reliability"`
	BestEstimate    time.Time         `json:"best_estimate"`
	BoundaryClamped bool              `json:"boundary_clamped"`
	Credible        Span              `json:"credible"` // Shortest span holding the configured posterior mass
}

// Clone returns a deep copy safe to hand to other goroutines
func (s ConfidenceState) Clone() ConfidenceState {
	out := s
	out.Candidates = append([]CandidateWeight(nil), s.Candidates...)
	out.Applied = append([]AppliedEvidence(nil), s.Applied...)
	return out
}

// Terminal reports whether no further evidence is accepted
func (s ConfidenceState) Terminal() bool {
	return s.Status == StatusExhausted
}

// AskedQuestions returns the question ids already answered, in order
func (s ConfidenceState) AskedQuestions() []string {
	ids := make([]string, 0, len(s.Applied))
	for _, a := range s.Applied {
		if a.Item.QuestionID != "" {
			ids = append(ids, a.Item.QuestionID)
		}
	}
	return ids
}

// Contradicted returns the last applied item when it lowered confidence
func (s ConfidenceState) Contradicted() (AppliedEvidence, bool) {
	if len(s.Applied) == 0 {
		return AppliedEvidence{}, false
	}
	last := s.Applied[len(s.Applied)-1]
	return last, last.Lowered()
}

// Brief returns the only view of a session handed to explanation generators
func (s ConfidenceState) Brief() ExplanationBrief {
	seen := make(map[EventTag]bool)
	var tags []EventTag
	for _, a := range s.Applied {
		if a.Informative && !seen[a.Item.Tag] {
			seen[a.Item.Tag] = true
			tags = append(tags, a.Item.Tag)
		}
	}
	return ExplanationBrief{
		RectifiedInstant: s.BestEstimate,
		Confidence:       s.Confidence,
		Reliability:      s.Reliability,
		EvidenceTags:     tags,
	}
}

// ExplanationBrief is the summary consumed by external explanation text generators
type ExplanationBrief struct {
	RectifiedInstant time.Time   `json:"rectified_instant"`
	Confidence       float64     `json:"confidence"`
	Reliability      Reliability `json:"reliability"`
	EvidenceTags     []EventTag  `json:"evidence_tags"`
}
