package model

// EvidenceItem is one answered question from the rectification questionnaire
type EvidenceItem struct {
	QuestionID   string   `json:"question_id" yaml:"question_id"`
	Tag          EventTag `json:"tag" yaml:"tag"`
	Answer       string   `json:"answer" yaml:"answer"`                                   // "yes"/"no" for events, an option value for traits
	ReportedDate string   `json:"reported_date,omitempty" yaml:"reported_date,omitempty"` // YYYY-MM-DD, events only
	Weight       float64  `json:"weight" yaml:"weight"`                                   // Astrological significance, 0-1
}

// EventTag classifies what the evidence is about
type EventTag string

const (
	// Dated life events
	TagCareerChange       EventTag = "career_change"
	TagMarriage           EventTag = "marriage"
	TagRelationshipStart  EventTag = "relationship_start"
	TagRelocation         EventTag = "relocation"
	TagChildbirth         EventTag = "childbirth"
	TagHealthEvent        EventTag = "health_event"
	TagAccident           EventTag = "accident"
	TagParentLoss         EventTag = "parent_loss"
	TagEducationMilestone EventTag = "education_milestone"
	TagFinancialGain      EventTag = "financial_gain"

	// Undated traits
	TagTemperament  EventTag = "temperament"
	TagConstitution EventTag = "constitution"
	TagSpouseNature EventTag = "spouse_nature"
	TagWorkStyle    EventTag = "work_style"
)

const (
	AnswerYes = "yes"
	AnswerNo  = "no"
)

// AppliedEvidence records an item together with whether it moved the
// posterior and the confidence on either side of it
type AppliedEvidence struct {
	Item             EvidenceItem `json:"item"`
	Informative      bool         `json:"informative"`
	ConfidenceBefore float64      `json:"confidence_before"`
	ConfidenceAfter  float64      `json:"confidence_after"`
}

// Lowered reports whether the item reduced confidence, the sign of evidence
// that contradicts what was applied before it
func (a AppliedEvidence) Lowered() bool {
	return a.Informative && a.ConfidenceAfter < a.ConfidenceBefore-1e-9
}

// EventTags lists every dated life-event tag
var EventTags = []EventTag{
	TagCareerChange, TagMarriage, TagRelationshipStart, TagRelocation, TagChildbirth,
	TagHealthEvent, TagAccident, TagParentLoss, TagEducationMilestone, TagFinancialGain,
}

// TraitTags lists every undated categorical tag
var TraitTags = []EventTag{TagTemperament, TagConstitution, TagSpouseNature, TagWorkStyle}

// Dated reports whether the tag describes a life event tied to a date
func (t EventTag) Dated() bool {
	for _, e := range EventTags {
		if e == t {
			return true
		}
	}
	return false
}

// Known reports whether the tag is recognized
func (t EventTag) Known() bool {
	if t.Dated() {
		return true
	}
	for _, e := range TraitTags {
		if e == t {
			return true
		}
	}
	return false
}
