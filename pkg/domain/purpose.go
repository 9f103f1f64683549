package domain

import (
	"strings"
)

// VisitPurpose is the reason a visitor gives for the visit.
// Invariant: non-empty after trimming. PurposeOther requires a free-text
// reason alongside it; Resolve folds the two together for submission.
type VisitPurpose string

// PurposeOther selects the free-text reason field.
const PurposeOther VisitPurpose = "Other"

// DefaultPurposes is the selection offered when configuration supplies none.
var DefaultPurposes = []VisitPurpose{
	"Meeting",
	"Interview",
	"Delivery",
	"Maintenance",
	PurposeOther,
}

// IsOther reports whether the purpose selects the free-text reason.
func (p VisitPurpose) IsOther() bool {
	return strings.TrimSpace(string(p)) == string(PurposeOther)
}

// Resolve returns the purpose as submitted: the other reason when the
// purpose is Other, the purpose itself otherwise.
func (p VisitPurpose) Resolve(otherReason string) string {
	if p.IsOther() {
		return strings.TrimSpace(otherReason)
	}
	return strings.TrimSpace(string(p))
}

func (p VisitPurpose) String() string {
	return string(p)
}
