package payment

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Purchase types stamped into transaction metadata at initialize time
const (
	PurchaseTypeCourseOnly = "COURSE_ONLY"
	PurchaseTypeFullAccess = "FULL_ACCESS"
	PurchaseTypeSection    = "SECTION"
)

// ErrUnknownMetadata is returned when a payload matches neither purchase shape
var ErrUnknownMetadata = errors.New("unrecognized payment metadata shape")

// Metadata is the tagged union carried through the gateway and returned on
// webhooks and verify calls: either a course purchase (optionally covering
// all premium sections) or a single-section purchase.
type Metadata struct {
	PurchaseType       string `json:"purchase_type"`
	CourseID           uint   `json:"course_id"`
	UserID             uint   `json:"user_id"`
	IncludeAllSections bool   `json:"include_all_sections,omitempty"`
	PaidSectionIDs     []uint `json:"paid_section_ids,omitempty"`
	SectionID          uint   `json:"section_id,omitempty"`
	EnrollmentID       uint   `json:"enrollment_id,omitempty"`
}

// IsSectionPurchase reports whether this transaction unlocks a single section
func (m Metadata) IsSectionPurchase() bool {
	return m.PurchaseType == PurchaseTypeSection
}

// CourseMetadata builds metadata for a course or full-access purchase
func CourseMetadata(courseID, userID uint, includeAllSections bool, paidSectionIDs []uint) Metadata {
	purchaseType := PurchaseTypeCourseOnly
	if includeAllSections {
		purchaseType = PurchaseTypeFullAccess
	}
	return Metadata{
		PurchaseType:       purchaseType,
		CourseID:           courseID,
		UserID:             userID,
		IncludeAllSections: includeAllSections,
		PaidSectionIDs:     paidSectionIDs,
	}
}

// SectionMetadata builds metadata for a single-section purchase
func SectionMetadata(sectionID, courseID, userID, enrollmentID uint) Metadata {
	return Metadata{
		PurchaseType: PurchaseTypeSection,
		SectionID:    sectionID,
		CourseID:     courseID,
		UserID:       userID,
		EnrollmentID: enrollmentID,
	}
}

// DecodeMetadata parses metadata coming back from the gateway,
// discriminating on purchase_type and rejecting unknown shapes. Paystack
// echoes metadata verbatim, but it still crossed the wire: nothing here is
// applied without the ledger re-checking it against stored state.
func DecodeMetadata(raw json.RawMessage) (Metadata, error) {
	var meta Metadata
	if len(raw) == 0 || string(raw) == "null" {
		return meta, fmt.Errorf("%w: empty payload", ErrUnknownMetadata)
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return meta, fmt.Errorf("%w: %v", ErrUnknownMetadata, err)
	}

	switch meta.PurchaseType {
	case PurchaseTypeSection:
		if meta.SectionID == 0 || meta.CourseID == 0 || meta.UserID == 0 {
			return meta, fmt.Errorf("%w: section purchase missing ids", ErrUnknownMetadata)
		}
	case PurchaseTypeCourseOnly, PurchaseTypeFullAccess:
		if meta.CourseID == 0 || meta.UserID == 0 {
			return meta, fmt.Errorf("%w: course purchase missing ids", ErrUnknownMetadata)
		}
	default:
		return meta, fmt.Errorf("%w: purchase_type %q", ErrUnknownMetadata, meta.PurchaseType)
	}
	return meta, nil
}
