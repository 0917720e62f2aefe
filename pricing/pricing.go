// Package pricing computes checkout amounts for courses and premium
// sections. All amounts are minor currency units. No I/O.
package pricing

import courseModels "lms/models/course"

// PaidSection pairs a premium section id with its price at quote time
type PaidSection struct {
	SectionID uint  `json:"section_id"`
	Price     int64 `json:"price"`
}

// Breakdown is the full-access quote returned to the checkout caller
type Breakdown struct {
	CoursePrice   int64         `json:"course_price"`
	SectionsPrice int64         `json:"sections_price"`
	TotalPrice    int64         `json:"total_price"`
	PaidSections  []PaidSection `json:"paid_sections"`
}

// CoursePrice returns the course-only price, 0 for free courses.
// Negative catalog prices are treated as malformed and quoted as 0.
func CoursePrice(c *courseModels.Course) int64 {
	if !c.IsPaid || c.Price < 0 {
		return 0
	}
	return c.Price
}

// SectionPrice returns the section's own price, 0 for free sections
func SectionPrice(s *courseModels.Section) int64 {
	if !s.IsPaid || s.Price < 0 {
		return 0
	}
	return s.Price
}

// FullAccessPrice is the course price plus every premium section's price
func FullAccessPrice(c *courseModels.Course) int64 {
	return FullBreakdown(c).TotalPrice
}

// FullBreakdown quotes course plus all premium sections, listing the
// sections included so the checkout metadata can carry their ids
func FullBreakdown(c *courseModels.Course) Breakdown {
	b := Breakdown{CoursePrice: CoursePrice(c)}
	for i := range c.Sections {
		s := &c.Sections[i]
		if !s.IsPaid {
			continue
		}
		price := SectionPrice(s)
		b.PaidSections = append(b.PaidSections, PaidSection{SectionID: s.ID, Price: price})
		b.SectionsPrice += price
	}
	b.TotalPrice = b.CoursePrice + b.SectionsPrice
	return b
}

// ValidateAmount checks a client-supplied checkout amount against the
// current quote. The amount quoted here is the amount reconciliation will
// later trust from payment metadata; it is validated once, at initialize.
func ValidateAmount(c *courseModels.Course, amount int64, includeAllSections bool) bool {
	if includeAllSections {
		return FullAccessPrice(c) == amount
	}
	return CoursePrice(c) == amount
}
