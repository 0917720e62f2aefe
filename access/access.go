// Package access decides which course content a learner can open. Pure
// decision logic over a course's content tree and one enrollment row.
package access

import courseModels "lms/models/course"

// IsSectionAccessible reports whether the learner may open a section.
// Free sections are always open; paid sections require a COMPLETED payment
// and membership in the enrollment's paid-sections set. A full-access
// purchase is represented by that set containing every premium section id,
// so the check is uniform.
func IsSectionAccessible(section *courseModels.Section, enrollment *courseModels.Enrollment) bool {
	if !section.IsPaid {
		return true
	}
	if enrollment == nil || enrollment.PaymentStatus != courseModels.PaymentStatusCompleted {
		return false
	}
	return enrollment.HasPaidSection(section.ID)
}

// AccessibleLectureCount sums lecture counts over accessible sections.
// Locked content never depresses the learner's visible completion ratio,
// so this is the denominator for progress percent.
func AccessibleLectureCount(course *courseModels.Course, enrollment *courseModels.Enrollment) int {
	count := 0
	for i := range course.Sections {
		if IsSectionAccessible(&course.Sections[i], enrollment) {
			count += len(course.Sections[i].Lectures)
		}
	}
	return count
}

// AccessibleLectureIDs collects the ids of every lecture in an accessible
// section. Completions are filtered through this set before they count
// toward progress.
func AccessibleLectureIDs(course *courseModels.Course, enrollment *courseModels.Enrollment) map[uint]bool {
	ids := make(map[uint]bool)
	for i := range course.Sections {
		section := &course.Sections[i]
		if !IsSectionAccessible(section, enrollment) {
			continue
		}
		for j := range section.Lectures {
			ids[section.Lectures[j].ID] = true
		}
	}
	return ids
}

// ProgressPercent computes completed/accessible as a 0-100 percentage,
// 0 when nothing is accessible
func ProgressPercent(completedLectures int, accessibleLectures int) float64 {
	if accessibleLectures <= 0 {
		return 0
	}
	return float64(completedLectures) / float64(accessibleLectures) * 100
}
