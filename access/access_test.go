package access

import (
	"testing"

	courseModels "lms/models/course"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func contentTree() *courseModels.Course {
	c := &courseModels.Course{IsPaid: true, Price: 40000}
	c.Sections = []courseModels.Section{
		{IsPaid: false, Lectures: make([]courseModels.Lecture, 3)},
		{IsPaid: true, Price: 10000, Lectures: make([]courseModels.Lecture, 2)},
		{IsPaid: true, Price: 12000, Lectures: make([]courseModels.Lecture, 5)},
	}
	c.Sections[0].ID = 10
	c.Sections[1].ID = 11
	c.Sections[2].ID = 12
	return c
}

func completedEnrollment(paid ...uint) *courseModels.Enrollment {
	return &courseModels.Enrollment{
		PaymentStatus: courseModels.PaymentStatusCompleted,
		PaidSections:  datatypes.NewJSONSlice(paid),
	}
}

func TestFreeSectionAlwaysAccessible(t *testing.T) {
	c := contentTree()

	assert.True(t, IsSectionAccessible(&c.Sections[0], nil))
	assert.True(t, IsSectionAccessible(&c.Sections[0], completedEnrollment()))
}

func TestPaidSectionRequiresCompletedPaymentAndMembership(t *testing.T) {
	c := contentTree()
	paid := &c.Sections[1]

	assert.False(t, IsSectionAccessible(paid, nil))

	pending := &courseModels.Enrollment{
		PaymentStatus: courseModels.PaymentStatusPending,
		PaidSections:  datatypes.NewJSONSlice([]uint{11}),
	}
	assert.False(t, IsSectionAccessible(paid, pending))

	// completed but section not in the paid set
	assert.False(t, IsSectionAccessible(paid, completedEnrollment(12)))

	assert.True(t, IsSectionAccessible(paid, completedEnrollment(11)))
}

func TestAccessibleLectureCount(t *testing.T) {
	c := contentTree()

	// nothing purchased: only the free section counts
	assert.Equal(t, 3, AccessibleLectureCount(c, nil))
	assert.Equal(t, 3, AccessibleLectureCount(c, completedEnrollment()))

	// one premium section unlocked
	assert.Equal(t, 5, AccessibleLectureCount(c, completedEnrollment(11)))

	// full access
	assert.Equal(t, 10, AccessibleLectureCount(c, completedEnrollment(11, 12)))
}

func TestAccessibleLectureIDs(t *testing.T) {
	c := contentTree()
	var next uint = 100
	for i := range c.Sections {
		for j := range c.Sections[i].Lectures {
			c.Sections[i].Lectures[j].ID = next
			next++
		}
	}

	ids := AccessibleLectureIDs(c, completedEnrollment(11))
	assert.Len(t, ids, 5)
	// free section
	assert.True(t, ids[100])
	assert.True(t, ids[102])
	// unlocked premium section
	assert.True(t, ids[103])
	assert.True(t, ids[104])
	// locked premium section stays out
	assert.False(t, ids[105])

	// the set and the count agree on the denominator
	assert.Equal(t, AccessibleLectureCount(c, completedEnrollment(11)), len(ids))
}

func TestProgressPercent(t *testing.T) {
	assert.Equal(t, float64(0), ProgressPercent(0, 0))
	assert.Equal(t, float64(0), ProgressPercent(5, 0))
	assert.Equal(t, float64(50), ProgressPercent(1, 2))
	assert.Equal(t, float64(100), ProgressPercent(10, 10))
}

func TestUnlockingNeverShrinksAccess(t *testing.T) {
	c := contentTree()

	before := AccessibleLectureCount(c, completedEnrollment(11))
	after := AccessibleLectureCount(c, completedEnrollment(11, 12))
	assert.GreaterOrEqual(t, after, before)
}
