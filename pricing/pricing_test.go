package pricing

import (
	"testing"

	courseModels "lms/models/course"

	"github.com/stretchr/testify/assert"
)

func paidCourse() *courseModels.Course {
	c := &courseModels.Course{
		Title:  "Go From Zero",
		IsPaid: true,
		Price:  50000,
	}
	c.Sections = []courseModels.Section{
		{Title: "Basics", IsPaid: false},
		{Title: "Concurrency", IsPaid: true, Price: 15000},
		{Title: "Databases", IsPaid: true, Price: 20000},
	}
	c.Sections[0].ID = 1
	c.Sections[1].ID = 2
	c.Sections[2].ID = 3
	return c
}

func TestCoursePrice(t *testing.T) {
	c := paidCourse()
	assert.Equal(t, int64(50000), CoursePrice(c))

	free := &courseModels.Course{IsPaid: false, Price: 50000}
	assert.Equal(t, int64(0), CoursePrice(free))

	malformed := &courseModels.Course{IsPaid: true, Price: -5}
	assert.Equal(t, int64(0), CoursePrice(malformed))
}

func TestSectionPrice(t *testing.T) {
	paid := &courseModels.Section{IsPaid: true, Price: 15000}
	assert.Equal(t, int64(15000), SectionPrice(paid))

	free := &courseModels.Section{IsPaid: false, Price: 15000}
	assert.Equal(t, int64(0), SectionPrice(free))

	malformed := &courseModels.Section{IsPaid: true, Price: -1}
	assert.Equal(t, int64(0), SectionPrice(malformed))
}

func TestFullBreakdown(t *testing.T) {
	c := paidCourse()
	b := FullBreakdown(c)

	assert.Equal(t, int64(50000), b.CoursePrice)
	assert.Equal(t, int64(35000), b.SectionsPrice)
	assert.Equal(t, int64(85000), b.TotalPrice)

	// only premium sections are listed
	assert.Len(t, b.PaidSections, 2)
	assert.Equal(t, uint(2), b.PaidSections[0].SectionID)
	assert.Equal(t, uint(3), b.PaidSections[1].SectionID)
}

func TestFullAccessPriceConsistency(t *testing.T) {
	c := paidCourse()

	// full access always equals course price plus the sum of listed sections
	b := FullBreakdown(c)
	var sum int64
	for _, s := range b.PaidSections {
		sum += s.Price
	}
	assert.Equal(t, CoursePrice(c)+sum, FullAccessPrice(c))
}

func TestValidateAmount(t *testing.T) {
	c := paidCourse()

	assert.True(t, ValidateAmount(c, 50000, false))
	assert.True(t, ValidateAmount(c, 85000, true))

	// wrong tier for the flag
	assert.False(t, ValidateAmount(c, 85000, false))
	assert.False(t, ValidateAmount(c, 50000, true))
	assert.False(t, ValidateAmount(c, 0, false))
}

func TestFreeCourseQuotesZero(t *testing.T) {
	free := &courseModels.Course{
		IsPaid: false,
		Sections: []courseModels.Section{
			{IsPaid: true, Price: 9000},
		},
	}
	free.Sections[0].ID = 7

	b := FullBreakdown(free)
	assert.Equal(t, int64(0), b.CoursePrice)
	assert.Equal(t, int64(9000), b.TotalPrice)
	assert.True(t, ValidateAmount(free, 9000, true))
	assert.True(t, ValidateAmount(free, 0, false))
}
