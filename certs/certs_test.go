package certs

import (
	"errors"
	"strings"
	"testing"

	"lms/database"
	courseModels "lms/models/course"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeStore struct {
	puts int
	fail bool
}

func (s *fakeStore) Put(data []byte, contentType string) (string, error) {
	s.puts++
	if s.fail {
		return "", errors.New("connection refused")
	}
	return "https://cdn.example.com/certs/abc.svg", nil
}

func setup(t *testing.T) (*gorm.DB, *fakeStore, *Engine) {
	db, err := database.OpenTestDb()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	store := &fakeStore{}
	return db, store, NewEngine(db, store)
}

func scoredCourse() *courseModels.Course {
	c := &courseModels.Course{
		Title:                        "Distributed Systems",
		IsActive:                     true,
		CertificateEnabled:           true,
		CertificateRequireCompletion: true,
		CertificateRequireMinScore:   true,
		CertificateMinScore:          70,
	}
	c.ID = 1
	return c
}

func enrollmentAt(progress float64, total, max int) *courseModels.Enrollment {
	e := &courseModels.Enrollment{
		UserID:           1,
		CourseID:         1,
		PaymentStatus:    courseModels.PaymentStatusCompleted,
		ProgressPercent:  progress,
		TotalScore:       total,
		MaxPossibleScore: max,
	}
	return e
}

func TestScorePercent(t *testing.T) {
	assert.Equal(t, 0, ScorePercent(0, 0))
	assert.Equal(t, 0, ScorePercent(5, 0))
	assert.Equal(t, 50, ScorePercent(2, 4))
	assert.Equal(t, 67, ScorePercent(2, 3))
	assert.Equal(t, 100, ScorePercent(4, 4))
}

func TestEvaluatePolicyGates(t *testing.T) {
	_, store, engine := setup(t)
	course := scoredCourse()

	// disabled courses never issue
	disabled := scoredCourse()
	disabled.CertificateEnabled = false
	cert, err := engine.Evaluate(disabled, enrollmentAt(100, 10, 10), "Ada")
	assert.NoError(t, err)
	assert.Nil(t, cert)

	// incomplete course
	cert, err = engine.Evaluate(course, enrollmentAt(80, 10, 10), "Ada")
	assert.NoError(t, err)
	assert.Nil(t, cert)

	// complete but under the score bar: 13/20 = 65%
	cert, err = engine.Evaluate(course, enrollmentAt(100, 13, 20), "Ada")
	assert.NoError(t, err)
	assert.Nil(t, cert)

	assert.Equal(t, 0, store.puts)
}

func TestEvaluateIssuesOnce(t *testing.T) {
	db, store, engine := setup(t)
	course := scoredCourse()

	// score later climbs over the bar: 18/25 = 72%
	cert, err := engine.Evaluate(course, enrollmentAt(100, 18, 25), "Ada Lovelace")
	assert.NoError(t, err)
	assert.NotNil(t, cert)
	assert.Equal(t, "https://cdn.example.com/certs/abc.svg", cert.ImageURL)
	assert.Equal(t, 1, store.puts)

	// later evaluations return the existing certificate without re-uploading
	again, err := engine.Evaluate(course, enrollmentAt(100, 25, 25), "Ada Lovelace")
	assert.NoError(t, err)
	assert.Equal(t, cert.ID, again.ID)
	assert.Equal(t, 1, store.puts)

	var count int64
	db.Model(&courseModels.Certificate{}).
		Where("user_id = ? AND course_id = ?", 1, course.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestStoreFailureLeavesNoRowAndRetries(t *testing.T) {
	db, store, engine := setup(t)
	course := scoredCourse()
	store.fail = true

	cert, err := engine.Evaluate(course, enrollmentAt(100, 20, 20), "Ada")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Nil(t, cert)

	// no dangling row pointing at a missing artifact
	var count int64
	db.Model(&courseModels.Certificate{}).Count(&count)
	assert.Equal(t, int64(0), count)

	// the next evaluation succeeds once the store recovers
	store.fail = false
	cert, err = engine.Evaluate(course, enrollmentAt(100, 20, 20), "Ada")
	assert.NoError(t, err)
	assert.NotNil(t, cert)
}

func TestRenderSVG(t *testing.T) {
	svg := RenderSVG(ArtifactData{
		Student:   "Grace <Hopper>",
		Course:    "Compilers & Languages",
		Date:      "August 31, 2026",
		ScoreText: "Final Score: 91%",
	})

	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.Contains(t, svg, "Grace &lt;Hopper&gt;")
	assert.Contains(t, svg, "Compilers &amp; Languages")
	assert.Contains(t, svg, "Final Score: 91%")
	assert.NotContains(t, svg, "<Hopper>")
}
