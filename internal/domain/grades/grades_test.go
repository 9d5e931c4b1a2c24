package grades

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGradePoint_LadderBoundaries(t *testing.T) {
	tests := []struct {
		name  string
		total int
		want  int
	}{
		{"zero", 0, 0},
		{"just below pass", 39, 0},
		{"pass threshold", 40, 5},
		{"top of pass band", 49, 5},
		{"fifty", 50, 6},
		{"sixty", 60, 7},
		{"seventy", 70, 8},
		{"eighty", 80, 9},
		{"just below distinction", 89, 9},
		{"distinction threshold", 90, 10},
		{"perfect score", 100, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GradePoint(tt.total))
		})
	}
}

func TestGradePoint_Monotonic(t *testing.T) {
	prev := GradePoint(0)
	for total := 1; total <= 100; total++ {
		point := GradePoint(total)
		require.GreaterOrEqual(t, point, prev, "grade point dropped at total %d", total)
		prev = point
	}
}

func TestScoreRow_Total(t *testing.T) {
	row := ScoreRow{SubjectCode: "BCS301", Internal: 28, External: 55}
	assert.Equal(t, 83, row.Total())
}

func TestCredits(t *testing.T) {
	assert.Equal(t, 4, Credits("BCS301"))
	assert.Equal(t, 1, Credits("21CIV57"))
	assert.Equal(t, 0, Credits("UNKNOWN999"), "codes outside the table carry no weight")
}

func TestSGPA(t *testing.T) {
	t.Run("credit weighted average", func(t *testing.T) {
		// BCS301 (4 credits, total 92 -> 10 points) and BCS304 (3 credits,
		// total 65 -> 7 points): (40+21)/7.
		rows := []ScoreRow{
			{SubjectCode: "BCS301", Internal: 45, External: 47},
			{SubjectCode: "BCS304", Internal: 30, External: 35},
		}
		assert.InDelta(t, 61.0/7.0, SGPA(rows), 1e-9)
	})

	t.Run("unknown subjects contribute nothing", func(t *testing.T) {
		rows := []ScoreRow{
			{SubjectCode: "BCS301", Internal: 45, External: 47},
			{SubjectCode: "UNKNOWN999", Internal: 50, External: 50},
		}
		assert.InDelta(t, 10.0, SGPA(rows), 1e-9)
	})

	t.Run("zero total credits yields zero, not NaN", func(t *testing.T) {
		rows := []ScoreRow{
			{SubjectCode: "UNKNOWN999", Internal: 50, External: 50},
		}
		assert.Equal(t, 0.0, SGPA(rows))
		assert.Equal(t, 0.0, SGPA(nil))
	})

	t.Run("failed subject drags the average", func(t *testing.T) {
		// BCS302 total 39 -> 0 points on 4 credits.
		rows := []ScoreRow{
			{SubjectCode: "BCS301", Internal: 45, External: 47},
			{SubjectCode: "BCS302", Internal: 20, External: 19},
		}
		assert.InDelta(t, 40.0/8.0, SGPA(rows), 1e-9)
	})
}

func TestCGPA(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, 0.0, CGPA(nil))
	})

	t.Run("single semester is returned exactly", func(t *testing.T) {
		assert.Equal(t, 9.43, CGPA([]float64{9.43}))
	})

	t.Run("mean across semesters", func(t *testing.T) {
		assert.InDelta(t, 8.5, CGPA([]float64{8.0, 9.0}), 1e-9)
		assert.InDelta(t, 8.0, CGPA([]float64{7.5, 8.0, 8.5}), 1e-9)
	})
}
