// Package grades implements the grade-point ladder, the curriculum credit
// table, and the SGPA/CGPA arithmetic. Everything here is a pure function;
// persistence and parsing live elsewhere.
package grades

// ScoreRow is one normalized transcript line: a subject with its internal
// and external assessment scores.
type ScoreRow struct {
	SubjectCode string
	SubjectName string
	Internal    int
	External    int
}

// Total returns the combined score for the row.
func (r ScoreRow) Total() int {
	return r.Internal + r.External
}

// GradePoint maps a total score to grade points on the fixed university
// ladder. The ladder is an external contract: inclusive lower bounds, and an
// abrupt drop to 0 below 40 with no partial credit band.
func GradePoint(total int) int {
	switch {
	case total >= 90:
		return 10
	case total >= 80:
		return 9
	case total >= 70:
		return 8
	case total >= 60:
		return 7
	case total >= 50:
		return 6
	case total >= 40:
		return 5
	default:
		return 0
	}
}

// creditTable maps subject codes to credit weights, per curriculum scheme.
// Codes absent from the table carry 0 credits: their rows are still recorded
// but contribute no weight to the SGPA.
var creditTable = map[string]int{
	// 5th sem, 21 batch
	"21CS51": 3, "21CSL582": 1, "21CS52": 4, "21CS53": 3, "21CS54": 3,
	"21CSL55": 1, "21RMI56": 2, "21CIV57": 1,
	// 3rd sem, 21 batch
	"21MAT31": 3, "21CS382": 1, "21CS32": 4, "21CS33": 4, "21CS34": 3,
	"21CSL35": 1, "21SCR36": 1, "21KBK37": 1,
	// 3rd sem, 22 batch
	"BCS301": 4, "BCS302": 4, "BCS303": 4, "BCS304": 3, "BCSL305": 1,
	"BSCK307": 1, "BNSK359": 0, "BCS306A": 3, "BCS358C": 1,
	// 1st sem, 22 batch
	"BMATS101": 4, "BPHYS102": 4, "BPOPS103": 3, "BESCK104B": 3,
	"BETCK105I": 3, "BENGK106": 1, "BICOK107": 1, "BIDTK158": 1,
}

// Credits returns the credit weight for a subject code, 0 if unknown.
func Credits(subjectCode string) int {
	return creditTable[subjectCode]
}

// SGPA computes the credit-weighted grade-point average for one semester's
// rows. Returns 0 when the total credit weight is 0 rather than failing on
// the division.
func SGPA(rows []ScoreRow) float64 {
	totalPoints := 0
	totalCredits := 0

	for _, row := range rows {
		credits := Credits(row.SubjectCode)
		totalPoints += GradePoint(row.Total()) * credits
		totalCredits += credits
	}

	if totalCredits == 0 {
		return 0
	}
	return float64(totalPoints) / float64(totalCredits)
}

// CGPA computes the cumulative grade-point average across semesters. A
// single semester returns its SGPA exactly, so one data point is never
// distorted by averaging artifacts. An empty slice returns 0.
func CGPA(semesterSGPAs []float64) float64 {
	switch len(semesterSGPAs) {
	case 0:
		return 0
	case 1:
		return semesterSGPAs[0]
	}

	sum := 0.0
	for _, s := range semesterSGPAs {
		sum += s
	}
	return sum / float64(len(semesterSGPAs))
}
