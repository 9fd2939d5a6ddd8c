package engine

import (
	"strings"

	"github.com/villaedu/reserva/internal/model"
)

// QuotaConfig holds the per-category reservation limits for the two grade
// segments.  Early-years groups get their own limit set; every other grade
// falls into the primary segment.
type QuotaConfig struct {
	EarlyYears map[model.Category]int
	Primary    map[model.Category]int
}

// earlyYearGrades is the set of canonical grades in the early-years
// segment.  Grades outside this set use the primary limits.
var earlyYearGrades = map[string]bool{
	"Pre-K":        true,
	"Kindergarten": true,
}

// DefaultQuotas returns the limits used when no configuration overrides
// them: younger students borrow fewer items at a time.
func DefaultQuotas() QuotaConfig {
	return QuotaConfig{
		EarlyYears: map[model.Category]int{
			model.CategoryBook: 2,
			model.CategoryGame: 1,
			model.CategoryToy:  1,
		},
		Primary: map[model.Category]int{
			model.CategoryBook: 3,
			model.CategoryGame: 2,
			model.CategoryToy:  1,
		},
	}
}

// Limits returns the limit set applicable to a grade.
func (q QuotaConfig) Limits(grade string) map[model.Category]int {
	if earlyYearGrades[strings.TrimSpace(grade)] {
		return q.EarlyYears
	}
	return q.Primary
}

// QuotaRemaining counts the student's existing reservations per category
// and subtracts them from the segment limits for the given grade.  Counts
// never go below zero, even if limits were lowered after reservations were
// made.
func (e *ReservationEngine) QuotaRemaining(doc *model.Document, studentName, grade string) map[model.Category]int {
	limits := e.quotas.Limits(grade)
	remaining := make(map[model.Category]int, len(limits))
	for cat, limit := range limits {
		remaining[cat] = limit
	}
	for _, r := range doc.Reservations {
		if !sameName(r.StudentName, studentName) {
			continue
		}
		if _, ok := remaining[r.Category]; ok {
			remaining[r.Category]--
		}
	}
	for cat, n := range remaining {
		if n < 0 {
			remaining[cat] = 0
		}
	}
	return remaining
}

// sameName compares person names the way families type them: trimmed and
// case-insensitive.
func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
