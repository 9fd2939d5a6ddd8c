// Package report builds read-only projections over the normalized document
// for the admin dashboard.  Nothing in this package writes; the projections
// are plain values computed from the document a handler just read.
package report

import (
	"github.com/villaedu/reserva/internal/model"
)

// Stats summarizes the inventory for the admin dashboard.
type Stats struct {
	TotalItems int                    `json:"total_items"`
	Reserved   int                    `json:"reserved"`
	Available  int                    `json:"available"`
	ByCategory map[model.Category]int `json:"by_category"`
	ByGrade    map[string]GradeStats  `json:"by_grade"`
}

// GradeStats is the per-grade slice of the summary.
type GradeStats struct {
	TotalItems int `json:"total_items"`
	Reserved   int `json:"reserved"`
}

// BuildStats computes the summary in one pass over the items.
func BuildStats(doc *model.Document) Stats {
	s := Stats{
		ByCategory: make(map[model.Category]int),
		ByGrade:    make(map[string]GradeStats),
	}
	for _, item := range doc.Items {
		s.TotalItems++
		s.ByCategory[item.Category]++
		g := s.ByGrade[item.Grade]
		g.TotalItems++
		if item.Available {
			s.Available++
		} else {
			s.Reserved++
			g.Reserved++
		}
		s.ByGrade[item.Grade] = g
	}
	return s
}

// ReservationRow is one row of the admin reservations table and of the CSV
// export.  The csv tags drive the export encoding.
type ReservationRow struct {
	ReservationID string `json:"reservation_id" csv:"reservation_id"`
	ItemTitle     string `json:"item_title" csv:"item_title"`
	Category      string `json:"category" csv:"category"`
	GuardianName  string `json:"guardian_name" csv:"guardian_name"`
	StudentName   string `json:"student_name" csv:"student_name"`
	Grade         string `json:"grade" csv:"grade"`
	ClassName     string `json:"class_name" csv:"class_name"`
	Timestamp     string `json:"timestamp" csv:"timestamp"`
}

// ReservationRows projects the reservation list, optionally filtered by
// grade and category.  Empty filter values match everything.  Order
// follows the document's append order, oldest first.
func ReservationRows(doc *model.Document, grade string, category model.Category) []ReservationRow {
	rows := make([]ReservationRow, 0, len(doc.Reservations))
	for _, r := range doc.Reservations {
		if grade != "" && r.Grade != grade {
			continue
		}
		if category != "" && r.Category != category {
			continue
		}
		rows = append(rows, ReservationRow{
			ReservationID: r.ReservationID,
			ItemTitle:     r.ItemTitle,
			Category:      string(r.Category),
			GuardianName:  r.GuardianName,
			StudentName:   r.StudentName,
			Grade:         r.Grade,
			ClassName:     r.ClassName,
			Timestamp:     r.Timestamp,
		})
	}
	return rows
}
