package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/villaedu/reserva/internal/model"
	"github.com/villaedu/reserva/internal/store"
)

// RosterEngine resolves family identities against the student roster and
// performs the administrative bulk import.  Like the reservation engine it
// mutates a private document copy and ends a batch in exactly one
// conditional write.
type RosterEngine struct {
	store store.Store
}

// NewRosterEngine constructs a roster engine bound to a document store.
func NewRosterEngine(st store.Store) *RosterEngine {
	if st == nil {
		panic("nil store passed to NewRosterEngine")
	}
	return &RosterEngine{store: st}
}

// RosterRow is one row of a roster import file.  The csv tags name the
// required columns; the grade and shift columns carry the school system's
// external codes, mapped to the canonical vocabulary on import.
type RosterRow struct {
	ContactKey   string `csv:"contact_key" json:"contact_key"`
	StudentName  string `csv:"student_name" json:"student_name"`
	GradeCode    string `csv:"grade_code" json:"grade_code"`
	ShiftCode    string `csv:"shift_code" json:"shift_code"`
	GuardianName string `csv:"guardian_name" json:"guardian_name"`
}

// gradeCodes maps the school system's grade codes to the canonical grade
// vocabulary used throughout the document.
var gradeCodes = map[string]string{
	"PK": "Pre-K",
	"K0": "Kindergarten",
	"G1": "1",
	"G2": "2",
	"G3": "3",
	"G4": "4",
	"G5": "5",
	"G6": "6",
	"G7": "7",
	"G8": "8",
	"G9": "9",
}

// shiftCodes maps shift codes to canonical class names.
var shiftCodes = map[string]string{
	"M": "Morning",
	"A": "Afternoon",
	"F": "Full Day",
}

// MapGradeCode translates an external grade code.  Unknown codes pass
// through as their raw string rather than being rejected; the roster is
// imported leniently and corrected by hand where needed.
func MapGradeCode(code string) string {
	c := strings.ToUpper(strings.TrimSpace(code))
	if canonical, ok := gradeCodes[c]; ok {
		return canonical
	}
	return strings.TrimSpace(code)
}

// MapShiftCode translates an external shift code, lenient like
// MapGradeCode.
func MapShiftCode(code string) string {
	c := strings.ToUpper(strings.TrimSpace(code))
	if canonical, ok := shiftCodes[c]; ok {
		return canonical
	}
	return strings.TrimSpace(code)
}

// ResolveByContactKey returns every roster entry whose primary or
// secondary contact key matches, case-insensitively and ignoring
// whitespace.  One guardian may have several children, so all matches are
// returned and disambiguation is left to the caller.
func (r *RosterEngine) ResolveByContactKey(doc *model.Document, key string) []model.StudentRecord {
	var out []model.StudentRecord
	for _, s := range doc.Students {
		if s.MatchesContactKey(key) {
			out = append(out, s)
		}
	}
	return out
}

// ImportBatch validates, maps and merges a batch of roster rows, then
// performs a single conditional write for the whole batch.  Rows whose
// dedup key (lowercase contact key + student name) already exists are
// skipped, never overwritten.  Any invalid row fails the whole batch
// before the document is touched.  It returns the number of records
// actually added.
func (r *RosterEngine) ImportBatch(ctx context.Context, doc *model.Document, token string, rows []RosterRow) (int, error) {
	for i, row := range rows {
		if strings.TrimSpace(row.ContactKey) == "" {
			return 0, fmt.Errorf("%w: row %d: contact_key is required", ErrValidation, i+1)
		}
		if strings.TrimSpace(row.StudentName) == "" {
			return 0, fmt.Errorf("%w: row %d: student_name is required", ErrValidation, i+1)
		}
	}

	existing := make(map[string]bool, len(doc.Students))
	for _, s := range doc.Students {
		existing[s.DedupKey()] = true
	}

	added := 0
	for _, row := range rows {
		rec := model.StudentRecord{
			ContactKey:    strings.TrimSpace(row.ContactKey),
			Name:          strings.TrimSpace(row.StudentName),
			Grade:         MapGradeCode(row.GradeCode),
			ClassName:     MapShiftCode(row.ShiftCode),
			GuardianLabel: strings.TrimSpace(row.GuardianName),
		}
		if existing[rec.DedupKey()] {
			continue
		}
		existing[rec.DedupKey()] = true
		doc.Students = append(doc.Students, rec)
		added++
	}
	if added == 0 {
		// Nothing changed, no write needed.
		return 0, nil
	}
	msg := fmt.Sprintf("Admin imported %d roster record(s)", added)
	if err := r.submit(ctx, doc, token, msg); err != nil {
		return 0, err
	}
	return added, nil
}

// AddStudent appends one manually entered roster record, deduplicated the
// same way as the bulk import.
func (r *RosterEngine) AddStudent(ctx context.Context, doc *model.Document, token string, rec model.StudentRecord) error {
	if strings.TrimSpace(rec.ContactKey) == "" || strings.TrimSpace(rec.Name) == "" {
		return fmt.Errorf("%w: contact key and name are required", ErrValidation)
	}
	for _, s := range doc.Students {
		if s.DedupKey() == rec.DedupKey() {
			return fmt.Errorf("%w: student already on roster", ErrValidation)
		}
	}
	doc.Students = append(doc.Students, rec)
	return r.submit(ctx, doc, token, fmt.Sprintf("Admin added roster record for %s", rec.Name))
}

// DeleteStudent removes the roster records identified by contact key and
// student name.  A student re-registered across grades may have several
// records under the same identity; all of them go.
func (r *RosterEngine) DeleteStudent(ctx context.Context, doc *model.Document, token, contactKey, name string) error {
	kept := doc.Students[:0]
	removed := 0
	for _, s := range doc.Students {
		if s.MatchesIdentity(contactKey, name) {
			removed++
			continue
		}
		kept = append(kept, s)
	}
	if removed == 0 {
		return ErrNotFound
	}
	doc.Students = kept
	return r.submit(ctx, doc, token, fmt.Sprintf("Admin removed roster record for %s", name))
}

// submit mirrors ReservationEngine.submit for roster operations.
func (r *RosterEngine) submit(ctx context.Context, doc *model.Document, token, message string) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	outcome, _, err := r.store.Write(ctx, raw, token, message)
	if err != nil {
		return err
	}
	if outcome == store.WriteConflict {
		return ErrConflict
	}
	return nil
}
