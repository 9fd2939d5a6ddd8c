package report

import (
	"strings"
	"testing"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villaedu/reserva/internal/model"
)

func sampleDocument() *model.Document {
	guardian := "Maria Souza"
	student := "Pedro Souza"
	one := int64(1)
	return &model.Document{
		Items: []model.Item{
			{ID: 1, Title: "Atlas", Category: model.CategoryBook, Grade: "3", ClassName: "Morning", Available: false, ReservedByGuardian: &guardian, ReservedByStudent: &student},
			{ID: 2, Title: "Algebra", Category: model.CategoryBook, Grade: "3", ClassName: "Morning", Available: true},
			{ID: 3, Title: "Chess Set", Category: model.CategoryGame, Grade: "5", ClassName: "Afternoon", Available: true},
		},
		Reservations: []model.Reservation{
			{ReservationID: "1712000000", ItemID: &one, Category: model.CategoryBook, GuardianName: guardian, StudentName: student, Grade: "3", ClassName: "Morning", ItemTitle: "Atlas", Timestamp: "2026-03-01 10:00:00"},
			{ReservationID: "legacy-bialima-9f2a", Category: model.CategoryGame, GuardianName: "Ana Lima", StudentName: "Bia Lima", Grade: "5", ClassName: "Afternoon", ItemTitle: "Old Game", Timestamp: "2025-11-20 14:30:00"},
		},
	}
}

func TestBuildStats(t *testing.T) {
	s := BuildStats(sampleDocument())

	assert.Equal(t, 3, s.TotalItems)
	assert.Equal(t, 1, s.Reserved)
	assert.Equal(t, 2, s.Available)
	assert.Equal(t, 2, s.ByCategory[model.CategoryBook])
	assert.Equal(t, 1, s.ByCategory[model.CategoryGame])
	assert.Equal(t, GradeStats{TotalItems: 2, Reserved: 1}, s.ByGrade["3"])
	assert.Equal(t, GradeStats{TotalItems: 1, Reserved: 0}, s.ByGrade["5"])
}

func TestBuildStatsEmptyDocument(t *testing.T) {
	s := BuildStats(&model.Document{})
	assert.Equal(t, 0, s.TotalItems)
	assert.Empty(t, s.ByGrade)
}

func TestReservationRowsFilters(t *testing.T) {
	doc := sampleDocument()

	all := ReservationRows(doc, "", "")
	require.Len(t, all, 2)
	assert.Equal(t, "Atlas", all[0].ItemTitle, "append order is kept")

	byGrade := ReservationRows(doc, "5", "")
	require.Len(t, byGrade, 1)
	assert.Equal(t, "Bia Lima", byGrade[0].StudentName)

	byCategory := ReservationRows(doc, "", model.CategoryBook)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "1712000000", byCategory[0].ReservationID)

	assert.Empty(t, ReservationRows(doc, "9", model.CategoryToy))
}

func TestReservationRowsExportAsCSV(t *testing.T) {
	rows := ReservationRows(sampleDocument(), "", "")
	out, err := gocsv.MarshalString(&rows)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "reservation_id,item_title,category,guardian_name,student_name,grade,class_name,timestamp", strings.TrimSpace(lines[0]))
	assert.Contains(t, lines[1], "Atlas")
	assert.Contains(t, lines[2], "legacy-bialima-9f2a")
}
