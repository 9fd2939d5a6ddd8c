package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/labstack/echo/v4"

	"github.com/villaedu/reserva/internal/engine"
	"github.com/villaedu/reserva/internal/model"
)

// requiredRosterColumns are the column names an import file must carry.
// Their absence is a hard validation error before any row is processed.
var requiredRosterColumns = []string{"contact_key", "student_name", "grade_code", "shift_code", "guardian_name"}

// ListStudents handles GET /v1/admin/students.
func (h *AdminHandler) ListStudents(c echo.Context) error {
	doc, _, err := loadDocument(c.Request().Context(), h.Store)
	if err != nil {
		return writeEngineError(c, err)
	}
	students := doc.Students
	if students == nil {
		students = []model.StudentRecord{}
	}
	return c.JSON(http.StatusOK, echo.Map{"students": students})
}

// AddStudent handles POST /v1/admin/students with one manually entered
// roster record.
func (h *AdminHandler) AddStudent(c echo.Context) error {
	var body struct {
		ContactKey    string `json:"contact_key"`
		AltContactKey string `json:"alt_contact_key"`
		Name          string `json:"name"`
		Grade         string `json:"grade"`
		ClassName     string `json:"class_name"`
		GuardianLabel string `json:"guardian_label"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	rec := model.StudentRecord{
		ContactKey:    body.ContactKey,
		AltContactKey: body.AltContactKey,
		Name:          body.Name,
		Grade:         body.Grade,
		ClassName:     body.ClassName,
		GuardianLabel: body.GuardianLabel,
	}
	ctx := c.Request().Context()
	doc, token, err := loadDocument(ctx, h.Store)
	if err != nil {
		return writeEngineError(c, err)
	}
	if err := h.Roster.AddStudent(ctx, doc, token, rec); err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"student": rec})
}

// DeleteStudent handles DELETE /v1/admin/students, identified by the
// contact_key and name query parameters.
func (h *AdminHandler) DeleteStudent(c echo.Context) error {
	contactKey := c.QueryParam("contact_key")
	name := c.QueryParam("name")
	if contactKey == "" || name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "contact_key and name are required"})
	}
	ctx := c.Request().Context()
	doc, token, err := loadDocument(ctx, h.Store)
	if err != nil {
		return writeEngineError(c, err)
	}
	if err := h.Roster.DeleteStudent(ctx, doc, token, contactKey, name); err != nil {
		return writeEngineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ImportStudents handles POST /v1/admin/students/import.  The roster CSV
// comes either as a multipart "file" field or as the raw request body.
// The header is validated first: a file missing any required column is
// rejected outright.  The whole batch then goes through the roster engine
// and ends in a single conditional write.
func (h *AdminHandler) ImportStudents(c echo.Context) error {
	reader, err := rosterUpload(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing roster file"})
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable roster file"})
	}
	if missing := missingColumns(data); len(missing) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "roster file is missing required columns",
			"missing": missing,
		})
	}

	var rows []engine.RosterRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed roster file"})
	}

	ctx := c.Request().Context()
	doc, token, err := loadDocument(ctx, h.Store)
	if err != nil {
		return writeEngineError(c, err)
	}
	added, err := h.Roster.ImportBatch(ctx, doc, token, rows)
	if err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"added":   added,
		"skipped": len(rows) - added,
	})
}

// rosterUpload returns the uploaded CSV stream, preferring a multipart
// "file" field and falling back to the raw body.
func rosterUpload(c echo.Context) (io.Reader, error) {
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	if c.Request().Body == nil || c.Request().ContentLength == 0 {
		return nil, echo.ErrBadRequest
	}
	return c.Request().Body, nil
}

// missingColumns checks the CSV header line for the required column names.
func missingColumns(data []byte) []string {
	header := data
	if i := strings.IndexAny(string(data), "\r\n"); i >= 0 {
		header = data[:i]
	}
	present := make(map[string]bool)
	for _, col := range strings.Split(string(header), ",") {
		present[strings.ToLower(strings.TrimSpace(strings.Trim(col, `"`)))] = true
	}
	var missing []string
	for _, col := range requiredRosterColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}
