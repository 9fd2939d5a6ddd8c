package handler

import (
	"net/http"

	"github.com/gocarina/gocsv"
	"github.com/labstack/echo/v4"

	"github.com/villaedu/reserva/internal/model"
	"github.com/villaedu/reserva/internal/report"
)

// ListReservations handles GET /v1/admin/reservations with optional grade
// and category query filters.
func (h *AdminHandler) ListReservations(c echo.Context) error {
	var category model.Category
	if q := c.QueryParam("category"); q != "" {
		cat, ok := model.ParseCategory(q)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown category"})
		}
		category = cat
	}
	doc, _, err := loadDocument(c.Request().Context(), h.Store)
	if err != nil {
		return writeEngineError(c, err)
	}
	rows := report.ReservationRows(doc, c.QueryParam("grade"), category)
	return c.JSON(http.StatusOK, echo.Map{"reservations": rows})
}

// Stats handles GET /v1/admin/reports.
func (h *AdminHandler) Stats(c echo.Context) error {
	doc, _, err := loadDocument(c.Request().Context(), h.Store)
	if err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusOK, report.BuildStats(doc))
}

// ExportReservations handles GET /v1/admin/reports/export and streams the
// reservation rows as a CSV download.
func (h *AdminHandler) ExportReservations(c echo.Context) error {
	doc, _, err := loadDocument(c.Request().Context(), h.Store)
	if err != nil {
		return writeEngineError(c, err)
	}
	rows := report.ReservationRows(doc, c.QueryParam("grade"), "")
	out, err := gocsv.MarshalString(&rows)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to encode csv"})
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="reservations.csv"`)
	return c.Blob(http.StatusOK, "text/csv", []byte(out))
}
