package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"campusbook/internal/models"
	"campusbook/internal/service"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// Exporter выгружает брони за период в Excel-файл для администрации.
type Exporter struct {
	bookings *service.BookingService
	path     string
	logger   *zerolog.Logger
}

func NewExporter(bookings *service.BookingService, path string, logger *zerolog.Logger) *Exporter {
	if path == "" {
		path = "exports"
	}
	return &Exporter{bookings: bookings, path: path, logger: logger}
}

// ExportRange создает Excel файл с бронями за период и возвращает путь к нему.
func (e *Exporter) ExportRange(ctx context.Context, startDate, endDate time.Time) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	bookings, err := e.bookings.ListRange(ctx, startDate, endDate)
	if err != nil {
		return "", fmt.Errorf("error getting bookings: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Бронирования"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	// Заголовок периода
	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Период: %s - %s",
		startDate.Format("02.01.2006"), endDate.Format("02.01.2006")))
	_ = f.MergeCell(sheetName, "A1", "G1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	headers := []string{"Номер", "Помещение", "Пользователь", "Дата", "Начало", "Конец", "Статус"}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, h)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for row, b := range bookings {
		values := []any{
			b.Code,
			b.FacilityName,
			b.UserName,
			b.Date.Format(models.DateLayout),
			b.StartTime,
			b.EndTime,
			b.Status,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+3)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 22)
	_ = f.SetColWidth(sheetName, "B", "C", 25)
	_ = f.SetColWidth(sheetName, "D", "G", 14)
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("bookings_%s_to_%s.xlsx",
		startDate.Format(models.DateLayout), endDate.Format(models.DateLayout))
	filePath := filepath.Join(e.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("bookings", len(bookings)).Msg("Excel export created")
	return filePath, nil
}

func (s *Server) handleExportBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, ok := parseDate(q.Get("from"))
	if !ok {
		writeError(w, http.StatusBadRequest, "validation", "from must be YYYY-MM-DD")
		return
	}
	to, ok := parseDate(q.Get("to"))
	if !ok {
		writeError(w, http.StatusBadRequest, "validation", "to must be YYYY-MM-DD")
		return
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "validation", "to must not be before from")
		return
	}

	filePath, err := s.exports.ExportRange(r.Context(), from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(filePath)))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	http.ServeFile(w, r, filePath)
}
