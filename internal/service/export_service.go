package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"mentorlink/backend/internal/academic"
	"mentorlink/backend/internal/repository"
)

// ── export errors ──

var (
	ErrExportNoSessions   = errors.New("no academic sessions to export")
	ErrExportGenerateFail = errors.New("failed to generate Excel file")
)

// ExportService spreadsheet exports
//
// The workbook is returned as a buffer; the handler sets the download
// headers and writes it out.
type ExportService interface {
	// ExportSessions one row per session period, newest academic year first.
	ExportSessions(ctx context.Context) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService creates an ExportService.
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger, now: time.Now}
}

const sessionSheet = "Academic Sessions"

var sessionColumns = []struct {
	title string
	width float64
}{
	{"Academic Year", 14},
	{"Period", 22},
	{"Semesters", 12},
	{"Current", 10},
	{"Period Archived At", 24},
	{"Year Archived At", 24},
}

func (s *exportService) ExportSessions(ctx context.Context) (*bytes.Buffer, string, error) {
	sessions, err := s.repo.AcademicSession.List(ctx)
	if err != nil {
		s.logger.Error("list academic sessions failed", zap.Error(err))
		return nil, "", err
	}
	if len(sessions) == 0 {
		return nil, "", ErrExportNoSessions
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sessionSheet)
	if err != nil {
		s.logger.Error("create sheet failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for i, col := range sessionColumns {
		name := colName(i)
		f.SetColWidth(sessionSheet, name, name, col.width)
		f.SetCellValue(sessionSheet, cell(name, 1), col.title)
	}
	f.SetCellStyle(sessionSheet, "A1", cell(colName(len(sessionColumns)-1), 1), headerStyle)
	f.SetPanes(sessionSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	row := 2
	for _, session := range sessions {
		label := academic.AcademicYearLabel(session.StartYear)
		for _, p := range session.Sessions {
			sems := make([]string, 0, len(p.Semesters))
			for _, n := range p.Semesters {
				sems = append(sems, strconv.Itoa(n))
			}
			current := "No"
			if session.IsCurrent && session.CurrentPeriod == p.Name {
				current = "Yes"
			}

			f.SetCellValue(sessionSheet, cell("A", row), label)
			f.SetCellValue(sessionSheet, cell("B", row), p.Name)
			f.SetCellValue(sessionSheet, cell("C", row), strings.Join(sems, ","))
			f.SetCellValue(sessionSheet, cell("D", row), current)
			f.SetCellValue(sessionSheet, cell("E", row), exportTime(p.ArchivedAt))
			f.SetCellValue(sessionSheet, cell("F", row), exportTime(session.ArchivedAt))
			row++
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("write Excel failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("academic_sessions_%s.xlsx", s.now().Format("20060102"))
	return buf, filename, nil
}

// ── helpers ──

func exportTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
