package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"mentorlink/backend/config"
	"mentorlink/backend/internal/academic"
	"mentorlink/backend/internal/dto"
	"mentorlink/backend/internal/model"
	"mentorlink/backend/internal/repository"
)

// MenteeService mentee listing and spreadsheet import
type MenteeService interface {
	List(ctx context.Context, req *dto.MenteeListRequest) ([]dto.MenteeResponse, int64, error)
	ParseImportFile(reader io.Reader) ([]dto.ImportMenteeRow, error)
	// Preview validates rows without writing anything.
	Preview(rows []dto.ImportMenteeRow) *dto.ImportMenteeResponse
	Import(ctx context.Context, rows []dto.ImportMenteeRow, callerID string) (*dto.ImportMenteeResponse, error)
}

type menteeService struct {
	repo        *repository.Repository
	logger      *zap.Logger
	validate    *validator.Validate
	maxSemester int
}

// NewMenteeService creates a MenteeService.
func NewMenteeService(cfg *config.AcademicConfig, repo *repository.Repository, logger *zap.Logger) MenteeService {
	maxSemester := cfg.MaxSemester
	if maxSemester < 1 || maxSemester > academic.FinalSemester {
		maxSemester = academic.FinalSemester
	}
	return &menteeService{
		repo:        repo,
		logger:      logger,
		validate:    validator.New(),
		maxSemester: maxSemester,
	}
}

// ────────────────────── List ──────────────────────

func (s *menteeService) List(ctx context.Context, req *dto.MenteeListRequest) ([]dto.MenteeResponse, int64, error) {
	filter := repository.MenteeFilter{
		AcademicYear:    req.AcademicYear,
		AcademicSession: academic.NormalizePeriodName(req.AcademicSession),
		Semester:        req.Semester,
	}
	mentees, total, err := s.repo.Mentee.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("list mentees failed", zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.MenteeResponse, 0, len(mentees))
	for i := range mentees {
		list = append(list, toMenteeResponse(&mentees[i]))
	}
	return list, total, nil
}

// ────────────────────── ParseImportFile ──────────────────────

const maxImportRows = 2000

var (
	ErrImportNoData      = errors.New("Excel file has no data rows (the first row is the header)")
	ErrImportTooManyRows = fmt.Errorf("more than %d data rows", maxImportRows)
	ErrImportBadHeader   = errors.New("Excel header is missing a required column (mujid/name/email/semester/academic_session)")
	ErrImportUnreadable  = errors.New("file is not a readable xlsx workbook")
)

var importColumns = []string{"mujid", "name", "email", "semester", "academic_year", "academic_session", "mentor_mujid"}

// ParseImportFile reads the first sheet. Columns are located by header name
// in any order; fully empty rows are skipped.
func (s *menteeService) ParseImportFile(reader io.Reader) ([]dto.ImportMenteeRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportUnreadable, err)
	}
	defer f.Close()

	excelRows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportUnreadable, err)
	}
	if len(excelRows) < 2 {
		return nil, ErrImportNoData
	}

	col := parseHeaderIndex(excelRows[0])
	for _, required := range []string{"mujid", "name", "email", "semester", "academic_session"} {
		if col[required] < 0 {
			return nil, ErrImportBadHeader
		}
	}

	var rows []dto.ImportMenteeRow
	for i := 1; i < len(excelRows); i++ {
		get := func(key string) string {
			idx := col[key]
			if idx < 0 || idx >= len(excelRows[i]) {
				return ""
			}
			return strings.TrimSpace(excelRows[i][idx])
		}
		item := dto.ImportMenteeRow{
			Row:             i + 1,
			MUJid:           get("mujid"),
			Name:            get("name"),
			Email:           get("email"),
			Semester:        get("semester"),
			AcademicYear:    get("academic_year"),
			AcademicSession: get("academic_session"),
			MentorMUJid:     get("mentor_mujid"),
		}
		if item.MUJid == "" && item.Name == "" && item.Email == "" && item.Semester == "" && item.AcademicSession == "" {
			continue
		}
		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if len(rows) > maxImportRows {
		return nil, ErrImportTooManyRows
	}
	return rows, nil
}

// parseHeaderIndex maps column key -> index, -1 when absent.
func parseHeaderIndex(header []string) map[string]int {
	idx := make(map[string]int, len(importColumns))
	for _, key := range importColumns {
		idx[key] = -1
	}
	for i, h := range header {
		key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
		if _, ok := idx[key]; ok && idx[key] < 0 {
			idx[key] = i
		}
	}
	return idx
}

// ────────────────────── Preview / Import ──────────────────────

func (s *menteeService) Preview(rows []dto.ImportMenteeRow) *dto.ImportMenteeResponse {
	resp, valid := s.check(rows, "")
	resp.Success = len(valid)
	resp.Preview = true
	resp.Rows = rows
	return resp
}

func (s *menteeService) Import(ctx context.Context, rows []dto.ImportMenteeRow, callerID string) (*dto.ImportMenteeResponse, error) {
	resp, mentees := s.check(rows, callerID)
	if len(mentees) == 0 {
		return resp, nil
	}

	if _, err := s.repo.Mentee.Upsert(ctx, mentees); err != nil {
		s.logger.Error("import mentees failed", zap.Int("rows", len(mentees)), zap.Error(err))
		return nil, err
	}
	resp.Success = len(mentees)

	s.logger.Info("mentees imported",
		zap.Int("total", resp.Total),
		zap.Int("success", resp.Success),
		zap.Int("failed", resp.Failed))
	return resp, nil
}

// check validates every row. Bad rows are reported, the rest returned as models.
func (s *menteeService) check(rows []dto.ImportMenteeRow, callerID string) (*dto.ImportMenteeResponse, []model.Mentee) {
	resp := &dto.ImportMenteeResponse{Total: len(rows)}
	mentees := make([]model.Mentee, 0, len(rows))
	seen := make(map[string]int, len(rows))

	for _, row := range rows {
		m, err := s.toMentee(row)
		if err == nil {
			if first, dup := seen[m.MUJid]; dup {
				err = fmt.Errorf("mujid %s already used in row %d", m.MUJid, first)
			}
		}
		if err != nil {
			resp.Failed++
			resp.Errors = append(resp.Errors, dto.ImportMenteeError{Row: row.Row, Reason: err.Error()})
			continue
		}
		seen[m.MUJid] = row.Row
		m.Audit(callerID)
		mentees = append(mentees, *m)
	}
	return resp, mentees
}

func (s *menteeService) toMentee(row dto.ImportMenteeRow) (*model.Mentee, error) {
	if row.MUJid == "" || row.Name == "" || row.Email == "" || row.Semester == "" || row.AcademicSession == "" {
		return nil, errors.New("required field is empty")
	}
	if err := s.validate.Var(row.Email, "email"); err != nil {
		return nil, fmt.Errorf("invalid email: %s", row.Email)
	}
	semester, err := strconv.Atoi(row.Semester)
	if err != nil || semester < 1 || semester > s.maxSemester {
		return nil, fmt.Errorf("semester must be between 1 and %d", s.maxSemester)
	}
	period, err := academic.ParsePeriod(academic.NormalizePeriodName(row.AcademicSession))
	if err != nil {
		return nil, fmt.Errorf("invalid academic session: %s", row.AcademicSession)
	}
	if row.AcademicYear != "" && row.AcademicYear != period.AcademicYear {
		return nil, fmt.Errorf("academic year %s does not contain %s", row.AcademicYear, period.SessionName)
	}

	m := &model.Mentee{
		MUJid:           strings.ToUpper(row.MUJid),
		Name:            row.Name,
		Email:           strings.ToLower(row.Email),
		Semester:        semester,
		AcademicYear:    period.AcademicYear,
		AcademicSession: period.SessionName,
	}
	if row.MentorMUJid != "" {
		mentor := strings.ToUpper(row.MentorMUJid)
		m.MentorMUJid = &mentor
	}
	return m, nil
}

func toMenteeResponse(m *model.Mentee) dto.MenteeResponse {
	resp := dto.MenteeResponse{
		ID:              m.MenteeID,
		MUJid:           m.MUJid,
		Name:            m.Name,
		Email:           m.Email,
		Semester:        m.Semester,
		AcademicYear:    m.AcademicYear,
		AcademicSession: m.AcademicSession,
	}
	if m.MentorMUJid != nil {
		resp.MentorMUJid = *m.MentorMUJid
	}
	return resp
}
