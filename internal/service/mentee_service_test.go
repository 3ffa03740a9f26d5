package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"mentorlink/backend/config"
	"mentorlink/backend/internal/dto"
	"mentorlink/backend/internal/repository"
)

// ── test helpers ──

func setupTestMenteeService() (MenteeService, *mockMenteeRepo) {
	mentees := newMockMenteeRepo()
	repo := &repository.Repository{
		AcademicSession: newMockAcademicSessionRepo(),
		Mentee:          mentees,
		Meeting:         newMockMeetingRepo(),
	}
	svc := NewMenteeService(&config.AcademicConfig{MaxSemester: 8}, repo, zap.NewNop())
	return svc, mentees
}

func buildWorkbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cellName, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cellName, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf
}

func validRow(row int, mujid string) dto.ImportMenteeRow {
	return dto.ImportMenteeRow{
		Row:             row,
		MUJid:           mujid,
		Name:            "Asha Rao",
		Email:           "asha@example.edu",
		Semester:        "3",
		AcademicSession: "july-december 2024",
	}
}

// ── List ──

func TestMenteeService_List(t *testing.T) {
	svc, mentees := setupTestMenteeService()
	mentees.add("MUJ001", 3, "2024-2025", julDec(2024))
	mentees.add("MUJ002", 3, "2024-2025", julDec(2024))
	mentees.add("MUJ003", 5, "2024-2025", julDec(2024))
	mentees.add("MUJ004", 2, "2023-2024", janJun(2024))

	req := &dto.MenteeListRequest{AcademicYear: "2024-2025", Semester: 3}
	req.PageSize = 1
	list, total, err := svc.List(context.Background(), req)
	if err != nil {
		t.Fatalf("List should succeed: %v", err)
	}
	if total != 2 || len(list) != 1 || list[0].MUJid != "MUJ001" {
		t.Errorf("total=%d list=%+v", total, list)
	}

	req = &dto.MenteeListRequest{AcademicSession: "january-june 2024"}
	list, total, err = svc.List(context.Background(), req)
	if err != nil {
		t.Fatalf("List should succeed: %v", err)
	}
	if total != 1 || list[0].MUJid != "MUJ004" {
		t.Errorf("session filter should be normalized, got total=%d", total)
	}
}

// ── ParseImportFile ──

func TestMenteeService_ParseImportFile(t *testing.T) {
	svc, _ := setupTestMenteeService()
	buf := buildWorkbook(t, [][]interface{}{
		{"Name", "MUJid", "Email", "Semester", "Academic Session", "Mentor MUJid"},
		{"Asha Rao", "muj001", "asha@example.edu", 3, "JULY-DECEMBER 2024", "FAC01"},
		{"", "", "", "", "", ""},
		{"Vikram Das", "MUJ002", "vikram@example.edu", 5, "JULY-DECEMBER 2024"},
	})

	rows, err := svc.ParseImportFile(buf)
	if err != nil {
		t.Fatalf("ParseImportFile should succeed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("want 2 rows (blank row skipped), got %d", len(rows))
	}
	if rows[0].MUJid != "muj001" || rows[0].Semester != "3" || rows[0].MentorMUJid != "FAC01" {
		t.Errorf("unexpected first row %+v", rows[0])
	}
	if rows[1].Row != 4 {
		t.Errorf("row numbers follow the sheet, got %d", rows[1].Row)
	}
}

func TestMenteeService_ParseImportFile_BadHeader(t *testing.T) {
	svc, _ := setupTestMenteeService()
	buf := buildWorkbook(t, [][]interface{}{
		{"Name", "Email"},
		{"Asha Rao", "asha@example.edu"},
	})

	if _, err := svc.ParseImportFile(buf); !errors.Is(err, ErrImportBadHeader) {
		t.Errorf("want ErrImportBadHeader, got %v", err)
	}
}

func TestMenteeService_ParseImportFile_NoData(t *testing.T) {
	svc, _ := setupTestMenteeService()
	buf := buildWorkbook(t, [][]interface{}{
		{"mujid", "name", "email", "semester", "academic_session"},
	})

	if _, err := svc.ParseImportFile(buf); !errors.Is(err, ErrImportNoData) {
		t.Errorf("want ErrImportNoData, got %v", err)
	}
}

// ── Preview / Import ──

func TestMenteeService_Import(t *testing.T) {
	svc, mentees := setupTestMenteeService()
	mentees.add("MUJ002", 1, "2024-2025", julDec(2024))

	bad := validRow(3, "MUJ003")
	bad.Email = "not-an-email"
	wrongYear := validRow(4, "MUJ004")
	wrongYear.AcademicYear = "2023-2024"
	tooHigh := validRow(5, "MUJ005")
	tooHigh.Semester = "9"
	dup := validRow(6, "muj001")

	rows := []dto.ImportMenteeRow{validRow(1, "muj001"), validRow(2, "MUJ002"), bad, wrongYear, tooHigh, dup}

	resp, err := svc.Import(context.Background(), rows, "admin-001")
	if err != nil {
		t.Fatalf("Import should succeed: %v", err)
	}
	if resp.Total != 6 || resp.Success != 2 || resp.Failed != 4 {
		t.Errorf("total=%d success=%d failed=%d, want 6/2/4", resp.Total, resp.Success, resp.Failed)
	}

	m := mentees.mentees["MUJ001"]
	if m == nil {
		t.Fatal("MUJ001 should be stored upper-cased")
	}
	if m.AcademicYear != "2024-2025" || m.AcademicSession != julDec(2024) || m.Semester != 3 {
		t.Errorf("unexpected mentee %+v", m)
	}
	if m.CreatedBy == nil || *m.CreatedBy != "admin-001" {
		t.Error("created_by should record the caller")
	}
	if mentees.mentees["MUJ002"].Semester != 3 {
		t.Error("existing mentee should be updated")
	}

	failed := map[int]bool{}
	for _, e := range resp.Errors {
		failed[e.Row] = true
	}
	for _, row := range []int{3, 4, 5, 6} {
		if !failed[row] {
			t.Errorf("row %d should be reported", row)
		}
	}
}

func TestMenteeService_Import_StoreError(t *testing.T) {
	svc, mentees := setupTestMenteeService()
	mentees.fail["Upsert"] = errBoom

	_, err := svc.Import(context.Background(), []dto.ImportMenteeRow{validRow(1, "MUJ001")}, "admin-001")
	if !errors.Is(err, errBoom) {
		t.Errorf("want errBoom, got %v", err)
	}
}

func TestMenteeService_Preview(t *testing.T) {
	svc, mentees := setupTestMenteeService()
	bad := validRow(2, "")

	resp := svc.Preview([]dto.ImportMenteeRow{validRow(1, "MUJ001"), bad})
	if !resp.Preview || resp.Success != 1 || resp.Failed != 1 || len(resp.Rows) != 2 {
		t.Errorf("unexpected preview %+v", resp)
	}
	if len(mentees.mentees) != 0 {
		t.Error("preview must not write")
	}
}
