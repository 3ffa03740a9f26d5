// Package academic holds the calendar rules of the mentorship programme: how
// a date maps to an academic year and session, which semesters run in a
// session, and which session follows another. It performs no I/O.
package academic

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidInput is returned for malformed dates, period names and year labels.
var ErrInvalidInput = errors.New("invalid academic period input")

// FinalSemester is the last semester of the programme.
const FinalSemester = 8

// Half identifies which six-month session of an academic year a period is.
type Half int

const (
	JulyDecember Half = iota + 1
	JanuaryJune
)

const (
	julyDecemberPrefix = "JULY-DECEMBER"
	januaryJunePrefix  = "JANUARY-JUNE"
)

func (h Half) String() string {
	switch h {
	case JulyDecember:
		return julyDecemberPrefix
	case JanuaryJune:
		return januaryJunePrefix
	default:
		return "UNKNOWN"
	}
}

// PeriodInfo describes one academic session. It is derived, never stored.
type PeriodInfo struct {
	AcademicYear string `json:"academic_year"` // "2024-2025"
	SessionName  string `json:"session_name"`  // "JULY-DECEMBER 2024"
	Semesters    []int  `json:"semesters"`
}

// Periods is the pair of sessions relevant on a given day.
type Periods struct {
	Current  PeriodInfo `json:"current"`
	Upcoming PeriodInfo `json:"upcoming"`
}

// SemestersFor returns the semester numbers taught in a half.
// Odd semesters run July-December, even ones January-June.
func SemestersFor(h Half) []int {
	switch h {
	case JulyDecember:
		return []int{1, 3, 5, 7}
	case JanuaryJune:
		return []int{2, 4, 6, 8}
	default:
		return nil
	}
}

// AcademicYearLabel formats the "YYYY-YYYY" label of the year starting in startYear.
func AcademicYearLabel(startYear int) string {
	return fmt.Sprintf("%d-%d", startYear, startYear+1)
}

// ParseAcademicYear parses a "YYYY-YYYY" label whose years are consecutive.
func ParseAcademicYear(label string) (startYear, endYear int, err error) {
	parts := strings.Split(strings.TrimSpace(label), "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: academic year %q", ErrInvalidInput, label)
	}
	startYear, err1 := parseYear(parts[0])
	endYear, err2 := parseYear(parts[1])
	if err1 != nil || err2 != nil || endYear != startYear+1 {
		return 0, 0, fmt.Errorf("%w: academic year %q", ErrInvalidInput, label)
	}
	return startYear, endYear, nil
}

// NormalizePeriodName brings free text into the canonical upper-case form
// used for all comparisons, e.g. " july-december  2024" -> "JULY-DECEMBER 2024".
func NormalizePeriodName(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), " "))
}

// ParsePeriodName parses a canonical period name. The name is not normalized.
func ParsePeriodName(name string) (Half, int, error) {
	prefix, yearText, ok := strings.Cut(name, " ")
	if !ok {
		return 0, 0, fmt.Errorf("%w: period name %q", ErrInvalidInput, name)
	}
	var half Half
	switch prefix {
	case julyDecemberPrefix:
		half = JulyDecember
	case januaryJunePrefix:
		half = JanuaryJune
	default:
		return 0, 0, fmt.Errorf("%w: period name %q", ErrInvalidInput, name)
	}
	year, err := parseYear(yearText)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: period name %q", ErrInvalidInput, name)
	}
	return half, year, nil
}

// PeriodOf builds the descriptor of the given half in the given calendar year.
func PeriodOf(h Half, year int) (PeriodInfo, error) {
	switch h {
	case JulyDecember:
		return PeriodInfo{
			AcademicYear: AcademicYearLabel(year),
			SessionName:  fmt.Sprintf("%s %d", julyDecemberPrefix, year),
			Semesters:    SemestersFor(JulyDecember),
		}, nil
	case JanuaryJune:
		return PeriodInfo{
			AcademicYear: AcademicYearLabel(year - 1),
			SessionName:  fmt.Sprintf("%s %d", januaryJunePrefix, year),
			Semesters:    SemestersFor(JanuaryJune),
		}, nil
	default:
		return PeriodInfo{}, fmt.Errorf("%w: unknown half %d", ErrInvalidInput, h)
	}
}

// ParsePeriod is ParsePeriodName followed by PeriodOf.
func ParsePeriod(name string) (PeriodInfo, error) {
	half, year, err := ParsePeriodName(name)
	if err != nil {
		return PeriodInfo{}, err
	}
	return PeriodOf(half, year)
}

// CurrentAt returns the session running on ref. Months up to and including
// June belong to JANUARY-JUNE, July onwards to JULY-DECEMBER.
func CurrentAt(ref time.Time) (PeriodInfo, error) {
	if ref.IsZero() {
		return PeriodInfo{}, fmt.Errorf("%w: zero reference date", ErrInvalidInput)
	}
	if ref.Month() <= time.June {
		return PeriodOf(JanuaryJune, ref.Year())
	}
	return PeriodOf(JulyDecember, ref.Year())
}

// UpcomingFrom returns the session that follows p.
func UpcomingFrom(p PeriodInfo) (PeriodInfo, error) {
	half, year, err := ParsePeriodName(p.SessionName)
	if err != nil {
		return PeriodInfo{}, err
	}
	if half == JanuaryJune {
		return PeriodOf(JulyDecember, year)
	}
	return PeriodOf(JanuaryJune, year+1)
}

// PreviousFrom returns the session that precedes p.
func PreviousFrom(p PeriodInfo) (PeriodInfo, error) {
	half, year, err := ParsePeriodName(p.SessionName)
	if err != nil {
		return PeriodInfo{}, err
	}
	if half == JulyDecember {
		return PeriodOf(JanuaryJune, year)
	}
	return PeriodOf(JulyDecember, year-1)
}

// ComputePeriods returns the current and upcoming sessions for ref.
func ComputePeriods(ref time.Time) (*Periods, error) {
	current, err := CurrentAt(ref)
	if err != nil {
		return nil, err
	}
	upcoming, err := UpcomingFrom(current)
	if err != nil {
		return nil, err
	}
	return &Periods{Current: current, Upcoming: upcoming}, nil
}

// ParseReferenceDate parses a "2006-01-02" date in loc.
func ParseReferenceDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrInvalidInput, s)
	}
	return t, nil
}

func parseYear(s string) (int, error) {
	if len(s) != 4 || strings.Trim(s, "0123456789") != "" {
		return 0, ErrInvalidInput
	}
	return strconv.Atoi(s)
}
