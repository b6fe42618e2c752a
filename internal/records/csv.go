package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/provider-matcher/internal/types"
)

// Director source columns. Headers are compared after trimming whitespace.
const (
	colFirstName      = "First Name"
	colLastName       = "Last Name"
	colDirectorEmail  = "Email"
	colResidingState  = "Residing State  (Lives In)"
	colCreateDate     = "Create Date"
	colLifecycleStage = "Lifecycle Stage"
)

// Nurse source columns.
const (
	colTicket      = "Ticket Number Counter"
	colNurseEmail  = "Bird Eats Bug Email"
	colLicenseType = "Provider License Type"
	colExperience  = "Experience Level  "
	colPremiseSt   = "State (MedSpa Premise)"
	colServices    = "Services Provided"
	colNotes       = "Addt'l Service Notes"
)

var (
	directorColumns = []string{colFirstName, colLastName, colDirectorEmail, colResidingState, colCreateDate, colLifecycleStage}
	nurseColumns    = []string{colTicket, colNurseEmail, colLicenseType, colExperience, colPremiseSt, colServices, colNotes}
)

// table is a decoded CSV with a header index.
type table struct {
	index map[string]int
	rows  [][]string
}

func (t *table) get(row []string, column string) string {
	i, ok := t.index[normalizeHeader(column)]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.Join(strings.Fields(h), " ")
}

// readTable decodes CSV content and checks that every required column exists.
func readTable(r io.Reader, required []string) (*table, error) {
	reader := csv.NewReader(r)
	// Short or long rows are kept; missing cells read as empty.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("source is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	t := &table{index: make(map[string]int, len(header))}
	for i, h := range header {
		key := normalizeHeader(h)
		if _, dup := t.index[key]; !dup {
			t.index[key] = i
		}
	}

	var missing []string
	for _, col := range required {
		if _, ok := t.index[normalizeHeader(col)]; !ok {
			missing = append(missing, strings.TrimSpace(col))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("malformed CSV: %w", err)
	}
	t.rows = rows
	return t, nil
}

// decodeDirectors reads the director source and keeps onboarded directors only.
func decodeDirectors(r io.Reader) ([]types.Director, error) {
	t, err := readTable(r, directorColumns)
	if err != nil {
		return nil, err
	}

	directors := make([]types.Director, 0, len(t.rows))
	for _, row := range t.rows {
		d := types.Director{
			FirstName:      t.get(row, colFirstName),
			LastName:       t.get(row, colLastName),
			Email:          t.get(row, colDirectorEmail),
			Jurisdiction:   t.get(row, colResidingState),
			OnboardedAt:    t.get(row, colCreateDate),
			LifecycleStage: rawCell(t, row, colLifecycleStage),
		}
		if d.Eligible() {
			directors = append(directors, d)
		}
	}
	return directors, nil
}

// decodeNurses reads the nurse source and keeps RN/NP license holders only.
func decodeNurses(r io.Reader) ([]types.Nurse, error) {
	t, err := readTable(r, nurseColumns)
	if err != nil {
		return nil, err
	}

	nurses := make([]types.Nurse, 0, len(t.rows))
	for _, row := range t.rows {
		n := types.Nurse{
			Ticket:          t.get(row, colTicket),
			Email:           t.get(row, colNurseEmail),
			LicenseType:     t.get(row, colLicenseType),
			ExperienceLevel: t.get(row, colExperience),
			Jurisdiction:    t.get(row, colPremiseSt),
			Services:        t.get(row, colServices),
			Notes:           t.get(row, colNotes),
		}
		if n.Eligible() {
			nurses = append(nurses, n)
		}
	}
	return nurses, nil
}

// rawCell returns a cell without trimming; the lifecycle stage is an exact match.
func rawCell(t *table, row []string, column string) string {
	i, ok := t.index[normalizeHeader(column)]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
