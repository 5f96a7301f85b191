package models

import (
	"strconv"
	"strings"
)

// Substance is a cleaned row of the FDA substances inventory.
type Substance struct {
	Provenance
	Name             string
	OtherNames       string
	TechnicalEffect  string
	CASRegNo         string
	ApprovalSource   string
	TechnicalEffects []string
	// SourceYears holds one extracted year per configured year column.
	SourceYears  []int
	ApprovalYear int
}

// YearColumnSuffix names the per-source year columns.
const YearColumnSuffix = "_year"

// SubstanceColumns returns the processed header for the given year columns.
func SubstanceColumns(yearColumns []string) []string {
	cols := []string{"substance", "other_names", "used_for_(technical_effect)", "cas_reg_no", "technical_effects"}
	for _, c := range yearColumns {
		cols = append(cols, strings.TrimSpace(c)+YearColumnSuffix)
	}

	cols = append(cols, "approval_year", "approval_source")

	return append(cols, ProvenanceColumns...)
}

// Values renders the substance in SubstanceColumns order.
func (s Substance) Values() []string {
	vals := []string{s.Name, s.OtherNames, s.TechnicalEffect, s.CASRegNo, JoinList(s.TechnicalEffects)}
	for _, y := range s.SourceYears {
		vals = append(vals, FormatYear(y))
	}

	vals = append(vals, FormatYear(s.ApprovalYear), s.ApprovalSource)

	return append(vals, s.values()...)
}

// YearSummary counts approvals per year.
type YearSummary struct {
	PctChange    Number
	Year         int
	NewApprovals int
	Cumulative   int
}

// YearSummaryColumns is the header of the approvals-by-year file.
var YearSummaryColumns = []string{"year", "new_approvals", "cumulative_approvals", "pct_change"}

// Values renders the summary line.
func (y YearSummary) Values() []string {
	pct := ""
	if y.PctChange.Valid {
		pct = strconv.FormatFloat(y.PctChange.Value, 'f', 2, 64)
	}

	return []string{FormatYear(y.Year), strconv.Itoa(y.NewApprovals), strconv.Itoa(y.Cumulative), pct}
}
