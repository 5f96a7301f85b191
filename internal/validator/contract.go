// Package validator re-checks processed tables against their output contract
// and verifies signed reports.
package validator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"healthetl/internal/models"
	"healthetl/internal/normalizer"
	"healthetl/pkg/metadata"
)

// Validation errors.
var (
	ErrMissingColumn     = errors.New("required column missing")
	ErrContractViolation = errors.New("output contract violated")
	ErrIntegrity         = errors.New("integrity check failed")
)

// maxReportedErrors caps the cell errors kept per result.
const maxReportedErrors = 50

// ValidationError represents a validation error with context.
type ValidationError struct {
	Field   string
	Value   string
	Rule    string
	Message string
	Row     int
}

// ValidationResult contains validation results.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []string
	Stats    ValidationStats
	IsValid  bool
}

// ValidationStats contains validation statistics.
type ValidationStats struct {
	TotalRows    int
	ValidRows    int
	InvalidRows  int
	EmptyCells   int
	CheckedCells int
}

// Rule is a predicate every non-empty cell of a column must satisfy.
type Rule struct {
	Check func(string) bool
	Name  string
}

// Contract lists the columns a processed table must carry and the rules its
// cells must follow. Empty cells are missing values and always pass.
type Contract struct {
	Rules    map[string]Rule
	Name     string
	Required []string
}

// Validate checks t against the contract.
func (c Contract) Validate(t models.Table) *ValidationResult {
	result := &ValidationResult{IsValid: true}

	for _, col := range c.Required {
		if t.Index(col) < 0 {
			result.IsValid = false
			result.Errors = append(result.Errors, ValidationError{
				Field:   col,
				Message: fmt.Sprintf("%s: %s", ErrMissingColumn, col),
			})
		}
	}

	if !result.IsValid {
		return result
	}

	index := make(map[string]int, len(c.Rules))
	for col := range c.Rules {
		if i := t.Index(col); i >= 0 {
			index[col] = i
		}
	}

	for rowNum, row := range t.Rows {
		result.Stats.TotalRows++
		rowValid := true

		for col, i := range index {
			if i >= len(row) || strings.TrimSpace(row[i]) == "" {
				result.Stats.EmptyCells++

				continue
			}

			result.Stats.CheckedCells++

			rule := c.Rules[col]
			if rule.Check(row[i]) {
				continue
			}

			rowValid = false

			if len(result.Errors) < maxReportedErrors {
				result.Errors = append(result.Errors, ValidationError{
					Row:     rowNum + 1,
					Field:   col,
					Value:   truncate(row[i], 50),
					Rule:    rule.Name,
					Message: fmt.Sprintf("%s '%s' fails %s", col, truncate(row[i], 50), rule.Name),
				})
			}
		}

		if rowValid {
			result.Stats.ValidRows++
		} else {
			result.Stats.InvalidRows++
			result.IsValid = false
		}
	}

	if result.Stats.InvalidRows > 0 && len(result.Errors) == maxReportedErrors {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("only the first %d errors are listed", maxReportedErrors))
	}

	return result
}

// Err returns nil for a valid result, otherwise ErrContractViolation wrapped
// with the first error.
func (r *ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}

	if len(r.Errors) == 0 {
		return ErrContractViolation
	}

	first := r.Errors[0]
	if first.Row > 0 {
		return fmt.Errorf("%w: row %d: %s", ErrContractViolation, first.Row, first.Message)
	}

	return fmt.Errorf("%w: %s", ErrContractViolation, first.Message)
}

// ValidateIntegrity checks a signed document against its metadata block.
func ValidateIntegrity(content string) *ValidationResult {
	result := &ValidationResult{IsValid: true}

	valid, err := metadata.Verify(content)
	if !valid {
		result.IsValid = false
		result.Errors = append(result.Errors, ValidationError{
			Message: fmt.Sprintf("%s: %v", ErrIntegrity, err),
		})
	}

	return result
}

// YearRule accepts integer years in [minYear, maxYear].
func YearRule(minYear, maxYear int) Rule {
	return RangeRule("year", minYear, maxYear)
}

// RangeRule accepts integers in [lo, hi].
func RangeRule(name string, lo, hi int) Rule {
	return Rule{
		Name: fmt.Sprintf("%s in [%d, %d]", name, lo, hi),
		Check: func(v string) bool {
			n, err := strconv.Atoi(v)

			return err == nil && n >= lo && n <= hi
		},
	}
}

// IdentifierRule accepts canonical CAS numbers with a valid check digit.
func IdentifierRule() Rule {
	return Rule{
		Name: "CAS checksum",
		Check: func(v string) bool {
			id, ok := normalizer.ValidateIdentifier(v)

			return ok && id == v
		},
	}
}

// LabelsRule accepts list cells whose every label is in table or extra.
func LabelsRule(table normalizer.CategoryTable, extra ...string) Rule {
	allowed := make(map[string]bool)
	for _, l := range table.Labels() {
		allowed[l] = true
	}

	for _, l := range extra {
		allowed[l] = true
	}

	return Rule{
		Name: "known label",
		Check: func(v string) bool {
			for _, l := range models.SplitList(v) {
				if !allowed[l] {
					return false
				}
			}

			return true
		},
	}
}

// DateRule accepts ISO dates.
func DateRule() Rule {
	return Rule{
		Name: "ISO date",
		Check: func(v string) bool {
			_, err := time.Parse(normalizer.ISODate, v)

			return err == nil
		},
	}
}

// NumberRule accepts decimal numbers.
func NumberRule() Rule {
	return Rule{
		Name:  "number",
		Check: func(v string) bool { return models.ParseNumber(v).Valid },
	}
}

// FlagRule accepts true and false.
func FlagRule() Rule {
	return Rule{
		Name:  "boolean",
		Check: func(v string) bool { return v == "true" || v == "false" },
	}
}

// truncate truncates string to max length.
func truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}

	return s
}

// String returns string representation of validation result.
func (r *ValidationResult) String() string {
	status := "VALID"
	if !r.IsValid {
		status = "INVALID"
	}

	return fmt.Sprintf(
		"%s | Total: %d | Valid: %d | Invalid: %d | Warnings: %d",
		status,
		r.Stats.TotalRows,
		r.Stats.ValidRows,
		r.Stats.InvalidRows,
		len(r.Warnings),
	)
}
