package validator

import (
	"healthetl/internal/models"
	"healthetl/internal/normalizer"
)

// Year bounds for datasets whose years are not extracted from free text.
const (
	MinObservedYear = 1900
	MaxObservedYear = 2100
)

// SubstanceContract is the contract of the processed FDA substances file.
func SubstanceContract(minYear, maxYear int, yearColumns []string) Contract {
	years := YearRule(minYear, maxYear)

	c := Contract{
		Name:     "fda_substances",
		Required: []string{"substance", "cas_reg_no", "technical_effects", "approval_year", "data_source"},
		Rules: map[string]Rule{
			"cas_reg_no":        IdentifierRule(),
			"technical_effects": LabelsRule(normalizer.TechnicalEffects),
			"approval_year":     years,
		},
	}

	for _, col := range yearColumns {
		c.Rules[col+models.YearColumnSuffix] = years
	}

	return c
}

// YearSummaryContract is the contract of the approvals-by-year file.
func YearSummaryContract() Contract {
	return Contract{
		Name:     "fda_approvals_by_year",
		Required: models.YearSummaryColumns,
		Rules: map[string]Rule{
			"year":       YearRule(MinObservedYear, MaxObservedYear),
			"pct_change": NumberRule(),
		},
	}
}

// NoticeContract is the contract of the processed GRAS notices file.
func NoticeContract(minYear, maxYear int) Contract {
	responses := LabelsRule(normalizer.FDAResponses, normalizer.ResponseUnknown, normalizer.ResponseOther)

	return Contract{
		Name:     "gras_notices",
		Required: []string{"grn_no", "date_of_filing", "filing_year", "fda_response"},
		Rules: map[string]Rule{
			"grn_no":          RangeRule("notice number", normalizer.MinNoticeNumber, normalizer.MaxNoticeNumber),
			"date_of_filing":  DateRule(),
			"date_of_closure": DateRule(),
			"filing_year":     YearRule(minYear, maxYear),
			"fda_response":    responses,
		},
	}
}

// CDCContract is the contract of the processed CDC file.
func CDCContract() Contract {
	return Contract{
		Name:     "cdc_obesity",
		Required: []string{"year", "location", "data_value"},
		Rules: map[string]Rule{
			"year":                  YearRule(MinObservedYear, MaxObservedYear),
			"data_value":            NumberRule(),
			"low_confidence_limit":  NumberRule(),
			"high_confidence_limit": NumberRule(),
		},
	}
}

// WHOContract is the contract of the processed WHO file.
func WHOContract() Contract {
	return Contract{
		Name:     "who_obesity",
		Required: []string{"year", "location", "obesity_rate"},
		Rules: map[string]Rule{
			"year":             YearRule(MinObservedYear, MaxObservedYear),
			"obesity_rate":     NumberRule(),
			"confidence_lower": NumberRule(),
			"confidence_upper": NumberRule(),
		},
	}
}

// RecallContract is the contract of the processed FSIS recalls file.
func RecallContract() Contract {
	return Contract{
		Name:     "fsis_recalls",
		Required: []string{"recall_number", "recall_date", "risk_level", "states", "year"},
		Rules: map[string]Rule{
			"recall_date":         DateRule(),
			"closed_date":         DateRule(),
			"year":                YearRule(MinObservedYear, MaxObservedYear),
			"quantity_lbs":        NumberRule(),
			"related_to_outbreak": FlagRule(),
			"is_active":           FlagRule(),
		},
	}
}
