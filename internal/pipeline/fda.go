package pipeline

import (
	"fmt"

	"healthetl/internal/models"
	"healthetl/internal/normalizer"
)

// FDA substances source columns.
const (
	colSubstance       = "substance"
	colOtherNames      = "other_names"
	colTechnicalEffect = "used_for_(technical_effect)"
	colCASRegNo        = "cas_reg_no_(or_other_id)"
)

// Validated FDA fields counted in Stats.Valid.
const (
	FieldCASRegNo         = "cas_reg_no"
	FieldTechnicalEffects = "technical_effects"
	FieldApprovalYear     = "approval_year"
)

// DefaultYearColumns are the FDA columns searched for an approval year, in
// priority order.
var DefaultYearColumns = []string{
	"gras_pub_no",
	"most_recent_gras_pub_update",
	"reg_administrative",
	"regs_labeling_&_standards",
}

// SubstanceProcessor cleans rows of the FDA substances inventory.
type SubstanceProcessor struct {
	proc        *normalizer.Processor
	provenance  models.Provenance
	yearColumns []string
}

// NewSubstanceProcessor creates a processor that reads approval years from
// yearColumns, first column winning.
func NewSubstanceProcessor(
	opts normalizer.Options,
	yearColumns []string,
	prov models.Provenance,
) (*SubstanceProcessor, error) {
	proc, err := normalizer.NewProcessor(opts)
	if err != nil {
		return nil, fmt.Errorf("substances: %w", err)
	}

	if len(yearColumns) == 0 {
		yearColumns = DefaultYearColumns
	}

	return &SubstanceProcessor{proc: proc, provenance: prov, yearColumns: yearColumns}, nil
}

// Columns returns the processed header.
func (p *SubstanceProcessor) Columns() []string {
	return models.SubstanceColumns(p.yearColumns)
}

// Process cleans one raw row.
func (p *SubstanceProcessor) Process(rec models.RawRecord, st *Stats) models.Substance {
	s := models.Substance{
		Provenance:      p.provenance,
		Name:            p.proc.Text(rec[colSubstance]),
		OtherNames:      p.proc.Text(rec[colOtherNames]),
		TechnicalEffect: p.proc.Text(rec[colTechnicalEffect]),
		SourceYears:     make([]int, len(p.yearColumns)),
	}

	cas, ok := p.proc.Identifier(rec[colCASRegNo])
	s.CASRegNo = cas
	st.Check(FieldCASRegNo, ok)

	s.TechnicalEffects = p.proc.Categories(s.TechnicalEffect)
	st.Check(FieldTechnicalEffects, len(s.TechnicalEffects) > 0)
	st.AddCategories(s.TechnicalEffects...)

	candidates := make([]normalizer.Candidate[int], len(p.yearColumns))
	for i, col := range p.yearColumns {
		year, ok := p.proc.Year(rec[col])
		s.SourceYears[i] = year
		st.Check(col+models.YearColumnSuffix, ok)
		candidates[i] = normalizer.Candidate[int]{Source: col, Value: year}
	}

	if won, ok := normalizer.ReconcileFrom(candidates...); ok {
		s.ApprovalYear = won.Value
		s.ApprovalSource = won.Source
		st.Check(FieldApprovalYear, true)
		st.AddSource(won.Source)
	}

	return s
}

// ApprovalYears lists the approval year of every substance.
func ApprovalYears(substances []models.Substance) []int {
	years := make([]int, len(substances))
	for i, s := range substances {
		years[i] = s.ApprovalYear
	}

	return years
}

// Bounds returns the accepted year range.
func (p *SubstanceProcessor) Bounds() (int, int) {
	return p.proc.Extractor().Bounds()
}
