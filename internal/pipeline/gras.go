package pipeline

import (
	"fmt"

	"healthetl/internal/models"
	"healthetl/internal/normalizer"
)

// GRAS notices source columns.
const (
	colIntendedUse     = "intended_use"
	colBasis           = "basis"
	colNotifier        = "notifier"
	colNotifierAddress = "notifier_address"
	colFilingDate      = "date_of_filing"
	colClosureDate     = "date_of_closure"
	colGRN             = "gras_notice_(grn)_no."
	colLetter          = "fda's_letter"
)

// Validated GRAS fields counted in Stats.Valid.
const (
	FieldGRNNo       = "grn_no"
	FieldFilingDate  = "date_of_filing"
	FieldClosureDate = "date_of_closure"
	FieldFilingYear  = "filing_year"
)

// Sources of a reconciled filing year.
const (
	FilingFromDate   = "filing_date"
	FilingFromText   = "filing_text"
	FilingFromNotice = "notice_number"
)

// NoticeProcessor cleans rows of the GRAS notice inventory.
type NoticeProcessor struct {
	proc       *normalizer.Processor
	provenance models.Provenance
	// noticeFallback lets the notice number stand in for a filing year.
	noticeFallback bool
}

// NewNoticeProcessor creates a GRAS notice processor.
func NewNoticeProcessor(opts normalizer.Options, noticeFallback bool, prov models.Provenance) (*NoticeProcessor, error) {
	proc, err := normalizer.NewProcessor(opts)
	if err != nil {
		return nil, fmt.Errorf("notices: %w", err)
	}

	return &NoticeProcessor{proc: proc, provenance: prov, noticeFallback: noticeFallback}, nil
}

// Process cleans one raw row.
func (p *NoticeProcessor) Process(rec models.RawRecord, st *Stats) models.Notice {
	n := models.Notice{
		Provenance:      p.provenance,
		Substance:       p.proc.Text(rec[colSubstance]),
		IntendedUse:     p.proc.Text(rec[colIntendedUse]),
		Basis:           p.proc.Text(rec[colBasis]),
		Notifier:        p.proc.Text(rec[colNotifier]),
		NotifierAddress: p.proc.Text(rec[colNotifierAddress]),
		Letter:          p.proc.Text(rec[colLetter]),
	}

	var ok bool

	n.FilingDate, ok = p.proc.Date(rec[colFilingDate])
	st.Check(FieldFilingDate, ok)

	n.ClosureDate, ok = p.proc.Date(rec[colClosureDate])
	st.Check(FieldClosureDate, ok)

	n.GRNNo, ok = normalizer.ParseNoticeNumber(rec[colGRN])
	st.Check(FieldGRNNo, ok)

	var dateYear, textYear int
	if !n.FilingDate.IsZero() {
		dateYear = n.FilingDate.Year()
	} else {
		textYear, _ = p.proc.Year(rec[colFilingDate])
	}

	candidates := []normalizer.Candidate[int]{
		{Source: FilingFromDate, Value: dateYear},
		{Source: FilingFromText, Value: textYear},
	}

	if p.noticeFallback && n.GRNNo != 0 {
		estimate, _ := p.proc.NoticeYear(n.GRNNo)
		candidates = append(candidates, normalizer.Candidate[int]{Source: FilingFromNotice, Value: estimate})
	}

	if won, ok := normalizer.ReconcileFrom(candidates...); ok {
		n.FilingYear = won.Value
		st.Check(FieldFilingYear, true)
		st.AddSource(won.Source)
	}

	n.FDAResponse = p.proc.Response(rec[colLetter])
	st.AddCategories(n.FDAResponse)

	return n
}

// Bounds returns the accepted year range.
func (p *NoticeProcessor) Bounds() (int, int) {
	return p.proc.Extractor().Bounds()
}
