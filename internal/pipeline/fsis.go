package pipeline

import (
	"regexp"
	"strings"
	"time"

	"healthetl/internal/models"
)

// Validated recall fields counted in Stats.Valid.
const (
	FieldRecallDate          = "recall_date"
	FieldQuantity            = "quantity_lbs"
	FieldEstablishmentNumber = "establishment_number"
)

// RiskUnknown is the risk level of recalls that carry none.
const RiskUnknown = "Unknown"

var (
	quantityPattern      = regexp.MustCompile(`(\d+(?:,\d+)?(?:\.\d+)?)`)
	establishmentPattern = regexp.MustCompile(`(?i)establishment number ["']?(EST\.?\s*\d+)["']?`)
)

var recallDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
}

func parseRecallDate(text string) time.Time {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}
	}

	for _, layout := range recallDateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t
		}
	}

	return time.Time{}
}

// ParseQuantity reads the first number of a recovered-quantity note such as
// "1,234.5 pounds".
func ParseQuantity(text string) models.Number {
	m := quantityPattern.FindString(text)
	if m == "" {
		return models.Number{}
	}

	return models.ParseNumber(strings.ReplaceAll(m, ",", ""))
}

// ParseEstablishmentNumber finds an "establishment number EST. 123" mention.
func ParseEstablishmentNumber(text string) string {
	m := establishmentPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}

	return m[1]
}

// FilterLanguage keeps records in lang. Records without a language code are
// kept; an empty lang keeps everything.
func FilterLanguage(records []models.RawRecord, lang string) ([]models.RawRecord, int) {
	if lang == "" {
		return records, 0
	}

	kept := make([]models.RawRecord, 0, len(records))
	for _, rec := range records {
		if code := rec.Get("langcode"); code != "" && !strings.EqualFold(code, lang) {
			continue
		}

		kept = append(kept, rec)
	}

	return kept, len(records) - len(kept)
}

// RecallProcessor cleans FSIS recall records.
type RecallProcessor struct {
	provenance models.Provenance
}

// NewRecallProcessor creates a recall processor.
func NewRecallProcessor(prov models.Provenance) *RecallProcessor {
	return &RecallProcessor{provenance: prov}
}

// Process cleans one raw record.
func (p *RecallProcessor) Process(rec models.RawRecord, st *Stats) models.Recall {
	r := models.Recall{
		Provenance:          p.provenance,
		Title:               rec.Get("field_title"),
		RecallNumber:        rec.Get("field_recall_number"),
		RecallDate:          parseRecallDate(rec["field_recall_date"]),
		ClosedDate:          parseRecallDate(rec["field_closed_date"]),
		Establishment:       rec.Get("field_establishment"),
		RiskLevel:           rec.Get("field_risk_level"),
		RecallReason:        rec.Get("field_recall_reason"),
		RecallType:          rec.Get("field_recall_type"),
		RelatedToOutbreak:   models.ParseFlag(rec["field_related_to_outbreak"]),
		IsActive:            models.ParseFlag(rec["field_active_notice"]),
		Products:            rec.Get("field_product_items"),
		ProcessingType:      rec.Get("field_processing"),
		States:              splitStates(rec["field_states"]),
		QuantityLbs:         ParseQuantity(rec["field_qty_recovered"]),
		EstablishmentNumber: ParseEstablishmentNumber(rec["field_summary"]),
	}

	if r.RiskLevel == "" {
		r.RiskLevel = RiskUnknown
	}

	if !r.RecallDate.IsZero() {
		r.Year = r.RecallDate.Year()
	}

	st.Check(FieldRecallDate, r.Year != 0)
	st.Check(FieldQuantity, r.QuantityLbs.Valid)
	st.Check(FieldEstablishmentNumber, r.EstablishmentNumber != "")
	st.AddCategories(r.RiskLevel)

	return r
}

func splitStates(cell string) []string {
	var states []string

	for s := range strings.SplitSeq(cell, ",") {
		if s = strings.TrimSpace(s); s != "" {
			states = append(states, s)
		}
	}

	return states
}
