package pipeline

import (
	"strconv"
	"strings"

	"healthetl/internal/models"
)

// Validated obesity fields counted in Stats.Valid.
const (
	FieldYear     = "year"
	FieldRate     = "obesity_rate"
	FieldLocation = "location"
)

// parseYear reads a four-digit calendar year, or returns zero.
func parseYear(text string) int {
	text = strings.TrimSpace(text)
	if i := strings.IndexAny(text, "-T "); i == 4 {
		text = text[:4]
	}

	y, err := strconv.Atoi(text)
	if err != nil || y < 1000 || y > 9999 {
		return 0
	}

	return y
}

// CDCProcessor cleans rows of the CDC nutrition, physical activity and
// obesity survey.
type CDCProcessor struct {
	provenance models.Provenance
}

// NewCDCProcessor creates a CDC processor.
func NewCDCProcessor(prov models.Provenance) *CDCProcessor {
	return &CDCProcessor{provenance: prov}
}

// Process cleans one raw row.
func (p *CDCProcessor) Process(rec models.RawRecord, st *Stats) models.CDCObservation {
	o := models.CDCObservation{
		Provenance:             p.provenance,
		Year:                   parseYear(rec.Get("yearstart")),
		LocationAbbr:           rec.Get("locationabbr"),
		LocationDesc:           rec.Get("locationdesc"),
		Location:               rec.First("locationdesc", "locationabbr"),
		Question:               rec.Get("question"),
		StratificationCategory: rec.Get("stratificationcategory1"),
		Stratification:         rec.Get("stratification1"),
		DataValue:              models.ParseNumber(rec["data_value"]),
		LowConfidence:          models.ParseNumber(rec["low_confidence_limit"]),
		HighConfidence:         models.ParseNumber(rec["high_confidence_limit"]),
	}

	st.Check(FieldYear, o.Year != 0)
	st.Check(FieldLocation, o.Location != "")
	st.Check("data_value", o.DataValue.Valid)

	return o
}

// WHOProcessor cleans rows of the WHO obesity prevalence export.
type WHOProcessor struct {
	provenance models.Provenance
}

// NewWHOProcessor creates a WHO processor.
func NewWHOProcessor(prov models.Provenance) *WHOProcessor {
	return &WHOProcessor{provenance: prov}
}

// Process cleans one raw row.
func (p *WHOProcessor) Process(rec models.RawRecord, st *Stats) models.WHOObservation {
	o := models.WHOObservation{
		Provenance:      p.provenance,
		Year:            parseYear(rec.Get("DIM_TIME")),
		Location:        rec.Get("GEO_NAME_SHORT"),
		Sex:             rec.Get("DIM_SEX"),
		ObesityRate:     models.ParseNumber(rec["RATE_PER_100_N"]),
		ConfidenceLower: models.ParseNumber(rec["RATE_PER_100_NL"]),
		ConfidenceUpper: models.ParseNumber(rec["RATE_PER_100_NU"]),
	}

	st.Check(FieldYear, o.Year != 0)
	st.Check(FieldLocation, o.Location != "")
	st.Check(FieldRate, o.ObesityRate.Valid)

	return o
}
