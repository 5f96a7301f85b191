package models

// CDCObservation is one cleaned row of the CDC nutrition and obesity survey.
type CDCObservation struct {
	Provenance
	LocationAbbr           string
	LocationDesc           string
	Location               string
	Question               string
	StratificationCategory string
	Stratification         string
	DataValue              Number
	LowConfidence          Number
	HighConfidence         Number
	Year                   int
}

// CDCColumns is the processed CDC header.
var CDCColumns = append([]string{
	"year", "locationabbr", "locationdesc", "location", "question",
	"stratificationcategory1", "stratification1", "data_value",
	"low_confidence_limit", "high_confidence_limit",
}, ProvenanceColumns...)

// Values renders the observation in CDCColumns order.
func (o CDCObservation) Values() []string {
	return append([]string{
		FormatYear(o.Year), o.LocationAbbr, o.LocationDesc, o.Location, o.Question,
		o.StratificationCategory, o.Stratification, o.DataValue.String(),
		o.LowConfidence.String(), o.HighConfidence.String(),
	}, o.values()...)
}

// WHOObservation is one cleaned row of the WHO obesity prevalence export.
type WHOObservation struct {
	Provenance
	Location        string
	Sex             string
	ObesityRate     Number
	ConfidenceLower Number
	ConfidenceUpper Number
	Year            int
}

// WHOColumns is the processed WHO header.
var WHOColumns = append([]string{
	"year", "location", "sex", "obesity_rate", "confidence_lower", "confidence_upper",
}, ProvenanceColumns...)

// Values renders the observation in WHOColumns order.
func (o WHOObservation) Values() []string {
	return append([]string{
		FormatYear(o.Year), o.Location, o.Sex,
		o.ObesityRate.String(), o.ConfidenceLower.String(), o.ConfidenceUpper.String(),
	}, o.values()...)
}
