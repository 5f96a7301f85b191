package models

import "time"

// Recall is a cleaned FSIS recall notice.
type Recall struct {
	RecallDate time.Time
	ClosedDate time.Time
	Provenance
	Title               string
	RecallNumber        string
	Establishment       string
	RiskLevel           string
	RecallReason        string
	RecallType          string
	Products            string
	ProcessingType      string
	EstablishmentNumber string
	States              []string
	QuantityLbs         Number
	RelatedToOutbreak   Flag
	IsActive            Flag
	Year                int
}

// RecallColumns is the processed recalls header.
var RecallColumns = append([]string{
	"title", "recall_number", "recall_date", "closed_date", "establishment", "risk_level",
	"recall_reason", "recall_type", "related_to_outbreak", "is_active", "products",
	"processing_type", "states", "quantity_lbs", "establishment_number", "year",
}, ProvenanceColumns...)

// Values renders the recall in RecallColumns order.
func (r Recall) Values() []string {
	return append([]string{
		r.Title, r.RecallNumber, FormatDate(r.RecallDate), FormatDate(r.ClosedDate), r.Establishment,
		r.RiskLevel, r.RecallReason, r.RecallType, r.RelatedToOutbreak.String(), r.IsActive.String(),
		r.Products, r.ProcessingType, JoinList(r.States), r.QuantityLbs.String(), r.EstablishmentNumber,
		FormatYear(r.Year),
	}, r.values()...)
}
