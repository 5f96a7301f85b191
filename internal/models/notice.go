package models

import "time"

// Notice is a cleaned GRAS notice.
type Notice struct {
	FilingDate  time.Time
	ClosureDate time.Time
	Provenance
	Substance       string
	IntendedUse     string
	Basis           string
	Notifier        string
	NotifierAddress string
	Letter          string
	FDAResponse     string
	GRNNo           int
	FilingYear      int
}

// NoticeColumns is the processed GRAS notices header.
var NoticeColumns = append([]string{
	"grn_no", "substance", "intended_use", "basis", "notifier", "notifier_address",
	"date_of_filing", "date_of_closure", "filing_year", "fda's_letter", "fda_response",
}, ProvenanceColumns...)

// Values renders the notice in NoticeColumns order.
func (n Notice) Values() []string {
	return append([]string{
		FormatInt(n.GRNNo), n.Substance, n.IntendedUse, n.Basis, n.Notifier, n.NotifierAddress,
		FormatDate(n.FilingDate), FormatDate(n.ClosureDate), FormatYear(n.FilingYear), n.Letter, n.FDAResponse,
	}, n.values()...)
}
