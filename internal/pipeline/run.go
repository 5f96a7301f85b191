package pipeline

import (
	"time"

	"github.com/google/uuid"

	"healthetl/internal/models"
)

// Data source tags stamped on processed records.
const (
	SourceFDASubstances = "FDA_SUBSTANCES"
	SourceGRASNotices   = "FDA_GRAS_NOTICES"
	SourceCDC           = "CDC"
	SourceWHO           = "WHO"
	SourceFSIS          = "FSIS"
)

// Run identifies one invocation of the ETL. Every record processed during the
// run carries the same id and timestamp.
type Run struct {
	StartedAt time.Time
	ID        string
}

// NewRun starts a run with a fresh id.
func NewRun() Run {
	return Run{ID: uuid.NewString(), StartedAt: time.Now().UTC().Truncate(time.Second)}
}

// Provenance returns the stamp for records from source.
func (r Run) Provenance(source string) models.Provenance {
	return models.Provenance{DataSource: source, ProcessedAt: r.StartedAt, RunID: r.ID}
}
