package migration

import (
	"sort"

	"github.com/AisleiAvila/HomeService-sub001/internal/domain/workflow"
)

// Report summarises a migration run for data-quality audits and backfills
type Report struct {
	Total     int                     `json:"total"`
	Canonical int                     `json:"canonical"`
	Migrated  int                     `json:"migrated"`
	Fallback  int                     `json:"fallback"`
	ByStatus  map[workflow.Status]int `json:"by_status"`
	Unknown   []string                `json:"unknown"`
	Entries   []Result                `json:"entries"`
}

// GetMigrationReport inspects every input. Unknown inputs are listed in the
// report rather than sent to the anomaly sink.
func (m *Migrator) GetMigrationReport(inputs []string) Report {
	report := Report{
		ByStatus: make(map[workflow.Status]int),
		Unknown:  []string{},
		Entries:  make([]Result, 0, len(inputs)),
	}

	seen := make(map[string]bool)
	for _, s := range inputs {
		res := m.Inspect(s)
		report.Total++
		report.ByStatus[res.Status]++
		report.Entries = append(report.Entries, res)

		switch res.Outcome {
		case OutcomeCanonical:
			report.Canonical++
		case OutcomeLegacy:
			report.Migrated++
		case OutcomeFallback:
			report.Fallback++
			if !seen[s] {
				seen[s] = true
				report.Unknown = append(report.Unknown, s)
			}
		}
	}

	sort.Strings(report.Unknown)
	return report
}

// HasAnomalies reports whether any input required the fallback
func (r Report) HasAnomalies() bool {
	return r.Fallback > 0
}
