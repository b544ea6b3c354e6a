package sources

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeQuery collapses whitespace runs to single spaces and trims the ends.
func NormalizeQuery(q string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(q), " ")
}

// BuildQuery returns the occurrence filter for a species: exact taxon match,
// spatially valid records only, and human or machine observations.
func BuildQuery(remoteID string, since *time.Time) string {
	q := fmt.Sprintf(`
		lsid:%s AND
		geospatial_kosher:true AND
		(
			basis_of_record:HumanObservation OR
			basis_of_record:MachineObservation
		)
	`, remoteID)

	if since != nil {
		q += fmt.Sprintf(" AND last_load_date:[%s TO *]", since.UTC().Format(time.RFC3339))
	}

	return NormalizeQuery(q)
}
