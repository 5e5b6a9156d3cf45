package overview

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Ranker orders overview rows by total alerts, then by name as a roster
// in the configured language would list them.
type Ranker struct {
	lang language.Tag
}

func NewRanker(lang language.Tag) *Ranker {
	return &Ranker{lang: lang}
}

// Rank builds one row per identity and sorts them: total alerts descending,
// then family name, primary given name and patient id ascending. Names are
// compared with a collator for the ranker's language.
func (r *Ranker) Rank(patients []PatientIdentity, tallies Tallies) []PatientOverview {
	rows := make([]PatientOverview, 0, len(patients))
	for _, p := range patients {
		var t AlertTally
		if tally, ok := tallies[p.ID]; ok {
			t = *tally
		}
		rows = append(rows, NewPatientOverview(p, t))
	}

	// collate.Collator keeps internal buffers and is not safe for concurrent use.
	col := collate.New(r.lang)
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.TotalAlerts != b.TotalAlerts {
			return a.TotalAlerts > b.TotalAlerts
		}
		if c := col.CompareString(a.FamilyName, b.FamilyName); c != 0 {
			return c < 0
		}
		if c := col.CompareString(a.PrimaryGivenName(), b.PrimaryGivenName()); c != 0 {
			return c < 0
		}
		return strings.Compare(a.ID.String(), b.ID.String()) < 0
	})
	return rows
}
