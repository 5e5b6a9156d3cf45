package handover

import (
	"fmt"
	"strings"

	"github.com/epd/epd/internal/domain/overview"
)

const systemPrompt = `Je bent een ervaren GGZ-verpleegkundige. Schrijf een beknopte, feitelijke ` +
	`overdracht in het Nederlands voor de volgende dienst. Begin met de belangrijkste ` +
	`risico's en signalen, noem daarna relevante gebeurtenissen en afspraken. ` +
	`Gebruik alleen informatie uit de aangeleverde rapportages en verzin niets.`

const maxNoteChars = 1200

func buildPrompt(p overview.PatientIdentity, w overview.Window, tally overview.AlertTally, notes []Note) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Patiënt: %s", p.DisplayName())
	if p.BirthDate != nil {
		fmt.Fprintf(&b, " (geboren %s)", p.BirthDate.Format("2006-01-02"))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Periode: %s t/m %s (%d dagen)\n", w.StartDate(), w.Date(), w.Period.Days())
	fmt.Fprintf(&b, "Signalen: hoog risico %d, afwijkende vitale functies %d, gemarkeerd voor overdracht %d, incidenten %d\n",
		tally.HighRiskCount, tally.AbnormalVitalsCount, tally.MarkedForHandoverCount, tally.IncidentCount)

	b.WriteString("\nRapportages (nieuwste eerst):\n")
	if len(notes) == 0 {
		b.WriteString("Geen rapportages in deze periode.\n")
		return b.String()
	}
	for _, n := range notes {
		label := n.Type
		if n.Category != "" {
			label += "/" + n.Category
		}
		fmt.Fprintf(&b, "- %s [%s] %s\n", n.CreatedAt.Format("2006-01-02 15:04"), label, truncate(oneLine(n.Content), maxNoteChars))
	}
	return b.String()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
