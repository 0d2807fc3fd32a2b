package conversation

import (
	"fmt"
	"strings"

	"github.com/geoscribe/report-backend/internal/taxonomy"
)

// buildStartInstruction composes the opening user message for a fresh
// thread: the full document outline, the subsection to focus on, an
// isolation clause and the two-part reply format. The format example is
// deliberately unfenced; fenced replies are tolerated on parse but not
// encouraged.
func buildStartInstruction(topic string, outline []taxonomy.Section, section, subsection string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Unser Thema ist '%s'. ", topic)
	b.WriteString("Du hilfst dem User, ein Dokument mit den folgenden Sektionen zu erstellen:\n")
	for _, s := range outline {
		fmt.Fprintf(&b, "- %s: %s\n", s.Name, strings.Join(s.Subsections, ", "))
	}

	fmt.Fprintf(&b, "\nWir arbeiten jetzt ausschließlich an der Sektion '%s', Untersektion '%s'. ", section, subsection)
	b.WriteString("Stelle dem User gezielte Fragen zu dieser Untersektion und gehe nicht zu anderen Sektionen über, bevor diese abgeschlossen ist.\n\n")

	b.WriteString("Antworte immer in zwei Teilen, getrennt durch eine Leerzeile. ")
	b.WriteString("Teil 1 ist ein JSON-Objekt mit den extrahierten Daten im Format ")
	fmt.Fprintf(&b, `{"%s": {"%s": "Wert"}}`, section, subsection)
	b.WriteString(". Teil 2 ist deine Nachricht an den User als reiner Text. ")
	b.WriteString("Kein Markdown-Codeblock um das JSON.")

	return b.String()
}

// buildCorrectionMessage asks for a resend in the contract format after
// a reply that carried prose but no extractable data. It includes a
// worked example so the resend cannot miss the shape.
func buildCorrectionMessage(section, subsection string) string {
	return fmt.Sprintf(
		"Deine letzte Antwort enthielt keinen JSON-Teil. "+
			"Bitte wiederhole sie in zwei Teilen, getrennt durch eine Leerzeile. Beispiel:\n\n"+
			`{"%s": {"%s": "3 Kernbohrungen bis 12 m Tiefe"}}`+"\n\n"+
			"Ich habe die Angaben zu den Bohrungen übernommen.",
		section, subsection,
	)
}
