package taxonomy

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/geoscribe/report-backend/internal/entity"
)

// Section is one section of a report template with its ordered subsections.
type Section struct {
	Name        string   `json:"name"`
	Subsections []string `json:"subsections"`
}

// Taxonomy maps a topic to its ordered section/subsection outline.
// Read-only after construction.
type Taxonomy struct {
	topics map[string][]Section
	order  []string
}

// attachmentSectionNames are the section names that collect uploaded files.
var attachmentSectionNames = map[string]struct{}{
	"Anlage":  {},
	"Anlagen": {},
	"Anhänge": {},
}

type taxonomyFile struct {
	Topics []struct {
		Topic    string    `json:"topic"`
		Sections []Section `json:"sections"`
	} `json:"topics"`
}

// New builds a taxonomy from an ordered topic list.
func New(topics []string, sections map[string][]Section) *Taxonomy {
	return &Taxonomy{
		topics: sections,
		order:  topics,
	}
}

// Load reads a taxonomy definition from a JSON file.
func Load(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy file: %w", err)
	}

	var file taxonomyFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse taxonomy JSON: %w", err)
	}

	if len(file.Topics) == 0 {
		return nil, fmt.Errorf("taxonomy file contains no topics: %s", path)
	}

	t := &Taxonomy{topics: make(map[string][]Section, len(file.Topics))}
	for _, topic := range file.Topics {
		if topic.Topic == "" || len(topic.Sections) == 0 {
			return nil, fmt.Errorf("taxonomy topic %q has no sections", topic.Topic)
		}
		t.topics[topic.Topic] = topic.Sections
		t.order = append(t.order, topic.Topic)
	}

	return t, nil
}

// Topics returns all known topics in definition order.
func (t *Taxonomy) Topics() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Sections returns the ordered section outline for a topic.
func (t *Taxonomy) Sections(topic string) ([]Section, error) {
	sections, ok := t.topics[topic]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrUnknownTopic, topic)
	}
	return sections, nil
}

// Validate checks that the (section, subsection) pair exists under a topic.
func (t *Taxonomy) Validate(topic, section, subsection string) error {
	sections, err := t.Sections(topic)
	if err != nil {
		return err
	}

	for _, sec := range sections {
		if sec.Name != section {
			continue
		}
		for _, sub := range sec.Subsections {
			if sub == subsection {
				return nil
			}
		}
		return fmt.Errorf("%w: %s/%s", entity.ErrUnknownSubsection, section, subsection)
	}

	return fmt.Errorf("%w: %s", entity.ErrUnknownSection, section)
}

// AttachmentSection returns the section that collects uploaded files for a
// topic, if the topic has one.
func (t *Taxonomy) AttachmentSection(topic string) (Section, bool) {
	sections, err := t.Sections(topic)
	if err != nil {
		return Section{}, false
	}

	for _, sec := range sections {
		if _, ok := attachmentSectionNames[sec.Name]; ok {
			return sec, true
		}
	}
	return Section{}, false
}

// Default returns the compiled-in report structure used when no taxonomy
// file is configured.
func Default() *Taxonomy {
	topics := []string{"Deklarationsanalyse", "Bodenuntersuchung", "Baugrundgutachten", "Plattendruckversuch"}

	sections := map[string][]Section{
		"Deklarationsanalyse": {
			{Name: "Stellungnahme", Subsections: []string{"Probenahmeprotokoll", "Laborberichte", "Auswertung"}},
			{Name: "Anhänge", Subsections: []string{"Dateien"}},
		},
		"Bodenuntersuchung": {
			{Name: "Projekt Details", Subsections: []string{"Untersuchungsmethoden", "Probenentnahme"}},
			{Name: "Projekt Objectives", Subsections: []string{"Bodenbeschaffenheit", "Analyseergebnisse"}},
			{Name: "Anhänge", Subsections: []string{"Laborberichte", "Fotos"}},
		},
		"Baugrundgutachten": {
			{Name: "Allgemeines und Bauvorhaben", Subsections: []string{
				"Anlass und Vorgaben", "Geländeverhältnisse und Bauwerk", "Geotechnische Kategorie",
				"Geologie", "Standortbezogene Gefährdungszonen",
			}},
			{Name: "Feldarbeiten", Subsections: []string{
				"Geotechnische Untersuchungen", "Untergrundverhältnisse", "Grundwasserverhältnisse",
				"Wasserdurchlässigkeit der Böden",
			}},
			{Name: "Bodenkennwerte und Klassifikation", Subsections: []string{
				"Geotechnische Kennwerte", "Bodenklassifikation und Homogenbereiche",
			}},
			{Name: "Gründungsempfehlung", Subsections: []string{
				"Baugrundbeurteilung", "Einzel- und Streifenfundamente", "Fundamentplatte",
				"Allgemeine Vorgaben für alle Gründungsvarianten", "Angaben zur Bemessung der Gründung",
			}},
			{Name: "Wasserbeanspruchung und Abdichtung", Subsections: []string{"Wasserbeanspruchung und Abdichtung"}},
			{Name: "Bauausführung", Subsections: []string{
				"Herstellen der Baugrube", "Wiedereinbau von anfallendem Bodenaushub",
				"Entsorgung von Bodenaushub", "Hinweise",
			}},
			{Name: "Schlussbemerkung", Subsections: []string{"Schlussbemerkung"}},
			{Name: "Anhänge", Subsections: []string{"Gutachten", "Pläne"}},
		},
		"Plattendruckversuch": {
			{Name: "Projekt Details", Subsections: []string{"Versuchsaufbau", "Durchführung"}},
			{Name: "Projekt Objectives", Subsections: []string{"Messergebnisse", "Auswertung"}},
			{Name: "Anhänge", Subsections: []string{"Messprotokolle", "Diagramme"}},
		},
	}

	return New(topics, sections)
}
