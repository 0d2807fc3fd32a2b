package taxonomy

import (
	"fmt"

	"github.com/geoscribe/report-backend/internal/entity"
)

// coverStructures is the compiled-in cover page layout per topic. Every
// topic shares the project, client and order blocks; the document
// subtitle default carries the governing norm.
var coverStructures = map[string]map[string]map[string]entity.CoverField{
	"Baugrundgutachten":   coverStructure("NACH DIN 4020", nil),
	"Deklarationsanalyse": coverStructure("NACH DEPV", nil),
	"Bodenuntersuchung": coverStructure("NACH DIN 18196", map[string]map[string]entity.CoverField{
		"PROBENENTNAHME": {
			"sampling_location": {Label: "Probenentnahmeort", Type: "text"},
			"signature_name":    {Label: "Unterschrift Name", Type: "text"},
			"company_info":      {Label: "Firmeninformationen", Type: "text"},
		},
	}),
	"Plattendruckversuch": coverStructure("NACH DIN 18134", map[string]map[string]entity.CoverField{
		"VERSUCHSDETAILS": {
			"test_location":  {Label: "Versuchsort", Type: "text"},
			"signature_name": {Label: "Unterschrift Name", Type: "text"},
			"company_info":   {Label: "Firmeninformationen", Type: "text"},
		},
	}),
}

func coverStructure(subtitleDefault string, extra map[string]map[string]entity.CoverField) map[string]map[string]entity.CoverField {
	s := map[string]map[string]entity.CoverField{
		"PROJEKTBESCHREIBUNG": {
			"document_subtitle": {Label: "Dokumentuntertitel", Type: "text", Default: subtitleDefault},
			"project_name":      {Label: "Projektname", Type: "text", Required: true},
			"project_line2":     {Label: "Projektbeschreibung Zeile 2", Type: "text"},
			"property_info":     {Label: "Flurstück / Gemarkung", Type: "text"},
			"street":            {Label: "Straße", Type: "text"},
			"house_number":      {Label: "Hausnummer", Type: "text"},
			"postal_code":       {Label: "Postleitzahl", Type: "text"},
			"city":              {Label: "Stadt", Type: "text"},
		},
		"AUFTRAGGEBER": {
			"client_company":      {Label: "Firma", Type: "text", Required: true},
			"client_name":         {Label: "Vor- und Nachname", Type: "text", Required: true},
			"client_street":       {Label: "Straße", Type: "text"},
			"client_house_number": {Label: "Hausnummer", Type: "text"},
			"client_postal_code":  {Label: "Postleitzahl", Type: "text"},
			"client_city":         {Label: "Stadt", Type: "text"},
		},
		"AUFTRAG": {
			"order_number":  {Label: "Auftragsnummer", Type: "text", Required: true},
			"creation_date": {Label: "Erstellt am", Type: "date"},
			"author":        {Label: "Erstellt durch", Type: "text"},
		},
	}
	for name, fields := range extra {
		s[name] = fields
	}
	return s
}

// CoverStructure returns the cover page layout for a topic.
func (t *Taxonomy) CoverStructure(topic string) (map[string]map[string]entity.CoverField, error) {
	if _, ok := t.topics[topic]; !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrUnknownTopic, topic)
	}

	structure, ok := coverStructures[topic]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrNoCoverStructure, topic)
	}
	return structure, nil
}
