package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrNoExportFields is returned when an export selects no known field.
var ErrNoExportFields = errors.New("select at least one field to export")

var frenchMonths = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

// ExportFileName returns the download name for an export made at now.
func ExportFileName(now time.Time) string {
	return "prospects_" + now.Format("2006-01-02") + ".csv"
}

// ExportCSV writes prospects as semicolon-delimited UTF-8 with a leading
// BOM. Columns follow the order of keys; unknown keys are skipped.
func ExportCSV(w io.Writer, prospects []Prospect, keys []FieldKey) error {
	var cols []FieldDescriptor
	for _, k := range keys {
		if f, ok := LookupField(k); ok {
			cols = append(cols, f)
		}
	}
	if len(cols) == 0 {
		return ErrNoExportFields
	}

	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	cw := csv.NewWriter(w)
	cw.Comma = ';'

	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Label
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(cols))
	for _, p := range prospects {
		for i, c := range cols {
			record[i] = exportValue(p, c)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write prospect %s: %w", p.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func exportValue(p Prospect, f FieldDescriptor) string {
	switch f.Key {
	case FieldStatus:
		return StatusLabel(p.Status)
	case FieldProprietaire:
		return ouiNon(p.Proprietaire)
	case FieldCredit:
		return ouiNon(p.Credit)
	case FieldDateCreation:
		return FormatFrenchDate(p.DateCreation)
	case FieldDernierAppel:
		if p.DernierAppel == nil {
			return ""
		}
		return FormatFrenchDate(*p.DernierAppel)
	case FieldMontantElectricite:
		return euros(p.MontantElectricite)
	case FieldRevenus:
		return euros(p.Revenus)
	case FieldProspectPrice:
		return euros(p.ProspectPrice)
	case FieldLeadPrice:
		if p.LeadPrice == nil {
			return euros(0)
		}
		return euros(*p.LeadPrice)
	case FieldNom:
		return p.Nom
	case FieldPrenom:
		return p.Prenom
	case FieldEmail:
		return p.Email
	case FieldTelephone:
		return p.Telephone
	case FieldVille:
		return p.Ville
	case FieldCampagne:
		return p.Campagne
	case FieldCodePostal:
		return p.CodePostal
	case FieldDepartement:
		return p.Departement
	case FieldModeChauffage:
		return p.ModeChauffage
	case FieldSolution:
		return p.Solution
	}
	return ""
}

// FormatFrenchDate renders t as "2 janvier 2006 15:04" in local time.
func FormatFrenchDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.Local()
	return fmt.Sprintf("%d %s %d %02d:%02d", t.Day(), frenchMonths[t.Month()-1], t.Year(), t.Hour(), t.Minute())
}

func ouiNon(b bool) string {
	if b {
		return "Oui"
	}
	return "Non"
}

func euros(f float64) string {
	return formatFloat(f) + "€"
}

// ExportProspects writes the current collection with ExportCSV.
func (s *Service) ExportProspects(w io.Writer, keys []FieldKey) error {
	return ExportCSV(w, s.Prospects(), keys)
}
