package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// synonyms maps a normalized header to its target field.
// Keys contain only lowercase ASCII letters.
var synonyms = map[string]FieldKey{
	"nom":                FieldNom,
	"name":               FieldNom,
	"lastname":           FieldNom,
	"nomdefamille":       FieldNom,
	"prenom":             FieldPrenom,
	"firstname":          FieldPrenom,
	"email":              FieldEmail,
	"mail":               FieldEmail,
	"courriel":           FieldEmail,
	"adressemail":        FieldEmail,
	"telephone":          FieldTelephone,
	"phone":              FieldTelephone,
	"tel":                FieldTelephone,
	"portable":           FieldTelephone,
	"mobile":             FieldTelephone,
	"ville":              FieldVille,
	"city":               FieldVille,
	"campagne":           FieldCampagne,
	"campaign":           FieldCampagne,
	"proprietaire":       FieldProprietaire,
	"owner":              FieldProprietaire,
	"codepostal":         FieldCodePostal,
	"zipcode":            FieldCodePostal,
	"zip":                FieldCodePostal,
	"cp":                 FieldCodePostal,
	"departement":        FieldDepartement,
	"chauffage":          FieldModeChauffage,
	"modedechauffage":    FieldModeChauffage,
	"electricite":        FieldMontantElectricite,
	"montantelectricite": FieldMontantElectricite,
	"revenus":            FieldRevenus,
	"revenu":             FieldRevenus,
	"income":             FieldRevenus,
	"credit":             FieldCredit,
	"solution":           FieldSolution,
	"dernierappel":       FieldDernierAppel,
	"statut":             FieldStatus,
	"status":             FieldStatus,
}

// NormalizeHeader lower-cases h, folds accents and keeps only a-z.
func NormalizeHeader(h string) string {
	folded := strings.ToLower(foldAccents(h))

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Guess returns the best-guess target field for a raw CSV header, or ""
// when the header is not recognized. It is pure and never fails.
func Guess(header string) FieldKey {
	return synonyms[NormalizeHeader(header)]
}

// DefaultMappings returns one guessed mapping per header, in header order.
func DefaultMappings(headers []string) []ColumnMapping {
	out := make([]ColumnMapping, len(headers))
	for i, h := range headers {
		out[i] = ColumnMapping{Header: h, Field: Guess(h)}
	}
	return out
}

// foldAccents decomposes accented letters and drops the combining marks,
// so "Téléphone" becomes "Telephone" rather than losing its vowels.
// Transformers are stateful, so a new chain is built per call.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
