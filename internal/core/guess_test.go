package core

import (
	"reflect"
	"testing"
)

func TestGuess(t *testing.T) {
	tests := []struct {
		header string
		want   FieldKey
	}{
		{"E-Mail", FieldEmail},
		{"email", FieldEmail},
		{"Email ", FieldEmail},
		{"MAIL", FieldEmail},
		{"Nom", FieldNom},
		{"Last Name", FieldNom},
		{"name", FieldNom},
		{"Prénom", FieldPrenom},
		{"First_Name", FieldPrenom},
		{"Téléphone", FieldTelephone},
		{"Tel.", FieldTelephone},
		{"phone", FieldTelephone},
		{"Code Postal", FieldCodePostal},
		{"zip-code", FieldCodePostal},
		{"Département", FieldDepartement},
		{"Propriétaire", FieldProprietaire},
		{"Chauffage", FieldModeChauffage},
		{"Électricité", FieldMontantElectricite},
		{"Revenus 2023", FieldRevenus},
		{"Crédit", FieldCredit},
		{"Ville", FieldVille},
		{"Campagne", FieldCampagne},
		{"Solution", FieldSolution},
		{"xyzzy", ""},
		{"", ""},
		{"123", ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			if got := Guess(tt.header); got != tt.want {
				t.Errorf("Guess(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestGuessNeverTargetsReadOnlyFields(t *testing.T) {
	for header, key := range synonyms {
		f, ok := LookupField(key)
		if !ok {
			t.Errorf("synonym %q targets unknown field %q", header, key)
			continue
		}
		if f.ReadOnly {
			t.Errorf("synonym %q targets read-only field %q", header, key)
		}
	}
}

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Téléphone", "telephone"},
		{"  Code-Postal ", "codepostal"},
		{"Mode de chauffage", "modedechauffage"},
		{"Œuvre 1", "uvre"},
		{"Ça", "ca"},
	}

	for _, tt := range tests {
		if got := NormalizeHeader(tt.input); got != tt.want {
			t.Errorf("NormalizeHeader(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestDefaultMappingsIsDeterministic(t *testing.T) {
	headers := []string{"Nom", "Email", "Téléphone", "Inconnu"}

	first := DefaultMappings(headers)
	second := DefaultMappings(headers)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("DefaultMappings not stable: %v vs %v", first, second)
	}

	want := []ColumnMapping{
		{Header: "Nom", Field: FieldNom},
		{Header: "Email", Field: FieldEmail},
		{Header: "Téléphone", Field: FieldTelephone},
		{Header: "Inconnu", Field: ""},
	}
	if !reflect.DeepEqual(first, want) {
		t.Errorf("DefaultMappings() = %v, want %v", first, want)
	}
}
