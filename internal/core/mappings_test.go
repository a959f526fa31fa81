package core

import (
	"errors"
	"reflect"
	"testing"
)

func TestValidateConfigName(t *testing.T) {
	if got, err := ValidateConfigName("  Standard "); err != nil || got != "Standard" {
		t.Errorf("ValidateConfigName() = %q, %v, want %q, nil", got, err, "Standard")
	}
	if _, err := ValidateConfigName("   "); !errors.Is(err, ErrMappingNameRequired) {
		t.Errorf("ValidateConfigName(blank) error = %v, want ErrMappingNameRequired", err)
	}
}

func TestApplyConfig(t *testing.T) {
	cfg := MappingConfig{
		Name: "Fournisseur A",
		Mappings: []ColumnMapping{
			{Header: "Col1", Field: FieldNom},
			{Header: "EMAIL", Field: FieldEmail},
			{Header: "Ancienne", Field: FieldVille},
		},
	}
	headers := []string{"col1", "Email", "Téléphone", "Inconnue"}

	got := ApplyConfig(cfg, headers)
	want := []ColumnMapping{
		{Header: "col1", Field: FieldNom},
		{Header: "Email", Field: FieldEmail},
		{Header: "Téléphone", Field: ""},
		{Header: "Inconnue", Field: ""},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ApplyConfig() = %+v, want %+v", got, want)
	}
}

func TestMatchConfigs(t *testing.T) {
	full := MappingConfig{Name: "full", Mappings: []ColumnMapping{
		{Header: "Nom", Field: FieldNom},
		{Header: "Email", Field: FieldEmail},
	}}
	mostly := MappingConfig{Name: "mostly", Mappings: []ColumnMapping{
		{Header: "Nom", Field: FieldNom},
		{Header: "Email", Field: FieldEmail},
		{Header: "Ville", Field: FieldVille},
		{Header: "CP", Field: FieldCodePostal},
	}}
	half := MappingConfig{Name: "half", Mappings: []ColumnMapping{
		{Header: "Nom", Field: FieldNom},
		{Header: "Autre", Field: FieldVille},
	}}
	empty := MappingConfig{Name: "empty"}

	headers := []string{" nom", "EMAIL", "Ville", "Tel"}
	got := MatchConfigs([]MappingConfig{half, mostly, empty, full}, headers)

	if len(got) != 2 {
		t.Fatalf("MatchConfigs() returned %d matches, want 2: %+v", len(got), got)
	}
	if got[0].Config.Name != "full" || got[0].Score != 1 {
		t.Errorf("best match = %s (%.2f), want full (1.00)", got[0].Config.Name, got[0].Score)
	}
	if got[1].Config.Name != "mostly" || got[1].Score != 0.75 {
		t.Errorf("second match = %s (%.2f), want mostly (0.75)", got[1].Config.Name, got[1].Score)
	}
}
