package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidateEndToEnd(t *testing.T) {
	csv := "Nom,Email,Téléphone\nDupont,jean@x.fr,0102030405\n,bad-email,123\n"

	parsed, err := Parse(strings.NewReader(csv), ParseOptions{})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	mapping := DefaultMappings(parsed.Headers)
	want := []FieldKey{FieldNom, FieldEmail, FieldTelephone}
	for i, m := range mapping {
		if m.Field != want[i] {
			t.Fatalf("mapping[%d] = %q, want %q", i, m.Field, want[i])
		}
	}

	candidates, err := testMapper().Apply(parsed.Rows, mapping)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	res, err := Validate(candidates)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if len(res.Valid) != 1 || res.Valid[0].Nom != "Dupont" {
		t.Fatalf("Valid = %+v, want only Dupont", res.Valid)
	}
	if len(res.Errors) != 3 {
		t.Fatalf("len(Errors) = %d, want 3: %+v", len(res.Errors), res.Errors)
	}
	wantFields := []FieldKey{FieldNom, FieldEmail, FieldTelephone}
	for i, e := range res.Errors {
		if e.Row != 2 {
			t.Errorf("Errors[%d].Row = %d, want 2", i, e.Row)
		}
		if e.Field != wantFields[i] {
			t.Errorf("Errors[%d].Field = %q, want %q", i, e.Field, wantFields[i])
		}
		if e.Message == "" {
			t.Errorf("Errors[%d].Message is empty", i)
		}
	}
	if res.Errors[1].Value != "bad-email" {
		t.Errorf("email error Value = %q, want %q", res.Errors[1].Value, "bad-email")
	}
	if got := res.InvalidRows(); got != 1 {
		t.Errorf("InvalidRows() = %d, want 1", got)
	}
}

func TestValidateRules(t *testing.T) {
	neg := -10.0
	sold := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		prospect   Prospect
		raw        map[FieldKey]string
		wantFields []FieldKey
	}{
		{
			name:     "minimal valid",
			prospect: Prospect{Nom: "Dupont"},
		},
		{
			name:     "department-only postal code",
			prospect: Prospect{Nom: "Dupont", CodePostal: "75"},
		},
		{
			name:       "valid name invalid email",
			prospect:   Prospect{Nom: "Dupont", Email: "not-an-email"},
			wantFields: []FieldKey{FieldEmail},
		},
		{
			name:       "blank name",
			prospect:   Prospect{Nom: "   "},
			wantFields: []FieldKey{FieldNom},
		},
		{
			name:       "three digit postal code",
			prospect:   Prospect{Nom: "Dupont", CodePostal: "750"},
			wantFields: []FieldKey{FieldCodePostal},
		},
		{
			name:       "negative amounts",
			prospect:   Prospect{Nom: "Dupont", MontantElectricite: -5, Revenus: -1},
			wantFields: []FieldKey{FieldMontantElectricite, FieldRevenus},
		},
		{
			name:       "unknown status",
			prospect:   Prospect{Nom: "Dupont", Status: "PERDU"},
			wantFields: []FieldKey{FieldStatus},
		},
		{
			name:       "sold on import",
			prospect:   Prospect{Nom: "Dupont", Status: StatusVendu},
			wantFields: []FieldKey{FieldStatus},
		},
		{
			name:       "negative lead price without sale date",
			prospect:   Prospect{Nom: "Dupont", LeadPrice: &neg},
			wantFields: []FieldKey{FieldLeadPrice},
		},
		{
			name:       "sale date without lead price",
			prospect:   Prospect{Nom: "Dupont", DateSold: &sold},
			wantFields: []FieldKey{FieldLeadPrice},
		},
		{
			name:       "unreadable date",
			prospect:   Prospect{Nom: "Dupont"},
			raw:        map[FieldKey]string{FieldDernierAppel: "demain"},
			wantFields: []FieldKey{FieldDernierAppel},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &PartialProspect{Prospect: tt.prospect, Raw: tt.raw}
			res, err := Validate([]*PartialProspect{rec})
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}

			if len(tt.wantFields) == 0 {
				if len(res.Valid) != 1 || len(res.Errors) != 0 {
					t.Fatalf("Validate() = %d valid, errors %+v, want 1 valid", len(res.Valid), res.Errors)
				}
				return
			}

			if len(res.Valid) != 0 {
				t.Errorf("invalid record appears in Valid")
			}
			if len(res.Errors) != len(tt.wantFields) {
				t.Fatalf("Errors = %+v, want fields %v", res.Errors, tt.wantFields)
			}
			for i, f := range tt.wantFields {
				if res.Errors[i].Field != f {
					t.Errorf("Errors[%d].Field = %q, want %q", i, res.Errors[i].Field, f)
				}
			}
		})
	}
}

func TestValidateNilRecord(t *testing.T) {
	records := []*PartialProspect{{Prospect: Prospect{Nom: "Dupont"}}, nil}

	res, err := Validate(records)
	var batchErr *InvalidBatchError
	if !errors.As(err, &batchErr) {
		t.Fatalf("Validate() error = %v, want *InvalidBatchError", err)
	}
	if batchErr.Index != 1 {
		t.Errorf("Index = %d, want 1", batchErr.Index)
	}
	if res != nil {
		t.Errorf("Validate() result = %+v, want nil", res)
	}
}

func TestValidateEmptyInput(t *testing.T) {
	res, err := Validate(nil)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(res.Valid) != 0 || len(res.Errors) != 0 {
		t.Errorf("Validate(nil) = %+v, want empty result", res)
	}
}

func TestValidateReappliesDefaults(t *testing.T) {
	v := Validator{Now: func() time.Time { return fixedNow }, NewID: sequentialIDs()}
	records := []*PartialProspect{
		{Prospect: Prospect{Nom: "Dupont"}},
		{Prospect: Prospect{Nom: "Dupont"}},
	}

	res, err := v.Validate(records)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(res.Valid) != 2 {
		t.Fatalf("len(Valid) = %d, want 2", len(res.Valid))
	}
	for i, p := range res.Valid {
		if p.ID == "" {
			t.Errorf("Valid[%d].ID is empty", i)
		}
		if p.Status != StatusNouveau {
			t.Errorf("Valid[%d].Status = %q, want %q", i, p.Status, StatusNouveau)
		}
		if !p.DateCreation.Equal(fixedNow) {
			t.Errorf("Valid[%d].DateCreation = %v, want %v", i, p.DateCreation, fixedNow)
		}
	}
	if res.Valid[0].ID == res.Valid[1].ID {
		t.Errorf("duplicate id %q", res.Valid[0].ID)
	}
}

func TestRoundTripDefaulting(t *testing.T) {
	rows := []RawRow{
		{"Nom": "Dupont", "Ville": "", "Revenus": "", "Proprio": ""},
		{"Nom": "Dupont", "Ville": "", "Revenus": "", "Proprio": ""},
	}
	mapping := DefaultMappings([]string{"Nom", "Ville", "Revenus", "Proprio"})

	candidates, err := ApplyMapping(rows, ConfirmedMappings(mapping))
	if err != nil {
		t.Fatalf("ApplyMapping() error = %v", err)
	}
	res, err := Validate(candidates)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(res.Valid) != 2 {
		t.Fatalf("len(Valid) = %d, want 2 (errors %+v)", len(res.Valid), res.Errors)
	}

	for i, p := range res.Valid {
		if p.Ville != "" || p.Revenus != 0 || p.Proprietaire {
			t.Errorf("Valid[%d] = %+v, want zero defaults", i, p)
		}
	}
	if res.Valid[0].ID == res.Valid[1].ID {
		t.Errorf("identical rows share id %q", res.Valid[0].ID)
	}
}
