package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Mapper applies confirmed column mappings to parsed rows.
// The zero value uses time.Now and random UUIDs.
type Mapper struct {
	Now   func() time.Time
	NewID func() string
}

func (m Mapper) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m Mapper) newID() string {
	if m.NewID != nil {
		return m.NewID()
	}
	return uuid.NewString()
}

// ApplyMapping maps rows with a default Mapper.
func ApplyMapping(rows []RawRow, mapping []ColumnMapping) ([]*PartialProspect, error) {
	return Mapper{}.Apply(rows, mapping)
}

// CheckMapping reports whether a submitted mapping list is complete: it must
// be non-empty and every entry must name both a header and a known field.
func CheckMapping(mapping []ColumnMapping) error {
	if len(mapping) == 0 {
		return &MapError{Index: -1, Reason: "no column mapped"}
	}
	for i, cm := range mapping {
		if strings.TrimSpace(cm.Header) == "" {
			return &MapError{Index: i, Reason: "missing csv header"}
		}
		if cm.Field == "" {
			return &MapError{Index: i, Reason: "missing target field for " + cm.Header}
		}
		f, ok := LookupField(cm.Field)
		if !ok {
			return &MapError{Index: i, Reason: "unknown field " + string(cm.Field)}
		}
		if f.ReadOnly {
			return &MapError{Index: i, Reason: "field " + string(cm.Field) + " cannot be imported"}
		}
	}
	return nil
}

// Apply converts every row into a defaulted prospect candidate.
//
// Mappings are applied in list order. A blank or missing cell never
// overwrites a default. Mapping the postal code also sets the department,
// so an explicit department mapping placed later in the list takes
// precedence over the derived value.
func (m Mapper) Apply(rows []RawRow, mapping []ColumnMapping) ([]*PartialProspect, error) {
	if err := CheckMapping(mapping); err != nil {
		return nil, err
	}

	out := make([]*PartialProspect, 0, len(rows))
	for _, row := range rows {
		p := &PartialProspect{
			Prospect: m.defaults(),
			Raw:      make(map[FieldKey]string, len(mapping)),
		}
		for _, cm := range mapping {
			value := strings.TrimSpace(row[strings.TrimSpace(cm.Header)])
			if value == "" {
				continue
			}
			p.Raw[cm.Field] = value
			assignField(&p.Prospect, cm.Field, value)
		}
		out = append(out, p)
	}
	return out, nil
}

// defaults returns a structurally complete prospect with a fresh identity.
func (m Mapper) defaults() Prospect {
	return Prospect{
		ID:           m.newID(),
		Status:       StatusNouveau,
		DateCreation: m.now(),
	}
}

// assignField coerces value according to the field's semantic type and
// stores it on p.
func assignField(p *Prospect, key FieldKey, value string) {
	switch key {
	case FieldProprietaire:
		p.Proprietaire = CoerceBool(value)
	case FieldCredit:
		p.Credit = CoerceBool(value)
	case FieldMontantElectricite:
		p.MontantElectricite = CoerceNumber(value)
	case FieldRevenus:
		p.Revenus = CoerceNumber(value)
	case FieldProspectPrice:
		p.ProspectPrice = CoerceNumber(value)
	case FieldTelephone:
		p.Telephone = CoercePhone(value)
	case FieldEmail:
		p.Email = CoerceEmail(value)
	case FieldCodePostal:
		p.CodePostal = CoercePostalCode(value)
		if dep := DepartmentOf(p.CodePostal); dep != "" {
			p.Departement = dep
		}
	case FieldDateCreation:
		if t, ok := ParseDate(value); ok {
			p.DateCreation = t
		}
	case FieldDernierAppel:
		if t, ok := ParseDate(value); ok {
			p.DernierAppel = &t
		}
	case FieldStatus:
		if s, ok := ParseStatus(value); ok {
			p.Status = s
		} else {
			p.Status = Status(value)
		}
	case FieldNom:
		p.Nom = value
	case FieldPrenom:
		p.Prenom = value
	case FieldVille:
		p.Ville = value
	case FieldCampagne:
		p.Campagne = value
	case FieldDepartement:
		p.Departement = value
	case FieldModeChauffage:
		p.ModeChauffage = value
	case FieldSolution:
		p.Solution = value
	}
}
