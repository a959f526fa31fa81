package core

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

var (
	emailRegex  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRegex  = regexp.MustCompile(`^[0-9+\s-]{8,}$`)
	postalRegex = regexp.MustCompile(`^(\d{2}|\d{5})$`)
)

// Validator checks mapped candidates and partitions them into valid
// prospects and per-row errors. The zero value uses time.Now and random UUIDs
// when defaults have to be re-applied.
type Validator struct {
	Now   func() time.Time
	NewID func() string
}

// Validate checks records with a default Validator.
func Validate(records []*PartialProspect) (*ValidationResult, error) {
	return Validator{}.Validate(records)
}

// Validate evaluates every rule on every record. A record with any failing
// rule is excluded from Valid and contributes all of its failures to Errors.
//
// Only a malformed collection (a nil record) returns an error; row content
// problems are always reported in the result.
func (v Validator) Validate(records []*PartialProspect) (*ValidationResult, error) {
	for i, r := range records {
		if r == nil {
			return nil, &InvalidBatchError{Index: i, Reason: "record is nil"}
		}
	}

	result := &ValidationResult{
		Valid:  make([]Prospect, 0, len(records)),
		Errors: []ValidationError{},
	}
	for i, r := range records {
		row := i + 1
		rowErrs, err := v.validateRecord(r, row)
		if err != nil {
			return nil, err
		}
		if len(rowErrs) > 0 {
			result.Errors = append(result.Errors, rowErrs...)
			continue
		}
		result.Valid = append(result.Valid, v.withDefaults(r.Prospect))
	}
	return result, nil
}

// validateRecord returns every rule failure of one record, in field order.
func (v Validator) validateRecord(r *PartialProspect, row int) ([]ValidationError, error) {
	p := &r.Prospect
	err := validation.ValidateStruct(p,
		validation.Field(&p.Nom, validation.By(notBlank)),
		validation.Field(&p.Email,
			validation.Match(emailRegex).Error("Format d'email invalide"),
		),
		validation.Field(&p.Telephone,
			validation.Match(phoneRegex).Error("Format de téléphone invalide"),
		),
		validation.Field(&p.CodePostal,
			validation.Match(postalRegex).Error("Le code postal doit contenir 2 ou 5 chiffres"),
		),
		validation.Field(&p.MontantElectricite, validation.By(nonNegative(FieldMontantElectricite))),
		validation.Field(&p.Revenus, validation.By(nonNegative(FieldRevenus))),
		validation.Field(&p.ProspectPrice, validation.By(nonNegative(FieldProspectPrice))),
		validation.Field(&p.LeadPrice, validation.By(nonNegative(FieldLeadPrice))),
		validation.Field(&p.Status, validation.By(importableStatus)),
	)

	errs := validation.Errors{}
	if err != nil {
		var fieldErrs validation.Errors
		if !errors.As(err, &fieldErrs) {
			return nil, fmt.Errorf("validate row %d: %w", row, err)
		}
		errs = fieldErrs
	}

	for _, key := range []FieldKey{FieldDateCreation, FieldDernierAppel} {
		if raw, ok := r.Raw[key]; ok {
			if _, parsed := ParseDate(raw); !parsed {
				errs[string(key)] = validation.NewError("invalid_date", "Date invalide")
			}
		}
	}
	if (p.DateSold == nil) != (p.LeadPrice == nil) {
		errs[string(FieldLeadPrice)] = validation.NewError("sale_pair", "Le prix lead et la date de vente vont ensemble")
	}

	return convertValidationErrors(r, row, errs), nil
}

// convertValidationErrors turns ozzo field errors into row errors sorted in
// field display order.
func convertValidationErrors(r *PartialProspect, row int, errs validation.Errors) []ValidationError {
	if len(errs) == 0 {
		return nil
	}
	out := make([]ValidationError, 0, len(errs))
	for key, err := range errs {
		field := FieldKey(key)
		out = append(out, ValidationError{
			Row:     row,
			Field:   field,
			Value:   offendingValue(r, field),
			Message: err.Error(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return fieldOrder(out[i].Field) < fieldOrder(out[j].Field)
	})
	return out
}

// offendingValue prefers the source cell over the coerced value.
func offendingValue(r *PartialProspect, field FieldKey) string {
	if raw, ok := r.Raw[field]; ok {
		return raw
	}
	p := r.Prospect
	switch field {
	case FieldNom:
		return p.Nom
	case FieldEmail:
		return p.Email
	case FieldTelephone:
		return p.Telephone
	case FieldCodePostal:
		return p.CodePostal
	case FieldStatus:
		return string(p.Status)
	case FieldMontantElectricite:
		return formatFloat(p.MontantElectricite)
	case FieldRevenus:
		return formatFloat(p.Revenus)
	case FieldProspectPrice:
		return formatFloat(p.ProspectPrice)
	case FieldLeadPrice:
		if p.LeadPrice != nil {
			return formatFloat(*p.LeadPrice)
		}
	}
	return ""
}

// withDefaults re-applies the mapper defaults so a valid prospect is always
// complete, whoever built the candidate.
func (v Validator) withDefaults(p Prospect) Prospect {
	if p.ID == "" {
		if v.NewID != nil {
			p.ID = v.NewID()
		} else {
			p.ID = uuid.NewString()
		}
	}
	if p.Status == "" {
		p.Status = StatusNouveau
	}
	if p.DateCreation.IsZero() {
		if v.Now != nil {
			p.DateCreation = v.Now()
		} else {
			p.DateCreation = time.Now()
		}
	}
	return p
}

func notBlank(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return validation.NewError("required", "Le nom est requis")
	}
	return nil
}

// nonNegative builds a rule rejecting negative, NaN and infinite numbers.
// Nil pointers pass.
func nonNegative(field FieldKey) validation.RuleFunc {
	return func(value interface{}) error {
		var f float64
		switch n := value.(type) {
		case float64:
			f = n
		case *float64:
			if n == nil {
				return nil
			}
			f = *n
		default:
			return nil
		}
		if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
			return validation.NewError("not_positive", fmt.Sprintf("Le champ %s doit être un nombre positif", field))
		}
		return nil
	}
}

// importableStatus accepts known lifecycle states except the sold state,
// which must go through SetStatus so the sale date and price are stamped together.
func importableStatus(value interface{}) error {
	s, _ := value.(Status)
	if s == "" {
		return nil
	}
	if _, ok := ParseStatus(string(s)); !ok {
		return validation.NewError("unknown_status", "Statut inconnu")
	}
	if s == StatusVendu {
		return validation.NewError("sold_on_import", "Un prospect ne peut pas être importé comme vendu")
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
