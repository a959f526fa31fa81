package core

import (
	"time"
)

// SemanticType describes how a raw CSV cell is coerced into a prospect field.
type SemanticType int

const (
	TypeText SemanticType = iota
	TypeBoolean
	TypeCurrency
	TypePhone
	TypeEmail
	TypePostalCode
	TypeDate
)

// String returns the lowercase name used in API payloads.
func (t SemanticType) String() string {
	switch t {
	case TypeBoolean:
		return "boolean"
	case TypeCurrency:
		return "currency"
	case TypePhone:
		return "phone"
	case TypeEmail:
		return "email"
	case TypePostalCode:
		return "postal"
	case TypeDate:
		return "date"
	default:
		return "text"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t SemanticType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// FieldKey identifies a target prospect field.
type FieldKey string

const (
	FieldNom                FieldKey = "nom"
	FieldPrenom             FieldKey = "prenom"
	FieldEmail              FieldKey = "email"
	FieldTelephone          FieldKey = "telephone"
	FieldVille              FieldKey = "ville"
	FieldCampagne           FieldKey = "campagne"
	FieldDateCreation       FieldKey = "dateCreation"
	FieldStatus             FieldKey = "status"
	FieldDernierAppel       FieldKey = "dernierAppel"
	FieldProprietaire       FieldKey = "proprietaire"
	FieldCodePostal         FieldKey = "codePostal"
	FieldDepartement        FieldKey = "departement"
	FieldModeChauffage      FieldKey = "modeChauffage"
	FieldMontantElectricite FieldKey = "montantElectricite"
	FieldRevenus            FieldKey = "revenus"
	FieldCredit             FieldKey = "credit"
	FieldSolution           FieldKey = "solution"
	FieldProspectPrice      FieldKey = "prospectPrice"
	FieldLeadPrice          FieldKey = "leadPrice"
)

// FieldDescriptor describes one prospect field. ReadOnly fields are
// exported but cannot be targeted by a column mapping.
type FieldDescriptor struct {
	Key      FieldKey     `json:"key"`
	Label    string       `json:"label"`
	Type     SemanticType `json:"type"`
	ReadOnly bool         `json:"readOnly,omitempty"`
}

// Status is the lifecycle state of a prospect.
type Status string

const (
	StatusNouveau      Status = "NOUVEAU"
	StatusFauxNumero   Status = "FAUX_NUMERO"
	StatusLeads        Status = "LEADS"
	StatusMiChemin     Status = "MI_CHEMIN"
	StatusPasInteresse Status = "PAS_INTERESSE"
	StatusPasEligible  Status = "PAS_ELIGIBLE"
	StatusNRP1         Status = "NRP_1"
	StatusNRP2         Status = "NRP_2"
	StatusNRP3         Status = "NRP_3"
	StatusNRP4         Status = "NRP_4"
	StatusNRP5         Status = "NRP_5"
	StatusVendu        Status = "VENDU"
)

// Prospect is a sales lead owned by the prospect store.
//
// DateSold and LeadPrice are either both set or both nil.
type Prospect struct {
	ID                 string     `json:"id"`
	Nom                string     `json:"nom"`
	Prenom             string     `json:"prenom"`
	Email              string     `json:"email"`
	Telephone          string     `json:"telephone"`
	Ville              string     `json:"ville"`
	ProspectPrice      float64    `json:"prospectPrice"`
	Campagne           string     `json:"campagne"`
	DateCreation       time.Time  `json:"dateCreation"`
	Status             Status     `json:"status"`
	DernierAppel       *time.Time `json:"dernierAppel,omitempty"`
	Proprietaire       bool       `json:"proprietaire"`
	CodePostal         string     `json:"codePostal"`
	Departement        string     `json:"departement"`
	ModeChauffage      string     `json:"modeChauffage"`
	MontantElectricite float64    `json:"montantElectricite"`
	Revenus            float64    `json:"revenus"`
	Credit             bool       `json:"credit"`
	Solution           string     `json:"solution"`
	DateSold           *time.Time `json:"dateSold,omitempty"`
	LeadPrice          *float64   `json:"leadPrice,omitempty"`
}

// PartialProspect is a prospect candidate produced by the column mapper.
// Raw keeps the trimmed source cell for every field a mapping wrote, so
// validation can report the value the user actually supplied.
type PartialProspect struct {
	Prospect
	Raw map[FieldKey]string
}

// RawRow maps trimmed CSV headers to cell values.
type RawRow map[string]string

// ColumnMapping links one CSV header to a target field. An empty Field
// means the column is ignored.
type ColumnMapping struct {
	Header string   `json:"csvHeader"`
	Field  FieldKey `json:"crmField"`
}

// MappingConfig is a named, reusable set of column mappings.
type MappingConfig struct {
	Name      string          `json:"name"`
	Mappings  []ColumnMapping `json:"mappings"`
	UpdatedAt time.Time       `json:"updatedAt,omitempty"`
}

// MappingMatch is a saved config scored against the headers of a new file.
type MappingMatch struct {
	Config MappingConfig `json:"config"`
	Score  float64       `json:"score"`
}

// ValidationError reports one rule failure for one row. It is data, not an error value.
type ValidationError struct {
	Row     int      `json:"row"` // 1-based data row
	Field   FieldKey `json:"field"`
	Value   string   `json:"value"`
	Message string   `json:"message"`
}

// ValidationResult partitions validated records.
type ValidationResult struct {
	Valid  []Prospect        `json:"valid"`
	Errors []ValidationError `json:"errors"`
}

// InvalidRows returns the number of distinct rows that produced errors.
func (r ValidationResult) InvalidRows() int {
	seen := make(map[int]struct{}, len(r.Errors))
	for _, e := range r.Errors {
		seen[e.Row] = struct{}{}
	}
	return len(seen)
}

// ParseResult is the output of Parse.
type ParseResult struct {
	Headers   []string `json:"headers"`
	Rows      []RawRow `json:"-"`
	Delimiter rune     `json:"-"`
}

// PreviewSummary counts the outcome of a preview.
type PreviewSummary struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
}

// PreviewResult is the mapped and validated view of an import, before commit.
type PreviewResult struct {
	Valid   []Prospect        `json:"valid"`
	Errors  []ValidationError `json:"errors"`
	Summary PreviewSummary    `json:"summary"`
}

// ImportBatch records one committed import.
type ImportBatch struct {
	ID            string    `json:"id"`
	CampaignID    string    `json:"campaignId"`
	ProspectPrice float64   `json:"prospectPrice"`
	ProspectIDs   []string  `json:"prospectIds"`
	Count         int       `json:"count"`
	CommittedAt   time.Time `json:"committedAt"`
	RolledBack    bool      `json:"rolledBack"`
}

// RollbackResult contains the result of a batch rollback.
type RollbackResult struct {
	BatchID     string `json:"batchId"`
	RowsDeleted int64  `json:"rowsDeleted"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}
