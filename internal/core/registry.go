package core

// fields is the closed set of prospect fields, in display order.
// It is never mutated after package initialization. The lead price is only
// written by the sale transition, so it is read-only for imports.
var fields = []FieldDescriptor{
	{Key: FieldNom, Label: "Nom", Type: TypeText},
	{Key: FieldPrenom, Label: "Prénom", Type: TypeText},
	{Key: FieldEmail, Label: "Email", Type: TypeEmail},
	{Key: FieldTelephone, Label: "Téléphone", Type: TypePhone},
	{Key: FieldVille, Label: "Ville", Type: TypeText},
	{Key: FieldCampagne, Label: "Campagne", Type: TypeText},
	{Key: FieldDateCreation, Label: "Date import", Type: TypeDate},
	{Key: FieldStatus, Label: "Statut", Type: TypeText},
	{Key: FieldDernierAppel, Label: "Dernier appel", Type: TypeDate},
	{Key: FieldProprietaire, Label: "Propriétaire", Type: TypeBoolean},
	{Key: FieldCodePostal, Label: "Code postal", Type: TypePostalCode},
	{Key: FieldDepartement, Label: "Département", Type: TypeText},
	{Key: FieldModeChauffage, Label: "Mode de chauffage", Type: TypeText},
	{Key: FieldMontantElectricite, Label: "Montant électricité", Type: TypeCurrency},
	{Key: FieldRevenus, Label: "Revenus", Type: TypeCurrency},
	{Key: FieldCredit, Label: "Crédit", Type: TypeBoolean},
	{Key: FieldSolution, Label: "Solution", Type: TypeText},
	{Key: FieldProspectPrice, Label: "Prix prospect", Type: TypeCurrency},
	{Key: FieldLeadPrice, Label: "Prix lead", Type: TypeCurrency, ReadOnly: true},
}

var fieldIndex = func() map[FieldKey]int {
	idx := make(map[FieldKey]int, len(fields))
	for i, f := range fields {
		idx[f.Key] = i
	}
	return idx
}()

// statusLabels holds the display label of every lifecycle state, in lifecycle order.
var statusLabels = []struct {
	Status Status
	Label  string
}{
	{StatusNouveau, "Nouveau"},
	{StatusFauxNumero, "Faux numéro"},
	{StatusLeads, "Leads"},
	{StatusMiChemin, "Mi-chemin"},
	{StatusPasInteresse, "Pas intéressé"},
	{StatusPasEligible, "Pas éligible"},
	{StatusNRP1, "NRP 1"},
	{StatusNRP2, "NRP 2"},
	{StatusNRP3, "NRP 3"},
	{StatusNRP4, "NRP 4"},
	{StatusNRP5, "NRP 5"},
	{StatusVendu, "Vendu"},
}

// Fields returns every field descriptor in display order.
// The returned slice is a copy and may be modified by the caller.
func Fields() []FieldDescriptor {
	out := make([]FieldDescriptor, len(fields))
	copy(out, fields)
	return out
}

// LookupField returns the descriptor for key.
func LookupField(key FieldKey) (FieldDescriptor, bool) {
	i, ok := fieldIndex[key]
	if !ok {
		return FieldDescriptor{}, false
	}
	return fields[i], true
}

// Label returns the human label of key, or the key itself if unknown.
func Label(key FieldKey) string {
	if f, ok := LookupField(key); ok {
		return f.Label
	}
	return string(key)
}

// SemanticTypeOf returns the coercion type of key. Unknown keys are text.
func SemanticTypeOf(key FieldKey) SemanticType {
	if f, ok := LookupField(key); ok {
		return f.Type
	}
	return TypeText
}

// fieldOrder is used to sort per-row errors in display order.
func fieldOrder(key FieldKey) int {
	if i, ok := fieldIndex[key]; ok {
		return i
	}
	return len(fields)
}

// Statuses returns every lifecycle state in order.
func Statuses() []Status {
	out := make([]Status, len(statusLabels))
	for i, s := range statusLabels {
		out[i] = s.Status
	}
	return out
}

// StatusLabel returns the display label of s, or s itself if unknown.
func StatusLabel(s Status) string {
	for _, sl := range statusLabels {
		if sl.Status == s {
			return sl.Label
		}
	}
	return string(s)
}

// ParseStatus accepts a status code or its label, case-insensitively.
func ParseStatus(s string) (Status, bool) {
	for _, sl := range statusLabels {
		if equalFoldTrim(s, string(sl.Status)) || equalFoldTrim(s, sl.Label) {
			return sl.Status, true
		}
	}
	return "", false
}
