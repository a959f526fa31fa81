package core

// error_messages.go maps pipeline errors to user-facing messages with codes
// for support reference.
//
// # Parse Errors (PARSE001-PARSE099)
//
//	PARSE001 - File too large: the upload exceeds the configured limit
//	PARSE002 - Empty file: the upload has no content
//	PARSE003 - Missing header: no header row was found
//	PARSE004 - Invalid CSV: the file is not readable as delimited text
//
// # Mapping Errors (MAP001-MAP099)
//
//	MAP001 - Invalid mapping: the submitted column mapping is incomplete
//	MAP002 - Mapping name: a saved mapping needs a name
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid batch: the mapped records are malformed
//	VAL002 - Nothing to import: no row passed validation
//	VAL003 - Unknown status: the requested status does not exist
//	VAL004 - Sale price: a sale needs a price of zero or more
//
// # Commit Errors (COM001-COM099)
//
//	COM001 - System busy: another import is being written
//	COM002 - Commit failed: the batch was not saved, nothing was added
//
// # Storage and Session Errors (STO001-STO099, IMP001-IMP099)
//
//	STO001 - Not found: the requested record does not exist
//	STO002 - Storage unavailable: the database or cache refused the connection
//	STO003 - Timeout: the operation timed out
//	IMP001 - Import expired: the import session is unknown or expired
//	IMP002 - Already rolled back: the batch was already removed
//	EXP001 - No export field: at least one field must be selected
//
// # Default Error (ERR000)
//
// Typed errors are matched first with errors.Is and errors.As. Remaining
// errors are matched case-insensitively on their text, first match wins.
// When a user reports ERR000, check the logs for the original error.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgFileTooLarge = UserMessage{
		Message: "Le fichier dépasse la taille maximale autorisée",
		Action:  "Découpez le fichier en plusieurs imports",
		Code:    "PARSE001",
	}
	msgEmptyFile = UserMessage{
		Message: "Le fichier est vide",
		Action:  "Choisissez un fichier CSV contenant des lignes",
		Code:    "PARSE002",
	}
	msgNoHeader = UserMessage{
		Message: "Aucune ligne d'en-tête trouvée",
		Action:  "La première ligne doit contenir les noms de colonnes",
		Code:    "PARSE003",
	}
	msgInvalidCSV = UserMessage{
		Message: "Format de fichier CSV invalide",
		Action:  "Vérifiez que le fichier est séparé par des virgules ou des points-virgules",
		Code:    "PARSE004",
	}
	msgInvalidMapping = UserMessage{
		Message: "Le mapping des colonnes est invalide",
		Action:  "Associez chaque colonne retenue à un champ",
		Code:    "MAP001",
	}
	msgMappingName = UserMessage{
		Message: "Le nom du mapping est requis",
		Action:  "Donnez un nom à la configuration avant de l'enregistrer",
		Code:    "MAP002",
	}
	msgInvalidBatch = UserMessage{
		Message: "Les données importées ne sont pas au bon format",
		Action:  "Relancez l'import depuis le fichier",
		Code:    "VAL001",
	}
	msgEmptyBatch = UserMessage{
		Message: "Aucun prospect valide à importer",
		Action:  "Corrigez les erreurs signalées puis réessayez",
		Code:    "VAL002",
	}
	msgUnknownStatus = UserMessage{
		Message: "Statut inconnu",
		Action:  "Choisissez un statut dans la liste",
		Code:    "VAL003",
	}
	msgSalePrice = UserMessage{
		Message: "Le prix de vente ne peut pas être négatif",
		Action:  "Saisissez un prix positif ou nul",
		Code:    "VAL004",
	}
	msgCommitBusy = UserMessage{
		Message: "Un autre import est en cours d'enregistrement",
		Action:  "Patientez quelques instants puis réessayez",
		Code:    "COM001",
	}
	msgCommitFailed = UserMessage{
		Message: "L'enregistrement des prospects a échoué, aucun prospect n'a été ajouté",
		Action:  "Réessayez l'import",
		Code:    "COM002",
	}
	msgNotFound = UserMessage{
		Message: "Élément introuvable",
		Action:  "Actualisez la liste et réessayez",
		Code:    "STO001",
	}
	msgImportNotFound = UserMessage{
		Message: "Session d'import introuvable",
		Action:  "L'import a peut-être expiré. Rechargez le fichier",
		Code:    "IMP001",
	}
	msgRolledBack = UserMessage{
		Message: "Cet import a déjà été annulé",
		Action:  "Aucune action nécessaire",
		Code:    "IMP002",
	}
	msgNoExportFields = UserMessage{
		Message: "Veuillez sélectionner au moins un champ à exporter",
		Action:  "Cochez les champs à inclure dans l'export",
		Code:    "EXP001",
	}
)

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns catch untyped errors from drivers and the network.
// More specific patterns come before general ones.
var errorPatterns = []errorPattern{
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Le stockage est indisponible",
			Action:  "Réessayez dans quelques instants",
			Code:    "STO002",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "La connexion au stockage a été interrompue",
			Action:  "Réessayez",
			Code:    "STO002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "L'opération a expiré",
			Action:  "Réessayez avec un fichier plus petit",
			Code:    "STO003",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "L'opération a expiré",
			Action:  "Réessayez avec un fichier plus petit",
			Code:    "STO003",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "Une erreur inattendue est survenue",
	Action:  "Réessayez ou contactez le support",
	Code:    "ERR000",
}

// Describe converts an error to a user-facing message.
//
//	Describe(&MapError{Index: -1, Reason: "no column mapped"}).Code == "MAP001"
func Describe(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var (
		parseErr *ParseError
		mapErr   *MapError
		batchErr *InvalidBatchError
		commit   *CommitError
	)
	switch {
	case errors.Is(err, ErrFileTooLarge):
		return msgFileTooLarge
	case errors.Is(err, ErrEmptyFile):
		return msgEmptyFile
	case errors.Is(err, ErrNoHeader):
		return msgNoHeader
	case errors.As(err, &parseErr):
		return msgInvalidCSV
	case errors.As(err, &mapErr):
		return msgInvalidMapping
	case errors.As(err, &batchErr):
		return msgInvalidBatch
	case errors.Is(err, ErrEmptyBatch):
		return msgEmptyBatch
	case errors.Is(err, ErrUnknownStatus):
		return msgUnknownStatus
	case errors.Is(err, ErrInvalidSalePrice):
		return msgSalePrice
	case errors.Is(err, ErrCommitBusy):
		return msgCommitBusy
	case errors.As(err, &commit):
		return msgCommitFailed
	case errors.Is(err, ErrImportNotFound):
		return msgImportNotFound
	case errors.Is(err, ErrAlreadyRolledBack):
		return msgRolledBack
	case errors.Is(err, ErrNotFound):
		return msgNotFound
	case errors.Is(err, ErrNoExportFields):
		return msgNoExportFields
	case errors.Is(err, ErrMappingNameRequired):
		return msgMappingName
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := Describe(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return Describe(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError wraps err with its user-facing message. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      Describe(err),
	}
}
