// Package core implements the prospect CSV import pipeline.
//
// The package holds all domain logic independent of any transport or
// storage technology. Storage is reached through the [ProspectStore] and
// [MappingStore] interfaces, implemented in internal/store.
//
// # Pipeline
//
// An import moves through gated stages. Only the last one writes:
//
//  1. [Parse] reads delimited text into trimmed headers and [RawRow] values
//  2. [DefaultMappings] seeds one [ColumnMapping] per header using [Guess]
//  3. [Mapper.Apply] coerces each row into a defaulted [PartialProspect]
//  4. [Validator.Validate] splits candidates into valid prospects and [ValidationError] records
//  5. [Service.Commit] stamps campaign and price, then inserts the batch atomically
//
// [Service.BeginImport], [Service.PreviewImport] and [Service.CommitImport]
// run these stages around an in-process import session, so a caller can
// abandon an import at any point before commit without side effects.
//
// # Field Registry
//
// [Fields] is the closed set of prospect fields. Each [FieldDescriptor]
// carries a label and a [SemanticType] that selects the coercion applied by
// the mapper:
//
//   - Boolean: one of true, oui, 1, yes, vrai (any case) is true
//   - Currency: digits and separators only, comma as decimal point, 0 when unreadable
//   - Phone: digits and '+'
//   - Email: lower-cased
//   - Postal code: digits only; also derives the department from the first two digits
//
// # Rows Are All or Nothing
//
// A row failing any rule is excluded from the valid set and reports every
// failure. Half-populated prospects are never persisted.
//
// # Error Handling
//
// Stage failures are typed: [ParseError], [MapError], [InvalidBatchError]
// and [CommitError]. [Describe] maps any error to a user message with a
// support code.
package core
