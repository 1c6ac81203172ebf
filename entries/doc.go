// Package entries holds what the entry kinds of a collection share: validation and
// the small value types (dates, personal names) several kinds embed.
//
// Every kind lives in its own sub-package (work, person, article, relationship,
// note, reference) and provides its document type, a typed editor built on
// repository.ChangeSetCommand, a search adapter and the constants EntryType,
// TableName and SearchCore.
package entries
