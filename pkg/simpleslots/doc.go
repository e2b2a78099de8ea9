// Package simpleslots adds named slots to wiki pages and edits them.
//
// A page revision is a set of slots. main is always present; other slots are
// registered roles that can be added, replaced, appended to or removed
// independently. The Service validates an edit, computes the content of the
// target slot, bootstraps main on new pages and saves through a pluggable
// RevisionStore. Implementations of stores (memory, Postgres) and blob stores
// for slot bodies (memory, filesystem, S3) are provided under subpackages.
//
// Semantic data
//
// After each save the service recomputes the page's semantic data from the
// main slot and runs the BeforeDataUpdateComplete hooks before storing it.
// SemanticMergeAdapter is such a hook: it merges the data declared by the
// configured semantic slots, replacing built-in properties rather than
// accumulating them.
package simpleslots
