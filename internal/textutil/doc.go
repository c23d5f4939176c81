// Package textutil provides small text helpers shared by the classifier, the
// recommendation pipeline, and the validators.
//
// The primary use cases are:
//   - Normalizing free text (whitespace collapse, case folding) before comparison
//   - Splitting requests and titles into words with stop words removed
//   - Case-insensitive keyword and whole-word lookups
package textutil
