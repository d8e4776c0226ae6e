// Package domain contains the core entities of an emotion-processing session:
// the five-stage workflow state, the persisted record format, the emotion and
// need catalogs, and the validation errors raised when a stage gate fails.
// It depends on no infrastructure.
package domain
