// Package extract holds the confidence classification shared by extraction
// backends: one rule applied uniformly to every tracked field.
package extract

// ConfidenceThreshold is the minimum confidence at which an extracted field is
// accepted without user review.
const ConfidenceThreshold = 0.80

// FieldNeedsReview classifies one extracted field: a field needs review when
// it is absent from the extraction result or its confidence is strictly below
// the threshold.
func FieldNeedsReview(present bool, confidence float64) bool {
	return !present || confidence < ConfidenceThreshold
}
