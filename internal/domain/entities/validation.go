package entities

// ValidationResult captures the outcome of candidate field validation.
// Errors block progression; warnings are recorded but never block.
type ValidationResult struct {
	IsValid      bool     `json:"is_valid"`
	Errors       []string `json:"errors"`
	Warnings     []string `json:"warnings"`
	QualityScore float64  `json:"quality_score"`
}
