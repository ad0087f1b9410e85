package domain

import "time"

// ArtisanStatus tracks the business-verification review, independent of the
// owning account's status machine.
type ArtisanStatus string

const (
	ArtisanPendingVerification ArtisanStatus = "PENDING_VERIFICATION"
	ArtisanVerified            ArtisanStatus = "VERIFIED"
	ArtisanRejected            ArtisanStatus = "REJECTED"
)

var validArtisanTransitions = map[ArtisanStatus][]ArtisanStatus{
	ArtisanPendingVerification: {ArtisanVerified, ArtisanRejected},
}

// CanTransitionTo reports whether a review transition is valid.
func (s ArtisanStatus) CanTransitionTo(next ArtisanStatus) bool {
	for _, allowed := range validArtisanTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Artisan extends a User with business details. It is created atomically with
// its owning User during artisan registration and cascade-deleted with it.
type Artisan struct {
	ID                string        `json:"id"`
	UserID            string        `json:"user_id"`
	BusinessName      string        `json:"business_name"`
	BusinessLicense   string        `json:"business_license"`
	TaxID             string        `json:"tax_id,omitempty"`
	ServiceCategories []string      `json:"service_categories"`
	ServiceAreas      []string      `json:"service_areas"`
	Description       string        `json:"description,omitempty"`
	HourlyRate        float64       `json:"hourly_rate"`
	YearsOfExperience int           `json:"years_of_experience"`
	Qualifications    []string      `json:"qualifications"`
	MaxJobDistance    int           `json:"max_job_distance"`
	Status            ArtisanStatus `json:"status"`
	Rating            float64       `json:"rating"`
	TotalRatings      int           `json:"total_ratings"`
	IsAvailable       bool          `json:"is_available"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}
