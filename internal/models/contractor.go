// internal/models/contractor.go
package models

// ContractorStatus gates eligibility: only ACTIVE contractors are routable.
type ContractorStatus string

const (
	ContractorActive   ContractorStatus = "ACTIVE"
	ContractorInactive ContractorStatus = "INACTIVE"
)

// Availability is derived from active-job count vs. capacity at scoring time.
type Availability string

const (
	Available   Availability = "AVAILABLE"
	Busy        Availability = "BUSY"
	Unavailable Availability = "UNAVAILABLE"
)

type Contractor struct {
	ID                string           `json:"id"`
	CompanyID         string           `json:"companyId"`
	Name              string           `json:"name"`
	Email             string           `json:"email,omitempty"`
	Phone             string           `json:"phone,omitempty"`
	Specialties       []IssueCategory  `json:"specialties"`
	Status            ContractorStatus `json:"status"`
	MaxConcurrentJobs int              `json:"maxConcurrentJobs"`
}

// ContractorStats is the historical performance view the directory exposes.
type ContractorStats struct {
	ActiveJobs         int     `json:"activeJobs"`
	RatingScore        float64 `json:"ratingScore"`        // 0..1
	AvgResponseMinutes float64 `json:"avgResponseMinutes"` // rolling average
}

// ContractorMatch is one scored candidate, ephemeral per routing call.
type ContractorMatch struct {
	Contractor          *Contractor  `json:"contractor"`
	Score               float64      `json:"score"`
	Availability        Availability `json:"availability"`
	SpecialtyMatch      bool         `json:"specialtyMatch"`
	WorkloadFactor      float64      `json:"workloadFactor"` // 0..1
	RatingScore         float64      `json:"ratingScore"`    // 0..1
	ResponseTimeMinutes float64      `json:"responseTimeMinutes"`
}
