package models

// RawJob is the record shape produced by the Crawler for one job posting
// (spec.md §3). Non-critical missing fields default to "N/A"; job_id and
// job_title are the only fields required for a record to be emitted.
type RawJob struct {
	JobID             string   `json:"job_id"`
	JobTitle          string   `json:"job_title"`
	JobURL            string   `json:"job_url"`
	JobLocation       string   `json:"job_location"`
	Employer          string   `json:"employer"`
	EmployerURL       string   `json:"employer_url"`
	JobDescription    string   `json:"job_description"`
	SeniorityLevel    string   `json:"seniority_level"`
	EmploymentType    string   `json:"employment_type"`
	JobFunction       string   `json:"job_function"`
	Industries        []string `json:"industries"`
	Source            string   `json:"source"`
}

// NA is the spec-mandated default for missing non-critical string fields.
const NA = "N/A"

// FillDefaults replaces empty non-critical fields with NA, per spec.md §3.
func (r *RawJob) FillDefaults() {
	if r.JobURL == "" {
		r.JobURL = NA
	}
	if r.JobLocation == "" {
		r.JobLocation = NA
	}
	if r.Employer == "" {
		r.Employer = NA
	}
	if r.EmployerURL == "" {
		r.EmployerURL = NA
	}
	if r.JobDescription == "" {
		r.JobDescription = NA
	}
	if r.SeniorityLevel == "" {
		r.SeniorityLevel = NA
	}
	if r.EmploymentType == "" {
		r.EmploymentType = NA
	}
	if r.JobFunction == "" {
		r.JobFunction = NA
	}
}

// Valid reports whether the record carries the two fields required to be
// emitted at all: job_id and job_title (spec.md §4.4).
func (r *RawJob) Valid() bool {
	return r.JobID != "" && r.JobTitle != ""
}

// AlignmentScore is the candidate-job fit breakdown (spec.md §3).
// Every field must be in [0,100]; Total is recomputable from the others.
type AlignmentScore struct {
	Total       int `json:"total" validate:"gte=0,lte=100"`
	Skills      int `json:"skills" validate:"gte=0,lte=100"`
	Education   int `json:"education" validate:"gte=0,lte=100"`
	Experience  int `json:"experience" validate:"gte=0,lte=100"`
	Location    int `json:"location" validate:"gte=0,lte=100"`
	Industries  int `json:"industries" validate:"gte=0,lte=100"`
	Languages   int `json:"languages" validate:"gte=0,lte=100"`
}

// JobSummary is the LLM-produced structured record of spec.md §3.
type JobSummary struct {
	Responsibilities  []string       `json:"responsibilities" validate:"required,min=1,max=8"`
	Requirements      []string       `json:"requirements" validate:"required,min=1,max=8"`
	OpportunityInterest string       `json:"opportunity_interest" validate:"required"`
	BackgroundAligns  AlignmentScore `json:"background_aligns" validate:"required"`
	Summary           string         `json:"summary" validate:"required"`
}

// CoverLetter is the LLM-produced cover letter of spec.md §3.
type CoverLetter struct {
	Subject       string `json:"subject" validate:"required"`
	LetterContent string `json:"letter_content" validate:"required"`
}

// EnrichedJob is a RawJob enriched with the LLM-produced JobSummary and
// CoverLetter, ready for delivery to the webhook (spec.md §3).
type EnrichedJob struct {
	RawJob
	JobSummary  JobSummary  `json:"job_summary"`
	CoverLetter CoverLetter `json:"cover_letter"`
}
