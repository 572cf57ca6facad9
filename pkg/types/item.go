package types

import "time"

type Job struct {
	Id           string   `json:"id"`
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	CompanyLogo  string   `json:"companyLogo,omitempty"`
	Location     string   `json:"location"`
	Level        string   `json:"level,omitempty"`
	WorkingModel string   `json:"workingModel,omitempty"`
	JobDomain    string   `json:"jobDomain,omitempty"`
	SalaryMin    float64  `json:"salaryMin,omitempty"`
	SalaryMax    float64  `json:"salaryMax,omitempty"`
	Skills       []string `json:"skills,omitempty"`
	Deadline     string   `json:"deadline,omitempty"`
}

type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total"`
}

func (p Pagination) TotalPages() int {
	if p.Total <= 0 || p.PageSize <= 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// ShowControls reports whether pagination controls should be rendered at all.
// An empty result suppresses them instead of rendering them disabled.
func (p Pagination) ShowControls() bool {
	return p.Total > 0
}

type JobCollection struct {
	Items      []Job      `json:"items"`
	Pagination Pagination `json:"pagination"`
}

func (c JobCollection) FirstId() (string, bool) {
	if len(c.Items) == 0 {
		return "", false
	}
	return c.Items[0].Id, true
}

type SavedJobRef struct {
	JobId   string    `json:"jobId"`
	SavedAt time.Time `json:"savedAt"`
}
