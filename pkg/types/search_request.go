package types

import "slices"

// SearchCriteria is the part of the search state that lives in the address bar.
type SearchCriteria struct {
	Page     int    `json:"page"`
	Title    string `json:"title"`
	Location string `json:"location"`
}

func DefaultCriteria() SearchCriteria {
	return SearchCriteria{Page: 1}
}

func (c SearchCriteria) WithPage(page int) SearchCriteria {
	if page < 1 {
		page = 1
	}
	c.Page = page
	return c
}

// SameQuery ignores the page.
func (c SearchCriteria) SameQuery(o SearchCriteria) bool {
	return c.Title == o.Title && c.Location == o.Location
}

type Window struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// FetchParams is the exact payload handed to the data-fetch collaborator.
type FetchParams struct {
	Title             string   `json:"title,omitempty" schema:"title,omitempty"`
	Location          string   `json:"location,omitempty" schema:"location,omitempty"`
	Levels            []string `json:"levels,omitempty" schema:"levels,omitempty"`
	WorkingModels     []string `json:"workingModels,omitempty" schema:"workingModels,omitempty"`
	JobDomains        []string `json:"jobDomains,omitempty" schema:"jobDomains,omitempty"`
	CompanyIndustries []string `json:"companyIndustries,omitempty" schema:"companyIndustries,omitempty"`
	SalaryMin         float64  `json:"salaryMin,omitempty" schema:"salaryMin,omitempty"`
	SalaryMax         float64  `json:"salaryMax,omitempty" schema:"salaryMax,omitempty"`
	Page              int      `json:"page" schema:"page"`
	PageSize          int      `json:"pageSize" schema:"pageSize"`
}

// MergeParams builds a fresh FetchParams. Facet ids are sorted so equal inputs give equal params.
func MergeParams(c SearchCriteria, f FilterSelection, w Window) FetchParams {
	return FetchParams{
		Title:             c.Title,
		Location:          c.Location,
		Levels:            f.Levels.Sorted(),
		WorkingModels:     f.WorkingModels.Sorted(),
		JobDomains:        f.JobDomains.Sorted(),
		CompanyIndustries: f.CompanyIndustries.Sorted(),
		SalaryMin:         f.Salary.Min,
		SalaryMax:         f.Salary.Max,
		Page:              w.Page,
		PageSize:          w.PageSize,
	}
}

func (p FetchParams) Equal(o FetchParams) bool {
	return p.Title == o.Title &&
		p.Location == o.Location &&
		p.SalaryMin == o.SalaryMin &&
		p.SalaryMax == o.SalaryMax &&
		p.Page == o.Page &&
		p.PageSize == o.PageSize &&
		slices.Equal(p.Levels, o.Levels) &&
		slices.Equal(p.WorkingModels, o.WorkingModels) &&
		slices.Equal(p.JobDomains, o.JobDomains) &&
		slices.Equal(p.CompanyIndustries, o.CompanyIndustries)
}
