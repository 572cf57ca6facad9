package types

// Source identifies one of the independently paginated job collections shown on the board.
type Source string

const (
	SourcePrimary   Source = "primary"
	SourceSecondary Source = "secondary"
)

var Sources = []Source{SourcePrimary, SourceSecondary}

func (s Source) Valid() bool {
	return s == SourcePrimary || s == SourceSecondary
}

type FacetKey string

const (
	FacetLevels            FacetKey = "levels"
	FacetWorkingModels     FacetKey = "workingModels"
	FacetJobDomains        FacetKey = "jobDomains"
	FacetCompanyIndustries FacetKey = "companyIndustries"
)

var FacetKeys = []FacetKey{FacetLevels, FacetWorkingModels, FacetJobDomains, FacetCompanyIndustries}

func (k FacetKey) Valid() bool {
	switch k {
	case FacetLevels, FacetWorkingModels, FacetJobDomains, FacetCompanyIndustries:
		return true
	}
	return false
}

// Option is a selectable value of a facet as delivered by the facet options endpoint.
type Option struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}
