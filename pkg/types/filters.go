package types

import (
	"maps"
	"slices"
)

type IdSet map[string]struct{}

func NewIdSet(ids ...string) IdSet {
	s := make(IdSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IdSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s IdSet) Clone() IdSet {
	if s == nil {
		return IdSet{}
	}
	return maps.Clone(s)
}

// Sorted returns the ids in ascending order, nil for an empty set.
func (s IdSet) Sorted() []string {
	if len(s) == 0 {
		return nil
	}
	return slices.Sorted(maps.Keys(s))
}

func (s IdSet) Equal(o IdSet) bool {
	if len(s) != len(o) {
		return false
	}
	for id := range s {
		if !o.Has(id) {
			return false
		}
	}
	return true
}

type SalaryRange struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

func (r SalaryRange) Valid() bool {
	return r.Min <= r.Max
}

func (r SalaryRange) IsZero() bool {
	return r.Min == 0 && r.Max == 0
}

// ActiveAgainst reports whether the range narrows the given bounds. A zero range is unset.
func (r SalaryRange) ActiveAgainst(bounds SalaryRange) bool {
	if r.IsZero() {
		return false
	}
	return r != bounds
}

type FilterSelection struct {
	Levels            IdSet       `json:"levels"`
	WorkingModels     IdSet       `json:"workingModels"`
	JobDomains        IdSet       `json:"jobDomains"`
	CompanyIndustries IdSet       `json:"companyIndustries"`
	Salary            SalaryRange `json:"salary"`
}

func EmptySelection(bounds SalaryRange) FilterSelection {
	return FilterSelection{
		Levels:            IdSet{},
		WorkingModels:     IdSet{},
		JobDomains:        IdSet{},
		CompanyIndustries: IdSet{},
		Salary:            bounds,
	}
}

func (f FilterSelection) Facet(key FacetKey) IdSet {
	switch key {
	case FacetLevels:
		return f.Levels
	case FacetWorkingModels:
		return f.WorkingModels
	case FacetJobDomains:
		return f.JobDomains
	case FacetCompanyIndustries:
		return f.CompanyIndustries
	}
	return nil
}

func (f FilterSelection) Clone() FilterSelection {
	return FilterSelection{
		Levels:            f.Levels.Clone(),
		WorkingModels:     f.WorkingModels.Clone(),
		JobDomains:        f.JobDomains.Clone(),
		CompanyIndustries: f.CompanyIndustries.Clone(),
		Salary:            f.Salary,
	}
}

// WithToggled returns a copy with id flipped in the named facet. The receiver is left untouched.
func (f FilterSelection) WithToggled(key FacetKey, id string) FilterSelection {
	next := f.Clone()
	set := next.Facet(key)
	if set == nil {
		return next
	}
	if set.Has(id) {
		delete(set, id)
	} else {
		set[id] = struct{}{}
	}
	return next
}

func (f FilterSelection) FacetCount() int {
	return len(f.Levels) + len(f.WorkingModels) + len(f.JobDomains) + len(f.CompanyIndustries)
}

func (f FilterSelection) Equal(o FilterSelection) bool {
	return f.Salary == o.Salary &&
		f.Levels.Equal(o.Levels) &&
		f.WorkingModels.Equal(o.WorkingModels) &&
		f.JobDomains.Equal(o.JobDomains) &&
		f.CompanyIndustries.Equal(o.CompanyIndustries)
}
