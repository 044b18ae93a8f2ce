// Package dataset decides which sensor datasets were operational in a year.
package dataset

import (
	"fmt"
	"slices"
	"strings"

	"sapsdispatch/internal/config"
)

// Dataset is one sensor dataset with a closed operational interval. A nil End
// means the dataset is still active.
type Dataset struct {
	Name  string
	Start int
	End   *int
}

// ActiveIn reports whether year falls inside the dataset's interval.
func (d Dataset) ActiveIn(year int) bool {
	if year < d.Start {
		return false
	}
	return d.End == nil || year <= *d.End
}

// Selector answers which datasets were active in a given year.
type Selector struct {
	datasets []Dataset
}

// NewSelector builds a selector. Names must be unique and intervals well formed.
func NewSelector(datasets []Dataset) (*Selector, error) {
	seen := make(map[string]struct{}, len(datasets))
	sorted := make([]Dataset, 0, len(datasets))
	for _, ds := range datasets {
		name := strings.TrimSpace(ds.Name)
		if name == "" {
			return nil, fmt.Errorf("dataset name must not be empty")
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("dataset %q declared twice", name)
		}
		if ds.End != nil && *ds.End < ds.Start {
			return nil, fmt.Errorf("dataset %q ends before it starts", name)
		}
		seen[name] = struct{}{}
		ds.Name = name
		sorted = append(sorted, ds)
	}
	slices.SortFunc(sorted, func(a, b Dataset) int {
		if a.Start != b.Start {
			return a.Start - b.Start
		}
		return strings.Compare(a.Name, b.Name)
	})
	return &Selector{datasets: sorted}, nil
}

// FromConfig builds a selector from the [[datasets]] configuration.
func FromConfig(entries []config.Dataset) (*Selector, error) {
	datasets := make([]Dataset, 0, len(entries))
	for _, entry := range entries {
		ds := Dataset{Name: entry.Name, Start: entry.StartYear}
		if entry.EndYear != nil {
			end := *entry.EndYear
			ds.End = &end
		}
		datasets = append(datasets, ds)
	}
	return NewSelector(datasets)
}

// Active returns the names of datasets operational in year, ordered by start
// year then name. A year without any active dataset yields an empty slice.
func (s *Selector) Active(year int) []string {
	var names []string
	for _, ds := range s.datasets {
		if ds.ActiveIn(year) {
			names = append(names, ds.Name)
		}
	}
	return names
}

// MostRecent returns the active dataset with the latest start year.
func (s *Selector) MostRecent(year int) (string, bool) {
	active := s.Active(year)
	if len(active) == 0 {
		return "", false
	}
	return active[len(active)-1], true
}

// All returns every configured dataset in selector order.
func (s *Selector) All() []Dataset {
	return slices.Clone(s.datasets)
}
