package dataset_test

import (
	"slices"
	"testing"

	"sapsdispatch/internal/config"
	"sapsdispatch/internal/dataset"
)

func defaultSelector(t *testing.T) *dataset.Selector {
	t.Helper()
	sel, err := dataset.FromConfig(config.Default().Datasets)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	return sel
}

func TestActiveByYear(t *testing.T) {
	sel := defaultSelector(t)
	cases := []struct {
		year int
		want []string
	}{
		{1983, nil},
		{1984, []string{"landsat_5"}},
		{1990, []string{"landsat_5"}},
		{1999, []string{"landsat_5", "landsat_7"}},
		{2013, []string{"landsat_5", "landsat_7", "landsat_8"}},
		{2015, []string{"landsat_7", "landsat_8"}},
		{2030, []string{"landsat_7", "landsat_8"}},
	}
	for _, tc := range cases {
		if got := sel.Active(tc.year); !slices.Equal(got, tc.want) {
			t.Fatalf("Active(%d) = %v, want %v", tc.year, got, tc.want)
		}
	}
}

func TestMostRecent(t *testing.T) {
	sel := defaultSelector(t)
	if got, ok := sel.MostRecent(2005); !ok || got != "landsat_7" {
		t.Fatalf("MostRecent(2005) = %q, %v", got, ok)
	}
	if got, ok := sel.MostRecent(2016); !ok || got != "landsat_8" {
		t.Fatalf("MostRecent(2016) = %q, %v", got, ok)
	}
	if _, ok := sel.MostRecent(1970); ok {
		t.Fatal("expected no dataset in 1970")
	}
}

func TestNewSelectorRejectsBadIntervals(t *testing.T) {
	end := 2000
	cases := [][]dataset.Dataset{
		{{Name: "", Start: 2000}},
		{{Name: "a", Start: 2000}, {Name: "a", Start: 2001}},
		{{Name: "a", Start: 2001, End: &end}},
	}
	for _, datasets := range cases {
		if _, err := dataset.NewSelector(datasets); err == nil {
			t.Fatalf("expected error for %+v", datasets)
		}
	}
}

func TestSelectorOrdersByStartThenName(t *testing.T) {
	sel, err := dataset.NewSelector([]dataset.Dataset{
		{Name: "zeta", Start: 2000},
		{Name: "alpha", Start: 2000},
		{Name: "early", Start: 1990},
	})
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}
	want := []string{"early", "alpha", "zeta"}
	if got := sel.Active(2001); !slices.Equal(got, want) {
		t.Fatalf("Active(2001) = %v, want %v", got, want)
	}
}
