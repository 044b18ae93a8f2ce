package testsupport

import (
	"context"
	"testing"
	"time"

	"sapsdispatch/internal/catalog"
	"sapsdispatch/internal/config"
	"sapsdispatch/internal/wrs"
)

// MustOpenCatalog opens a catalog.SQLiteStore for tests and registers cleanup.
func MustOpenCatalog(t testing.TB, cfg *config.Config) *catalog.SQLiteStore {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustAddImage records imagery for region on date (yyyy-mm-dd).
func MustAddImage(t testing.TB, store catalog.Store, region wrs.Region, date, dataset string) {
	t.Helper()

	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		t.Fatalf("parse date %q: %v", date, err)
	}
	if err := store.AddImage(context.Background(), catalog.Image{Region: region, Date: day, Dataset: dataset}); err != nil {
		t.Fatalf("store.AddImage: %v", err)
	}
}
