package catalog_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"sapsdispatch/internal/catalog"
	"sapsdispatch/internal/digest"
	"sapsdispatch/internal/testsupport"
	"sapsdispatch/internal/wrs"
)

type storeFactory struct {
	name string
	open func(t *testing.T) catalog.Store
}

func factories() []storeFactory {
	return []storeFactory{
		{name: "sqlite", open: func(t *testing.T) catalog.Store {
			return testsupport.MustOpenCatalog(t, testsupport.NewConfig(t))
		}},
		{name: "memory", open: func(t *testing.T) catalog.Store {
			return catalog.NewMemory()
		}},
	}
}

func forEachStore(t *testing.T, fn func(t *testing.T, store catalog.Store)) {
	t.Helper()
	for _, f := range factories() {
		t.Run(f.name, func(t *testing.T) {
			fn(t, f.open(t))
		})
	}
}

func day(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return d
}

func resolved(tag string) digest.Resolved {
	return digest.Resolved{Tag: tag, Digest: "sha256:" + tag}
}

func descriptor(t *testing.T, id, jobID string, region wrs.Region, date, dataset string) catalog.TaskDescriptor {
	return catalog.TaskDescriptor{
		TaskID:           id,
		JobID:            jobID,
		Region:           region,
		Date:             day(t, date),
		Dataset:          dataset,
		Priority:         3,
		Owner:            "alice@example.org",
		InputDownloading: resolved("googleapis"),
		Preprocessing:    resolved("legacy"),
		Processing:       resolved("ufcg-sebal"),
	}
}

func sampleJob(t *testing.T, id, label, owner string, priority int) catalog.Job {
	return catalog.Job{
		ID:          id,
		Coordinates: [4]string{"-7.9", "-37.5", "-7.1", "-36.3"},
		Init:        day(t, "2015-06-01"),
		End:         day(t, "2015-06-03"),
		Priority:    priority,
		Label:       label,
		Owner:       owner,
	}
}

func TestAddNewTaskIsIdempotent(t *testing.T) {
	forEachStore(t, func(t *testing.T, store catalog.Store) {
		ctx := context.Background()
		task := descriptor(t, "job-1:a", "job-1", "215065", "2015-06-01", "landsat_8")

		id, err := store.AddNewTask(ctx, task)
		if err != nil {
			t.Fatalf("AddNewTask: %v", err)
		}
		if id != task.TaskID {
			t.Fatalf("expected id %q, got %q", task.TaskID, id)
		}
		if err := store.UpdateTaskState(ctx, id, catalog.TaskRunning); err != nil {
			t.Fatalf("UpdateTaskState: %v", err)
		}

		again := task
		again.Priority = 9
		if _, err := store.AddNewTask(ctx, again); err != nil {
			t.Fatalf("second AddNewTask: %v", err)
		}

		fetched, err := store.GetTaskByID(ctx, id)
		if err != nil {
			t.Fatalf("GetTaskByID: %v", err)
		}
		if fetched == nil {
			t.Fatal("expected task to exist")
		}
		if fetched.Priority != 3 || fetched.State != catalog.TaskRunning {
			t.Fatalf("expected original task untouched, got priority=%d state=%s", fetched.Priority, fetched.State)
		}
		if fetched.Region != "215065" || fetched.Dataset != "landsat_8" || !fetched.Date.Equal(day(t, "2015-06-01")) {
			t.Fatalf("unexpected task fields: %#v", fetched.TaskDescriptor)
		}
		if fetched.Processing.Digest != "sha256:ufcg-sebal" {
			t.Fatalf("expected processing digest stored, got %q", fetched.Processing.Digest)
		}

		all, err := store.GetTasks(ctx, "")
		if err != nil {
			t.Fatalf("GetTasks: %v", err)
		}
		if len(all) != 1 {
			t.Fatalf("expected 1 task, got %d", len(all))
		}
	})
}

func TestGetTaskByIDMissing(t *testing.T) {
	forEachStore(t, func(t *testing.T, store catalog.Store) {
		task, err := store.GetTaskByID(context.Background(), "nope")
		if err != nil {
			t.Fatalf("GetTaskByID: %v", err)
		}
		if task != nil {
			t.Fatalf("expected nil task, got %#v", task)
		}
	})
}

func TestUpdateTaskStateRejectsUnknown(t *testing.T) {
	forEachStore(t, func(t *testing.T, store catalog.Store) {
		ctx := context.Background()
		if err := store.UpdateTaskState(ctx, "missing", catalog.TaskArchived); !errors.Is(err, catalog.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if _, err := store.AddNewTask(ctx, descriptor(t, "j:1", "j", "001060", "2015-01-01", "landsat_8")); err != nil {
			t.Fatalf("AddNewTask: %v", err)
		}
		if err := store.UpdateTaskState(ctx, "j:1", catalog.TaskState("bogus")); err == nil {
			t.Fatal("expected invalid state to be rejected")
		}
	})
}

func TestJobRecordLinksTasks(t *testing.T) {
	forEachStore(t, func(t *testing.T, store catalog.Store) {
		ctx := context.Background()
		job := sampleJob(t, "job-1", "Recife", "alice@example.org", 3)
		ids := []string{"job-1:c", "job-1:a", "job-1:b"}
		for i, id := range ids {
			date := fmt.Sprintf("2015-06-0%d", i+1)
			if _, err := store.AddNewTask(ctx, descriptor(t, id, job.ID, "215065", date, "landsat_8")); err != nil {
				t.Fatalf("AddNewTask: %v", err)
			}
		}
		if err := store.AddNewUserJob(ctx, job); err != nil {
			t.Fatalf("AddNewUserJob: %v", err)
		}
		for _, id := range ids {
			if err := store.InsertJobTask(ctx, id, job.ID); err != nil {
				t.Fatalf("InsertJobTask: %v", err)
			}
		}
		// Relinking and re-adding the header are no-ops.
		if err := store.InsertJobTask(ctx, ids[0], job.ID); err != nil {
			t.Fatalf("repeat InsertJobTask: %v", err)
		}
		if err := store.AddNewUserJob(ctx, sampleJob(t, "job-1", "changed", "bob", 1)); err != nil {
			t.Fatalf("repeat AddNewUserJob: %v", err)
		}

		jobs, err := store.GetUserJobs(ctx, catalog.JobQuery{})
		if err != nil {
			t.Fatalf("GetUserJobs: %v", err)
		}
		if len(jobs) != 1 {
			t.Fatalf("expected 1 job, got %d", len(jobs))
		}
		got := jobs[0]
		if got.Label != "Recife" || got.Owner != "alice@example.org" || got.State != catalog.JobCreated {
			t.Fatalf("unexpected job header: %#v", got)
		}
		if got.Coordinates != job.Coordinates {
			t.Fatalf("expected coordinates %v, got %v", job.Coordinates, got.Coordinates)
		}
		want := []string{"job-1:a", "job-1:b", "job-1:c"}
		if fmt.Sprint(got.TaskIDs) != fmt.Sprint(want) {
			t.Fatalf("expected task ids %v, got %v", want, got.TaskIDs)
		}

		tasks, err := store.GetUserJobTasks(ctx, job.ID, catalog.TaskQuery{Page: 2, Size: 2})
		if err != nil {
			t.Fatalf("GetUserJobTasks: %v", err)
		}
		if len(tasks) != 1 || tasks[0].TaskID != "job-1:b" {
			t.Fatalf("expected second page to hold the latest-dated task, got %#v", tasks)
		}
	})
}

func TestGetUserJobsFiltersSortsAndPages(t *testing.T) {
	forEachStore(t, func(t *testing.T, store catalog.Store) {
		ctx := context.Background()
		jobs := []catalog.Job{
			sampleJob(t, "j-1", "Recife coast", "alice", 1),
			sampleJob(t, "j-2", "Sertao", "bob", 5),
			sampleJob(t, "j-3", "recife inland", "alice", 3),
		}
		for _, job := range jobs {
			if err := store.AddNewUserJob(ctx, job); err != nil {
				t.Fatalf("AddNewUserJob: %v", err)
			}
		}

		cases := []struct {
			name  string
			query catalog.JobQuery
			want  []string
			count int
		}{
			{name: "all by priority", query: catalog.JobQuery{SortBy: "priority"}, want: []string{"j-1", "j-3", "j-2"}, count: 3},
			{name: "desc priority", query: catalog.JobQuery{SortBy: "priority", Desc: true}, want: []string{"j-2", "j-3", "j-1"}, count: 3},
			{name: "owner", query: catalog.JobQuery{Owner: "alice", SortBy: "label"}, want: []string{"j-1", "j-3"}, count: 2},
			{name: "search ignores case", query: catalog.JobQuery{Search: "RECIFE", SortBy: "priority"}, want: []string{"j-1", "j-3"}, count: 2},
			{name: "paged", query: catalog.JobQuery{SortBy: "priority", Page: 2, Size: 2}, want: []string{"j-2"}, count: 3},
			{name: "past end", query: catalog.JobQuery{Page: 5, Size: 2}, want: nil, count: 3},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				got, err := store.GetUserJobs(ctx, tc.query)
				if err != nil {
					t.Fatalf("GetUserJobs: %v", err)
				}
				var ids []string
				for _, job := range got {
					ids = append(ids, job.ID)
				}
				if fmt.Sprint(ids) != fmt.Sprint(tc.want) {
					t.Fatalf("expected %v, got %v", tc.want, ids)
				}
				count, err := store.GetUserJobsCount(ctx, tc.query)
				if err != nil {
					t.Fatalf("GetUserJobsCount: %v", err)
				}
				if count != tc.count {
					t.Fatalf("expected count %d, got %d", tc.count, count)
				}
			})
		}

		if _, err := store.GetUserJobs(ctx, catalog.JobQuery{SortBy: "job_id; DROP TABLE jobs"}); err == nil {
			t.Fatal("expected unsupported sort field to be rejected")
		}
	})
}

func TestGetProcessedTasks(t *testing.T) {
	forEachStore(t, func(t *testing.T, store catalog.Store) {
		ctx := context.Background()
		add := func(id string, region wrs.Region, date string, state catalog.TaskState, mutate func(*catalog.TaskDescriptor)) {
			task := descriptor(t, id, "job", region, date, "landsat_8")
			if mutate != nil {
				mutate(&task)
			}
			if _, err := store.AddNewTask(ctx, task); err != nil {
				t.Fatalf("AddNewTask: %v", err)
			}
			if state != catalog.TaskCreated {
				if err := store.UpdateTaskState(ctx, id, state); err != nil {
					t.Fatalf("UpdateTaskState: %v", err)
				}
			}
		}
		add("job:match-late", "215065", "2015-06-03", catalog.TaskArchived, nil)
		add("job:match-early", "215065", "2015-06-01", catalog.TaskArchived, nil)
		add("job:not-archived", "215065", "2015-06-02", catalog.TaskFinished, nil)
		add("job:other-region", "215066", "2015-06-02", catalog.TaskArchived, nil)
		add("job:out-of-range", "215065", "2015-07-01", catalog.TaskArchived, nil)
		add("job:other-tag", "215065", "2015-06-02", catalog.TaskArchived, func(d *catalog.TaskDescriptor) {
			d.Processing = resolved("sebkc-sebal")
		})

		tags := digest.PhaseTags{InputDownloading: "googleapis", Preprocessing: "legacy", Processing: "ufcg-sebal"}
		got, err := store.GetProcessedTasks(ctx, "215065", day(t, "2015-06-01"), day(t, "2015-06-30"), tags)
		if err != nil {
			t.Fatalf("GetProcessedTasks: %v", err)
		}
		var ids []string
		for _, task := range got {
			ids = append(ids, task.TaskID)
		}
		want := []string{"job:match-early", "job:match-late"}
		if fmt.Sprint(ids) != fmt.Sprint(want) {
			t.Fatalf("expected %v, got %v", want, ids)
		}
	})
}

func TestRegionFrequency(t *testing.T) {
	forEachStore(t, func(t *testing.T, store catalog.Store) {
		ctx := context.Background()
		for i, region := range []wrs.Region{"215066", "215065", "215066", "215066"} {
			id := fmt.Sprintf("job:%d", i)
			if _, err := store.AddNewTask(ctx, descriptor(t, id, "job", region, "2015-06-01", "landsat_8")); err != nil {
				t.Fatalf("AddNewTask: %v", err)
			}
		}
		if err := store.UpdateTaskState(ctx, "job:3", catalog.TaskFailed); err != nil {
			t.Fatalf("UpdateTaskState: %v", err)
		}

		counts, err := store.RegionFrequency(ctx, catalog.TaskCreated)
		if err != nil {
			t.Fatalf("RegionFrequency: %v", err)
		}
		want := []catalog.RegionCount{{Region: "215065", Count: 1}, {Region: "215066", Count: 2}}
		if fmt.Sprint(counts) != fmt.Sprint(want) {
			t.Fatalf("expected %v, got %v", want, counts)
		}
	})
}

func TestImageAvailability(t *testing.T) {
	forEachStore(t, func(t *testing.T, store catalog.Store) {
		ctx := context.Background()
		testsupport.MustAddImage(t, store, "215065", "2015-06-01", "landsat_8")
		testsupport.MustAddImage(t, store, "215065", "2015-06-01", "landsat_8")

		cases := []struct {
			region wrs.Region
			date   string
			want   bool
		}{
			{"215065", "2015-06-01", true},
			{"215065", "2015-06-02", false},
			{"215066", "2015-06-01", false},
		}
		for _, tc := range cases {
			got, err := store.ValidateImageAvailability(ctx, tc.region, day(t, tc.date))
			if err != nil {
				t.Fatalf("ValidateImageAvailability: %v", err)
			}
			if got != tc.want {
				t.Fatalf("%s on %s: expected %v, got %v", tc.region, tc.date, tc.want, got)
			}
		}
	})
}

func TestConcurrentAddNewTask(t *testing.T) {
	forEachStore(t, func(t *testing.T, store catalog.Store) {
		ctx := context.Background()
		const n = 40
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				// Every id is inserted twice to race the conflict path.
				id := fmt.Sprintf("job:%02d", i/2)
				_, err := store.AddNewTask(ctx, descriptor(t, id, "job", "215065", "2015-06-01", "landsat_8"))
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			if err != nil {
				t.Fatalf("AddNewTask: %v", err)
			}
		}
		tasks, err := store.GetTasks(ctx, catalog.TaskCreated)
		if err != nil {
			t.Fatalf("GetTasks: %v", err)
		}
		if len(tasks) != n/2 {
			t.Fatalf("expected %d tasks, got %d", n/2, len(tasks))
		}
	})
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", cfg.Catalog.Path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := catalog.Open(cfg); !errors.Is(err, catalog.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestOpenIsReentrant(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first := testsupport.MustOpenCatalog(t, cfg)
	second := testsupport.MustOpenCatalog(t, cfg)
	if first.Path() != second.Path() {
		t.Fatalf("expected same path, got %q and %q", first.Path(), second.Path())
	}
}

func TestOpenKeepsUnusualPathCharacters(t *testing.T) {
	cases := []struct {
		name string
		dir  string
	}{
		{"query and fragment", "odd?name#1"},
		{"percent", "load%41"},
		{"spaces", "field runs"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testsupport.NewConfig(t)
			root := t.TempDir()
			cfg.Catalog.Path = filepath.Join(root, tc.dir, "catalog.db")
			store := testsupport.MustOpenCatalog(t, cfg)

			ctx := context.Background()
			task := descriptor(t, "job-1:a", "job-1", "215065", "2015-06-01", "landsat_8")
			if _, err := store.AddNewTask(ctx, task); err != nil {
				t.Fatalf("AddNewTask: %v", err)
			}
			if fetched, err := store.GetTaskByID(ctx, task.TaskID); err != nil || fetched == nil {
				t.Fatalf("GetTaskByID: %v", err)
			}
			if _, err := os.Stat(cfg.Catalog.Path); err != nil {
				t.Fatalf("expected database at %q: %v", cfg.Catalog.Path, err)
			}
			entries, err := os.ReadDir(root)
			if err != nil {
				t.Fatalf("ReadDir: %v", err)
			}
			if len(entries) != 1 || entries[0].Name() != tc.dir {
				t.Fatalf("expected only %q under the root, got %v", tc.dir, entries)
			}
		})
	}
}
