package dispatch_test

import (
	"strings"
	"testing"
	"time"

	"sapsdispatch/internal/digest"
	"sapsdispatch/internal/dispatch"
)

func mustSpec(t *testing.T, req dispatch.Request) dispatch.JobSpec {
	t.Helper()
	spec, err := dispatch.Normalize(req)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	return spec
}

func resolvedDigests(processing string) digest.Set {
	return digest.Set{
		InputDownloading: digest.Resolved{Tag: "googleapis", Digest: "sha256:input"},
		Preprocessing:    digest.Resolved{Tag: "legacy", Digest: "sha256:pre"},
		Processing:       digest.Resolved{Tag: "ufcg-sebal", Digest: processing},
	}
}

func jobIDFor(t *testing.T, req dispatch.Request) string {
	t.Helper()
	return dispatch.JobID(mustSpec(t, req), resolvedDigests("sha256:proc"))
}

func TestJobIDIsDeterministic(t *testing.T) {
	first := jobIDFor(t, validRequest())
	second := jobIDFor(t, validRequest())
	if first != second {
		t.Fatalf("expected identical ids, got %s and %s", first, second)
	}

	mutations := map[string]func(*dispatch.Request){
		"coordinate": func(r *dispatch.Request) { r.LowerLeftLat = "-7.8" },
		"end date":   func(r *dispatch.Request) { r.EndDate = "2016-01-03" },
		"tag":        func(r *dispatch.Request) { r.ProcessingTag = "sebkc-sebal" },
		"priority":   func(r *dispatch.Request) { r.Priority = "4" },
		"owner":      func(r *dispatch.Request) { r.Owner = "bob@example.org" },
		"label":      func(r *dispatch.Request) { r.Label = "other" },
	}
	for name, mutate := range mutations {
		req := validRequest()
		mutate(&req)
		if got := jobIDFor(t, req); got == first {
			t.Fatalf("%s change kept job id %s", name, got)
		}
	}
}

func TestJobIDFollowsResolvedDigests(t *testing.T) {
	spec := mustSpec(t, validRequest())
	before := dispatch.JobID(spec, resolvedDigests("sha256:proc"))
	after := dispatch.JobID(spec, resolvedDigests("sha256:proc-new"))
	if before == after {
		t.Fatalf("re-pointed tag kept job id %s", before)
	}
}

func TestJobIDSeparatesAdjacentFields(t *testing.T) {
	a := validRequest()
	a.PreprocessingTag, a.ProcessingTag = "ab", "c"
	b := validRequest()
	b.PreprocessingTag, b.ProcessingTag = "a", "bc"
	if jobIDFor(t, a) == jobIDFor(t, b) {
		t.Fatal("expected field boundaries to change the id")
	}
}

func TestTaskIDIsPrefixedAndDistinct(t *testing.T) {
	jobID := jobIDFor(t, validRequest())
	day := time.Date(2015, 6, 1, 0, 0, 0, 0, time.UTC)

	base := dispatch.TaskID(jobID, "landsat_8", day, "215065")
	if !strings.HasPrefix(base, jobID+":") {
		t.Fatalf("expected job prefix, got %s", base)
	}
	if again := dispatch.TaskID(jobID, "landsat_8", day.Add(5*time.Hour), "215065"); again != base {
		t.Fatalf("expected same id within a day, got %s and %s", base, again)
	}

	seen := map[string]string{base: "base"}
	variants := map[string]string{
		"dataset": dispatch.TaskID(jobID, "landsat_7", day, "215065"),
		"date":    dispatch.TaskID(jobID, "landsat_8", day.AddDate(0, 0, 1), "215065"),
		"region":  dispatch.TaskID(jobID, "landsat_8", day, "216065"),
		"job":     dispatch.TaskID("other-job", "landsat_8", day, "215065"),
	}
	for name, id := range variants {
		if prev, dup := seen[id]; dup {
			t.Fatalf("%s variant collides with %s: %s", name, prev, id)
		}
		seen[id] = name
	}
}
