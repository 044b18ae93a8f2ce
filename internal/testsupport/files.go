package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// SampleTagCatalog declares one image per phase under the tag "v1".
const SampleTagCatalog = `
[[inputdownloading]]
name = "v1"
docker_repository = "saps/downloader"
docker_tag = "v1"

[[preprocessing]]
name = "v1"
docker_repository = "saps/preprocessor"
docker_tag = "v1"

[[processing]]
name = "v1"
docker_repository = "saps/worker"
docker_tag = "v1"
`

// WriteFile writes body to path, creating parent directories.
func WriteFile(t testing.TB, path, body string, mode os.FileMode) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(body), mode); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
