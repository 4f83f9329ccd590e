//nolint:revive // var-naming - package name is meaningful
package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// AssertNoError fails the test immediately if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertEqual fails if got != want.
func AssertEqual[T comparable](t testing.TB, got, want T) {
	t.Helper()
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

var updateGolden bool

// SetUpdateGolden makes AssertGolden rewrite golden files instead of
// comparing against them. Packages with golden tests call it from TestMain.
func SetUpdateGolden(update bool) {
	updateGolden = update
}

// AssertGolden compares got with testdata/<name>.golden, relative to the
// package under test. Lines are compared one by one so a mismatch names the
// first differing line rather than dumping both documents.
func AssertGolden(t testing.TB, name, got string) {
	t.Helper()
	goldenPath := filepath.Join("testdata", name+".golden")

	if updateGolden {
		if err := os.MkdirAll(filepath.Dir(goldenPath), 0o750); err != nil {
			t.Fatalf("create golden directory: %v", err)
		}
		if err := os.WriteFile(goldenPath, []byte(got), 0o600); err != nil {
			t.Fatalf("write golden file: %v", err)
		}
		return
	}

	// #nosec G304 - goldenPath is built from the package testdata dir
	want, err := os.ReadFile(goldenPath)
	if err != nil {
		t.Fatalf("read golden file %s: %v (rerun with -update to create it)", goldenPath, err)
	}
	if line, g, w, ok := firstDiff(got, string(want)); !ok {
		t.Errorf("%s differs at line %d\n got: %q\nwant: %q", goldenPath, line, g, w)
	}
}

// firstDiff returns the first line at which got and want differ, counting
// from 1, and ok=false. ok is true when the documents are equal.
func firstDiff(got, want string) (line int, g, w string, ok bool) {
	if got == want {
		return 0, "", "", true
	}
	gl := strings.Split(got, "\n")
	wl := strings.Split(want, "\n")
	for i := 0; i < len(gl) || i < len(wl); i++ {
		g, w = "", ""
		if i < len(gl) {
			g = gl[i]
		}
		if i < len(wl) {
			w = wl[i]
		}
		if g != w || i >= len(gl) || i >= len(wl) {
			return i + 1, g, w, false
		}
	}
	return len(gl), "", "", false
}
