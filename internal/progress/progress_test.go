package progress

import (
	"bytes"
	"os"
	"testing"

	botsync "github.com/klauern/botsync/internal/sync"
	"github.com/klauern/botsync/internal/ui"
)

func TestShouldShowProgress(t *testing.T) {
	initial := ui.IsColorEnabled()
	defer func() {
		if initial {
			ui.EnableColors()
		} else {
			ui.DisableColors()
		}
	}()

	f, err := os.CreateTemp(t.TempDir(), "progress")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	ui.DisableColors()
	if shouldShowProgress(&bytes.Buffer{}) {
		t.Error("progress shown with colors disabled")
	}

	ui.EnableColors()
	if shouldShowProgress(f) {
		t.Error("progress shown on a regular file")
	}
}

func TestStepsTracksEngineSteps(t *testing.T) {
	ui.DisableColors()
	defer ui.EnableColors()

	var buf bytes.Buffer
	s := NewSteps(&buf)
	if s.bar.Enabled() {
		t.Fatal("bar should be disabled without colors")
	}

	for _, step := range []botsync.Step{botsync.StepCredentials, botsync.StepMount, botsync.StepVerify} {
		s.OnStep(step)
	}
	s.Done()

	seen := s.Seen()
	if len(seen) != 3 || seen[2] != botsync.StepVerify {
		t.Errorf("Seen() = %v", seen)
	}
	if buf.Len() != 0 {
		t.Errorf("disabled bar wrote %q", buf.String())
	}
}
