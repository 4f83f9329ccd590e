package sync

import (
	"fmt"
	"strings"
)

// Classification identifies how a sync run ended.
type Classification string

const (
	// ClassOK indicates the push was confirmed.
	ClassOK Classification = "ok"

	// ClassNotConfigured indicates incomplete storage credentials.
	ClassNotConfigured Classification = "not_configured"

	// ClassMountFailed indicates the bucket could not be mounted.
	ClassMountFailed Classification = "mount_failed"

	// ClassRestoreFailed indicates the restore script failed or timed out.
	ClassRestoreFailed Classification = "restore_failed"

	// ClassMissingConfig indicates the integrity guard found no clawdbot.json.
	ClassMissingConfig Classification = "missing_config"

	// ClassVerifyFailed indicates the integrity guard check itself failed.
	ClassVerifyFailed Classification = "verify_failed"

	// ClassSyncFailed indicates the push ran but the marker was not confirmed.
	ClassSyncFailed Classification = "sync_failed"

	// ClassSyncError indicates the push could not be run to completion.
	ClassSyncError Classification = "sync_error"
)

// Error messages reported in Result.Error, one per failure classification.
const (
	MsgNotConfigured = "R2 storage is not configured"
	MsgMountFailed   = "Failed to mount R2 storage"
	MsgRestoreFailed = "Restore from R2 failed"
	MsgMissingConfig = "Sync aborted: source is missing clawdbot.json"
	MsgVerifyFailed  = "Failed to verify source files"
	MsgSyncFailed    = "Sync failed"
	MsgSyncError     = "Sync error"
)

// MsgUnconfirmed is the detail used when a push left no readable marker and
// produced no output.
const MsgUnconfirmed = "Sync completed but could not confirm the timestamp"

var classMessages = map[Classification]string{
	ClassNotConfigured: MsgNotConfigured,
	ClassMountFailed:   MsgMountFailed,
	ClassRestoreFailed: MsgRestoreFailed,
	ClassMissingConfig: MsgMissingConfig,
	ClassVerifyFailed:  MsgVerifyFailed,
	ClassSyncFailed:    MsgSyncFailed,
	ClassSyncError:     MsgSyncError,
}

// Message returns the user-facing error string for c, or "" for ClassOK.
func (c Classification) Message() string {
	return classMessages[c]
}

// Result is the outcome of one sync run.
//
// In JSON, success and classification are always present; every other field
// is omitted when empty. The mount failure therefore encodes as exactly
// {"success":false,"error":"Failed to mount R2 storage","classification":"mount_failed"}.
type Result struct {
	// Success is true only when the remote marker was confirmed.
	Success bool `json:"success"`

	// LastSync is the confirmed marker timestamp.
	LastSync string `json:"lastSync,omitempty"`

	// Error is a short message for the failing step.
	Error string `json:"error,omitempty"`

	// Details carries diagnostic text from the failing command.
	Details string `json:"details,omitempty"`

	// Classification is the machine-readable outcome.
	Classification Classification `json:"classification"`

	// Restored is true when the restore step ran.
	Restored bool `json:"restored,omitempty"`
}

func succeeded(lastSync string, restored bool) *Result {
	return &Result{
		Success:        true,
		LastSync:       lastSync,
		Classification: ClassOK,
		Restored:       restored,
	}
}

func failed(class Classification, details string) *Result {
	return &Result{
		Error:          class.Message(),
		Details:        details,
		Classification: class,
	}
}

// Summary returns a human-readable summary of the sync result.
func (r *Result) Summary() string {
	var sb strings.Builder

	if r.Success {
		sb.WriteString("Sync completed\n")
		sb.WriteString(fmt.Sprintf("  Last sync: %s\n", r.LastSync))
		if r.Restored {
			sb.WriteString("  Restored local state from backup before pushing\n")
		}
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("%s (%s)\n", r.Error, r.Classification))
	if r.Restored {
		sb.WriteString("  Restore ran before the failure\n")
	}
	if r.Details != "" {
		sb.WriteString("\nDetails:\n")
		for _, line := range strings.Split(strings.TrimRight(r.Details, "\n"), "\n") {
			sb.WriteString("  " + line + "\n")
		}
	}
	return sb.String()
}
