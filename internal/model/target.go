package model

import (
	"fmt"
	"strings"
)

// TargetName identifies one of the directory groups mirrored to remote storage.
type TargetName string

const (
	// TargetConfig holds the bot settings directory.
	TargetConfig TargetName = "config"

	// TargetSkills holds the shared skills directory.
	TargetSkills TargetName = "skills"

	// TargetWorkspace holds the bot's working directory.
	TargetWorkspace TargetName = "workspace"
)

// IsValid returns true if the target name is recognized.
func (n TargetName) IsValid() bool {
	switch n {
	case TargetConfig, TargetSkills, TargetWorkspace:
		return true
	default:
		return false
	}
}

// AllTargetNames returns the target names in push order.
func AllTargetNames() []TargetName {
	return []TargetName{TargetConfig, TargetWorkspace, TargetSkills}
}

// ParseTargetName converts a string to a TargetName.
func ParseTargetName(s string) (TargetName, error) {
	n := TargetName(strings.ToLower(strings.TrimSpace(s)))
	if !n.IsValid() {
		return "", fmt.Errorf("unknown sync target: %q (valid: config, skills, workspace)", s)
	}
	return n, nil
}

// SyncTarget maps a local directory onto a directory under the remote mount.
type SyncTarget struct {
	// Name identifies the target.
	Name TargetName

	// LocalPath is the absolute directory inside the sandbox.
	LocalPath string

	// RemotePath is the absolute directory under the mount root.
	RemotePath string

	// RestoreExclude lists patterns skipped when mirroring remote to local.
	RestoreExclude []string

	// PushExclude lists patterns skipped when mirroring local to remote.
	PushExclude []string
}

// String returns a short description of the mapping.
func (t SyncTarget) String() string {
	return fmt.Sprintf("%s (%s <-> %s)", t.Name, t.LocalPath, t.RemotePath)
}
