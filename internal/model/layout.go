package model

import (
	"path"
	"slices"
)

const (
	// DefaultMountPath is where the R2 bucket is mounted inside the sandbox.
	DefaultMountPath = "/data/moltbot"

	// DefaultConfigDir is the bot's configuration directory.
	DefaultConfigDir = "/root/.clawdbot"

	// DefaultWorkspaceDir is the bot's working directory.
	DefaultWorkspaceDir = "/root/clawd"

	// MarkerFileName is the name of the sync marker on both sides.
	MarkerFileName = ".last-sync"

	// ConfigFileName is the file whose presence marks a valid configuration.
	ConfigFileName = "clawdbot.json"
)

// Remote directory names under the mount root.
const (
	RemoteConfigDir    = "clawdbot"
	RemoteSkillsDir    = "skills"
	RemoteWorkspaceDir = "workspace-core"
)

// IdentityFiles are the workspace files a previous sync always produces.
var IdentityFiles = []string{"USER.md", "SOUL.md", "MEMORY.md"}

// Workspace subtrees that are never mirrored as part of the workspace:
// version control, the skills tree (mirrored on its own) and dependency caches.
var workspaceExclude = []string{".git", "skills", "node_modules"}

// Runtime artifacts in the config directory that are not durable state.
var configPushExclude = []string{"*.lock", "*.log", "*.tmp"}

// Layout is the fixed set of paths the sync engine operates on.
// A Layout is built once at startup and never mutated afterwards.
type Layout struct {
	MountPath    string
	ConfigDir    string
	WorkspaceDir string
}

// DefaultLayout returns the layout used by the bot container.
func DefaultLayout() Layout {
	return Layout{
		MountPath:    DefaultMountPath,
		ConfigDir:    DefaultConfigDir,
		WorkspaceDir: DefaultWorkspaceDir,
	}
}

// WithDefaults fills empty fields from DefaultLayout.
func (l Layout) WithDefaults() Layout {
	d := DefaultLayout()
	if l.MountPath == "" {
		l.MountPath = d.MountPath
	}
	if l.ConfigDir == "" {
		l.ConfigDir = d.ConfigDir
	}
	if l.WorkspaceDir == "" {
		l.WorkspaceDir = d.WorkspaceDir
	}
	return l
}

// SkillsDir returns the local skills directory.
func (l Layout) SkillsDir() string {
	return path.Join(l.WorkspaceDir, "skills")
}

// RemoteMarker returns the marker path under the mount root.
func (l Layout) RemoteMarker() string {
	return path.Join(l.MountPath, MarkerFileName)
}

// LocalMarker returns the marker path in the local config directory.
func (l Layout) LocalMarker() string {
	return path.Join(l.ConfigDir, MarkerFileName)
}

// ConfigFile returns the path of the integrity-guard file.
func (l Layout) ConfigFile() string {
	return path.Join(l.ConfigDir, ConfigFileName)
}

// IdentityPaths returns the absolute paths of the identity files.
func (l Layout) IdentityPaths() []string {
	paths := make([]string, 0, len(IdentityFiles))
	for _, name := range IdentityFiles {
		paths = append(paths, path.Join(l.WorkspaceDir, name))
	}
	return paths
}

// Targets returns the three mirrored directory groups in push order:
// config, workspace, skills.
func (l Layout) Targets() []SyncTarget {
	return []SyncTarget{
		l.Target(TargetConfig),
		l.Target(TargetWorkspace),
		l.Target(TargetSkills),
	}
}

// Target returns the mapping for a single target name.
// Unknown names return a zero SyncTarget.
func (l Layout) Target(name TargetName) SyncTarget {
	switch name {
	case TargetConfig:
		return SyncTarget{
			Name:        TargetConfig,
			LocalPath:   l.ConfigDir,
			RemotePath:  path.Join(l.MountPath, RemoteConfigDir),
			PushExclude: slices.Clone(configPushExclude),
		}
	case TargetSkills:
		return SyncTarget{
			Name:       TargetSkills,
			LocalPath:  l.SkillsDir(),
			RemotePath: path.Join(l.MountPath, RemoteSkillsDir),
		}
	case TargetWorkspace:
		return SyncTarget{
			Name:           TargetWorkspace,
			LocalPath:      l.WorkspaceDir,
			RemotePath:     path.Join(l.MountPath, RemoteWorkspaceDir),
			RestoreExclude: slices.Clone(workspaceExclude),
			PushExclude:    slices.Clone(workspaceExclude),
		}
	default:
		return SyncTarget{}
	}
}
