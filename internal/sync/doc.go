// Package sync implements the reconciling backup engine that keeps a bot's
// local directories and the mounted R2 bucket consistent.
//
// A single call to Engine.Sync walks a fixed sequence of steps:
//
//  1. Credential gate: incomplete credentials end the run before any command.
//  2. Mount: the bucket is mounted through the Mounter capability.
//  3. State probe: five fail-soft existence checks decide whether the local
//     side is incomplete relative to a known-good remote backup.
//  4. Restore: when incomplete, the remote tree is mirrored down in one
//     bounded script. Any failure ends the run.
//  5. Integrity guard: the local clawdbot.json must exist before anything is
//     pushed. A missing file and a failed check are reported differently.
//  6. Push: config, workspace and skills are mirrored up and a fresh marker
//     is written, all in one bounded script.
//  7. Confirmation: the remote marker is read back. Only a date-prefixed
//     marker counts as success; the push exit status is not trusted.
//
// Every path ends in a *Result; the engine never panics and never returns a
// Go error. The engine holds no locks, so callers must not run two syncs at
// the same time against the same sandbox. The scheduler package serializes
// runs for long-lived processes.
//
// # Progress Reporting
//
// Options.OnStep is called as each step begins:
//
//	engine := sync.New(runner, mounter, sync.Options{
//	    OnStep: func(step sync.Step) {
//	        fmt.Println("step:", step)
//	    },
//	})
package sync
