// Package sandbox runs shell scripts inside the bot container.
//
// A Runner starts a script and returns a Process handle; Await waits for
// the process under an explicit timeout. Exceeding the timeout surfaces as
// ErrTimeout from Await and is meant to be handled exactly like any other
// command failure. A non-zero exit status is not an error at this layer:
// callers inspect Output.ExitCode and decide what it means.
//
// Two runners are provided. NewLocal runs scripts with sh on the current
// host, for when botsync itself lives inside the container. NewExec runs
// scripts through a prefix command such as
//
//	docker exec -i moltbot sh -c <script>
//
// for driving a container from the outside.
package sandbox
