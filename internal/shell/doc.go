// Package shell builds the commands botsync sends into the bot sandbox.
//
// Commands are structured values rather than hand-written strings so that
// the interesting parts of a mirror (source, destination, exclusion set and
// delete semantics) stay inspectable as data. A Script renders to a single
// POSIX sh command line with stop-on-first-failure semantics:
//
//	script := shell.Script{
//	    shell.MkdirAll("/root/.clawdbot"),
//	    shell.Mirror(shell.MirrorSpec{
//	        Source:         "/data/moltbot/clawdbot",
//	        Destination:    "/root/.clawdbot",
//	        Delete:         true,
//	        IfSourceExists: true,
//	    }),
//	}
//	fmt.Println(script)
//	// mkdir -p /root/.clawdbot && if [ -d /data/moltbot/clawdbot ]; then rsync -r --no-times --delete /data/moltbot/clawdbot/ /root/.clawdbot/; fi
//
// Secrets are written with WriteSecret, which reads them from stdin so they
// stay out of the rendered command line, the process table and the logs.
package shell
