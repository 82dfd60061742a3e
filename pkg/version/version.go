package version

import "runtime/debug"

// Version is "commit time" from the build info, or "dev" when the binary
// was built without VCS stamping.
var Version = func() string {
	commit := "dev"
	at := ""
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				commit = setting.Value
			}
			if setting.Key == "vcs.time" {
				at = setting.Value
			}
		}
	}
	if at == "" {
		return commit
	}
	return commit + " " + at
}()
