package version

// Build metadata; the release pipeline overrides these with -ldflags "-X".
var (
	Version      = "0.1.0"
	Toolname     = "boxctl"
	Organization = "unknown"
	BuildDate    = "unknown"
	CommitSHA    = "unknown"
)

// UserAgent is sent with every HTTP request made by boxctl.
func UserAgent() string {
	return Toolname + "/" + Version
}
