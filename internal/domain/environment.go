package domain

// Environment is the externally owned configuration bag editions read from.
// Other pipeline stages may update it during a run; editions only read it.
type Environment struct {
	// Version is the distribution version.
	Version string
	// Codename fills the %s placeholder of source lines (e.g. "bookworm").
	Codename string
	// SourcesFile is the path of the package-source definition file.
	SourcesFile string
	// DebianRepository optionally overrides the default Debian mirror.
	DebianRepository string
}

// CommandResult is the outcome of one privileged command.
type CommandResult struct {
	Command  string `json:"command"`
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout,omitempty"`
	Stderr   string `json:"stderr,omitempty"`
}

// OK reports whether the command exited with status zero.
func (r CommandResult) OK() bool {
	return r.ExitCode == 0
}
