package domain

// Config represents the CloudBioLinux configuration loaded from cloudbio.yaml.
type Config struct {
	Edition       string
	StrictEdition bool

	Distribution DistributionConfig
	Apt          AptConfig
	Privilege    PrivilegeConfig
	Paths        PathsConfig
}

type DistributionConfig struct {
	Version  string
	Codename string
}

// AptConfig holds the baseline apt data handed to edition hooks.
type AptConfig struct {
	SourcesFile      string
	DebianRepository string

	Sources    []SourceLine
	Automation []AutomationAnswer
	Keys       []KeyEntry
	Keyservers []KeyserverEntry
}

type PrivilegeConfig struct {
	// Command is prepended to every privileged command, e.g. "sudo -n".
	// Empty runs commands with the current privileges.
	Command string
}

type PathsConfig struct {
	ReportsDir string
}

// DefaultConfig provides sane defaults if cloudbio.yaml is partially missing.
func DefaultConfig() Config {
	return Config{
		Edition: "biolinux",
		Apt: AptConfig{
			SourcesFile: "/etc/apt/sources.list",
		},
		Privilege: PrivilegeConfig{
			Command: "sudo -n",
		},
		Paths: PathsConfig{
			ReportsDir: "reports",
		},
	}
}

// Environment projects the config into the context editions read from.
func (c Config) Environment() Environment {
	return Environment{
		Version:          c.Distribution.Version,
		Codename:         c.Distribution.Codename,
		SourcesFile:      c.Apt.SourcesFile,
		DebianRepository: c.Apt.DebianRepository,
	}
}
