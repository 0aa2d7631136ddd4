package config

type YAMLFile struct {
	CloudBio YAMLConfig `yaml:"cloudbio"`
}

type YAMLConfig struct {
	Edition       string `yaml:"edition"`
	StrictEdition *bool  `yaml:"strict_edition"`

	Distribution YAMLDistribution `yaml:"distribution"`
	Apt          YAMLApt          `yaml:"apt"`
	Privilege    YAMLPrivilege    `yaml:"privilege"`
	Paths        YAMLPaths        `yaml:"paths"`
}

type YAMLDistribution struct {
	Version  string `yaml:"version"`
	Codename string `yaml:"codename"`
}

type YAMLApt struct {
	SourcesFile      string `yaml:"sources_file"`
	DebianRepository string `yaml:"debian_repository"`

	Sources    []string        `yaml:"sources"`
	Automation []string        `yaml:"automation"`
	Keys       []string        `yaml:"keys"`
	Keyservers []YAMLKeyserver `yaml:"keyservers"`
}

type YAMLKeyserver struct {
	Server string `yaml:"server"`
	ID     string `yaml:"id"`
}

type YAMLPrivilege struct {
	// Pointer so an explicit "" (run unprivileged) differs from "not set".
	Command *string `yaml:"command"`
}

type YAMLPaths struct {
	ReportsDir string `yaml:"reports_dir"`
}
