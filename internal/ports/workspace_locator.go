package ports

// ConfigLocator finds the directory holding cloudbio.yaml starting from an arbitrary directory.
type ConfigLocator interface {
	FindRoot(startDir string) (string, error)
}
