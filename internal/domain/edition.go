package domain

// EditionIdentity describes an edition. It is set once at construction.
type EditionIdentity struct {
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	Version   string `json:"version"`
}

// SourceLine is one package-repository definition entry (a sources.list line).
// It may carry a %s placeholder for the distribution codename.
type SourceLine string

// AutomationAnswer is a debconf selection fed to debconf-set-selections.
type AutomationAnswer string

// KeyEntry locates a trusted repository signing key (usually a URL).
type KeyEntry string

// KeyserverEntry names a key to receive from a keyserver.
type KeyserverEntry struct {
	Server string `json:"server"`
	KeyID  string `json:"id"`
}
