package fsworkspace

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/SciLifeLab/cloudbiolinux/internal/domain"
	"github.com/SciLifeLab/cloudbiolinux/internal/ports"
)

//go:embed templates
var templatesFS embed.FS

const gitignoreHeader = "# CloudBioLinux"

var gitignoreEntries = []string{
	"reports/",
	".cloudbio/",
}

type Initializer struct{}

func NewInitializer() *Initializer {
	return &Initializer{}
}

var _ ports.WorkspaceInitializer = (*Initializer)(nil)

// Init writes a starter cloudbio.yaml into root. Existing files are kept unless force is set.
func (i *Initializer) Init(root string, force bool) error {
	root = filepath.Clean(root)

	for _, d := range []string{
		filepath.Join(root, "reports"),
		filepath.Join(root, ".cloudbio", "logs"),
	} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return ioError("fsworkspace.mkdir", d, err)
		}
	}

	if err := ensureGitignore(root); err != nil {
		return err
	}

	return fs.WalkDir(templatesFS, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		dst := filepath.Join(root, strings.TrimPrefix(p, "templates/"))
		if !force {
			if _, statErr := os.Stat(dst); statErr == nil {
				return nil
			}
		}

		b, err := fs.ReadFile(templatesFS, p)
		if err != nil {
			return err
		}
		if err := os.WriteFile(dst, b, 0o644); err != nil {
			return ioError("fsworkspace.write", dst, err)
		}
		return nil
	})
}

func ensureGitignore(root string) error {
	path := filepath.Join(root, ".gitignore")

	b, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return ioError("fsworkspace.gitignore", path, err)
	}
	existing := string(b)

	present := map[string]bool{}
	for _, line := range strings.Split(existing, "\n") {
		present[strings.TrimSpace(line)] = true
	}

	var missing []string
	for _, e := range gitignoreEntries {
		if !present[e] {
			missing = append(missing, e)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	var out strings.Builder
	out.WriteString(existing)
	if existing != "" {
		if !strings.HasSuffix(existing, "\n") {
			out.WriteByte('\n')
		}
		out.WriteByte('\n')
	}
	if !present[gitignoreHeader] {
		out.WriteString(gitignoreHeader + "\n")
	}
	for _, e := range missing {
		out.WriteString(e + "\n")
	}

	if err := os.WriteFile(path, []byte(out.String()), 0o644); err != nil {
		return ioError("fsworkspace.gitignore", path, err)
	}
	return nil
}

func ioError(op, path string, err error) error {
	return &domain.OpError{Op: op, Kind: domain.KindIO, Path: path, Err: err}
}
