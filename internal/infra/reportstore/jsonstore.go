package reportstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/SciLifeLab/cloudbiolinux/internal/domain"
	"github.com/SciLifeLab/cloudbiolinux/internal/ports"
)

const defaultReportsDir = "reports"

type JSONStore struct {
	rootDir        string
	reportsDirName string
	maskingEnabled bool
	writeIndex     bool
	now            func() time.Time
}

type Option func(*JSONStore)

// WithIndex enables a simple JSONL index: reports/index.jsonl
func WithIndex(enabled bool) Option {
	return func(s *JSONStore) { s.writeIndex = enabled }
}

// WithMasking hides debconf answers that look like credentials. On by default.
func WithMasking(enabled bool) Option {
	return func(s *JSONStore) { s.maskingEnabled = enabled }
}

// WithNow is useful for tests.
func WithNow(now func() time.Time) Option {
	return func(s *JSONStore) { s.now = now }
}

func NewJSONStore(root string, cfg domain.Config, opts ...Option) *JSONStore {
	dir := cfg.Paths.ReportsDir
	if strings.TrimSpace(dir) == "" {
		dir = defaultReportsDir
	}

	s := &JSONStore{
		rootDir:        root,
		reportsDirName: dir,
		maskingEnabled: true,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ ports.ReportStore = (*JSONStore)(nil)

// SaveReport writes <reports>/<timestamp>_<edition>.json and returns its id.
func (s *JSONStore) SaveReport(rep domain.ProvisionReport) (string, error) {
	dir := s.reportsDirName
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(s.rootDir, dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &domain.OpError{
			Op:   "reportstore.mkdir",
			Kind: domain.KindIO,
			Path: dir,
			Err:  err,
		}
	}

	toSave := rep
	if toSave.StartedAt.IsZero() {
		toSave.StartedAt = s.now()
	}
	ts := toSave.StartedAt.UTC()

	slug := slugify(rep.Edition.ShortName)
	if slug == "" {
		slug = "provision"
	}

	id, path := uniquePath(dir, fmt.Sprintf("%s_%s", ts.Format("20060102T150405Z"), slug))

	if s.maskingEnabled {
		toSave = maskReport(toSave)
	}

	b, err := json.MarshalIndent(toSave, "", "  ")
	if err != nil {
		return "", &domain.OpError{
			Op:   "reportstore.marshal",
			Kind: domain.KindExecution,
			Path: path,
			Err:  err,
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return "", &domain.OpError{
			Op:   "reportstore.write",
			Kind: domain.KindIO,
			Path: tmp,
			Err:  err,
		}
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", &domain.OpError{
			Op:   "reportstore.rename",
			Kind: domain.KindIO,
			Path: path,
			Err:  err,
		}
	}

	if s.writeIndex {
		_ = appendIndex(dir, id, filepath.Base(path), toSave)
	}

	return id, nil
}

func uniquePath(dir, base string) (string, string) {
	id := base
	for n := 2; ; n++ {
		path := filepath.Join(dir, id+".json")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return id, path
		}
		id = fmt.Sprintf("%s-%d", base, n)
	}
}

func appendIndex(dir, id, filename string, rep domain.ProvisionReport) error {
	type idx struct {
		ID        string    `json:"id"`
		File      string    `json:"file"`
		Edition   string    `json:"edition"`
		DryRun    bool      `json:"dry_run"`
		Failed    bool      `json:"failed"`
		StartedAt time.Time `json:"started_at"`
	}
	line, err := json.Marshal(idx{
		ID:        id,
		File:      filename,
		Edition:   rep.Edition.ShortName,
		DryRun:    rep.DryRun,
		Failed:    rep.Failed(),
		StartedAt: rep.StartedAt,
	})
	if err != nil {
		return err
	}

	f, err := os.OpenFile(filepath.Join(dir, "index.jsonl"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(append(line, '\n'))
	return err
}

// maskReport returns a masked copy (does NOT mutate the input).
func maskReport(rep domain.ProvisionReport) domain.ProvisionReport {
	out := rep
	out.Steps = make([]domain.StepResult, len(rep.Steps))
	for i, st := range rep.Steps {
		c := st
		c.Commands = make([]string, len(st.Commands))
		for j, cmd := range st.Commands {
			masked := domain.RedactCommand(cmd)
			if masked != cmd && c.Error != "" {
				c.Error = strings.ReplaceAll(c.Error, strconv.Quote(cmd), strconv.Quote(masked))
				c.Error = strings.ReplaceAll(c.Error, cmd, masked)
			}
			c.Commands[j] = masked
		}
		out.Steps[i] = c
	}
	return out
}

// slugify produces a safe filename component.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	b.Grow(len(s))

	lastDash := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}

	return strings.Trim(b.String(), "-")
}
