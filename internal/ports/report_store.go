package ports

import "github.com/SciLifeLab/cloudbiolinux/internal/domain"

// ReportStore persists provisioning reports for later inspection.
type ReportStore interface {
	SaveReport(rep domain.ProvisionReport) (id string, err error)
}
