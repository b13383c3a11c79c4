package domain

import (
	"fmt"
	"time"
)

const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Run records one backup attempt for a company.
type Run struct {
	ID          string     `json:"id"`
	CompanyID   string     `json:"company_id"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	SizeBytes   int64      `json:"size_bytes"`
	DriveFileID string     `json:"drive_file_id"`
	Error       string     `json:"error"`
}

// Succeed closes the run as uploaded.
func (r *Run) Succeed(at time.Time, size int64, fileID string) {
	r.Status = StatusSucceeded
	r.FinishedAt = &at
	r.SizeBytes = size
	r.DriveFileID = fileID
	r.Error = ""
}

func (r *Run) Fail(at time.Time, err error) {
	r.Status = StatusFailed
	r.FinishedAt = &at
	r.Error = err.Error()
}

// FileName names the dump uploaded for a company.
func FileName(companyID string, at time.Time) string {
	return fmt.Sprintf("corebuild-backup-%s-%s.dump", companyID, at.UTC().Format("20060102T150405Z"))
}

// Report summarizes one pass over all companies.
type Report struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}
