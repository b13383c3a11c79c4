package domain

import (
	"path"
	"regexp"
	"strings"
	"time"
)

type Document struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"company_id"`
	ProjectID   string    `json:"project_id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Category    string    `json:"category"`
	StorageKey  string    `json:"-"`
	UploadedBy  *string   `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

const (
	CategoryContract = "contract"
	CategoryPermit   = "permit"
	CategoryPlan     = "plan"
	CategoryPhoto    = "photo"
	CategoryInvoice  = "invoice"
	CategoryOther    = "other"
)

var Categories = []string{
	CategoryContract, CategoryPermit, CategoryPlan, CategoryPhoto, CategoryInvoice, CategoryOther,
}

func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// MaxSizeBytes caps a single upload.
const MaxSizeBytes = 250 << 20

const maxNameLen = 120

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeName reduces a client file name to a safe object key segment.
func SanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if len(name) > maxNameLen {
		ext := path.Ext(name)
		if len(ext) > 16 {
			ext = ""
		}
		name = name[:maxNameLen-len(ext)] + ext
	}
	if name == "" {
		return "file"
	}
	return name
}

// StorageKey places an object under its company and project.
func StorageKey(companyID, projectID, objectID, name string) string {
	return "companies/" + companyID + "/projects/" + projectID + "/" + objectID + "/" + SanitizeName(name)
}

type CreateDocumentRequest struct {
	Name        string
	ContentType string
	SizeBytes   int64
	Category    string
	UploadedBy  string
}
