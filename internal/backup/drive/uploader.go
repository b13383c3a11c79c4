package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const folderMimeType = "application/vnd.google-apps.folder"

// Uploader writes backup archives into a Drive folder owned by the connected account.
type Uploader struct {
	files *drive.FilesService
}

func NewUploader(ctx context.Context, client *http.Client, opts ...option.ClientOption) (*Uploader, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("drive service: %w", err)
	}
	return &Uploader{files: svc.Files}, nil
}

// EnsureFolder returns folderID when it still exists and is not trashed,
// otherwise it creates a new folder called name.
func (u *Uploader) EnsureFolder(ctx context.Context, folderID, name string) (string, error) {
	if folderID != "" {
		f, err := u.files.Get(folderID).Fields("id", "trashed").Context(ctx).Do()
		switch {
		case err == nil && !f.Trashed:
			return f.Id, nil
		case err != nil && !isNotFound(err):
			return "", fmt.Errorf("lookup drive folder: %w", err)
		}
	}

	f, err := u.files.Create(&drive.File{Name: name, MimeType: folderMimeType}).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("create drive folder: %w", err)
	}
	return f.Id, nil
}

func (u *Uploader) Upload(ctx context.Context, folderID, name string, r io.Reader) (string, error) {
	meta := &drive.File{Name: name, Parents: []string{folderID}}
	f, err := u.files.Create(meta).
		Media(r, googleapi.ContentType("application/octet-stream")).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("upload to drive: %w", err)
	}
	return f.Id, nil
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
