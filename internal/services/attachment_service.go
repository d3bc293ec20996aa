package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mholt/archives"
	"github.com/pkg/errors"

	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/models"
	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/repository"
)

// ObjectStore is the object storage boundary: upload, remove and derive a
// public URL. The bucket is public-read, so URLs need no authorization.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, key string) error
	PublicURL(key string) (string, error)
	Bucket() string
}

// IncomingFile is one staged upload: either a file picked directly or an
// entry expanded out of an uploaded archive.
type IncomingFile struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// AttachmentView is an attachment record together with its public URL.
type AttachmentView struct {
	models.Attachment
	URL string `json:"url"`
}

// AttachmentService manages photo attachments: validation, object storage
// and metadata records. Files are validated locally before any storage
// call is made.
type AttachmentService struct {
	Repo     repository.AttachmentRepository
	Store    ObjectStore
	MaxBytes int64
}

// NewAttachmentService creates a new AttachmentService.
func NewAttachmentService(repo repository.AttachmentRepository, store ObjectStore, maxBytes int64) *AttachmentService {
	return &AttachmentService{Repo: repo, Store: store, MaxBytes: maxBytes}
}

// List returns a resource's attachments, newest first, with public URLs.
func (s *AttachmentService) List(resourceID int64) ([]AttachmentView, error) {
	records, err := s.Repo.ListByResource(resourceID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list attachments")
	}
	views := make([]AttachmentView, 0, len(records))
	for _, rec := range records {
		url, err := s.Store.PublicURL(rec.StorageKey)
		if err != nil {
			return nil, err
		}
		views = append(views, AttachmentView{Attachment: rec, URL: url})
	}
	return views, nil
}

// UploadBatch stores the files sequentially against a resource. Archives
// are expanded into their image entries first. A failure partway through
// stops subsequent uploads but does not roll back ones already committed;
// the attachments saved so far are returned alongside the error.
func (s *AttachmentService) UploadBatch(ctx context.Context, resourceID int64, files []IncomingFile) ([]models.Attachment, error) {
	expanded, err := s.expandArchives(ctx, files)
	if err != nil {
		return nil, err
	}
	var saved []models.Attachment
	for _, f := range expanded {
		if err := s.validate(f); err != nil {
			return saved, err
		}
		rec, err := s.upload(ctx, resourceID, f)
		if err != nil {
			return saved, err
		}
		saved = append(saved, *rec)
	}
	return saved, nil
}

func (s *AttachmentService) validate(f IncomingFile) error {
	contentType := f.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(f.Filename)))
	}
	if !strings.HasPrefix(contentType, "image/") {
		return fmt.Errorf("%s: only image files can be attached", f.Filename)
	}
	if f.Size > s.MaxBytes {
		return fmt.Errorf("%s: file size %d exceeds the %d MiB limit", f.Filename, f.Size, s.MaxBytes>>20)
	}
	return nil
}

func (s *AttachmentService) upload(ctx context.Context, resourceID int64, f IncomingFile) (*models.Attachment, error) {
	contentType := f.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(f.Filename)))
	}
	key := fmt.Sprintf("resources/%d/%d-%s", resourceID, time.Now().UnixNano(), filepath.Base(f.Filename))
	if err := s.Store.Upload(ctx, key, f.Reader, f.Size, contentType); err != nil {
		return nil, errors.Wrapf(err, "failed to upload %s", f.Filename)
	}
	rec := &models.Attachment{
		ID:               uuid.New(),
		ResourceID:       resourceID,
		Bucket:           s.Store.Bucket(),
		StorageKey:       key,
		OriginalFilename: f.Filename,
		ContentType:      contentType,
		Size:             f.Size,
		UploadedAt:       time.Now(),
	}
	if err := s.Repo.Create(rec); err != nil {
		// Remove the stored object so a failed metadata insert leaves no orphan file.
		s.Store.Remove(ctx, key)
		return nil, errors.Wrapf(err, "failed to save metadata for %s", f.Filename)
	}
	return rec, nil
}

// Delete removes the stored object, then its metadata record. If the
// object removal fails the record is kept and the failure reported.
func (s *AttachmentService) Delete(ctx context.Context, id uuid.UUID) error {
	rec, err := s.Repo.Get(id)
	if err != nil {
		return errors.Wrap(err, "attachment lookup failed")
	}
	if err := s.Store.Remove(ctx, rec.StorageKey); err != nil {
		return errors.Wrapf(err, "failed to remove stored object %s", rec.StorageKey)
	}
	if err := s.Repo.Delete(id); err != nil {
		return errors.Wrap(err, "failed to delete attachment record")
	}
	return nil
}

// expandArchives replaces zip batches in the incoming set with their image
// entries, leaving plain files untouched.
func (s *AttachmentService) expandArchives(ctx context.Context, files []IncomingFile) ([]IncomingFile, error) {
	var out []IncomingFile
	for _, f := range files {
		if !isArchive(f) {
			out = append(out, f)
			continue
		}
		entries, err := extractImages(ctx, f)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to expand archive %s", f.Filename)
		}
		out = append(out, entries...)
	}
	return out, nil
}

func isArchive(f IncomingFile) bool {
	if f.ContentType == "application/zip" {
		return true
	}
	return strings.EqualFold(filepath.Ext(f.Filename), ".zip")
}

// extractImages pulls image entries out of an uploaded archive. System
// files and macOS resource forks are skipped.
func extractImages(ctx context.Context, f IncomingFile) ([]IncomingFile, error) {
	tempFile, err := os.CreateTemp("", "upload-*.zip")
	if err != nil {
		return nil, err
	}
	tempPath := tempFile.Name()
	defer os.Remove(tempPath)
	_, err = io.Copy(tempFile, f.Reader)
	tempFile.Close()
	if err != nil {
		return nil, err
	}

	fsys, err := archives.FileSystem(ctx, tempPath, nil)
	if err != nil {
		return nil, err
	}

	var entries []IncomingFile
	err = fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || shouldIgnoreEntry(filepath.Base(path)) {
			return nil
		}
		contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
		if !strings.HasPrefix(contentType, "image/") {
			return nil
		}
		reader, err := fsys.Open(path)
		if err != nil {
			return err
		}
		defer reader.Close()
		data, err := io.ReadAll(reader)
		if err != nil {
			return err
		}
		entries = append(entries, IncomingFile{
			Filename:    filepath.Base(path),
			ContentType: contentType,
			Size:        int64(len(data)),
			Reader:      bytes.NewReader(data),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func shouldIgnoreEntry(filename string) bool {
	if strings.HasPrefix(filename, "._") || strings.HasPrefix(filename, ".") {
		return true
	}
	if strings.EqualFold(filename, "thumbs.db") {
		return true
	}
	return filename == ""
}
