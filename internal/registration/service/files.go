package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"matholymp/internal/common/auth"
	"matholymp/internal/common/db"
	"matholymp/internal/common/storage"
	"matholymp/internal/registration/repository"
	pkgerrors "matholymp/pkg/errors"
)

// MaxUploadSize bounds a single uploaded file.
const MaxUploadSize = 16 << 20

var uploadTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"application/pdf": ".pdf",
	"application/zip": ".zip",
}

// FileKind restricts the content types accepted for an upload.
type FileKind string

const (
	FileFlag        FileKind = "flag"
	FilePhoto       FileKind = "photo"
	FileConsentForm FileKind = "consent_form"
)

func (k FileKind) accepts(contentType string) bool {
	switch k {
	case FileFlag:
		return contentType == "image/png"
	case FilePhoto:
		return contentType == "image/jpeg" || contentType == "image/png"
	case FileConsentForm:
		return contentType == "application/pdf" || contentType == "image/jpeg" || contentType == "image/png"
	}
	return false
}

// UploadFile stores an uploaded file and returns its id. The content
// type is sniffed from the data rather than trusted from the client.
func (s *Service) UploadFile(ctx context.Context, kind FileKind, name string, r io.Reader) (int64, error) {
	if _, err := requireRole(ctx, auth.RoleRegister); err != nil {
		return 0, err
	}
	if s.storage == nil {
		return 0, pkgerrors.Newf(pkgerrors.StorageError, "file storage not configured")
	}
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return 0, pkgerrors.Wrap(err, pkgerrors.StorageError)
	}
	if len(data) > MaxUploadSize {
		return 0, pkgerrors.ValidationError("file", "File too large")
	}
	contentType := http.DetectContentType(data)
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	if !kind.accepts(contentType) {
		return 0, pkgerrors.ValidationError("file", fmt.Sprintf("File type %s not allowed for %s", contentType, kind))
	}
	sum := sha256.Sum256(data)
	key := "files/" + hex.EncodeToString(sum[:]) + uploadTypes[contentType]
	if err := s.storage.PutObject(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return 0, pkgerrors.Wrap(err, pkgerrors.StorageError)
	}
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "" || name == "." || name == "/" {
		name = string(kind) + uploadTypes[contentType]
	}
	f := &repository.File{Name: name, ContentType: contentType, ObjectKey: key, Size: int64(len(data))}
	id, err := s.repos.Files.Create(ctx, nil, f)
	if err != nil {
		return 0, dbError("create file", err)
	}
	return id, nil
}

// OpenFile returns the metadata and content of an uploaded file. The
// caller closes the reader.
func (s *Service) OpenFile(ctx context.Context, id int64) (*repository.File, io.ReadCloser, error) {
	f, err := s.repos.Files.GetByID(ctx, nil, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, nil, pkgerrors.NotFoundError("file")
		}
		return nil, nil, dbError("get file", err)
	}
	if s.storage == nil {
		return nil, nil, pkgerrors.Newf(pkgerrors.StorageError, "file storage not configured")
	}
	r, _, err := s.storage.GetObject(ctx, f.ObjectKey)
	if err != nil {
		if stderrors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.ObjectNotFound)
		}
		return nil, nil, pkgerrors.Wrap(err, pkgerrors.StorageError)
	}
	return f, r, nil
}

func (s *Service) readFile(ctx context.Context, id int64) (*repository.File, []byte, error) {
	f, r, err := s.OpenFile(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(err, pkgerrors.StorageError)
	}
	return f, data, nil
}

// fileURL is the public URL of file id, or "" when id is nil or
// unknown.
func (s *Service) fileURL(ctx context.Context, tx db.Transaction, id *int64) string {
	if id == nil {
		return ""
	}
	f, err := s.repos.Files.GetByID(ctx, tx, *id)
	if err != nil {
		return ""
	}
	return s.event.TrackerURL + "attachments/file" + strconv.FormatInt(f.ID, 10) + "/" + url.PathEscape(f.Name)
}
