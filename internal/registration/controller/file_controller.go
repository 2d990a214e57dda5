package controller

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"matholymp/internal/registration/service"
	pkgerrors "matholymp/pkg/errors"
	"matholymp/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// FileController handles uploads, attachments and bulk registration.
type FileController struct {
	svc *service.Service
}

func NewFileController(svc *service.Service) *FileController {
	return &FileController{svc: svc}
}

// Upload stores the multipart field "file" as the kind named by the
// "kind" form field.
func (h *FileController) Upload(c *gin.Context) {
	kind := service.FileKind(c.PostForm("kind"))
	switch kind {
	case service.FileFlag, service.FilePhoto, service.FileConsentForm:
	default:
		response.BadRequest(c, "Invalid file kind")
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "No file uploaded")
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Error(c, pkgerrors.Wrap(err, pkgerrors.InvalidParams))
		return
	}
	defer f.Close()

	id, err := h.svc.UploadFile(c.Request.Context(), kind, fh.Filename, f)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, UploadResponse{ID: id})
}

// Attachment serves /attachments/file<id>/<name>. The name is ignored.
func (h *FileController) Attachment(c *gin.Context) {
	raw := c.Param("file")
	if !strings.HasPrefix(raw, "file") {
		response.NotFound(c, "")
		return
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(raw, "file"), 10, 64)
	if err != nil || id <= 0 {
		response.NotFound(c, "")
		return
	}
	f, r, err := h.svc.OpenFile(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer r.Close()
	c.DataFromReader(http.StatusOK, f.Size, f.ContentType, r, map[string]string{
		"Content-Disposition": `inline; filename="` + f.Name + `"`,
	})
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, service.MaxUploadSize+1))
}

// bulkInput collects a bulk registration submission: either the
// multipart files csv_file and zip_file, or the csv_contents and zip_ref
// fields returned by the checking submission.
func bulkInput(c *gin.Context) (service.BulkInput, error) {
	in := service.BulkInput{
		CSVContents: c.PostForm("csv_contents"),
		ZIPRef:      c.PostForm("zip_ref"),
		Delimiter:   c.PostForm("delimiter"),
	}
	if fh, err := c.FormFile("csv_file"); err == nil {
		if in.CSV, err = readFormFile(fh); err != nil {
			return in, err
		}
	}
	if fh, err := c.FormFile("zip_file"); err == nil {
		if in.ZIP, err = readFormFile(fh); err != nil {
			return in, err
		}
	}
	return in, nil
}

func (h *FileController) BulkCountries(c *gin.Context) {
	in, err := bulkInput(c)
	if err != nil {
		response.Error(c, pkgerrors.Wrap(err, pkgerrors.InvalidParams))
		return
	}
	result, err := h.svc.BulkRegisterCountries(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (h *FileController) BulkPeople(c *gin.Context) {
	in, err := bulkInput(c)
	if err != nil {
		response.Error(c, pkgerrors.Wrap(err, pkgerrors.InvalidParams))
		return
	}
	result, err := h.svc.BulkRegisterPeople(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

type UploadResponse struct {
	ID int64 `json:"id"`
}
