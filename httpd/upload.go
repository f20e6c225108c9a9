package httpd

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/sheets-relay/sheets-relay/auth"
	"github.com/sheets-relay/sheets-relay/config"
	"github.com/sheets-relay/sheets-relay/store"
	"github.com/sheets-relay/sheets-relay/upload"
)

const multipartOverhead = 512 * 1024

var allowedTypes = map[string]bool{
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"text/csv": true,
}

func (s *Server) uploadSheet(w http.ResponseWriter, r *http.Request, credentials auth.Credentials) {
	rq, cleanup, err := s.parseUpload(w, r)
	if err != nil {
		s.errorResponse(w, r, "Invalid upload", err)
		return
	}

	defer cleanup()

	result, err := s.flow.Run(context.WithoutCancel(r.Context()), credentials, *rq)
	if err != nil {
		s.errorResponse(w, r, "Failed to upload spreadsheet", err)
		return
	}

	response := envelop{
		"message":       "Spreadsheet uploaded successfully",
		"spreadsheet":   result.File,
		"n8nForwarding": result.Forwarding,
	}

	if result.PermissionError != "" {
		response["permissionError"] = result.PermissionError
	}

	s.writeJSON(w, response, http.StatusCreated, nil)
}

// parseUpload validates the multipart upload. Nothing remote is called until the file
// has passed the size and type checks.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request) (*upload.Request, func(), error) {
	limit := humanize.Bytes(config.MaxUploadSize)

	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(config.MaxUploadSize); err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			return nil, nil, invalid("File too large, the maximum size is %v", limit)
		}

		return nil, nil, invalid("Invalid multipart form")
	}

	cleanup := func() {
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
	}

	file, header, err := r.FormFile("spreadsheet")
	if errors.Is(err, http.ErrMissingFile) {
		cleanup()
		return nil, nil, invalid("No file uploaded")
	} else if err != nil {
		cleanup()
		return nil, nil, invalid("Invalid file upload")
	}

	if header.Size > config.MaxUploadSize {
		file.Close()
		cleanup()
		return nil, nil, invalid("File too large (%v), the maximum size is %v", humanize.Bytes(uint64(header.Size)), limit)
	}

	mimeType := header.Header.Get("Content-Type")
	if mediaType, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = mediaType
	}

	if !allowedTypes[mimeType] {
		file.Close()
		cleanup()
		return nil, nil, invalid("Invalid file type (%v), only Excel and CSV files are allowed", mimeType)
	}

	makePublic := true
	if v := strings.TrimSpace(r.FormValue("makePublic")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			file.Close()
			cleanup()
			return nil, nil, invalid("Invalid makePublic value: %v", v)
		}

		makePublic = b
	}

	rq := upload.Request{
		Content:        file,
		Size:           header.Size,
		MimeType:       mimeType,
		Name:           targetName(r.FormValue("fileName"), header.Filename),
		SourceFilename: header.Filename,
		MakePublic:     makePublic,
	}

	return &rq, func() { file.Close(); cleanup() }, nil
}

// targetName is the requested name or else the uploaded filename without its extension.
func targetName(requested, filename string) string {
	if name := strings.TrimSpace(requested); name != "" {
		return name
	}

	base := filepath.Base(filename)
	if name := strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base))); name != "" && name != "." {
		return name
	}

	return store.DefaultName
}
