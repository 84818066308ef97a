package web

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
)

const (
	flashNoFilePart   = "No file part"
	flashFileTooLarge = "File too large"
	flashUploaded     = "File uploaded successfully"
	flashFileDeleted  = "File deleted"
)

func (s *Server) files(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		s.uploadFile(w, r)
		return
	}
	list, err := s.svc.Files.List(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, "files", "Files", list)
}

func (s *Server) uploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	f, hdr, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			setFlash(w, r, flashFileTooLarge)
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			setFlash(w, r, flashNoFilePart)
		default:
			s.logger.Warn(r.Context(), "malformed upload", "error", err)
			setFlash(w, r, flashNoFilePart)
		}
		http.Redirect(w, r, "/files", http.StatusSeeOther)
		return
	}
	defer f.Close()
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	file, err := s.svc.Files.Upload(r.Context(), identity(r), hdr.Filename, f)
	if err != nil {
		s.fail(w, r, err, "/files")
		return
	}
	s.logger.Info(r.Context(), "file uploaded", "file_id", file.ID, "name", file.Filename, "size", file.Size)

	setFlash(w, r, flashUploaded)
	http.Redirect(w, r, "/files", http.StatusSeeOther)
}

func (s *Server) downloadFile(w http.ResponseWriter, r *http.Request) {
	fileID, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}

	file, rc, err := s.svc.Files.Open(r.Context(), fileID)
	if err != nil {
		s.fail(w, r, err, "/files")
		return
	}
	defer rc.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": file.OriginalName})
	if disposition == "" {
		disposition = mime.FormatMediaType("attachment", map[string]string{"filename": file.Filename})
	}
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))

	if _, err := io.Copy(w, rc); err != nil {
		s.logger.Warn(r.Context(), "download interrupted", "file_id", file.ID, "error", err)
	}
}

// deleteFile answers a foreign file with a flash rather than a 403, as the
// listing only offers the link to owners and admins.
func (s *Server) deleteFile(w http.ResponseWriter, r *http.Request) {
	fileID, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}

	if err := s.svc.Files.Delete(r.Context(), identity(r), fileID); err != nil {
		s.fail(w, r, err, "/files")
		return
	}
	setFlash(w, r, flashFileDeleted)
	http.Redirect(w, r, "/files", http.StatusSeeOther)
}
