package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"campusmind/internal/domain"
	"campusmind/internal/ingest"
	"campusmind/internal/storage/files"
	"campusmind/internal/storage/sqlite"
)

const maxUploadBytes = 32 << 20

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := s.catalog.Authenticate(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, sqlite.ErrApprovalPending):
		httpError(w, http.StatusForbidden, "Approval Pending by Admin!")
		return
	case errors.Is(err, sqlite.ErrInvalidCredentials):
		httpError(w, http.StatusUnauthorized, "Invalid Credentials!")
		return
	case err != nil:
		httpError(w, http.StatusInternalServerError, "login failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"username": user.Username,
		"role":     string(user.Role),
	})
}

func (s *Server) handleRegisterStudent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.catalog.RegisterStudent(r.Context(), req.Username, req.Password); err != nil {
		if errors.Is(err, sqlite.ErrUsernameTaken) {
			httpError(w, http.StatusBadRequest, "Username exists!")
			return
		}
		httpError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Success"})
}

func (s *Server) handleRegisterStaff(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		School   string `json:"school"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.catalog.RegisterStaff(r.Context(), req.Username, req.Password, req.School); err != nil {
		if errors.Is(err, sqlite.ErrUsernameTaken) {
			httpError(w, http.StatusBadRequest, "Username exists!")
			return
		}
		httpError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Success"})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	students, staff, err := s.catalog.Analytics(r.Context())
	if err != nil {
		httpError(w, http.StatusInternalServerError, "analytics failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"total_students": students,
		"total_staff":    staff,
	})
}

func (s *Server) handlePendingStaff(w http.ResponseWriter, r *http.Request) {
	pending, err := s.catalog.PendingStaff(r.Context())
	if err != nil {
		httpError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	out := make([]map[string]any, 0, len(pending))
	for _, u := range pending {
		out = append(out, map[string]any{
			"id":       u.ID,
			"username": u.Username,
			"school":   u.School,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleApproveUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID int64 `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.catalog.Approve(r.Context(), req.UserID); err != nil {
		httpError(w, http.StatusInternalServerError, "approval failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "User Approved"})
}

func (s *Server) handleUploadPYQ(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	year, err := strconv.Atoi(r.FormValue("year"))
	if err != nil {
		httpError(w, http.StatusBadRequest, "year must be a number")
		return
	}
	meta := domain.DocumentMeta{
		Subject:     r.FormValue("subject_name"),
		SubjectCode: r.FormValue("subject_code"),
		Year:        year,
	}
	if meta.Subject == "" || meta.SubjectCode == "" {
		httpError(w, http.StatusBadRequest, "subject_name and subject_code are required")
		return
	}

	path, err := s.storeUpload(r, files.CategoryPYQ)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Catalog write and index write are independent: a failure of one does
	// not undo the other.
	entry := domain.CatalogEntry{
		Subject:     meta.Subject,
		SubjectCode: meta.SubjectCode,
		Year:        meta.Year,
		Course:      r.FormValue("course"),
		FilePath:    path,
	}
	if err := s.catalog.InsertPYQ(r.Context(), entry); err != nil {
		httpError(w, http.StatusInternalServerError, "catalog write failed")
		return
	}

	s.runIngest(w, r, domain.Document{
		ID:       ingest.DocumentID(path),
		Path:     path,
		Category: domain.CategoryExamArchive,
		Meta:     meta,
	})
}

func (s *Server) handleUploadDoc(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	docType := r.FormValue("doc_type")
	if docType == "" {
		httpError(w, http.StatusBadRequest, "doc_type is required")
		return
	}

	path, err := s.storeUpload(r, docType)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.runIngest(w, r, domain.Document{
		ID:       ingest.DocumentID(path),
		Path:     path,
		Category: domain.CategoryGeneral,
		Meta:     domain.DocumentMeta{DocType: docType},
	})
}

// storeUpload durably writes the uploaded file and returns its stored path.
func (s *Server) storeUpload(r *http.Request, category string) (string, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", errors.New("file is required")
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return "", errors.New("reading upload failed")
	}
	return s.files.Store(category, header.Filename, data)
}

// runIngest pushes the stored document through the pipeline and writes the
// HTTP response. The stored file is kept even when indexing fails.
func (s *Server) runIngest(w http.ResponseWriter, r *http.Request, doc domain.Document) {
	report, err := s.ingestor.Ingest(r.Context(), doc)
	if err != nil {
		var stageErr *ingest.StageError
		stage := "index"
		if errors.As(err, &stageErr) {
			stage = stageErr.Stage
		}
		s.log.Error("ingestion failed", "document", doc.Path, "stage", stage, "error", err)
		writeJSON(w, ingestStatus(err), map[string]string{
			"detail": err.Error(),
			"stage":  stage,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "Success",
		"chunks":  report.Chunks,
		"pages":   report.Pages,
		"summary": report.Summary,
	})
}

func (s *Server) handleSearchPYQs(w http.ResponseWriter, r *http.Request) {
	entries, err := s.catalog.SearchPYQs(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		httpError(w, http.StatusInternalServerError, "search failed")
		return
	}
	if entries == nil {
		entries = []domain.CatalogEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
		Role  string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		httpError(w, http.StatusBadRequest, "query is required")
		return
	}
	answer, err := s.engine.Answer(r.Context(), req.Query, domain.Role(req.Role))
	if err != nil {
		s.log.Error("chat failed", "error", err)
		httpError(w, ingestStatus(err), "answer generation failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": answer})
}
