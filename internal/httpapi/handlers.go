package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/titrolabs/srt-batch-translator/internal/intake"
	"github.com/titrolabs/srt-batch-translator/internal/paths"
)

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	files := make([]intake.SourceFile, 0, len(r.MultipartForm.File["files"]))
	for _, header := range r.MultipartForm.File["files"] {
		file, err := header.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable upload "+header.Filename)
			return
		}
		content, err := io.ReadAll(file)
		_ = file.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable upload "+header.Filename)
			return
		}
		files = append(files, intake.SourceFile{Name: header.Filename, Content: content})
	}

	result, err := s.intake.Submit(r.Context(), files, parseLanguages(r.Form["languages"]), r.Header.Get("X-User-ID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, result)
}

// parseLanguages accepts both repeated form values and comma-separated lists.
func parseLanguages(values []string) []string {
	languages := make([]string, 0, len(values))
	for _, value := range values {
		for _, lang := range strings.Split(value, ",") {
			lang = strings.TrimSpace(lang)
			if lang != "" {
				languages = append(languages, lang)
			}
		}
	}
	return languages
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// /api/status/{batchId} or /api/status/{batchId}/stream
	rest := strings.TrimPrefix(r.URL.Path, "/api/status/")
	if stream, ok := strings.CutSuffix(rest, "/stream"); ok {
		s.handleStatusStream(w, r, strings.TrimSuffix(stream, "/"))
		return
	}
	batchID := strings.TrimSuffix(rest, "/")
	if batchID == "" || strings.Contains(batchID, "/") {
		writeError(w, http.StatusBadRequest, "missing batch id")
		return
	}

	report, err := s.status.BatchStatus(r.Context(), batchID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// /downloads/{batchId}/results.zip
	rest := strings.TrimPrefix(r.URL.Path, "/downloads/")
	batchID, artifact, ok := strings.Cut(rest, "/")
	if !ok || batchID == "" || artifact != paths.ArtifactName {
		http.NotFound(w, r)
		return
	}

	artifactPath := paths.ArtifactPath(s.uploadsDir, batchID)
	if _, err := os.Stat(artifactPath); err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+paths.ArtifactName+`"`)
	http.ServeFile(w, r, artifactPath)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}
