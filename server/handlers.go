package server

import (
	"bytes"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	indexFile    = "index.html"
	notFoundPage = "404.html"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{"status": "ok"}
	if s.opts.Status != nil {
		build := s.opts.Status()
		payload["build"] = build
		if build.Error != "" {
			payload["status"] = "failing"
		}
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	clean := sanitizeRequestPath(r.URL.Path)
	target := filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/")))
	if !isWithin(s.root, target) {
		writeError(w, http.StatusBadRequest, "invalid path")
		return
	}

	info, err := os.Stat(target)
	page := target
	if err == nil && info.IsDir() {
		page = filepath.Join(target, indexFile)
		info, err = os.Stat(page)
	}
	if err != nil {
		s.notFound(w, r)
		return
	}

	if s.opts.LiveReload == nil || page == target {
		http.ServeFile(w, r, target)
		return
	}

	// Directory index with live reload: inject the client script.
	if !strings.HasSuffix(r.URL.Path, "/") {
		http.Redirect(w, r, r.URL.Path+"/", http.StatusMovedPermanently)
		return
	}
	content, err := os.ReadFile(page)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, indexFile, info.ModTime(), bytes.NewReader(injectScript(content)))
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	content, err := os.ReadFile(filepath.Join(s.root, notFoundPage))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write(content)
}

func isWithin(base, target string) bool {
	baseAbs, err := filepath.Abs(base)
	if err != nil {
		return false
	}
	targetAbs, err := filepath.Abs(target)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(baseAbs, targetAbs)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return false
	}
	return true
}

func sanitizeRequestPath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	clean := path.Clean(p)
	if clean == "." {
		return "/"
	}
	return clean
}
