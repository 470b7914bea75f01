package handlers

import (
	"crypto/md5"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// how far ahead the Expires header points; revalidation is still forced
// through must-revalidate
const expiresAfter = 30 * 24 * time.Hour

// ServeCachedFile writes a binary file response with standard
// cache-validation headers: an ETag derived from the content hash and
// mtime, Last-Modified, Expires, and a 304 short-circuit honoring
// If-None-Match and If-Modified-Since.
func ServeCachedFile(w http.ResponseWriter, r *http.Request, path string) {
	stat, err := os.Stat(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	modified := stat.ModTime()

	etag, err := fileETag(path, modified)
	if err != nil {
		log.Printf("handlers: ERROR hashing %s: %v", path, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	headers := w.Header()
	headers.Set("Cache-Control", "max-age=0, must-revalidate")
	headers.Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filepath.Base(path)))
	headers.Set("Etag", etag)
	headers.Set("Expires", modified.Add(expiresAfter).UTC().Format(http.TimeFormat))
	headers.Set("Last-Modified", modified.UTC().Format(http.TimeFormat))

	if notModified(r, etag, modified) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	if mime, err := mimetype.DetectFile(path); err == nil {
		headers.Set("Content-Type", mime.String())
	}
	headers.Set("Content-Length", strconv.FormatInt(stat.Size(), 10))
	_, _ = io.Copy(w, f)
}

// notModified reports whether the client's validators still match.
// If-None-Match takes precedence over If-Modified-Since.
func notModified(r *http.Request, etag string, modified time.Time) bool {
	if match := r.Header.Get("If-None-Match"); match != "" {
		return match == etag
	}
	if since := r.Header.Get("If-Modified-Since"); since != "" {
		if t, err := http.ParseTime(since); err == nil {
			// HTTP dates have second precision
			return !modified.Truncate(time.Second).After(t)
		}
	}
	return false
}

// fileETag derives an entity tag from the file's content hash combined
// with its modification time.
func fileETag(path string, modified time.Time) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	content := fmt.Sprintf("%x", h.Sum(nil))
	return fmt.Sprintf("%x", md5.Sum([]byte(content+strconv.FormatInt(modified.Unix(), 10)))), nil
}
