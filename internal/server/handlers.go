package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"standardizer/pkg/engine"
	"standardizer/pkg/form"
	"standardizer/pkg/schema"
)

// multipartMemory is held in memory before spilling to temporary files;
// the total is capped separately by upload.max_bytes.
const multipartMemory = 8 << 20

var (
	errNoFile       = errors.New("no file selected")
	errBadSkipRows  = errors.New("skip rows must be a non-negative integer")
	errBadJSONInput = errors.New("invalid JSON body")
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	s.renderPage(w, sess, http.StatusOK, nil)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxBytes)
	sess := s.session(w, r)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.respond(w, r, sess, fmt.Errorf("failed to read upload: %w", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respond(w, r, sess, fmt.Errorf("%w: %v", errNoFile, err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respond(w, r, sess, fmt.Errorf("failed to read upload: %w", err))
		return
	}
	skip, err := parseSkipRows(r.FormValue("skip_rows"))
	if err != nil {
		s.respond(w, r, sess, err)
		return
	}

	log := s.logger.With(
		zap.String("session", sess.ID),
		zap.String("file", header.Filename),
		zap.Int("bytes", len(data)),
		zap.Int("skip_rows", skip),
	)
	if err := sess.Upload(header.Filename, data, skip); err != nil {
		log.Warn("upload rejected", zap.Error(err))
		s.respond(w, r, sess, err)
		return
	}
	ds := sess.Dataset()
	log.Info("upload parsed",
		zap.String("format", ds.Format),
		zap.Int("records", ds.Len()),
		zap.Int("columns", len(ds.Columns)),
		zap.Int("warnings", len(ds.Warnings)),
	)
	s.respond(w, r, sess, nil)
}

func (s *Server) handleSkipRows(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	skip, err := parseSkipRows(r.FormValue("skip_rows"))
	if err != nil {
		s.respond(w, r, sess, err)
		return
	}
	if err := sess.SetSkipRows(skip); err != nil {
		s.logger.Debug("re-parse failed", zap.String("session", sess.ID), zap.Int("skip_rows", skip), zap.Error(err))
		s.respond(w, r, sess, err)
		return
	}
	s.respond(w, r, sess, nil)
}

func (s *Server) handleMapping(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if err := r.ParseForm(); err != nil {
		s.respond(w, r, sess, fmt.Errorf("failed to read form: %w", err))
		return
	}
	s.respond(w, r, sess, sess.Apply(form.SubmissionFromValues(r.PostForm)))
}

func (s *Server) handleMappingJSON(w http.ResponseWriter, r *http.Request) {
	sess, err := s.existingSession(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var sub form.Submission
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&sub); err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadJSONInput, err))
		return
	}
	if err := sess.Apply(sub); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.existingSession(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// schemaBody describes the fixed form and output layout.
type schemaBody struct {
	Columns        []string               `json:"columns"`
	PlotFields     []schema.PlotField     `json:"plotFields"`
	Certifications []schema.Certification `json:"certifications"`
	Origins        []string               `json:"origins"`
	Extensions     []string               `json:"extensions"`
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, schemaBody{
		Columns:        schema.Columns,
		PlotFields:     schema.PlotFields,
		Certifications: schema.Certifications,
		Origins:        schema.Origins,
		Extensions:     s.registry.Extensions(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}

// session returns the caller's session, starting a new one when the cookie
// is missing or expired.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *engine.Session {
	if sess, err := s.existingSession(r); err == nil {
		return sess
	}
	sess := s.store.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

func (s *Server) existingSession(r *http.Request) (*engine.Session, error) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return nil, engine.ErrSessionNotFound
	}
	return s.store.Get(c.Value)
}

// respond finishes a form post: JSON clients get the snapshot or the error;
// browsers are redirected back to the page on success and shown the page
// with the error otherwise.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, sess *engine.Session, err error) {
	if wantsJSON(r) {
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sess.Snapshot())
		return
	}
	if err == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.renderPage(w, sess, statusFor(err), err)
}

func (s *Server) renderPage(w http.ResponseWriter, sess *engine.Session, status int, err error) {
	page := s.pageFor(sess)
	if err != nil {
		page.Error = err.Error()
	}

	var buf bytes.Buffer
	if err := s.page.ExecuteTemplate(&buf, "index.html", page); err != nil {
		s.logger.Error("failed to render page", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// statusFor maps handler errors to HTTP status codes. Everything that is not
// a size or session lookup failure is a problem with the submitted content:
// parser, form and engine sentinels all land on 400.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, engine.ErrSessionNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func parseSkipRows(v string) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", errBadSkipRows, v)
	}
	return n, nil
}
