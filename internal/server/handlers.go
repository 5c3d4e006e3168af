package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	routinepdf "github.com/alnah/go-routinepdf"
	"github.com/alnah/go-routinepdf/internal/fileutil"
	"github.com/alnah/go-routinepdf/internal/parse"
	"github.com/alnah/go-routinepdf/internal/quota"
)

var errParseDisabled = errors.New("parsing is not configured on this server")

type parseRequest struct {
	InputText string `json:"inputText"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleThemes(w http.ResponseWriter, r *http.Request) {
	themes, err := s.themes.List()
	if err != nil {
		s.log.Error("listing themes", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, themes)
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	if s.parser == nil {
		writeError(w, http.StatusServiceUnavailable, errParseDisabled.Error())
		return
	}

	var req parseRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	routine, err := s.parser.Parse(r.Context(), clientKey(r), req.InputText)
	if err != nil {
		status := parseStatus(err)
		if status >= http.StatusInternalServerError {
			s.log.Error("parse error", "id", requestIDFrom(r.Context()), "error", err)
		}
		writeError(w, status, parse.UserMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, routine)
}

// parseStatus maps parse errors to HTTP status codes.
func parseStatus(err error) int {
	switch {
	case errors.Is(err, parse.ErrEmptyInput), errors.Is(err, parse.ErrInputTooLong):
		return http.StatusBadRequest
	case errors.Is(err, quota.ErrExceeded), errors.Is(err, parse.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, parse.ErrPaymentRequired):
		return http.StatusPaymentRequired
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	in, err := s.exportInput(w, r)
	if err != nil {
		writeError(w, exportStatus(err), err.Error())
		return
	}
	mode, err := routinepdf.ParseImageMode(string(in.Mode))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := in.Routine.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	html, err := s.renderer.RenderPreview(in.Routine, *in.Theme, in.Meta, mode)
	if err != nil {
		writeError(w, exportStatus(err), err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, html)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := routinepdf.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	in, err := s.exportInput(w, r)
	if err != nil {
		writeError(w, exportStatus(err), err.Error())
		return
	}

	var res *routinepdf.ExportResult
	if format == routinepdf.FormatText {
		res, err = s.exportText(in)
	} else {
		res, err = s.exportWithPool(r.Context(), format, in)
	}
	if err != nil {
		status := exportStatus(err)
		if status >= http.StatusInternalServerError {
			s.log.Error("export error", "id", requestIDFrom(r.Context()), "format", format, "error", err)
		}
		writeError(w, status, err.Error())
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.FileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	if res.Pages > 0 {
		w.Header().Set("X-Page-Count", strconv.Itoa(res.Pages))
	}
	_, _ = w.Write(res.Data)
}

// exportText needs no browser.
func (s *Server) exportText(in routinepdf.ExportInput) (*routinepdf.ExportResult, error) {
	data, err := routinepdf.ExportText(in.Routine, in.Meta)
	if err != nil {
		return nil, err
	}
	return &routinepdf.ExportResult{
		Format:   routinepdf.FormatText,
		Data:     data,
		FileName: routinepdf.FileName(in.Routine.Kind, in.Routine.StudentName, string(routinepdf.FormatText)),
		Pages:    1,
	}, nil
}

func (s *Server) exportWithPool(ctx context.Context, f routinepdf.Format, in routinepdf.ExportInput) (*routinepdf.ExportResult, error) {
	e, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Release(e)
	return e.Export(ctx, f, in)
}

// exportInput decodes the routine body and resolves the theme, mode and
// meta from the query.
func (s *Server) exportInput(w http.ResponseWriter, r *http.Request) (routinepdf.ExportInput, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		return routinepdf.ExportInput{}, fmt.Errorf("%w: %w", routinepdf.ErrRoutineDecode, err)
	}
	routine, err := routinepdf.DecodeRoutine(body)
	if err != nil {
		return routinepdf.ExportInput{}, err
	}

	q := r.URL.Query()
	themeID := q.Get("theme")
	if fileutil.IsFilePath(themeID) {
		return routinepdf.ExportInput{}, fmt.Errorf("%w: %q", routinepdf.ErrThemeNotFound, themeID)
	}
	if themeID == "" {
		themeID = s.cfg.Theme
	}
	theme, err := s.themes.Load(themeID)
	if err != nil {
		return routinepdf.ExportInput{}, err
	}

	meta, err := s.meta()
	if err != nil {
		return routinepdf.ExportInput{}, err
	}

	return routinepdf.ExportInput{
		Routine: routine,
		Theme:   &theme,
		Page:    s.cfg.Page,
		Mode:    routinepdf.ImageMode(q.Get("mode")),
		Meta:    meta,
	}, nil
}

func (s *Server) meta() (routinepdf.Meta, error) {
	date, err := routinepdf.RenewalDate(s.now(), s.cfg.RenewalDays, s.cfg.Calendar, s.cfg.DateFormat)
	if err != nil {
		return routinepdf.Meta{}, err
	}
	return routinepdf.Meta{RenewalDate: date, Contact: s.cfg.Contact}, nil
}

// exportStatus maps export errors to HTTP status codes.
func exportStatus(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, routinepdf.ErrRoutineDecode),
		errors.Is(err, routinepdf.ErrNilRoutine),
		errors.Is(err, routinepdf.ErrNoDays),
		errors.Is(err, routinepdf.ErrInvalidKind),
		errors.Is(err, routinepdf.ErrInvalidTheme),
		errors.Is(err, routinepdf.ErrThemeNotFound),
		errors.Is(err, routinepdf.ErrInvalidMode),
		errors.Is(err, routinepdf.ErrInvalidFormat):
		return http.StatusBadRequest
	case errors.Is(err, routinepdf.ErrPoolClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// clientKey identifies the caller for the daily quota.
func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
