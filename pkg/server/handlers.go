package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/orchard/pkg/buildinfo"
	"github.com/matzehuels/orchard/pkg/catalogue"
	errs "github.com/matzehuels/orchard/pkg/errors"
	"github.com/matzehuels/orchard/pkg/export"
	"github.com/matzehuels/orchard/pkg/layout"
	"github.com/matzehuels/orchard/pkg/panel"
	"github.com/matzehuels/orchard/pkg/record"
	"github.com/matzehuels/orchard/pkg/render"
	"github.com/matzehuels/orchard/pkg/studio"
)

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

type catalogueResponse struct {
	Sections []catalogue.Section `json:"sections"`
	Zone     catalogue.Field     `json:"zone"`
}

func (s *Server) catalogue(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, catalogueResponse{Sections: catalogue.Sections(), Zone: catalogue.ZoneTemplate()})
}

func (s *Server) normalize(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := s.decode(w, r, &raw); err != nil {
		s.writeError(w, r, err)
		return
	}
	if raw == nil {
		s.writeError(w, r, errs.New(errs.ErrCodeInvalidInput, "record must be a JSON object"))
		return
	}
	rec, _ := s.normalizer.Normalize(r.Context(), raw)
	writeJSON(w, http.StatusOK, rec)
}

// parseLayout accepts an array, a JSON string of one, or null.
func parseLayout(raw json.RawMessage) (layout.Model, error) {
	if len(raw) == 0 {
		return layout.Model{}, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidLayout, err, "decode layout")
	}
	if s, ok := v.(string); ok {
		return layout.Parse(s)
	}
	return layout.Parse([]byte(raw))
}

type panelRequest struct {
	Record       map[string]any  `json:"record"`
	Layout       json.RawMessage `json:"layout"`
	OnlyWithData bool            `json:"onlyWithData"`
	Sections     []string        `json:"sections"`
	Open         map[string]bool `json:"open"`
}

func (s *Server) panel(w http.ResponseWriter, r *http.Request) {
	var body panelRequest
	if err := s.decode(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	m, err := parseLayout(body.Layout)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, _ := s.normalizer.Normalize(r.Context(), body.Record)
	writeJSON(w, http.StatusOK, panel.Build(rec, m, panel.Options{
		OnlyWithData: body.OnlyWithData,
		Sections:     body.Sections,
		Open:         body.Open,
	}))
}

type opsRequest struct {
	Layout json.RawMessage `json:"layout"`
	Ops    []layout.Op     `json:"ops"`
}

type layoutResponse struct {
	Layout layout.Model `json:"layout"`
}

func (s *Server) applyOps(w http.ResponseWriter, r *http.Request) {
	var body opsRequest
	if err := s.decode(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	m, err := parseLayout(body.Layout)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	next, err := layout.ApplyOps(m, body.Ops, nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if next == nil {
		next = layout.Model{}
	}
	writeJSON(w, http.StatusOK, layoutResponse{Layout: next})
}

// exportRequest carries a composition and what to export. Layout, mode
// and config default to what the record stores, then to the studio.
type exportRequest struct {
	Record  map[string]any    `json:"record"`
	Layout  json.RawMessage   `json:"layout"`
	Mode    studio.LayoutMode `json:"mode"`
	Config  *studio.Config    `json:"config"`
	Request export.Request    `json:"request"`
}

func (s *Server) scene(ctx context.Context, body exportRequest) (render.Scene, record.Record, error) {
	rec, _ := s.normalizer.Normalize(ctx, body.Record)
	if rec == nil {
		rec = record.Record{}
	}
	in, err := studio.LoadInput(rec)
	if err != nil {
		s.logger.Debug("stored composition ignored", "error", err)
	}

	scene := render.Scene{Record: rec, Layout: in.Layout, Mode: in.Mode, Config: s.studio.Config()}
	if in.Config != nil {
		scene.Config = *in.Config
	}
	if len(body.Layout) > 0 {
		m, err := parseLayout(body.Layout)
		if err != nil {
			return scene, rec, err
		}
		scene.Layout = m
		scene.Mode = ""
	}
	if body.Mode != "" {
		if !body.Mode.Valid() {
			return scene, rec, errs.New(errs.ErrCodeInvalidInput, "unknown layout mode %q", body.Mode)
		}
		scene.Mode = body.Mode
	}
	if body.Config != nil {
		cfg := body.Config.Clone()
		cfg.SetDefaults()
		if err := cfg.Validate(); err != nil {
			return scene, rec, err
		}
		scene.Config = cfg
	}
	return scene, rec, nil
}

// httpSink streams an artifact as a download.
type httpSink struct {
	w http.ResponseWriter
}

func (s httpSink) Deliver(_ context.Context, a *export.Artifact) (string, error) {
	h := s.w.Header()
	h.Set("Content-Type", a.ContentType)
	h.Set("Content-Disposition", attachment(a.Filename))
	if a.Cached {
		h.Set("X-Orchard-Cache", "hit")
	} else {
		h.Set("X-Orchard-Cache", "miss")
	}
	s.w.WriteHeader(http.StatusOK)
	_, err := s.w.Write(a.Data)
	return a.Filename, err
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	body := exportRequest{Request: export.Request{Options: export.DefaultOptions()}}
	if err := s.decode(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if f, err := export.ParseFormat(string(body.Request.Format)); err == nil {
		body.Request.Format = f
	}
	if sc, err := export.ParseScope(string(body.Request.Scope)); err == nil {
		body.Request.Scope = sc
	}
	scene, rec, err := s.scene(r.Context(), body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var surfaces export.SurfaceSet
	if body.Request.Format.Raster() {
		surfaces = export.SceneSurfaces(s.compositor, scene)
	}
	// Errors are reported before the sink writes anything.
	a, err := s.exporter.Export(r.Context(), body.Request, surfaces, rec)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := (httpSink{w: w}).Deliver(r.Context(), a); err != nil {
		s.logger.Warn("export delivery failed", "file", a.Filename, "error", err)
	}
}

func (s *Server) exportPreview(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Record map[string]any `json:"record"`
	}
	if err := s.decode(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, _ := s.normalizer.Normalize(r.Context(), body.Record)
	html, err := export.MarkdownHTML(export.Markdown(rec))
	if err != nil {
		s.writeError(w, r, errs.Wrap(errs.ErrCodeEncodeFailed, err, "render preview"))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(html)
}

func (s *Server) config(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.studio.Config())
}

type presetsResponse struct {
	Presets      []studio.Preset `json:"presets"`
	ActivePreset string          `json:"activePreset,omitempty"`
}

func (s *Server) listPresets(w http.ResponseWriter, _ *http.Request) {
	presets := s.studio.Presets()
	if presets == nil {
		presets = []studio.Preset{}
	}
	writeJSON(w, http.StatusOK, presetsResponse{Presets: presets, ActivePreset: s.studio.ActivePreset()})
}

func (s *Server) savePreset(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := s.decode(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.studio.SavePreset(r.Context(), strings.TrimSpace(body.Name), body.Description)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) deletePreset(w http.ResponseWriter, r *http.Request) {
	if err := s.studio.DeletePreset(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type applyRequest struct {
	ReviewID string            `json:"reviewId"`
	Layout   json.RawMessage   `json:"layout"`
	Mode     studio.LayoutMode `json:"mode"`
}

func (s *Server) apply(w http.ResponseWriter, r *http.Request) {
	var body applyRequest
	if err := s.decode(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	m, err := parseLayout(body.Layout)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	mode := body.Mode
	if mode == "" {
		mode = studio.ModeTemplate
		if len(m) > 0 {
			mode = studio.ModeCustom
		}
	}
	p, err := s.studio.Apply(mode, m)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if body.ReviewID != "" {
		if s.layouts == nil {
			s.writeError(w, r, errs.New(errs.ErrCodeUnsupported, "no layout store configured"))
			return
		}
		if err := s.layouts.PutLayout(r.Context(), body.ReviewID, p); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) getApplied(w http.ResponseWriter, r *http.Request) {
	if s.layouts == nil {
		s.writeError(w, r, errs.New(errs.ErrCodeUnsupported, "no layout store configured"))
		return
	}
	id := chi.URLParam(r, "reviewID")
	a, err := s.layouts.GetLayout(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if a == nil {
		s.writeError(w, r, errs.New(errs.ErrCodeNotFound, "no applied layout for %q", id))
		return
	}
	writeJSON(w, http.StatusOK, a)
}
