package server

import (
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"facial-editor/internal/catalog"
	"facial-editor/internal/persist"
	"facial-editor/internal/raster"
	"facial-editor/internal/session"
	"facial-editor/internal/transform"
	"facial-editor/pkg/errors"
	"facial-editor/pkg/geometry"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.registry.Len()})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalog.List(s.catalog))
}

func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	a, err := s.catalog.Get(chi.URLParam(r, "category"), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writePNG(w, catalog.Thumbnail(a))
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, c := s.registry.Create()
	w.Header().Set("Location", "/sessions/"+id)
	writeJSON(w, http.StatusCreated, map[string]string{
		"id":     id,
		"status": c.Render().Status,
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// controller resolves the {id} URL parameter, writing the error response
// when it fails.
func (s *Server) controller(w http.ResponseWriter, r *http.Request) (*session.Controller, bool) {
	c, err := s.registry.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return c, true
}

// event adapts a parameterless controller event to a handler.
func (s *Server) event(fn func(*session.Controller) session.Frame) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := s.controller(w, r)
		if !ok {
			return
		}
		writeFrame(w, c, fn(c))
	}
}

func (s *Server) handleSetCanvas(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	img, err := s.readImage(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeFrame(w, c, c.SetCanvas(img))
}

type selectRequest struct {
	Category string `json:"category"`
	Name     string `json:"name"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	var req selectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	writeFrame(w, c, c.Select(req.Category, req.Name))
}

type adjustRequest struct {
	Field string  `json:"field"`
	Value float64 `json:"value"`
}

func (s *Server) handleAdjust(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	var req adjustRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	field, err := transform.ParseField(req.Field)
	if err != nil {
		writeError(w, err)
		return
	}
	writeFrame(w, c, c.Adjust(field, req.Value))
}

// clickRequest carries either pixel (x, y) or normalized (nx, ny)
// coordinates.
type clickRequest struct {
	X  *int     `json:"x,omitempty"`
	Y  *int     `json:"y,omitempty"`
	NX *float64 `json:"nx,omitempty"`
	NY *float64 `json:"ny,omitempty"`
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	var req clickRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	switch {
	case req.X != nil && req.Y != nil:
		writeFrame(w, c, c.Click(geometry.PointInt{X: *req.X, Y: *req.Y}))
	case req.NX != nil && req.NY != nil:
		writeFrame(w, c, c.ClickNormalized(*req.NX, *req.NY))
	default:
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "click needs x and y, or nx and ny"))
	}
}

func (s *Server) handleCustom(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	img, err := s.readImage(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = r.FormValue("name")
	}
	writeFrame(w, c, c.AddCustomFeature(img, name))
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	writePNG(w, c.Render().Image)
}

func (s *Server) handleOverlays(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	sum := c.Summary()
	resp := overlaysResponse{
		Overlays: sum.Overlays,
		Preview:  sum.Preview,
		Summary:  sum.String(),
	}
	if sel, ok := c.Selection(); ok {
		resp.Selection = &sel
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSessionCatalog(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c.Catalog())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	f, err := persist.LookupFormat(r.URL.Query().Get("ext"))
	if err != nil {
		writeError(w, err)
		return
	}
	img, err := c.ExportImage()
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": "edited" + f.Ext}))
	if err := s.encoder.Encode(w, img, f); err != nil {
		s.logger.Error("export failed", "error", err)
	}
}

// readImage decodes the request body, either raw image bytes or the
// "image" field of a multipart form.
func (s *Server) readImage(w http.ResponseWriter, r *http.Request) (*image.NRGBA, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)

	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid upload")
		}
		file, _, err := r.FormFile("image")
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "upload has no image field")
		}
		defer file.Close()
		src = file
	}

	img, _, err := raster.Decode(src)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "could not read image")
	}
	return img, nil
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

func writePNG(w http.ResponseWriter, img image.Image) {
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	png.Encode(w, img)
}
