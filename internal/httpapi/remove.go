package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"rembgd/pkg/types"
)

// multipartMemory is how much of a multipart body is kept in memory before
// spilling to temporary files.
const multipartMemory = 8 << 20

// removeHandler godoc
// @Summary      Remove the background of an image
// @Description  Runs the selected algorithm and returns PNG (transparent) or JPEG (flattened onto background_color).
// @Tags         remove
// @Accept       multipart/form-data
// @Produce      image/png
// @Produce      image/jpeg
// @Param        image             formData  file    true   "Source image"
// @Param        algorithm         formData  string  false  "Algorithm id"  default(carvekit-tracer)
// @Param        is_transparent    formData  bool    false  "Keep alpha (PNG) instead of flattening (JPEG)"  default(true)
// @Param        background_color  formData  string  false  "Background colour #RRGGBB"  default(#ffffff)
// @Success      200  {file}    binary
// @Failure      400  {object}  types.ErrorResponse
// @Failure      429  {object}  types.ErrorResponse
// @Failure      500  {object}  types.ErrorResponse
// @Router       /api/remove-bg [post]
func removeHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rl := newRequestLog(r)
		req, status, err := parseRemoveForm(w, r)
		if err != nil {
			writeJSONError(w, status, err.Error())
			rl.end(status, err)
			return
		}
		req.RequestID = middleware.GetReqID(r.Context())
		uploadBytes.Observe(float64(len(req.Image)))
		rl.begin(req.Algorithm, req.Transparent, len(req.Image))

		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		if requestTimeout > 0 {
			var tcancel context.CancelFunc
			ctx, tcancel = context.WithTimeout(ctx, requestTimeout)
			defer tcancel()
		}

		res, err := svc.RemoveBackground(ctx, req)
		if err != nil {
			// Client went away or the server is shutting down: nobody to answer.
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				rl.end(499, err)
				return
			}
			rl.end(writeServiceError(w, err), err)
			return
		}
		w.Header().Set("Content-Type", res.ContentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(res.Body)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(res.Body)
		rl.end(http.StatusOK, nil)
	}
}

// parseRemoveForm reads the multipart fields of /api/remove-bg. Empty
// algorithm and background are left for the service to default.
func parseRemoveForm(w http.ResponseWriter, r *http.Request) (types.RemoveRequest, int, error) {
	var req types.RemoveRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return req, http.StatusBadRequest, fmt.Errorf("upload exceeds %d bytes", mbe.Limit)
		}
		return req, http.StatusBadRequest, errors.New("expected multipart/form-data body")
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	f, _, err := r.FormFile("image")
	if err != nil {
		return req, http.StatusBadRequest, errors.New("image file is required")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return req, http.StatusBadRequest, fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return req, http.StatusBadRequest, errors.New("image file is empty")
	}
	req.Image = data

	req.Algorithm = strings.TrimSpace(r.FormValue("algorithm"))
	transparent, err := parseFormBool(r.FormValue("is_transparent"), true)
	if err != nil {
		return req, http.StatusBadRequest, fmt.Errorf("is_transparent: %w", err)
	}
	req.Transparent = transparent
	req.Background = strings.TrimSpace(r.FormValue("background_color"))
	return req, 0, nil
}

// parseFormBool accepts the usual HTML form spellings; empty yields def.
func parseFormBool(s string, def bool) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return def, nil
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}
