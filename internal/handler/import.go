package handler

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"canopy/internal/config"
	"canopy/internal/domain"
	models "canopy/internal/domain/models/folder"
	folderSvc "canopy/internal/domain/services/folder"
	"canopy/internal/httputil"
)

// multipartMemory is how much of an upload is held in memory before spilling to disk
const multipartMemory = 8 << 20

// Import handles POST /api/import
// Accepts JSON (data as base64, or file_path) or a multipart upload with a
// "file" part and parent_view_id, name and layout fields.
func (h *FolderHandler) Import(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	var (
		params folderSvc.ImportParams
		err    error
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		params, err = parseMultipartImport(w, r)
	} else {
		err = httputil.ParseJSON(w, r, &params)
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || errors.Is(err, errImportTooLarge) {
			httputil.RespondError(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := svc.Import(r.Context(), &params)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.logger.Info("view imported",
		"view_id", view.ID,
		"layout", view.Layout,
		"user_id", httputil.GetUserID(r),
	)
	httputil.RespondJSON(w, http.StatusCreated, view)
}

var errImportTooLarge = fmt.Errorf("import exceeds %d bytes", config.MaxImportBytes)

func parseMultipartImport(w http.ResponseWriter, r *http.Request) (folderSvc.ImportParams, error) {
	var params folderSvc.ImportParams

	r.Body = http.MaxBytesReader(w, r.Body, config.MaxImportBytes+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return params, fmt.Errorf("invalid multipart form: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return params, fmt.Errorf("missing file part: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, config.MaxImportBytes+1))
	if err != nil {
		return params, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > config.MaxImportBytes {
		return params, errImportTooLarge
	}

	layout := models.LayoutDocument
	if raw := r.FormValue("layout"); raw != "" {
		if layout, err = models.ParseViewLayout(raw); err != nil {
			return params, fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
	}

	params.ParentViewID = r.FormValue("parent_view_id")
	params.Name = r.FormValue("name")
	if params.Name == "" {
		params.Name = header.Filename
	}
	params.Layout = layout
	params.Data = data
	return params, nil
}
