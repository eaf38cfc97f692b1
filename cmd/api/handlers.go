// cmd/api/handlers.go
// This file contains the HTTP request handlers for plants and their
// reference data. Each handler is a method on *applicationDependencies so
// it has access to the logger and the catalog service.
package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/yoyothesheep/MySoilMate/internal/catalog"
	"github.com/yoyothesheep/MySoilMate/internal/data"
	"github.com/yoyothesheep/MySoilMate/internal/validator"
)

// listPlantsHandler handles GET /api/plants.
// Query parameters are validated in full before the catalog is touched;
// any problem is reported as a 400 with one message per parameter.
func (app *applicationDependencies) listPlantsHandler(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	v := validator.New()

	input := catalog.FilterInput{
		Search:           app.readString(qs, "search", ""),
		LightLevels:      app.readCSV(qs, "lightLevels"),
		WaterNeeds:       app.readCSV(qs, "waterNeeds"),
		GrowZones:        app.readCSV(qs, "growZones"),
		BloomSeasons:     app.readCSV(qs, "bloomSeasons"),
		HeightCategories: app.readCSV(qs, "heightTexts"),
		Sort:             app.readString(qs, "sort", ""),
		Page:             app.readInt(qs, "page", catalog.DefaultPage, v),
		PageSize:         app.readInt(qs, "limit", catalog.DefaultPageSize, v),
	}

	spec := catalog.ParseFilters(v, input)
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	page, err := app.catalog.ListPlants(r.Context(), spec)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, page, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// showPlantHandler handles GET /api/plants/:id.
func (app *applicationDependencies) showPlantHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	plant, err := app.catalog.GetPlant(r.Context(), id)
	if err != nil {
		app.catalogErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"plant": plant}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// createPlantHandler handles POST /api/plants.
// It responds 201 with the stored plant and its location.
func (app *applicationDependencies) createPlantHandler(w http.ResponseWriter, r *http.Request) {
	var input data.PlantInput
	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	data.ValidatePlantInput(v, input)
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	plant, err := app.catalog.CreatePlant(r.Context(), input)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	headers := make(http.Header)
	headers.Set("Location", fmt.Sprintf("/api/plants/%d", plant.ID))

	err = app.writeJSON(w, http.StatusCreated, envelope{"plant": plant}, headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// updatePlantHandler handles PUT /api/plants/:id.
// The body replaces every attribute and both relation sets.
func (app *applicationDependencies) updatePlantHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input data.PlantInput
	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	data.ValidatePlantInput(v, input)
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	plant, err := app.catalog.UpdatePlant(r.Context(), id, input)
	if err != nil {
		app.catalogErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"plant": plant}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// deletePlantHandler handles DELETE /api/plants/:id.
func (app *applicationDependencies) deletePlantHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.catalog.DeletePlant(r.Context(), id)
	if err != nil {
		app.catalogErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// uploadPlantImageHandler handles POST /api/plants/:id/image.
// The image arrives as the multipart field "image"; its type is sniffed
// from the content rather than trusted from the client.
func (app *applicationDependencies) uploadPlantImageHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	maxBytes := app.config.Images.MaxBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+64<<10)

	err = r.ParseMultipartForm(1 << 20)
	if err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			app.failedValidationResponse(w, r, map[string]string{"image": "must not be larger than " + strconv.FormatInt(maxBytes, 10) + " bytes"})
			return
		}
		app.badRequestResponse(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			app.failedValidationResponse(w, r, map[string]string{"image": "must be provided"})
			return
		}
		app.badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		app.badRequestResponse(w, r, err)
		return
	}
	head = head[:n]
	contentType := http.DetectContentType(head)

	v := validator.New()
	v.Check(n > 0, "image", "must not be empty")
	v.Check(header.Size <= maxBytes, "image", "must not be larger than "+strconv.FormatInt(maxBytes, 10)+" bytes")
	v.Check(strings.HasPrefix(contentType, "image/"), "image", "must be an image")
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	plant, err := app.catalog.SetPlantImage(r.Context(), id, contentType, io.MultiReader(bytes.NewReader(head), file))
	if err != nil {
		app.catalogErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"plant": plant}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// showPlantImageHandler handles GET /api/plants/:id/image.
// Stored images are streamed or handed out as a signed URL depending on
// the image mode; external image URLs are redirected to.
func (app *applicationDependencies) showPlantImageHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	img, err := app.catalog.PlantImage(r.Context(), id)
	if err != nil {
		app.catalogErrorResponse(w, r, err)
		return
	}

	switch {
	case img.External:
		http.Redirect(w, r, img.URL, http.StatusFound)
	case img.Body != nil:
		defer img.Body.Close()
		app.streamBlob(w, r, img.Body, img.ContentType, img.Size)
	default:
		err = app.writeJSON(w, http.StatusOK, envelope{"url": img.URL}, nil)
		if err != nil {
			app.serverErrorResponse(w, r, err)
		}
	}
}

// showBlobHandler handles GET /api/blobs/:key?token=.
func (app *applicationDependencies) showBlobHandler(w http.ResponseWriter, r *http.Request) {
	key := httprouter.ParamsFromContext(r.Context()).ByName("key")
	token := r.URL.Query().Get("token")
	if token == "" {
		app.forbiddenResponse(w, r)
		return
	}

	body, info, err := app.catalog.SignedBlob(r.Context(), key, token)
	if err != nil {
		app.catalogErrorResponse(w, r, err)
		return
	}
	defer body.Close()

	app.streamBlob(w, r, body, info.ContentType, info.Size)
}

// streamBlob copies an image body to the client. Once the header is
// written a copy failure can only be logged.
func (app *applicationDependencies) streamBlob(w http.ResponseWriter, r *http.Request, body io.Reader, contentType string, size int64) {
	w.Header().Set("Content-Type", contentType)
	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, body); err != nil {
		app.logError(r, fmt.Errorf("stream image: %w", err))
	}
}

// listZonesHandler handles GET /api/zones.
func (app *applicationDependencies) listZonesHandler(w http.ResponseWriter, r *http.Request) {
	zones, err := app.catalog.Zones(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"zones": zones}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listBloomSeasonsHandler handles GET /api/bloom-seasons.
func (app *applicationDependencies) listBloomSeasonsHandler(w http.ResponseWriter, r *http.Request) {
	seasons, err := app.catalog.BloomSeasons(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"bloomSeasons": seasons}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// healthcheckHandler handles GET /healthz and reports the environment and version.
func (app *applicationDependencies) healthcheckHandler(w http.ResponseWriter, r *http.Request) {
	env := envelope{
		"status": "available",
		"system_info": map[string]string{
			"environment": app.config.Env,
			"version":     appVersion,
		},
	}

	err := app.writeJSON(w, http.StatusOK, env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
