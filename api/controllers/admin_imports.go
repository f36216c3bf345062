package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cheikhbeye/oleashop-backend/api/responses"
	"github.com/cheikhbeye/oleashop-backend/api/validators"
	"github.com/cheikhbeye/oleashop-backend/internal/importer"
	"github.com/cheikhbeye/oleashop-backend/pkg/logger"
)

// maxImportBodyBytes bounds the CSV payload an operator can push in one
// analyze call. Larger catalogs are split by the admin UI.
const maxImportBodyBytes = 10 << 20

type analyzeImportRequest struct {
	Filename string `json:"filename,omitempty"`
	Content  string `json:"content" validate:"required"`
}

type setMappingRequest struct {
	Mapping []importer.ColumnMapping `json:"mapping" validate:"required,min=1"`
}

func AdminAnalyzeImport(svc importer.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxImportBodyBytes)

		var req analyzeImportRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Analyze(r.Context(), req.Content)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}

func AdminGetImport(svc importer.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := validators.ParsePathUUID(chi.URLParam(r, "importId"), "importId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.GetSession(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

func AdminSetImportMapping(svc importer.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := validators.ParsePathUUID(chi.URLParam(r, "importId"), "importId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req setMappingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.SetMapping(r.Context(), sessionID, req.Mapping)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

func AdminCommitImport(svc importer.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := validators.ParsePathUUID(chi.URLParam(r, "importId"), "importId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Commit(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
