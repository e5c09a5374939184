package controllers

import (
	"errors"
	"net/http"

	"github.com/lintang-b-s/osm-geoenrich/pkg"

	"go.uber.org/zap"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorResponse model info
// @Description error body of every failed request.
type errorResponse struct {
	Error errorBody `json:"error"`
}

func (api *geoAPI) errorResponse(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	env := envelope{"error": errorBody{Code: code, Message: message}}
	if err := api.writeJSON(w, status, env, nil); err != nil {
		api.log.Error("failed to write error response", zap.String("path", r.URL.Path), zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (api *geoAPI) BadRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.errorResponse(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error())
}

func (api *geoAPI) NotFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.errorResponse(w, r, http.StatusNotFound, "NOT_FOUND", err.Error())
}

func (api *geoAPI) ServerErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.log.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	api.errorResponse(w, r, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", pkg.MessageInternalServerError)
}

// errorFromCode picks the response from the code carried by err.
func (api *geoAPI) errorFromCode(w http.ResponseWriter, r *http.Request, err error) {
	code := pkg.ErrorCode(err)
	switch {
	case errors.Is(code, pkg.ErrBadParamInput):
		api.BadRequestResponse(w, r, err)
	case errors.Is(code, pkg.ErrNotFound):
		api.NotFoundResponse(w, r, err)
	default:
		api.ServerErrorResponse(w, r, err)
	}
}
