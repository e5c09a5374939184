package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/lintang-b-s/osm-geoenrich/pkg/datastructure"
	helper "github.com/lintang-b-s/osm-geoenrich/pkg/http/http-router/router-helper"
	"github.com/lintang-b-s/osm-geoenrich/pkg/http/usecases"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/julienschmidt/httprouter"

	"go.uber.org/zap"
)

const rootMessage = "Location service is running"

type geoAPI struct {
	geoService GeoService
	log        *zap.Logger
	validate   *validator.Validate
	trans      ut.Translator
}

func New(geoService GeoService, log *zap.Logger) *geoAPI {
	validate := validator.New()
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	_ = enTranslations.RegisterDefaultTranslations(validate, trans)

	return &geoAPI{
		geoService: geoService,
		log:        log,
		validate:   validate,
		trans:      trans,
	}
}

func (api *geoAPI) Routes(group *helper.RouteGroup) {
	group.GET("/", api.root)
	group.GET("/district", api.district)
	group.GET("/nearest", api.nearest)
	group.GET("/geocode", api.geocode)
}

// districtRequest model info
//
//	@Description	query parameters of a district lookup.
type districtRequest struct {
	Lat  float64 `validate:"min=-90,max=90"`
	Lon  float64 `validate:"min=-180,max=180"`
	City string  `validate:"required"` // boundary file key, e.g. minsk
}

// nearbyRequest model info
//
//	@Description	query parameters of a nearby lookup.
type nearbyRequest struct {
	Lat    float64 `validate:"min=-90,max=90"`
	Lon    float64 `validate:"min=-180,max=180"`
	Radius int     `validate:"min=1,max=50000"` // meters, 500 when absent
}

type geocodeRequest struct {
	Lat    float64 `validate:"min=-90,max=90"`
	Lon    float64 `validate:"min=-180,max=180"`
	City   string  `validate:"required"`
	Radius int     `validate:"min=1,max=50000"`
}

type districtResponse struct {
	District string `json:"district"`
}

type nearbyResponse struct {
	Nearby datastructure.NearbyResult `json:"nearby"`
}

func (api *geoAPI) root(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := api.writeJSON(w, http.StatusOK, envelope{"message": rootMessage}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

// district godoc
// @Summary		name of the district of a city that contains the coordinate.
// @Tags			geo
// @Param			lat		query	number	true	"latitude"
// @Param			lon		query	number	true	"longitude"
// @Param			city	query	string	true	"city key"
// @Produce		application/json
// @Router			/district [get]
// @Success		200	{object}	districtResponse
// @Failure		400	{object}	errorResponse
// @Failure		404	{object}	errorResponse
// @Failure		500	{object}	errorResponse
func (api *geoAPI) district(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	lat, lon, err := queryCoordinate(q)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	request := districtRequest{Lat: lat, Lon: lon, City: q.Get("city")}
	if err := api.validateRequest(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	district, err := api.geoService.District(request.Lat, request.Lon, request.City)
	if err != nil {
		api.errorFromCode(w, r, err)
		return
	}

	if err := api.writeJSON(w, http.StatusOK, envelope{"district": district}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

// nearest godoc
// @Summary		up to five names per POI category within radius meters of the coordinate.
// @Tags			geo
// @Param			lat		query	number	true	"latitude"
// @Param			lon		query	number	true	"longitude"
// @Param			radius	query	int		false	"radius in meters"	default(500)
// @Produce		application/json
// @Router			/nearest [get]
// @Success		200	{object}	nearbyResponse
// @Failure		400	{object}	errorResponse
func (api *geoAPI) nearest(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	lat, lon, err := queryCoordinate(q)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	radius, err := queryRadius(q)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	request := nearbyRequest{Lat: lat, Lon: lon, Radius: radius}
	if err := api.validateRequest(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	nearby := api.geoService.Nearby(request.Lat, request.Lon, request.Radius)

	if err := api.writeJSON(w, http.StatusOK, envelope{"nearby": nearby}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

// geocode godoc
// @Summary		district and nearby POIs of the coordinate in one call.
// @Tags			geo
// @Param			lat		query	number	true	"latitude"
// @Param			lon		query	number	true	"longitude"
// @Param			city	query	string	true	"city key"
// @Param			radius	query	int		false	"radius in meters"	default(500)
// @Produce		application/json
// @Router			/geocode [get]
// @Success		200	{object}	datastructure.EnrichmentResult
// @Failure		400	{object}	errorResponse
// @Failure		404	{object}	errorResponse
// @Failure		500	{object}	errorResponse
func (api *geoAPI) geocode(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	lat, lon, err := queryCoordinate(q)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	radius, err := queryRadius(q)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	request := geocodeRequest{Lat: lat, Lon: lon, City: q.Get("city"), Radius: radius}
	if err := api.validateRequest(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	res, err := api.geoService.Geocode(request.Lat, request.Lon, request.City, request.Radius)
	if err != nil {
		api.errorFromCode(w, r, err)
		return
	}

	if err := api.writeJSON(w, http.StatusOK, envelope{"district": res.District, "nearby": res.Nearby}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *geoAPI) validateRequest(request interface{}) error {
	err := api.validate.Struct(request)
	if err == nil {
		return nil
	}

	vv := translateError(err, api.trans)
	vvString := []string{}
	for _, v := range vv {
		vvString = append(vvString, v.Error())
	}
	return fmt.Errorf("validation error: %v", vvString)
}

func queryCoordinate(q url.Values) (float64, float64, error) {
	lat, err := queryFloat(q, "lat")
	if err != nil {
		return 0, 0, err
	}
	lon, err := queryFloat(q, "lon")
	if err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}

func queryFloat(q url.Values, key string) (float64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return 0, fmt.Errorf("validation error: %s is required", key)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("validation error: %s must be a number", key)
	}
	return v, nil
}

func queryRadius(q url.Values) (int, error) {
	raw := strings.TrimSpace(q.Get("radius"))
	if raw == "" {
		return usecases.DefaultRadius, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("validation error: radius must be an integer")
	}
	return v, nil
}

func translateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	var validatorErrs validator.ValidationErrors
	if !errors.As(err, &validatorErrs) {
		return []error{err}
	}
	for _, e := range validatorErrs {
		errs = append(errs, errors.New(e.Translate(trans)))
	}
	return errs
}
