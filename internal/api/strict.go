package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	strictnethttp "github.com/oapi-codegen/runtime/strictmiddleware/nethttp"
)

type GetHealthzRequestObject struct{}

type GetHealthzResponseObject interface {
	VisitGetHealthzResponse(w http.ResponseWriter) error
}

type GetHealthz200JSONResponse Health

func (response GetHealthz200JSONResponse) VisitGetHealthzResponse(w http.ResponseWriter) error {
	return writeJSON(w, 200, response)
}

type PostAuditsRequestObject struct {
	Params PostAuditsParams
	Body   *PostAuditsJSONRequestBody
}

type PostAuditsResponseObject interface {
	VisitPostAuditsResponse(w http.ResponseWriter) error
}

type PostAudits200JSONResponse AuditResponse

func (response PostAudits200JSONResponse) VisitPostAuditsResponse(w http.ResponseWriter) error {
	return writeJSON(w, 200, response)
}

type PostAudits202JSONResponse AuditAccepted

func (response PostAudits202JSONResponse) VisitPostAuditsResponse(w http.ResponseWriter) error {
	return writeJSON(w, 202, response)
}

type PostAudits400JSONResponse Error

func (response PostAudits400JSONResponse) VisitPostAuditsResponse(w http.ResponseWriter) error {
	return writeJSON(w, 400, response)
}

type GetAuditsIdRequestObject struct {
	Id AuditID `json:"id"`
}

type GetAuditsIdResponseObject interface {
	VisitGetAuditsIdResponse(w http.ResponseWriter) error
}

type GetAuditsId200JSONResponse AuditResponse

func (response GetAuditsId200JSONResponse) VisitGetAuditsIdResponse(w http.ResponseWriter) error {
	return writeJSON(w, 200, response)
}

type GetAuditsId404JSONResponse Error

func (response GetAuditsId404JSONResponse) VisitGetAuditsIdResponse(w http.ResponseWriter) error {
	return writeJSON(w, 404, response)
}

type GetAuditsIdReportRequestObject struct {
	Id AuditID `json:"id"`
}

type GetAuditsIdReportResponseObject interface {
	VisitGetAuditsIdReportResponse(w http.ResponseWriter) error
}

type GetAuditsIdReport200JSONResponse AuditReport

func (response GetAuditsIdReport200JSONResponse) VisitGetAuditsIdReportResponse(w http.ResponseWriter) error {
	return writeJSON(w, 200, AuditReport(response))
}

type GetAuditsIdReport404JSONResponse Error

func (response GetAuditsIdReport404JSONResponse) VisitGetAuditsIdReportResponse(w http.ResponseWriter) error {
	return writeJSON(w, 404, response)
}

type GetAuditsIdReport409JSONResponse Error

func (response GetAuditsIdReport409JSONResponse) VisitGetAuditsIdReportResponse(w http.ResponseWriter) error {
	return writeJSON(w, 409, response)
}

type GetAuditsIdScreenshotsNameRequestObject struct {
	Id   AuditID                              `json:"id"`
	Name GetAuditsIdScreenshotsNameParamsName `json:"name"`
}

type GetAuditsIdScreenshotsNameResponseObject interface {
	VisitGetAuditsIdScreenshotsNameResponse(w http.ResponseWriter) error
}

type GetAuditsIdScreenshotsName200ImagepngResponse struct {
	Body          io.Reader
	ContentLength int64
}

func (response GetAuditsIdScreenshotsName200ImagepngResponse) VisitGetAuditsIdScreenshotsNameResponse(w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "image/png")
	if response.ContentLength != 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(response.ContentLength, 10))
	}
	w.WriteHeader(200)

	if closer, ok := response.Body.(io.ReadCloser); ok {
		defer closer.Close()
	}
	_, err := io.Copy(w, response.Body)
	return err
}

type GetAuditsIdScreenshotsName404JSONResponse Error

func (response GetAuditsIdScreenshotsName404JSONResponse) VisitGetAuditsIdScreenshotsNameResponse(w http.ResponseWriter) error {
	return writeJSON(w, 404, response)
}

type GetProfilesDomainRequestObject struct {
	Domain string `json:"domain"`
}

type GetProfilesDomainResponseObject interface {
	VisitGetProfilesDomainResponse(w http.ResponseWriter) error
}

type GetProfilesDomain200JSONResponse Profile

func (response GetProfilesDomain200JSONResponse) VisitGetProfilesDomainResponse(w http.ResponseWriter) error {
	return writeJSON(w, 200, response)
}

type GetProfilesDomain404JSONResponse Error

func (response GetProfilesDomain404JSONResponse) VisitGetProfilesDomainResponse(w http.ResponseWriter) error {
	return writeJSON(w, 404, response)
}

func writeJSON(w http.ResponseWriter, status int, body any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}

// StrictServerInterface represents all server handlers.
type StrictServerInterface interface {
	// (GET /healthz)
	GetHealthz(ctx context.Context, request GetHealthzRequestObject) (GetHealthzResponseObject, error)
	// (POST /audits)
	PostAudits(ctx context.Context, request PostAuditsRequestObject) (PostAuditsResponseObject, error)
	// (GET /audits/{id})
	GetAuditsId(ctx context.Context, request GetAuditsIdRequestObject) (GetAuditsIdResponseObject, error)
	// (GET /audits/{id}/report)
	GetAuditsIdReport(ctx context.Context, request GetAuditsIdReportRequestObject) (GetAuditsIdReportResponseObject, error)
	// (GET /audits/{id}/screenshots/{name})
	GetAuditsIdScreenshotsName(ctx context.Context, request GetAuditsIdScreenshotsNameRequestObject) (GetAuditsIdScreenshotsNameResponseObject, error)
	// (GET /profiles/{domain})
	GetProfilesDomain(ctx context.Context, request GetProfilesDomainRequestObject) (GetProfilesDomainResponseObject, error)
}

type StrictHandlerFunc = strictnethttp.StrictHTTPHandlerFunc
type StrictMiddlewareFunc = strictnethttp.StrictHTTPMiddlewareFunc

type StrictHTTPServerOptions struct {
	RequestErrorHandlerFunc  func(w http.ResponseWriter, r *http.Request, err error)
	ResponseErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

func NewStrictHandler(ssi StrictServerInterface, middlewares []StrictMiddlewareFunc) ServerInterface {
	return &strictHandler{ssi: ssi, middlewares: middlewares, options: StrictHTTPServerOptions{
		RequestErrorHandlerFunc: func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		},
		ResponseErrorHandlerFunc: func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		},
	}}
}

func NewStrictHandlerWithOptions(ssi StrictServerInterface, middlewares []StrictMiddlewareFunc, options StrictHTTPServerOptions) ServerInterface {
	return &strictHandler{ssi: ssi, middlewares: middlewares, options: options}
}

type strictHandler struct {
	ssi         StrictServerInterface
	middlewares []StrictMiddlewareFunc
	options     StrictHTTPServerOptions
}

// handle runs fn through the middlewares and hands its response to visit.
func (sh *strictHandler) handle(w http.ResponseWriter, r *http.Request, operationID string, request any,
	fn StrictHandlerFunc, visit func(any) (bool, error)) {
	for _, middleware := range sh.middlewares {
		fn = middleware(fn, operationID)
	}
	response, err := fn(r.Context(), w, r, request)
	if err != nil {
		sh.options.ResponseErrorHandlerFunc(w, r, err)
		return
	}
	ok, err := visit(response)
	switch {
	case err != nil:
		sh.options.ResponseErrorHandlerFunc(w, r, err)
	case !ok && response != nil:
		sh.options.ResponseErrorHandlerFunc(w, r, fmt.Errorf("unexpected response type: %T", response))
	}
}

// GetHealthz operation middleware
func (sh *strictHandler) GetHealthz(w http.ResponseWriter, r *http.Request) {
	var request GetHealthzRequestObject

	sh.handle(w, r, "GetHealthz", request,
		func(ctx context.Context, w http.ResponseWriter, r *http.Request, request any) (any, error) {
			return sh.ssi.GetHealthz(ctx, request.(GetHealthzRequestObject))
		},
		func(response any) (bool, error) {
			v, ok := response.(GetHealthzResponseObject)
			if !ok {
				return false, nil
			}
			return true, v.VisitGetHealthzResponse(w)
		})
}

// PostAudits operation middleware
func (sh *strictHandler) PostAudits(w http.ResponseWriter, r *http.Request, params PostAuditsParams) {
	var request PostAuditsRequestObject

	request.Params = params

	var body PostAuditsJSONRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		sh.options.RequestErrorHandlerFunc(w, r, fmt.Errorf("can't decode JSON body: %w", err))
		return
	}
	request.Body = &body

	sh.handle(w, r, "PostAudits", request,
		func(ctx context.Context, w http.ResponseWriter, r *http.Request, request any) (any, error) {
			return sh.ssi.PostAudits(ctx, request.(PostAuditsRequestObject))
		},
		func(response any) (bool, error) {
			v, ok := response.(PostAuditsResponseObject)
			if !ok {
				return false, nil
			}
			return true, v.VisitPostAuditsResponse(w)
		})
}

// GetAuditsId operation middleware
func (sh *strictHandler) GetAuditsId(w http.ResponseWriter, r *http.Request, id AuditID) {
	request := GetAuditsIdRequestObject{Id: id}

	sh.handle(w, r, "GetAuditsId", request,
		func(ctx context.Context, w http.ResponseWriter, r *http.Request, request any) (any, error) {
			return sh.ssi.GetAuditsId(ctx, request.(GetAuditsIdRequestObject))
		},
		func(response any) (bool, error) {
			v, ok := response.(GetAuditsIdResponseObject)
			if !ok {
				return false, nil
			}
			return true, v.VisitGetAuditsIdResponse(w)
		})
}

// GetAuditsIdReport operation middleware
func (sh *strictHandler) GetAuditsIdReport(w http.ResponseWriter, r *http.Request, id AuditID) {
	request := GetAuditsIdReportRequestObject{Id: id}

	sh.handle(w, r, "GetAuditsIdReport", request,
		func(ctx context.Context, w http.ResponseWriter, r *http.Request, request any) (any, error) {
			return sh.ssi.GetAuditsIdReport(ctx, request.(GetAuditsIdReportRequestObject))
		},
		func(response any) (bool, error) {
			v, ok := response.(GetAuditsIdReportResponseObject)
			if !ok {
				return false, nil
			}
			return true, v.VisitGetAuditsIdReportResponse(w)
		})
}

// GetAuditsIdScreenshotsName operation middleware
func (sh *strictHandler) GetAuditsIdScreenshotsName(w http.ResponseWriter, r *http.Request, id AuditID, name GetAuditsIdScreenshotsNameParamsName) {
	request := GetAuditsIdScreenshotsNameRequestObject{Id: id, Name: name}

	sh.handle(w, r, "GetAuditsIdScreenshotsName", request,
		func(ctx context.Context, w http.ResponseWriter, r *http.Request, request any) (any, error) {
			return sh.ssi.GetAuditsIdScreenshotsName(ctx, request.(GetAuditsIdScreenshotsNameRequestObject))
		},
		func(response any) (bool, error) {
			v, ok := response.(GetAuditsIdScreenshotsNameResponseObject)
			if !ok {
				return false, nil
			}
			return true, v.VisitGetAuditsIdScreenshotsNameResponse(w)
		})
}

// GetProfilesDomain operation middleware
func (sh *strictHandler) GetProfilesDomain(w http.ResponseWriter, r *http.Request, domain string) {
	request := GetProfilesDomainRequestObject{Domain: domain}

	sh.handle(w, r, "GetProfilesDomain", request,
		func(ctx context.Context, w http.ResponseWriter, r *http.Request, request any) (any, error) {
			return sh.ssi.GetProfilesDomain(ctx, request.(GetProfilesDomainRequestObject))
		},
		func(response any) (bool, error) {
			v, ok := response.(GetProfilesDomainResponseObject)
			if !ok {
				return false, nil
			}
			return true, v.VisitGetProfilesDomainResponse(w)
		})
}
