package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (GET /healthz)
	GetHealthz(w http.ResponseWriter, r *http.Request)
	// (POST /audits)
	PostAudits(w http.ResponseWriter, r *http.Request, params PostAuditsParams)
	// (GET /audits/{id})
	GetAuditsId(w http.ResponseWriter, r *http.Request, id AuditID)
	// (GET /audits/{id}/report)
	GetAuditsIdReport(w http.ResponseWriter, r *http.Request, id AuditID)
	// (GET /audits/{id}/screenshots/{name})
	GetAuditsIdScreenshotsName(w http.ResponseWriter, r *http.Request, id AuditID, name GetAuditsIdScreenshotsNameParamsName)
	// (GET /profiles/{domain})
	GetProfilesDomain(w http.ResponseWriter, r *http.Request, domain string)
}

// ServerInterfaceWrapper converts contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

type MiddlewareFunc func(http.Handler) http.Handler

// GetHealthz operation middleware
func (siw *ServerInterfaceWrapper) GetHealthz(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetHealthz(w, r)
	})
}

// PostAudits operation middleware
func (siw *ServerInterfaceWrapper) PostAudits(w http.ResponseWriter, r *http.Request) {
	var params PostAuditsParams

	if err := runtime.BindQueryParameter("form", true, false, "wait", r.URL.Query(), &params.Wait); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "wait", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "timeout", r.URL.Query(), &params.Timeout); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "timeout", Err: err})
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.PostAudits(w, r, params)
	})
}

// GetAuditsId operation middleware
func (siw *ServerInterfaceWrapper) GetAuditsId(w http.ResponseWriter, r *http.Request) {
	id, ok := siw.pathParam(w, r, "id")
	if !ok {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetAuditsId(w, r, id)
	})
}

// GetAuditsIdReport operation middleware
func (siw *ServerInterfaceWrapper) GetAuditsIdReport(w http.ResponseWriter, r *http.Request) {
	id, ok := siw.pathParam(w, r, "id")
	if !ok {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetAuditsIdReport(w, r, id)
	})
}

// GetAuditsIdScreenshotsName operation middleware
func (siw *ServerInterfaceWrapper) GetAuditsIdScreenshotsName(w http.ResponseWriter, r *http.Request) {
	id, ok := siw.pathParam(w, r, "id")
	if !ok {
		return
	}
	var name GetAuditsIdScreenshotsNameParamsName
	err := runtime.BindStyledParameterWithOptions("simple", "name", chi.URLParam(r, "name"), &name,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "name", Err: err})
		return
	}
	if !name.Valid() {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "name", Err: fmt.Errorf("unknown screenshot %q", name)})
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetAuditsIdScreenshotsName(w, r, id, name)
	})
}

// GetProfilesDomain operation middleware
func (siw *ServerInterfaceWrapper) GetProfilesDomain(w http.ResponseWriter, r *http.Request) {
	domain, ok := siw.pathParam(w, r, "domain")
	if !ok {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetProfilesDomain(w, r, domain)
	})
}

func (siw *ServerInterfaceWrapper) pathParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	var value string
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &value,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: name, Err: err})
		return "", false
	}
	return value, true
}

func (siw *ServerInterfaceWrapper) serve(w http.ResponseWriter, r *http.Request, fn http.HandlerFunc) {
	var handler http.Handler = fn
	for _, middleware := range siw.HandlerMiddlewares {
		handler = middleware(handler)
	}
	handler.ServeHTTP(w, r)
}

type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

// Handler creates http.Handler with routing matching api/openapi.yaml.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// HandlerFromMux creates http.Handler with routing matching api/openapi.yaml based on the provided mux.
func HandlerFromMux(si ServerInterface, r chi.Router) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{BaseRouter: r})
}

// HandlerWithOptions creates http.Handler with additional options
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandlerFunc:   options.ErrorHandlerFunc,
	}

	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/healthz", wrapper.GetHealthz)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/audits", wrapper.PostAudits)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/audits/{id}", wrapper.GetAuditsId)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/audits/{id}/report", wrapper.GetAuditsIdReport)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/audits/{id}/screenshots/{name}", wrapper.GetAuditsIdScreenshotsName)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/profiles/{domain}", wrapper.GetProfilesDomain)
	})

	return r
}
