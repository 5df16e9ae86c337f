package auth

import (
	"bytes"
	"context"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/andrasnagy-data/authform/internal/shared/notify"
	"github.com/andrasnagy-data/authform/templates"
)

type (
	Router[T payload] struct {
		schema schema[T]
		client authenticator
		tmpl   *template.Template
	}

	// HTMX template data structures
	formView struct {
		Name        string
		Action      string
		SubmitLabel string
		Fields      []fieldView
		RememberMe  bool
		SocialLabel string
		Social      []string
		Toast       *toastView
	}

	fieldView struct {
		Form        string
		Name        string
		Type        string
		Placeholder string
		Icon        string
		Value       string
		Error       string
	}

	toastView struct {
		Status   string
		Title    string
		Position string
		Duration int64
	}
)

func NewSignInRouter(client *Client) chi.Router {
	return newRouter(signInSchema, client).Routes()
}

func NewSignUpRouter(client *Client) chi.Router {
	return newRouter(signUpSchema, client).Routes()
}

func newRouter[T payload](s schema[T], client authenticator) *Router[T] {
	return &Router[T]{
		schema: s,
		client: client,
		tmpl:   template.Must(templates.Parse()),
	}
}

func (r *Router[T]) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", r.FormPage)
	router.Post("/", r.HandleSubmit)
	router.Post("/validate", r.HandleValidateField)
	return router
}

// FormPage renders the empty form
func (r *Router[T]) FormPage(w http.ResponseWriter, req *http.Request) {
	var zero T
	r.render(w, req, http.StatusOK, "page", r.view(zero, nil))
}

// HandleSubmit runs the submission workflow. Invalid input re-renders the form with its errors;
// otherwise the outcome is delivered as a notification.
func (r *Router[T]) HandleSubmit(w http.ResponseWriter, req *http.Request) {
	logger := hlog.FromRequest(req)

	if err := req.ParseForm(); err != nil {
		logger.Warn().Err(err).Msg("Failed to parse form")
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	values := r.schema.decode(req.PostForm)

	recorder := &notify.Recorder{}
	form := newForm(r.schema, r.client, recorder, *logger)

	// The remote call runs to completion even if the browser goes away
	errs := form.Submit(context.WithoutCancel(req.Context()), values)

	htmx := isHTMX(req)

	if !errs.Valid() {
		if htmx {
			w.Header().Set("HX-Retarget", "#"+r.schema.name+"-form")
			w.Header().Set("HX-Reswap", "outerHTML")
			r.render(w, req, http.StatusUnprocessableEntity, "form", r.view(values, errs))
			return
		}
		r.render(w, req, http.StatusUnprocessableEntity, "page", r.view(values, errs))
		return
	}

	n, ok := recorder.Last()
	if !ok {
		logger.Error().Msg("Submission produced no notification")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if !htmx {
		view := r.view(values, nil)
		view.Toast = newToastView(n)
		r.render(w, req, http.StatusOK, "page", view)
		return
	}

	trigger, err := notify.HXTrigger(n)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to encode notification")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("HX-Trigger", trigger)
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
}

// HandleValidateField validates the field that fired the blur/change event and returns its
// error slot, empty when the field is valid
func (r *Router[T]) HandleValidateField(w http.ResponseWriter, req *http.Request) {
	logger := hlog.FromRequest(req)

	if err := req.ParseForm(); err != nil {
		logger.Warn().Err(err).Msg("Failed to parse form")
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	name := req.Header.Get("HX-Trigger-Name")
	if name == "" {
		name = req.URL.Query().Get("field")
	}
	if !r.hasField(name) {
		logger.Warn().Str("field", name).Msg("Unknown field")
		http.Error(w, "Unknown field", http.StatusBadRequest)
		return
	}

	msg := r.schema.validate(r.schema.decode(req.PostForm))[name]

	r.render(w, req, http.StatusOK, "field_error", fieldView{
		Form:  r.schema.name,
		Name:  name,
		Error: msg,
	})
}

func (r *Router[T]) hasField(name string) bool {
	for _, f := range r.schema.fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

func (r *Router[T]) view(values T, errs FieldErrors) formView {
	raw := fieldValues(values)

	fields := make([]fieldView, 0, len(r.schema.fields))
	for _, f := range r.schema.fields {
		fv := fieldView{
			Form:        r.schema.name,
			Name:        f.Name,
			Type:        f.Type,
			Placeholder: f.Placeholder,
			Icon:        f.Icon,
			Error:       errs[f.Name],
		}
		// passwords are never echoed back
		if f.Type != "password" {
			fv.Value = raw[f.Name]
		}
		fields = append(fields, fv)
	}

	return formView{
		Name:        r.schema.name,
		Action:      "/" + r.schema.name,
		SubmitLabel: r.schema.submitLabel,
		Fields:      fields,
		RememberMe:  r.schema.rememberMe,
		SocialLabel: r.schema.socialLabel,
		Social:      r.schema.social,
	}
}

func (r *Router[T]) render(w http.ResponseWriter, req *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		hlog.FromRequest(req).Error().Err(err).Str("template", name).Msg("Failed to execute template")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func newToastView(n notify.Notification) *toastView {
	return &toastView{
		Status:   string(n.Status),
		Title:    n.Title,
		Position: n.Position,
		Duration: n.Duration.Milliseconds(),
	}
}

func fieldValues[T payload](values T) map[string]string {
	switch v := any(values).(type) {
	case Credentials:
		return map[string]string{"email": v.Email, "password": v.Password}
	case Registration:
		return map[string]string{"username": v.Username, "email": v.Email, "password": v.Password}
	}
	return nil
}

func isHTMX(req *http.Request) bool {
	return req.Header.Get("HX-Request") == "true"
}
