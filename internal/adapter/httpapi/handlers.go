package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/oceanwatch/hazard-report-service/internal/domain"
	"github.com/oceanwatch/hazard-report-service/internal/service"
)

// API holds the handlers for the report endpoints.
type API struct {
	svc    *service.Service
	secret string
	logger *slog.Logger
}

// NewAPI creates the API with its JWT verification secret.
func NewAPI(svc *service.Service, secret string, logger *slog.Logger) *API {
	return &API{svc: svc, secret: secret, logger: logger}
}

// Routes builds the /api route tree.
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()

	r.Route("/reports", func(r chi.Router) {
		r.Get("/", a.handleList)
		r.Get("/{id}", a.handleGet)
		r.Post("/check", a.handleCheckDuplicate)

		r.Group(func(pr chi.Router) {
			pr.Use(a.requireAuth)
			pr.Post("/", a.handleSubmit)
		})

		r.Group(func(ar chi.Router) {
			ar.Use(a.requireAuth, a.requireAdmin)
			ar.Patch("/{id}/status", a.handleUpdateStatus)
			ar.Post("/{id}/comments", a.handleSetComments)
			ar.Post("/{id}/alert", a.handleIssueAlert)
		})
	})

	r.Group(func(ar chi.Router) {
		ar.Use(a.requireAuth, a.requireAdmin)
		ar.Get("/admin/stats", a.handleStats)
	})

	r.Get("/users/{id}/profile", a.handleProfile)
	r.Get("/leaderboard", a.handleLeaderboard)

	return r
}

type coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type submitReq struct {
	HazardType  string       `json:"hazardType"`
	Location    string       `json:"location"`
	Description string       `json:"description"`
	Severity    string       `json:"severity,omitempty"`
	Coordinates *coordinates `json:"coordinates,omitempty"`
	Photos      []string     `json:"photos,omitempty"`
}

func (a *API) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	p, _ := principalFrom(r)

	sub := domain.Submission{
		HazardType:  domain.HazardType(req.HazardType),
		Location:    req.Location,
		Description: req.Description,
		Severity:    domain.Severity(req.Severity),
		ReportedBy:  p.UserID,
		Photos:      req.Photos,
	}
	if req.Coordinates != nil {
		sub.Geo = &domain.Geo{Lat: req.Coordinates.Lat, Lon: req.Coordinates.Lon}
	}

	res, err := a.svc.Submit(r.Context(), sub)
	if err != nil {
		a.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

type checkReq struct {
	HazardType  string      `json:"hazardType"`
	Coordinates coordinates `json:"coordinates"`
}

func (a *API) handleCheckDuplicate(w http.ResponseWriter, r *http.Request) {
	var req checkReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	check, err := a.svc.CheckDuplicate(r.Context(),
		domain.HazardType(req.HazardType),
		domain.Geo{Lat: req.Coordinates.Lat, Lon: req.Coordinates.Lon},
	)
	if err != nil {
		a.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, check)
}

func (a *API) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	reports, err := a.svc.List(r.Context(), service.Filter{
		HazardType: q.Get("type"),
		Status:     q.Get("status"),
		Severity:   q.Get("severity"),
	})
	if err != nil {
		a.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (a *API) handleGet(w http.ResponseWriter, r *http.Request) {
	report, err := a.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type statusReq struct {
	Status     string  `json:"status"`
	Comments   *string `json:"comments,omitempty"`
	VerifiedBy string  `json:"verifiedBy,omitempty"`
}

func (a *API) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	verifiedBy := req.VerifiedBy
	if verifiedBy == "" {
		if p, ok := principalFrom(r); ok {
			verifiedBy = p.Name
		}
	}

	report, err := a.svc.UpdateStatus(r.Context(), chi.URLParam(r, "id"),
		domain.Status(req.Status), req.Comments, verifiedBy)
	if err != nil {
		a.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type commentReq struct {
	Comments string `json:"comments"`
}

func (a *API) handleSetComments(w http.ResponseWriter, r *http.Request) {
	var req commentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	report, err := a.svc.SetComments(r.Context(), chi.URLParam(r, "id"), req.Comments)
	if err != nil {
		a.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleIssueAlert(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r)
	rec, err := a.svc.IssueAlert(r.Context(), chi.URLParam(r, "id"), p.Name)
	if err != nil {
		a.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.svc.Stats(r.Context())
	if err != nil {
		a.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	view, err := a.svc.Profile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	n, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	top, err := a.svc.Leaderboard(r.Context(), n)
	if err != nil {
		a.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, top)
}

// respondError translates domain errors into HTTP statuses. The error text is
// surfaced as-is: citizens and admins see the reason, not a code.
func (a *API) respondError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrTransitionNotAllowed),
		errors.Is(err, domain.ErrIneligible):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrDuplicateConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		a.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
