package hr

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stitchline/stitchline-erp/internal/platform/httpx"
)

// Handler exposes HR endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	feed      http.Handler
}

// NewHandler constructs a Handler. feed serves the mapping change websocket and may be nil.
func NewHandler(logger *slog.Logger, service *Service, feed http.Handler) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: httpx.NewValidator(), feed: feed}
}

// MountFeed registers the websocket change feed. It authenticates by query token, so it is
// mounted outside the bearer guard.
func (h *Handler) MountFeed(r chi.Router) {
	if h.feed != nil {
		r.Get("/mappings/ws", h.feed.ServeHTTP)
	}
}

// MountRoutes registers HR routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/employees", h.listEmployees)
	r.Post("/employees", h.createEmployee)
	r.Get("/employees/{id}", h.getEmployee)
	r.Put("/employees/{id}", h.updateEmployee)
	r.Put("/employees/{id}/status", h.setStatus)
	r.Delete("/employees/{id}", h.deactivateEmployee)

	r.Get("/departments", h.listDepartments)
	r.Post("/departments", h.createDepartment)
	r.Get("/departments/{id}/designations", h.departmentDesignations)
	r.Get("/designations", h.listDesignations)
	r.Post("/designations", h.createDesignation)

	r.Get("/mappings", h.listMappings)
	r.Post("/mappings", h.addMapping)
	r.Delete("/mappings/{departmentId}/{designationId}", h.removeMapping)
}

func (h *Handler) listEmployees(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.ListEmployees(r.Context(), EmployeeFilter{
		Page:   httpx.QueryInt(r, "page", 1),
		Limit:  httpx.QueryInt(r, "limit", 20),
		Search: r.URL.Query().Get("search"),
		Status: r.URL.Query().Get("status"),
	})
	if err != nil {
		h.fail(w, "list employees", err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) getEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	e, err := h.service.GetEmployee(r.Context(), id)
	if err != nil {
		h.fail(w, "get employee", err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) createEmployee(w http.ResponseWriter, r *http.Request) {
	var in EmployeeInput
	if !h.decode(w, r, &in) {
		return
	}
	e, err := h.service.CreateEmployee(r.Context(), in)
	if err != nil {
		h.fail(w, "create employee", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, e)
}

func (h *Handler) updateEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in EmployeeInput
	if !h.decode(w, r, &in) {
		return
	}
	e, err := h.service.UpdateEmployee(r.Context(), id, in)
	if err != nil {
		h.fail(w, "update employee", err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in StatusInput
	if !h.decode(w, r, &in) {
		return
	}
	if err := h.service.SetStatus(r.Context(), id, in.Status); err != nil {
		h.fail(w, "set employee status", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deactivateEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.SetStatus(r.Context(), id, StatusInactive); err != nil {
		h.fail(w, "deactivate employee", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listDepartments(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListDepartments(r.Context())
	if err != nil {
		h.fail(w, "list departments", err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) createDepartment(w http.ResponseWriter, r *http.Request) {
	var in NameInput
	if !h.decode(w, r, &in) {
		return
	}
	d, err := h.service.CreateDepartment(r.Context(), in.Name)
	if err != nil {
		h.fail(w, "create department", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, d)
}

func (h *Handler) departmentDesignations(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, err := h.service.DesignationsForDepartment(r.Context(), id)
	if err != nil {
		h.fail(w, "department designations", err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) listDesignations(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListDesignations(r.Context())
	if err != nil {
		h.fail(w, "list designations", err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) createDesignation(w http.ResponseWriter, r *http.Request) {
	var in NameInput
	if !h.decode(w, r, &in) {
		return
	}
	d, err := h.service.CreateDesignation(r.Context(), in.Name)
	if err != nil {
		h.fail(w, "create designation", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, d)
}

func (h *Handler) listMappings(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListMappings(r.Context())
	if err != nil {
		h.fail(w, "list mappings", err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) addMapping(w http.ResponseWriter, r *http.Request) {
	var in Mapping
	if !h.decode(w, r, &in) {
		return
	}
	created, err := h.service.AddMapping(r.Context(), in)
	if err != nil {
		h.fail(w, "add mapping", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httpx.JSON(w, status, in)
}

func (h *Handler) removeMapping(w http.ResponseWriter, r *http.Request) {
	deptID, err := httpx.IDParam(r, "departmentId")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	desigID, err := httpx.IDParam(r, "designationId")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.RemoveMapping(r.Context(), Mapping{DepartmentID: deptID, DesignationID: desigID}); err != nil {
		h.fail(w, "remove mapping", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		httpx.RespondError(w, err)
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		httpx.RespondError(w, err)
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Warn(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
