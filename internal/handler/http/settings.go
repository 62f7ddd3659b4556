package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/rule"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/settings"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type SettingsHandler interface {
	// Allowance/deduction masters
	CreateRule(w http.ResponseWriter, r *http.Request)
	GetRule(w http.ResponseWriter, r *http.Request)
	ListRules(w http.ResponseWriter, r *http.Request)
	UpdateRule(w http.ResponseWriter, r *http.Request)

	// Policy
	GetGlobalSettings(w http.ResponseWriter, r *http.Request)
	UpdateGlobalSettings(w http.ResponseWriter, r *http.Request)
	GetDepartmentSettings(w http.ResponseWriter, r *http.Request)
	UpdateDepartmentSettings(w http.ResponseWriter, r *http.Request)
	GetEffectiveSettings(w http.ResponseWriter, r *http.Request)
}

type settingsHandlerImpl struct {
	settingsService settings.SettingsService
}

func NewSettingsHandler(settingsService settings.SettingsService) SettingsHandler {
	return &settingsHandlerImpl{settingsService: settingsService}
}

// ========== RULES ==========

func (h *settingsHandlerImpl) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req rule.SaveDefinitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.settingsService.CreateRule(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Allowance/deduction definition created", result)
}

func (h *settingsHandlerImpl) GetRule(w http.ResponseWriter, r *http.Request) {
	result, err := h.settingsService.GetRule(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *settingsHandlerImpl) ListRules(w http.ResponseWriter, r *http.Request) {
	query := rule.ListDefinitionsQuery{
		ActiveOnly: r.URL.Query().Get("active_only") == "true",
	}
	if category := queryParam(r, "category"); category != nil {
		c := rule.Category(*category)
		query.Category = &c
	}

	result, err := h.settingsService.ListRules(r.Context(), query)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *settingsHandlerImpl) UpdateRule(w http.ResponseWriter, r *http.Request) {
	var req rule.SaveDefinitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.settingsService.UpdateRule(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== SETTINGS ==========

func (h *settingsHandlerImpl) GetGlobalSettings(w http.ResponseWriter, r *http.Request) {
	result, err := h.settingsService.GetGlobalSettings(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *settingsHandlerImpl) UpdateGlobalSettings(w http.ResponseWriter, r *http.Request) {
	var req settings.UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.settingsService.UpsertGlobalSettings(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *settingsHandlerImpl) GetDepartmentSettings(w http.ResponseWriter, r *http.Request) {
	result, err := h.settingsService.GetDepartmentSettings(r.Context(), chi.URLParam(r, "departmentId"), queryParam(r, "division_id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *settingsHandlerImpl) UpdateDepartmentSettings(w http.ResponseWriter, r *http.Request) {
	var req settings.UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.settingsService.UpsertDepartmentSettings(r.Context(), chi.URLParam(r, "departmentId"), queryParam(r, "division_id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *settingsHandlerImpl) GetEffectiveSettings(w http.ResponseWriter, r *http.Request) {
	result, err := h.settingsService.GetEffectiveSettings(r.Context(), chi.URLParam(r, "departmentId"), queryParam(r, "division_id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
