package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/batch"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type BatchHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Validate(w http.ResponseWriter, r *http.Request)
	ChangeStatus(w http.ResponseWriter, r *http.Request)

	// Recalculation
	RequestPermission(w http.ResponseWriter, r *http.Request)
	GrantPermission(w http.ResponseWriter, r *http.Request)
	RevokePermission(w http.ResponseWriter, r *http.Request)
	Recalculate(w http.ResponseWriter, r *http.Request)
	Rollback(w http.ResponseWriter, r *http.Request)
}

type batchHandlerImpl struct {
	batchService batch.BatchService
}

func NewBatchHandler(batchService batch.BatchService) BatchHandler {
	return &batchHandlerImpl{batchService: batchService}
}

func (h *batchHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req batch.CreateBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.batchService.CreateBatch(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Payroll batch created", result)
}

func (h *batchHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.batchService.GetBatch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *batchHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := batch.Filter{
		Month:        queryParam(r, "month"),
		DepartmentID: queryParam(r, "department_id"),
	}
	if status := queryParam(r, "status"); status != nil {
		st := batch.Status(*status)
		filter.Status = &st
	}
	if payBase := queryParam(r, "pay_base"); payBase != nil {
		pb := payroll.PayBase(*payBase)
		filter.PayBase = &pb
	}

	result, err := h.batchService.ListBatches(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result, &response.Meta{TotalItems: int64(len(result))})
}

func (h *batchHandlerImpl) Validate(w http.ResponseWriter, r *http.Request) {
	result, err := h.batchService.ValidateBatch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *batchHandlerImpl) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req batch.ChangeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	result, err := h.batchService.ChangeStatus(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll batch status updated", result)
}

// ========== RECALCULATION ==========

func (h *batchHandlerImpl) RequestPermission(w http.ResponseWriter, r *http.Request) {
	var req batch.PermissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	result, err := h.batchService.RequestRecalculationPermission(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Recalculation permission requested", result)
}

func (h *batchHandlerImpl) GrantPermission(w http.ResponseWriter, r *http.Request) {
	var req batch.PermissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	result, err := h.batchService.GrantRecalculationPermission(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Recalculation permission granted", result)
}

func (h *batchHandlerImpl) RevokePermission(w http.ResponseWriter, r *http.Request) {
	result, err := h.batchService.RevokeRecalculationPermission(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Recalculation permission revoked", result)
}

func (h *batchHandlerImpl) Recalculate(w http.ResponseWriter, r *http.Request) {
	var req batch.RecalculateRequest
	// the body is optional
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "Invalid request body", nil)
			return
		}
	}
	req.ID = chi.URLParam(r, "id")

	result, err := h.batchService.RecalculateBatch(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *batchHandlerImpl) Rollback(w http.ResponseWriter, r *http.Request) {
	var req batch.RollbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	result, err := h.batchService.RollbackBatch(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll batch rolled back", result)
}
