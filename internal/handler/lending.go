package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/kliksalary/lending-engine/internal/domain"
	"github.com/kliksalary/lending-engine/internal/service"
	customError "github.com/kliksalary/lending-engine/pkg/errors"
	"github.com/kliksalary/lending-engine/pkg/response"
)

type LendingHandler struct {
	service   *service.UnderwritingService
	validator *validator.Validate
}

func NewLendingHandler(service *service.UnderwritingService) *LendingHandler {
	return &LendingHandler{
		service:   service,
		validator: validator.New(),
	}
}

// ApplyLoan handles POST /api/v1/loans
func (h *LendingHandler) ApplyLoan(w http.ResponseWriter, r *http.Request) {
	var request domain.LoanApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	// Evaluate precondition: non-positive amounts never reach the evaluator.
	if !request.Amount.IsPositive() {
		response.BadRequest(w, "amount must be greater than zero", customError.ErrInvalidAmount)
		return
	}

	result, err := h.service.ApplyForLoan(r.Context(), &request)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if !result.Decision.Allowed {
		response.Conflict(w, result.Decision.Message, result)
		return
	}

	response.Created(w, result)
}

// ApplyAdvance handles POST /api/v1/advances
func (h *LendingHandler) ApplyAdvance(w http.ResponseWriter, r *http.Request) {
	var request domain.AdvanceApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	if !request.Amount.IsPositive() {
		response.BadRequest(w, "amount must be greater than zero", customError.ErrInvalidAmount)
		return
	}

	result, err := h.service.ApplyForAdvance(r.Context(), &request)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if !result.Decision.Allowed {
		response.Conflict(w, result.Decision.Message, result)
		return
	}

	response.Created(w, result)
}

// GetLoan handles GET /api/v1/loans/{loanId}
func (h *LendingHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuid.Parse(mux.Vars(r)["loanId"])
	if err != nil {
		response.BadRequest(w, "invalid loan id", err)
		return
	}

	detail, err := h.service.GetLoanWithSchedule(r.Context(), loanID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, detail)
}

// ApproveLoan handles POST /api/v1/loans/{loanId}/approve
func (h *LendingHandler) ApproveLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuid.Parse(mux.Vars(r)["loanId"])
	if err != nil {
		response.BadRequest(w, "invalid loan id", err)
		return
	}

	principal, ok := principalFromRequest(r)
	if !ok {
		response.BadRequest(w, "missing or invalid identity headers", nil)
		return
	}

	loan, err := h.service.ApproveLoan(r.Context(), principal, loanID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, loan)
}

// GetAdvance handles GET /api/v1/advances/{advanceId}
func (h *LendingHandler) GetAdvance(w http.ResponseWriter, r *http.Request) {
	advanceID, err := uuid.Parse(mux.Vars(r)["advanceId"])
	if err != nil {
		response.BadRequest(w, "invalid advance id", err)
		return
	}

	advance, err := h.service.GetAdvance(r.Context(), advanceID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, advance)
}

// GetLimit handles GET /api/v1/employees/{employeeId}/limit
func (h *LendingHandler) GetLimit(w http.ResponseWriter, r *http.Request) {
	employeeID, err := strconv.ParseInt(mux.Vars(r)["employeeId"], 10, 64)
	if err != nil || employeeID <= 0 {
		response.BadRequest(w, "invalid employee id", err)
		return
	}

	decision, err := h.service.LimitBreakdown(r.Context(), employeeID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, decision)
}

func (h *LendingHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case customError.IsNotFound(err):
		response.NotFound(w, err.Error())
	case customError.IsValidation(err):
		response.BadRequest(w, "invalid request", err)
	case customError.IsForbidden(err):
		response.Forbidden(w, err.Error())
	case customError.IsConflict(err):
		response.Error(w, http.StatusConflict, err.Error(), nil)
	default:
		response.InternalServerError(w, "internal error", err)
	}
}

// principalFromRequest builds the caller's Principal from gateway-asserted
// identity headers. Authentication itself happens upstream.
func principalFromRequest(r *http.Request) (domain.Principal, bool) {
	userID, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
	if err != nil || userID <= 0 {
		return domain.Principal{}, false
	}

	role, ok := domain.ParseRole(r.Header.Get("X-User-Role"))
	if !ok {
		return domain.Principal{}, false
	}

	// Optional: service accounts have no employee record.
	employeeID, _ := strconv.ParseInt(r.Header.Get("X-Employee-ID"), 10, 64)

	return domain.Principal{
		UserID:     userID,
		Role:       role,
		EmployeeID: employeeID,
	}, true
}
