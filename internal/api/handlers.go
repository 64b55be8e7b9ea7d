/**
 * @description
 * This file contains the HTTP handlers for the ledger-service's API endpoints.
 * Handlers are responsible for parsing incoming requests, calling the appropriate
 * methods on the application service, and writing the HTTP response. They act as the
 * bridge between the web layer and the business logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atlascoins/ledger-service/internal/app"
	"github.com/atlascoins/ledger-service/internal/domain"
	"github.com/atlascoins/ledger-service/internal/store"
)

// LedgerHandlers holds the application service that handlers will use.
type LedgerHandlers struct {
	service *app.Service
}

// NewLedgerHandlers creates a new instance of LedgerHandlers.
func NewLedgerHandlers(service *app.Service) *LedgerHandlers {
	return &LedgerHandlers{service: service}
}

// transferRequest is the payload for initiating a transfer. The amount arrives
// as the raw user-entered string; the service owns its interpretation.
type transferRequest struct {
	RecipientID string `json:"recipient_id"`
	Amount      string `json:"amount"`
}

// LoginHandler resolves the verified identity to an account, creating a
// provisional one with the starting grant on first sign-in.
func (h *LedgerHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := GetIdentity(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get identity from context")
		return
	}

	account, err := h.service.Login(r.Context(), identity)
	if err != nil {
		log.Printf("level=error component=api endpoint=login outcome=failed email=%s err=%v", identity.Email, err)
		h.writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	log.Printf("level=info component=api endpoint=login outcome=ok account_id=%s registered=%t", account.ID, account.Registered)
	h.writeJSON(w, http.StatusOK, account)
}

// SessionHandler resolves the remembered session pointer to its account.
func (h *LedgerHandlers) SessionHandler(w http.ResponseWriter, r *http.Request) {
	account, err := h.service.CurrentSession(r.Context())
	if err != nil {
		if errors.Is(err, store.ErrNoSession) {
			h.writeError(w, http.StatusNotFound, "No active session")
			return
		}
		log.Printf("level=error component=api endpoint=session outcome=failed err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.writeJSON(w, http.StatusOK, account)
}

// LogoutHandler clears the session pointer. The account and its history
// survive for the next sign-in.
func (h *LedgerHandlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context()); err != nil {
		log.Printf("level=error component=api endpoint=logout outcome=failed err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Logout failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CompleteProfileHandler finalizes profile setup for the caller's account.
func (h *LedgerHandlers) CompleteProfileHandler(w http.ResponseWriter, r *http.Request) {
	account, ok := h.callerAccount(w, r)
	if !ok {
		return
	}

	var input app.ProfileInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	updated, err := h.service.CompleteProfile(r.Context(), account.ID, input)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidProfile):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrAlreadyRegistered):
			h.writeError(w, http.StatusConflict, "Profile is already completed")
		case errors.Is(err, store.ErrAccountNotFound):
			h.writeError(w, http.StatusNotFound, "Account not found")
		default:
			log.Printf("level=error component=api endpoint=profile outcome=failed account_id=%s err=%v", account.ID, err)
			h.writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	h.writeJSON(w, http.StatusOK, updated)
}

// LookupAccountHandler returns the counterparty-visible profile for an account
// number. It backs the send flow's recipient search and never exposes the
// counterparty's balance or email.
func (h *LedgerHandlers) LookupAccountHandler(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	profile, err := h.service.LookupCounterparty(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			h.writeError(w, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("level=error component=api endpoint=account_lookup outcome=failed account_id=%s err=%v", accountID, err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.writeJSON(w, http.StatusOK, profile)
}

// TransferHandler executes a balance transfer from the caller's account.
func (h *LedgerHandlers) TransferHandler(w http.ResponseWriter, r *http.Request) {
	account, ok := h.callerAccount(w, r)
	if !ok {
		return
	}

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	result, err := h.service.ExecuteTransfer(r.Context(), account.ID, req.RecipientID, req.Amount)
	if err != nil {
		log.Printf("level=warn component=api endpoint=transfer outcome=failed from=%s to=%s err=%v", account.ID, req.RecipientID, err)
		switch {
		case errors.Is(err, app.ErrInvalidAmount):
			h.writeError(w, http.StatusBadRequest, "Invalid amount")
		case errors.Is(err, app.ErrSelfTransfer):
			h.writeError(w, http.StatusBadRequest, "Cannot send to yourself")
		case errors.Is(err, app.ErrRecipientNotFound):
			h.writeError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, store.ErrInsufficientBalance):
			h.writeError(w, http.StatusPaymentRequired, "Insufficient balance")
		case errors.Is(err, app.ErrTransferRateLimited):
			h.writeError(w, http.StatusTooManyRequests, "Too many transfers, please wait")
		default:
			h.writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	log.Printf("level=info component=api endpoint=transfer outcome=ok record_id=%s from=%s to=%s amount=%d",
		result.Record.ID, result.Record.FromID, result.Record.ToID, result.Record.Amount)
	h.writeJSON(w, http.StatusCreated, result)
}

// HistoryHandler lists the caller's transfer history, most recent first, with
// each record rendered from the caller's point of view.
func (h *LedgerHandlers) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	account, ok := h.callerAccount(w, r)
	if !ok {
		return
	}

	views, err := h.service.History(r.Context(), account.ID)
	if err != nil {
		log.Printf("level=error component=api endpoint=history outcome=failed account_id=%s err=%v", account.ID, err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.writeJSON(w, http.StatusOK, views)
}

// callerAccount resolves the verified identity on the request to its account.
// A missing account means the identity has not completed login yet.
func (h *LedgerHandlers) callerAccount(w http.ResponseWriter, r *http.Request) (*domain.Account, bool) {
	identity, found := GetIdentity(r.Context())
	if !found {
		h.writeError(w, http.StatusInternalServerError, "Could not get identity from context")
		return nil, false
	}
	account, err := h.service.AccountForIdentity(r.Context(), identity)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			h.writeError(w, http.StatusForbidden, "No account for this identity; sign in first")
			return nil, false
		}
		log.Printf("level=error component=api msg=\"caller account resolution failed\" email=%s err=%v", identity.Email, err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}
	return account, true
}

// writeJSON is a helper for writing JSON responses.
func (h *LedgerHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("level=error component=api msg=\"response encode failed\" err=%v", err)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *LedgerHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
