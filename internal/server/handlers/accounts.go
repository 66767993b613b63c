package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/custodia-labs/paygate/internal/apperr"
	"github.com/custodia-labs/paygate/internal/provision"
)

type AccountsResponse struct {
	Success  bool                         `json:"success" example:"true"`
	Accounts []provision.CustodialAccount `json:"accounts"`
}

type AccountResponse struct {
	Success bool                       `json:"success" example:"true"`
	Account provision.CustodialAccount `json:"account"`
}

// AccountsRouter serves the accounts group from the provisioning store when no
// accounts service is configured.
func AccountsRouter(store provision.Store, responder *apperr.Responder) http.Handler {
	r := chi.NewRouter()
	r.NotFound(HandleNotFound(responder))
	r.MethodNotAllowed(HandleNotFound(responder))
	r.Get("/", responder.HandleFunc(HandleListAccounts(store)))
	r.Get("/{accountID}", responder.HandleFunc(HandleGetAccount(store)))
	return r
}

// HandleListAccounts godoc
//
//	@Summary	List custodial accounts
//	@Tags		Accounts
//	@Produce	json
//	@Success	200	{object}	AccountsResponse
//	@Failure	500	{object}	apperr.ErrorResponse
//	@Router		/api/accounts [get]
func HandleListAccounts(store provision.Store) apperr.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		accounts, err := store.ListCustodialAccounts(r.Context())
		if err != nil {
			return apperr.WrapInternalError(err, "failed to list custodial accounts")
		}
		if accounts == nil {
			accounts = []provision.CustodialAccount{}
		}

		apperr.RespondWithJSONPayload(w, http.StatusOK, AccountsResponse{
			Success:  true,
			Accounts: accounts,
		})
		return nil
	}
}

// HandleGetAccount godoc
//
//	@Summary	Get a custodial account
//	@Tags		Accounts
//	@Produce	json
//	@Param		accountID	path		string	true	"Account ID"
//	@Success	200			{object}	AccountResponse
//	@Failure	400			{object}	apperr.ErrorResponse
//	@Failure	404			{object}	apperr.ErrorResponse
//	@Router		/api/accounts/{accountID} [get]
func HandleGetAccount(store provision.Store) apperr.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		accountID, err := uuid.Parse(chi.URLParam(r, "accountID"))
		if err != nil {
			return apperr.WrapValidationError(err, "Invalid account ID")
		}

		account, err := store.GetCustodialAccount(r.Context(), accountID)
		if err != nil {
			if errors.Is(err, provision.ErrNotFound) {
				return apperr.NewNotFoundError("Account not found")
			}
			return apperr.WrapInternalError(err, "failed to get custodial account")
		}

		apperr.RespondWithJSONPayload(w, http.StatusOK, AccountResponse{
			Success: true,
			Account: account,
		})
		return nil
	}
}
