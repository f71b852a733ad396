package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"familytree/internal/security"
	"familytree/internal/service"
	"familytree/internal/validation"
)

func respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func respondWithError(w http.ResponseWriter, status int, message string) {
	respondWithJSON(w, status, map[string]string{"error": message})
}

// respondWithServiceError maps workflow errors to HTTP statuses. Internal
// failures are logged and never echoed to the client.
func respondWithServiceError(w http.ResponseWriter, err error) {
	var validationErr validation.ValidationError
	var conflictErr *service.ConflictError
	var notFoundErr *service.NotFoundError
	var stateErr *service.InvalidStateError
	var cryptoErr *security.CryptoError
	var identityErr *service.IdentityProviderError
	var storeErr *service.StoreError

	switch {
	case errors.As(err, &validationErr):
		respondWithError(w, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &conflictErr):
		respondWithJSON(w, http.StatusConflict, map[string]string{
			"error":  conflictErr.Error(),
			"reason": conflictErr.Reason,
		})
	case errors.As(err, &notFoundErr):
		respondWithError(w, http.StatusNotFound, notFoundErr.Error())
	case errors.As(err, &stateErr):
		respondWithError(w, http.StatusConflict, stateErr.Error())
	case errors.As(err, &identityErr):
		log.Printf("Identity provider error: %v", err)
		respondWithError(w, http.StatusBadGateway, "identity provider unavailable")
	case errors.As(err, &cryptoErr), errors.As(err, &storeErr):
		log.Printf("Internal error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	default:
		log.Printf("Unexpected error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
