package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

// maxErrorMessageLength caps messages echoed back to clients
const maxErrorMessageLength = 200

// respondJSON sends data as the JSON response body
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// sanitizeErrorMessage truncates messages that could leak internal detail
func sanitizeErrorMessage(message string) string {
	if len(message) > maxErrorMessageLength {
		return message[:maxErrorMessageLength] + "..."
	}
	return message
}

// respondJSONError sends an error JSON response with sanitized error messages,
// stamped with now
func respondJSONError(w http.ResponseWriter, now time.Time, status int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   false,
		"error":     errorType,
		"message":   sanitizeErrorMessage(message),
		"timestamp": now.UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func respondBadRequest(w http.ResponseWriter, now time.Time, message string) {
	respondJSONError(w, now, http.StatusBadRequest, "Bad Request", message)
}

func respondNotFound(w http.ResponseWriter, now time.Time, message string) {
	respondJSONError(w, now, http.StatusNotFound, "Not Found", message)
}

func respondInternalError(w http.ResponseWriter, now time.Time, message string) {
	respondJSONError(w, now, http.StatusInternalServerError, "Internal Server Error", message)
}
