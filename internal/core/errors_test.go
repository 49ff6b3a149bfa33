package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("tick: %w", NewNotificationError("failed to notify", cause))

	if !errors.Is(err, cause) {
		t.Error("Expected cause to be reachable through the chain")
	}
	if !HasCode(err, ErrCodeNotification) {
		t.Error("Expected NOTIFICATION_ERROR code through wrapping")
	}
	if IsNotFound(err) {
		t.Error("Did not expect NOT_FOUND")
	}
}

func TestHandleErrorStatusCodes(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NewValidationError("bad", nil), http.StatusBadRequest},
		{NewNotFoundError("missing", nil), http.StatusNotFound},
		{NewConflictError("busy", nil), http.StatusConflict},
		{NewDatabaseError("db", nil), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		HandleError(rec, tt.err)

		if rec.Code != tt.want {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.want, rec.Code)
		}

		var body map[string]interface{}
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if body["success"] != false {
			t.Errorf("Expected success=false, got %v", body["success"])
		}
	}
}
