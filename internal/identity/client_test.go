package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCreateOrGetAccountCreatesNewAccount(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/admin/users" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")

		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		if body["email"] != "a@x.com" {
			t.Errorf("expected email a@x.com, got %v", body["email"])
		}
		if body["email_confirm"] != true {
			t.Error("expected email_confirm true")
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"id": "subject-123", "email": "a@x.com"})
	}))
	defer server.Close()

	client := NewClient(context.Background(), server.URL, "service-key")

	subjectID, err := client.CreateOrGetAccount(context.Background(), "a@x.com", "Pw123!pass")
	if err != nil {
		t.Fatalf("CreateOrGetAccount() error = %v", err)
	}
	if subjectID != "subject-123" {
		t.Errorf("expected subject-123, got %s", subjectID)
	}
	if gotAuth != "Bearer service-key" {
		t.Errorf("expected bearer service key, got %q", gotAuth)
	}
}

func TestCreateOrGetAccountReusesExistingAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]string{"msg": "A user with this email address has already been registered"})
		case http.MethodGet:
			if got := r.URL.Query().Get("email"); got != "a@x.com" {
				t.Errorf("expected email filter a@x.com, got %q", got)
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"users": []map[string]string{
					{"id": "other-id", "email": "b@x.com"},
					{"id": "existing-id", "email": "a@x.com"},
				},
			})
		}
	}))
	defer server.Close()

	client := NewClient(context.Background(), server.URL, "service-key")

	subjectID, err := client.CreateOrGetAccount(context.Background(), "a@x.com", "Pw123!pass")
	if err != nil {
		t.Fatalf("CreateOrGetAccount() error = %v", err)
	}
	if subjectID != "existing-id" {
		t.Errorf("expected existing-id, got %s", subjectID)
	}
}

func TestCreateOrGetAccountConflictButMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			w.WriteHeader(http.StatusConflict)
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]interface{}{"users": []map[string]string{}})
		}
	}))
	defer server.Close()

	client := NewClient(context.Background(), server.URL, "service-key")

	_, err := client.CreateOrGetAccount(context.Background(), "a@x.com", "Pw123!pass")
	if err == nil {
		t.Fatal("expected error when account reported existing but not found")
	}
}

func TestCreateOrGetAccountServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(context.Background(), server.URL, "service-key")

	_, err := client.CreateOrGetAccount(context.Background(), "a@x.com", "Pw123!pass")
	if err == nil {
		t.Fatal("expected error on server failure")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("expected status code in error, got %v", err)
	}
}
