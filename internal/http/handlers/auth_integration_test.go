package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/joho/godotenv"

	"github.com/hongminglow/carecrate/internal/auth"
	"github.com/hongminglow/carecrate/internal/middleware"
	"github.com/hongminglow/carecrate/internal/models"
	"github.com/hongminglow/carecrate/internal/pantry"
	"github.com/hongminglow/carecrate/internal/storage/postgres"
)

// TestPostgresIntegration exercises register, login and a visit write against a live database.
func TestPostgresIntegration(t *testing.T) {
	if os.Getenv("RUN_PG_INTEGRATION") != "true" {
		t.Skip("set RUN_PG_INTEGRATION=true to run this integration test")
	}

	loadDotEnv()
	dbURL := mustGetEnv(t, "DATABASE_URL")

	ctx := context.Background()
	store, err := postgres.NewStore(ctx, dbURL)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	defer store.Close()

	tokens := auth.NewTokenManager(mustGetEnv(t, "JWT_SECRET"), "carecrate-integration", time.Hour)
	mw := middleware.NewAuth(tokens)
	svc := pantry.NewService(store)

	mux := http.NewServeMux()
	NewAuthHandler(store, tokens).Register(mux, mw)
	NewFamilyHandler(svc).Register(mux, mw)
	NewVisitHandler(svc, time.UTC).Register(mux, mw)

	ts := httptest.NewServer(mux)
	defer ts.Close()

	suffix := time.Now().UnixNano()
	username := fmt.Sprintf("apitest_%d", suffix)
	password := fmt.Sprintf("Pass!%d", suffix)

	user := requestRegister(t, ts.URL, map[string]string{
		"username":    username,
		"email":       username + "@example.com",
		"displayName": "API Test",
		"password":    password,
	})
	if user.Username != username || user.Role != models.VolunteerRole {
		t.Fatalf("register mismatch: got %+v", user)
	}

	loggedIn := requestLogin(t, ts.URL, username, password)
	if loggedIn.User.ID != user.ID {
		t.Fatalf("login returned wrong user id: want %d got %d", user.ID, loggedIn.User.ID)
	}
	if strings.TrimSpace(loggedIn.Token) == "" {
		t.Fatal("login response missing token")
	}

	phone := fmt.Sprintf("1555%07d", suffix%10_000_000)
	family := map[string]string{"phoneNumber": phone, "firstName": "Integration", "lastName": "Family"}
	postJSON(t, ts.URL+"/families", loggedIn.Token, family, http.StatusOK)
	postJSON(t, ts.URL+"/visits", loggedIn.Token, family, http.StatusCreated)

	families, err := svc.ListFamilies(ctx, phone)
	if err != nil {
		t.Fatalf("list families: %v", err)
	}
	if len(families) != 1 || len(families[0].Visits) != 1 {
		t.Fatalf("expected one family with one visit, got %+v", families)
	}

	t.Logf("created staff %s (id=%d) and recorded a visit for %s", username, user.ID, phone)
}

type loginResponseBody struct {
	Token string           `json:"token"`
	User  models.StaffUser `json:"user"`
}

func postJSON(t *testing.T, url, token string, payload any, wantStatus int) json.RawMessage {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.StatusCode != wantStatus {
		t.Fatalf("POST %s status = %d (%s)", url, resp.StatusCode, env.Message)
	}
	return env.Data
}

func requestRegister(t *testing.T, baseURL string, payload map[string]string) models.StaffUser {
	t.Helper()
	data := postJSON(t, baseURL+"/register", "", payload, http.StatusCreated)
	var out models.StaffUser
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return out
}

func requestLogin(t *testing.T, baseURL, identifier, password string) loginResponseBody {
	t.Helper()
	data := postJSON(t, baseURL+"/login", "", map[string]string{
		"identifier": identifier,
		"password":   password,
	}, http.StatusOK)
	var out loginResponseBody
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return out
}

func mustGetEnv(t *testing.T, key string) string {
	t.Helper()
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		t.Fatalf("%s is required", key)
	}
	return val
}

func loadDotEnv() {
	paths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
		"../../../../.env",
	}
	for _, path := range paths {
		_ = godotenv.Overload(path)
	}
}
