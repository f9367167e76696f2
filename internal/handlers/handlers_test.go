package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/canopy-dev/canopy/db"
	"github.com/canopy-dev/canopy/internal/auth"
	"github.com/canopy-dev/canopy/internal/config"
	"github.com/canopy-dev/canopy/internal/models"
	"github.com/canopy-dev/canopy/internal/router"
)

// setupServer wires the full router against a fresh in-memory
// database so tests exercise the same path as production requests.
func setupServer(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to access sql.DB: %v", err)
	}
	// A second connection would see a different in-memory database.
	sqlDB.SetMaxOpenConns(1)

	if err := gdb.AutoMigrate(&models.User{}, &models.Project{}, &models.Site{}, &models.SiteAnalytics{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	db.DB = gdb

	if err := auth.Init("test-secret"); err != nil {
		t.Fatalf("failed to init auth: %v", err)
	}

	config.Current = &config.Config{EnableSampleData: false}

	return router.NewRouter()
}

func request(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer

	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, target any) {
	t.Helper()

	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
}

// registerUser creates an account through the API and returns its
// bearer token.
func registerUser(t *testing.T, r *gin.Engine, email, username string) string {
	t.Helper()

	w := request(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":    email,
		"username": username,
		"password": "correct-horse",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d, body %s", email, w.Code, w.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	decode(t, w, &resp)

	if resp.Token == "" {
		t.Fatalf("register %s: empty token", email)
	}

	return resp.Token
}

// createProject creates a project for the token holder and returns
// its ID.
func createProject(t *testing.T, r *gin.Engine, token, name string) uint {
	t.Helper()

	w := request(t, r, http.MethodPost, "/api/projects", token, gin.H{
		"name":        name,
		"description": "test project",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("create project: status %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		ID uint `json:"id"`
	}
	decode(t, w, &resp)

	return resp.ID
}

func unitSquare() json.RawMessage {
	return json.RawMessage(`{"type": "Polygon", "coordinates": [[[0, 0], [1, 0], [1, 1], [0, 1], [0, 0]]]}`)
}

// createSite creates a site with a 1x1 degree square polygon and
// returns its ID.
func createSite(t *testing.T, r *gin.Engine, token string, projectID uint, name string) uint {
	t.Helper()

	w := request(t, r, http.MethodPost, "/api/sites", token, gin.H{
		"project":  projectID,
		"name":     name,
		"geometry": unitSquare(),
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("create site: status %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		ID uint `json:"id"`
	}
	decode(t, w, &resp)

	return resp.ID
}
