package unit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	httpapi "github.com/fuelroute/fuel-route-backend/internal/api/http"
	"github.com/fuelroute/fuel-route-backend/internal/routeplanner/repository"
	"github.com/gin-gonic/gin"
)

func TestHealthCheckWithoutCacheConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	handler := httpapi.NewHealthHandler("fuel-route-backend", "1.0.0", repository.NewCacheRepository(nil))
	handler.RegisterRoutes(router)

	req, err := http.NewRequest("GET", "/health/", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusOK)
	}

	var response httpapi.HealthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Errorf("failed to unmarshal response: %v", err)
	}

	if response.Status != "ok" {
		t.Errorf("expected status 'ok', got %s", response.Status)
	}

	if response.Cache != "disabled" {
		t.Errorf("expected cache 'disabled', got %s", response.Cache)
	}

	if response.Service != "fuel-route-backend" {
		t.Errorf("expected service 'fuel-route-backend', got %s", response.Service)
	}
}

func TestHealthCheckMethodNotAllowed(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.HandleMethodNotAllowed = true

	handler := httpapi.NewHealthHandler("fuel-route-backend", "1.0.0", repository.NewCacheRepository(nil))
	handler.RegisterRoutes(router)

	req, err := http.NewRequest("POST", "/health/", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusMethodNotAllowed {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusMethodNotAllowed)
	}
}
