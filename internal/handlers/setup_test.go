package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/diewo77/literie-pos/auth"
	"github.com/diewo77/literie-pos/internal/db"
	"github.com/diewo77/literie-pos/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	d, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Migrate(d); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return d
}

func seedCatalog(t *testing.T, d *gorm.DB) {
	t.Helper()
	products := []models.Product{
		{Code: "MAT-160", Name: "Matelas 160x200", Category: "matelas", PriceTTC: 1200, IsActive: true},
		{Code: "SOM-80", Name: "Sommier 80x200", Category: "sommier", PriceTTC: 288, IsActive: true},
		{Code: "OREILLER", Name: "Oreiller mémoire de forme", Category: "accessoire", PriceTTC: 59.9, IsActive: true},
	}
	if err := d.Create(&products).Error; err != nil {
		t.Fatalf("seed products: %v", err)
	}
}

// do runs h on a request carrying sellerID (0 for anonymous) and the given
// path values, given as name, value pairs.
func do(t *testing.T, h http.HandlerFunc, method, target, body string, sellerID uint, path ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	if sellerID != 0 {
		req = req.WithContext(auth.WithSellerID(req.Context(), sellerID))
	}
	for i := 0; i+1 < len(path); i += 2 {
		req.SetPathValue(path[i], path[i+1])
	}
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, want, w.Body.String())
	}
}

type errorBody struct {
	Error   string         `json:"error"`
	Details map[string]any `json:"details"`
}
