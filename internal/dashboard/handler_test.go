package dashboard

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestDashboardRouter(repo Repository) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, NewService(repo, nil))
	r := chi.NewRouter()
	r.Route("/dashboard", handler.MountRoutes)
	return r
}

func TestDashboardRoutes(t *testing.T) {
	repo := &countingRepo{overview: Overview{
		TotalRevenue: 500,
		RecentSales:  []RecentSale{{ID: 1, ProductName: "Crown Cola"}},
		TopProducts:  []TopProduct{{ProductName: "Crown Cola"}},
		LowStock:     []LowStockProduct{{ID: 1, Name: "Regent Dish Soap", Stock: 8}},
	}}
	router := newTestDashboardRouter(repo)

	for _, path := range []string{
		"/dashboard/overview",
		"/dashboard/",
		"/dashboard/recent-sales",
		"/dashboard/top-products",
		"/dashboard/low-stock",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestDashboardOverviewPayload(t *testing.T) {
	repo := &countingRepo{overview: Overview{TotalRevenue: 500, TotalSales: 4}}
	router := newTestDashboardRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/dashboard/overview", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"totalRevenue":500`)
	require.Contains(t, rec.Body.String(), `"totalSales":4`)
}
