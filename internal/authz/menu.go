package authz

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ovaprima-erp/ovaprima-erp/internal/platform/httpx"
)

// MenuEntry is one navigation target, in display order.
type MenuEntry struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// navigation is the full menu in sidebar order.
var navigation = []MenuEntry{
	{Key: MenuRootKey, Label: "Dasbor"},
	{Key: "/users", Label: "Pengguna"},
	{Key: "/employees", Label: "Karyawan"},
	{Key: "/raw-materials", Label: "Bahan Baku"},
	{Key: "/products", Label: "Produk"},
	{Key: "/suppliers", Label: "Pemasok"},
	{Key: "/customers", Label: "Pelanggan"},
	{Key: "/purchases", Label: "Pembelian"},
	{Key: "/productions", Label: "Produksi"},
	{Key: "/sales", Label: "Penjualan"},
	{Key: "/reports/sales", Label: "Laporan Penjualan"},
	{Key: "/price-tiers", Label: "Harga Bertingkat"},
	{Key: "/finance", Label: "Keuangan"},
	{Key: "/bank-accounts", Label: "Rekening Bank"},
	{Key: "/petty-cash", Label: "Kas Kecil"},
	{Key: "/settings", Label: "Pengaturan"},
	{Key: "/access-control", Label: "Kontrol Akses"},
	{Key: "/reset-data", Label: "Reset Data"},
}

// AccessibleMenu filters the navigation down to the entries the subject may
// open, preserving order.
func AccessibleMenu(s Subject) []MenuEntry {
	entries := make([]MenuEntry, 0, len(navigation))
	for _, entry := range navigation {
		if s.CanAccessMenu(entry.Key) {
			entries = append(entries, entry)
		}
	}
	return entries
}

// MenuHandler serves the filtered navigation for the current subject.
type MenuHandler struct {
	logger *slog.Logger
	mw     Middleware
}

// NewMenuHandler builds a MenuHandler.
func NewMenuHandler(logger *slog.Logger, mw Middleware) *MenuHandler {
	return &MenuHandler{logger: logger, mw: mw}
}

// MountRoutes registers the menu endpoint.
func (h *MenuHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAny())
		r.Get("/", h.listMenu)
	})
}

func (h *MenuHandler) listMenu(w http.ResponseWriter, r *http.Request) {
	subject := SubjectFromContext(r.Context())
	httpx.JSON(w, http.StatusOK, map[string]any{
		"menu": AccessibleMenu(subject),
	})
}
