// Package tools implements the intent-dispatched lookup tools. Every
// tool returns user-facing Indonesian text; lookup failures become
// apology messages rather than errors, so a tool invocation never
// aborts a turn.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/adrianfhr/customer-support-chatbot/internal/intent"
	"github.com/adrianfhr/customer-support-chatbot/internal/store"
)

// Tool names as reported in response metadata.
const (
	ToolOrderStatus    = "get_order_status"
	ToolProductInfo    = "get_product_info"
	ToolWarrantyPolicy = "get_warranty_policy"
)

// Result is the outcome of a tool invocation.
type Result struct {
	Tool   string
	Output string
}

// Lookup is the slice of the store the tools read from.
type Lookup interface {
	GetOrder(ctx context.Context, id string) (*store.Order, error)
	SearchProducts(ctx context.Context, query string) ([]store.Product, error)
	GetPolicy(ctx context.Context, policyType string) (*store.Policy, error)
}

// Dispatcher classifies an utterance and runs at most one tool.
type Dispatcher struct {
	lookup Lookup
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher over the given lookup source.
func NewDispatcher(lookup Lookup, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{lookup: lookup, logger: logger}
}

// Dispatch classifies the utterance and invokes the matching tool.
// Returns nil when no tool applies; the caller then takes the
// generative path. An order intent without an extractable order id
// also returns nil.
func (d *Dispatcher) Dispatch(ctx context.Context, utterance string) *Result {
	switch intent.Classify(utterance) {
	case intent.OrderStatus:
		orderID := intent.ExtractOrderID(utterance)
		if orderID == "" {
			d.logger.Debug("order intent without order id, skipping tool")
			return nil
		}
		return &Result{Tool: ToolOrderStatus, Output: d.OrderStatus(ctx, orderID)}

	case intent.ProductInfo:
		name := intent.ExtractProductName(utterance)
		return &Result{Tool: ToolProductInfo, Output: d.ProductInfo(ctx, name)}

	case intent.WarrantyPolicy:
		return &Result{Tool: ToolWarrantyPolicy, Output: d.WarrantyPolicy(ctx)}
	}
	return nil
}

// Human-readable order status phrases. Unknown statuses pass through
// verbatim.
var statusPhrases = map[string]string{
	"pending":   "sedang diproses",
	"confirmed": "telah dikonfirmasi",
	"shipped":   "sedang dalam pengiriman",
	"delivered": "telah sampai tujuan",
	"cancelled": "telah dibatalkan",
}

// OrderStatus looks up an order and composes its status message.
func (d *Dispatcher) OrderStatus(ctx context.Context, orderID string) string {
	d.logger.Info("looking up order status", "order_id", orderID)

	order, err := d.lookup.GetOrder(ctx, orderID)
	if err != nil {
		d.logger.Error("order lookup failed", "order_id", orderID, "error", err)
		return fmt.Sprintf("Maaf, terjadi kesalahan saat mencari pesanan %s. Silakan coba lagi atau hubungi customer service.", orderID)
	}
	if order == nil {
		return fmt.Sprintf("Pesanan dengan ID %s tidak ditemukan. Pastikan ID pesanan benar atau hubungi customer service.", orderID)
	}

	statusText, ok := statusPhrases[order.Status]
	if !ok {
		statusText = order.Status
	}

	parts := []string{fmt.Sprintf("Pesanan %s %s", orderID, statusText)}

	if order.Carrier != "" && order.TrackingNumber != "" {
		parts = append(parts, fmt.Sprintf("via %s dengan nomor resi %s", order.Carrier, order.TrackingNumber))
	}
	if order.ETADate != nil && (order.Status == "confirmed" || order.Status == "shipped") {
		parts = append(parts, fmt.Sprintf("dengan estimasi tiba %s", order.ETADate.Format("02 January 2006")))
	}
	if !order.LastUpdateAt.IsZero() {
		parts = append(parts, fmt.Sprintf("Terakhir diupdate: %s", order.LastUpdateAt.Format("02 January 2006 pukul 15:04")))
	}

	d.logger.Info("order status retrieved", "order_id", orderID, "status", order.Status)
	return strings.Join(parts, ". ") + "."
}

// ProductInfo searches products by name and describes the first match.
func (d *Dispatcher) ProductInfo(ctx context.Context, productName string) string {
	d.logger.Info("looking up product info", "product_name", productName)

	products, err := d.lookup.SearchProducts(ctx, productName)
	if err != nil {
		d.logger.Error("product lookup failed", "product_name", productName, "error", err)
		return fmt.Sprintf("Maaf, terjadi kesalahan saat mencari produk '%s'. Silakan coba lagi.", productName)
	}
	if len(products) == 0 {
		return fmt.Sprintf("Produk '%s' tidak ditemukan. Silakan periksa nama produk atau lihat katalog lengkap di website kami.", productName)
	}

	product := products[0]
	parts := []string{fmt.Sprintf("Produk: %s", product.Name)}

	if product.Features != "" {
		parts = append(parts, fmt.Sprintf("Fitur: %s", product.Features))
	}
	if product.Price != nil && *product.Price > 0 {
		parts = append(parts, fmt.Sprintf("Harga: %s", FormatRupiah(*product.Price)))
	}
	if product.Stock != nil {
		if *product.Stock > 0 {
			parts = append(parts, fmt.Sprintf("Stok: %d unit tersedia", *product.Stock))
		} else {
			parts = append(parts, "Stok: sedang kosong")
		}
	}

	d.logger.Info("product info retrieved", "product_name", productName, "product_id", product.ID)
	return strings.Join(parts, ". ") + "."
}

// defaultWarrantyPolicy is returned when no warranty policy row exists.
const defaultWarrantyPolicy = `Prosedur klaim garansi:
1. Siapkan nota pembelian asli dan kartu garansi
2. Hubungi customer service di 0800-1234-5678 (gratis) atau email cs@toko.com
3. Jelaskan masalah produk dengan detail
4. Tim CS akan memberikan instruksi selanjutnya (perbaikan atau penggantian)
5. Garansi berlaku 1 tahun dari tanggal pembelian untuk kerusakan manufaktur

Catatan: Garansi tidak berlaku untuk kerusakan akibat kesalahan penggunaan atau faktor eksternal.`

// WarrantyPolicy returns the stored warranty policy markdown, or the
// built-in default when none is stored.
func (d *Dispatcher) WarrantyPolicy(ctx context.Context) string {
	d.logger.Info("looking up warranty policy")

	policy, err := d.lookup.GetPolicy(ctx, "warranty")
	if err != nil {
		d.logger.Error("warranty lookup failed", "error", err)
		return "Maaf, terjadi kesalahan saat mengambil informasi garansi. Silakan hubungi customer service di 0800-1234-5678."
	}
	if policy == nil {
		return defaultWarrantyPolicy
	}
	return policy.ContentMarkdown
}

// FormatRupiah renders a whole-rupiah amount with dot thousands
// separators, e.g. 18500000 becomes "Rp 18.500.000".
func FormatRupiah(amount int64) string {
	digits := strconv.FormatInt(amount, 10)

	negative := false
	if strings.HasPrefix(digits, "-") {
		negative = true
		digits = digits[1:]
	}

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	grouped := b.String()
	if negative {
		grouped = "-" + grouped
	}
	return "Rp " + grouped
}
