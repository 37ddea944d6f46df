// Package intent classifies user utterances into the supported tool
// intents and extracts their arguments.
//
// Classification is keyword-membership testing over case-insensitive
// trigger substrings. Intents are evaluated in a fixed priority order
// and the first match wins, so at most one intent is assigned per
// utterance.
package intent

import (
	"regexp"
	"strings"
)

// Intent is the classified user goal.
type Intent int

const (
	// None means no supported intent matched; the utterance takes the
	// generative path.
	None Intent = iota

	// OrderStatus asks about a specific order by id.
	OrderStatus

	// ProductInfo asks about product features, specs, or price.
	ProductInfo

	// WarrantyPolicy asks about warranty terms or the claim procedure.
	WarrantyPolicy
)

func (i Intent) String() string {
	switch i {
	case OrderStatus:
		return "order_status"
	case ProductInfo:
		return "product_info"
	case WarrantyPolicy:
		return "warranty_policy"
	default:
		return "none"
	}
}

// matcher binds an intent to its trigger substrings. A match on any
// trigger selects the intent.
type matcher struct {
	intent   Intent
	triggers []string
}

// matchers fixes the priority order: order status, then product info,
// then warranty policy.
var matchers = []matcher{
	{
		intent:   OrderStatus,
		triggers: []string{"pesanan", "order", "status", "di mana", "dimana", "id:", "ord"},
	},
	{
		intent:   ProductInfo,
		triggers: []string{"produk", "kelebihan", "fitur", "spesifikasi", "harga", "laptop", "smartphone"},
	},
	{
		intent:   WarrantyPolicy,
		triggers: []string{"garansi", "warranty", "klaim", "prosedur"},
	},
}

// matches reports whether the lowercased utterance contains any of the
// matcher's triggers.
func (m matcher) matches(lowered string) bool {
	for _, trigger := range m.triggers {
		if strings.Contains(lowered, trigger) {
			return true
		}
	}
	return false
}

// Classify assigns at most one intent to an utterance, first match
// winning under the fixed priority order.
func Classify(utterance string) Intent {
	lowered := strings.ToLower(utterance)
	for _, m := range matchers {
		if m.matches(lowered) {
			return m.intent
		}
	}
	return None
}

// Order id extraction patterns, tried in order. The labeled form
// ("ID: ORD123") wins over a bare ORD-prefixed token.
var orderIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ID\s*:\s*([A-Z0-9]+)`),
	regexp.MustCompile(`(?i)\b(ORD[A-Z0-9]+)\b`),
}

// ExtractOrderID pulls an order id out of an utterance. Returns ""
// when no pattern matches; the caller must then skip the tool.
func ExtractOrderID(utterance string) string {
	for _, p := range orderIDPatterns {
		if m := p.FindStringSubmatch(utterance); m != nil {
			return m[1]
		}
	}
	return ""
}

// Product name extraction: text after a product keyword up to sentence
// punctuation.
var productNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)produk\s+([A-Za-z0-9\s]+?)[?.!]`),
	regexp.MustCompile(`(?i)laptop\s+([A-Za-z0-9\s]+?)[?.!]`),
	regexp.MustCompile(`(?i)smartphone\s+([A-Za-z0-9\s]+?)[?.!]`),
}

// productKeywords are the fallback split points when no punctuation-
// bounded pattern matches.
var productKeywords = []string{"produk", "laptop", "smartphone"}

// DefaultProductTerm is used when nothing at all is extractable.
const DefaultProductTerm = "produk"

// ExtractProductName pulls a product search term out of an utterance.
// First a punctuation-bounded pattern, then up to three words after the
// first product keyword, then DefaultProductTerm.
func ExtractProductName(utterance string) string {
	for _, p := range productNamePatterns {
		if m := p.FindStringSubmatch(utterance); m != nil {
			if name := strings.TrimSpace(m[1]); name != "" {
				return name
			}
		}
	}

	lowered := strings.ToLower(utterance)
	for _, keyword := range productKeywords {
		idx := strings.Index(lowered, keyword)
		if idx < 0 {
			continue
		}
		rest := strings.TrimSpace(utterance[idx+len(keyword):])
		if rest == "" {
			continue
		}
		words := strings.Fields(rest)
		if len(words) > 3 {
			words = words[:3]
		}
		name := strings.Trim(strings.Join(words, " "), ".,?!")
		if name != "" {
			return name
		}
	}

	return DefaultProductTerm
}
