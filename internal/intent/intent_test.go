package intent

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		utterance string
		want      Intent
	}{
		{"order by keyword", "Di mana pesanan saya?", OrderStatus},
		{"order by id label", "Cek ID: ORD123 dong", OrderStatus},
		{"order by bare token", "ORD456 sudah sampai mana?", OrderStatus},
		{"order status word", "Status pengiriman saya bagaimana?", OrderStatus},
		{"product features", "Apa kelebihan laptop gaming X?", ProductInfo},
		{"product price", "Berapa harga smartphone Z?", ProductInfo},
		{"product specs", "Spesifikasi produk ini apa saja?", ProductInfo},
		{"warranty", "Bagaimana cara klaim garansi?", WarrantyPolicy},
		{"warranty english", "What is the warranty procedure?", WarrantyPolicy},
		{"no intent", "Halo, selamat pagi!", None},
		{"empty", "", None},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.utterance); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.utterance, got, tt.want)
			}
		})
	}
}

func TestClassifyPriorityIsDeterministic(t *testing.T) {
	// Mentions both an order and a product; order wins by priority.
	got := Classify("Status pesanan laptop gaming saya bagaimana?")
	if got != OrderStatus {
		t.Errorf("got %v, want OrderStatus", got)
	}

	// Product beats warranty.
	got = Classify("Apakah harga sudah termasuk garansi?")
	if got != ProductInfo {
		t.Errorf("got %v, want ProductInfo", got)
	}
}

func TestExtractOrderID(t *testing.T) {
	tests := []struct {
		utterance string
		want      string
	}{
		{"Cek pesanan dengan ID: ORD123", "ORD123"},
		{"cek id: ord456 ya", "ord456"},
		{"ID:ABC999 tolong dicek", "ABC999"},
		{"Pesanan ORD789 sudah dikirim belum?", "ORD789"},
		{"Di mana pesanan saya?", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ExtractOrderID(tt.utterance); got != tt.want {
			t.Errorf("ExtractOrderID(%q) = %q, want %q", tt.utterance, got, tt.want)
		}
	}
}

func TestExtractOrderIDLabeledFormWins(t *testing.T) {
	got := ExtractOrderID("ORD111 salah, maksud saya ID: ORD222")
	if got != "ORD222" {
		t.Errorf("got %q, want ORD222", got)
	}
}

func TestExtractProductName(t *testing.T) {
	tests := []struct {
		utterance string
		want      string
	}{
		{"Apa kelebihan laptop gaming X?", "gaming X"},
		{"Berapa harga produk Smartphone Z?", "Smartphone Z"},
		{"Fitur smartphone Z apa saja.", "Z apa saja"},
		{"Saya cari laptop untuk kerja kantoran sehari-hari", "untuk kerja kantoran"},
		{"Ada produk baru?", "baru"},
		{"Berapa harganya?", "produk"},
	}

	for _, tt := range tests {
		if got := ExtractProductName(tt.utterance); got != tt.want {
			t.Errorf("ExtractProductName(%q) = %q, want %q", tt.utterance, got, tt.want)
		}
	}
}
