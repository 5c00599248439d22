package pipeline

import (
	"context"
	"testing"

	"aqar_pipeline/models"
)

func TestNormalizeListing_FullRow(t *testing.T) {
	target := newFakeTarget()
	cfg := listingsConfig()
	n := NewNormalizer(cfg, NewResolver(target, cfg.AutoCreateLookups))

	raw := &models.RawListing{
		ID:        42,
		Name:      " فيلا  للبيع ",
		Message:   "فيلا ٤٠٠ متر للبيع في الشيخ زايد",
		Category:  "فيلا دوبلكس",
		Region:    "الشيخ زايد",
		Price:     "8,500,000",
		Area:      "٤٠٠ متر",
		Bedrooms:  "5",
		Bathrooms: "4 حمام",
		Offering:  "بيع",
		Finish:    "سوبر لوكس",
		Payment:   "كاش",
		WhatsApp:  "+201001234567",
		Phone:     "0221234567",
		CreatedAt: "2019-03-12 14:22:05",
	}

	listing := n.NormalizeListing(context.Background(), raw)

	if listing.SourceID != 42 {
		t.Fatalf("expected source id 42, got %d", listing.SourceID)
	}
	if listing.Name != "فيلا للبيع" {
		t.Fatalf("expected cleaned name, got %q", listing.Name)
	}
	if listing.Price == nil || *listing.Price != 8500000 {
		t.Fatalf("expected price 8500000, got %v", listing.Price)
	}
	if listing.Area == nil || *listing.Area != 400 {
		t.Fatalf("expected area 400, got %v", listing.Area)
	}
	if listing.Bedrooms == nil || *listing.Bedrooms != 5 {
		t.Fatalf("expected 5 bedrooms, got %v", listing.Bedrooms)
	}
	if listing.Bathrooms == nil || *listing.Bathrooms != 4 {
		t.Fatalf("expected 4 bathrooms, got %v", listing.Bathrooms)
	}
	if listing.CategoryID == nil || listing.RegionID == nil || listing.ListingTypeID == nil {
		t.Fatal("expected category, region and listing type to resolve")
	}
	if listing.FinishTypeID == nil || listing.PaymentTypeID == nil {
		t.Fatal("expected finish and payment types to resolve")
	}
	if listing.AgentID == nil {
		t.Fatal("expected agent to resolve from whatsapp handle")
	}
	if listing.ListedAt == nil || listing.ListedAt.Year() != 2019 {
		t.Fatalf("expected listed_at parsed, got %v", listing.ListedAt)
	}
	if listing.RawCategory != "فيلا دوبلكس" || listing.RawRegion != "الشيخ زايد" {
		t.Fatal("expected raw audit columns preserved verbatim")
	}
	if listing.DedupeKey == "" {
		t.Fatal("expected a content fingerprint on the listing")
	}
}

func TestNormalizeListing_SameAgentHandleSharesRow(t *testing.T) {
	target := newFakeTarget()
	cfg := listingsConfig()
	n := NewNormalizer(cfg, NewResolver(target, cfg.AutoCreateLookups))
	ctx := context.Background()

	a := n.NormalizeListing(ctx, &models.RawListing{ID: 1, WhatsApp: "+20100111", Message: "شقة اولى للبيع في المعادي"})
	b := n.NormalizeListing(ctx, &models.RawListing{ID: 2, WhatsApp: "+20100111", Message: "شقة ثانية للبيع في المعادي"})

	if a.AgentID == nil || b.AgentID == nil {
		t.Fatal("expected both agents to resolve")
	}
	if *a.AgentID != *b.AgentID {
		t.Fatalf("expected one agent row for one handle, got %d and %d", *a.AgentID, *b.AgentID)
	}
}

func TestNormalizeListing_PhoneFallbackForAgent(t *testing.T) {
	target := newFakeTarget()
	cfg := listingsConfig()
	n := NewNormalizer(cfg, NewResolver(target, cfg.AutoCreateLookups))

	listing := n.NormalizeListing(context.Background(), &models.RawListing{
		ID: 1, Phone: "0221234567", Message: "محل تجاري للايجار في وسط البلد",
	})
	if listing.AgentID == nil {
		t.Fatal("expected agent resolved from phone when whatsapp is empty")
	}

	none := n.NormalizeListing(context.Background(), &models.RawListing{
		ID: 2, Message: "ارض للبيع بدون بيانات اتصال نهائيا",
	})
	if none.AgentID != nil {
		t.Fatal("expected no agent without any contact handle")
	}
}

func TestNormalizeListing_UnparseableFieldsNullOut(t *testing.T) {
	target := newFakeTarget()
	cfg := listingsConfig()
	n := NewNormalizer(cfg, NewResolver(target, cfg.AutoCreateLookups))

	listing := n.NormalizeListing(context.Background(), &models.RawListing{
		ID:        1,
		Message:   "عقار مميز بسعر يحدد عند المعاينة",
		Price:     "سعر مغري",
		Area:      "",
		CreatedAt: "yesterday",
	})

	if listing.Price != nil {
		t.Fatalf("expected non-numeric price to null out, got %v", *listing.Price)
	}
	if listing.Area != nil {
		t.Fatal("expected empty area to null out")
	}
	if listing.ListedAt != nil {
		t.Fatal("expected unparseable timestamp to null out")
	}
	if listing.RawPrice != "سعر مغري" {
		t.Fatal("expected raw price preserved even when extraction fails")
	}
}

func TestNormalizeMessage_HintsAndKey(t *testing.T) {
	target := newFakeTarget()
	cfg := messagesConfig()
	n := NewNormalizer(cfg, NewResolver(target, cfg.AutoCreateLookups))

	msg := n.NormalizeMessage(context.Background(), &models.RawChatMessage{
		ID:           9,
		Sender:       "Ahmed",
		Message:      "مطلوب فيلا في اكتوبر حوالين ٥ مليون",
		Timestamp:    "2020-07-01 10:00:00",
		PropertyType: "فيلا",
		Location:     "اكتوبر",
		Price:        "٥٠٠٠٠٠٠",
	})

	if msg.SourceID != 9 {
		t.Fatalf("expected source id 9, got %d", msg.SourceID)
	}
	if msg.DedupeKey == "" {
		t.Fatal("expected a dedupe key")
	}
	if msg.PropertyTypeHint != "villa" {
		t.Fatalf("expected villa hint, got %q", msg.PropertyTypeHint)
	}
	if msg.PriceHint == nil || *msg.PriceHint != 5000000 {
		t.Fatalf("expected price hint 5000000 from Arabic digits, got %v", msg.PriceHint)
	}
	if msg.SentAtRaw != "2020-07-01 10:00:00" {
		t.Fatalf("expected raw timestamp preserved, got %q", msg.SentAtRaw)
	}

	same := n.NormalizeMessage(context.Background(), &models.RawChatMessage{
		ID: 10, Sender: "AHMED ", Message: "مطلوب فيلا في اكتوبر حوالين ٥ مليون",
	})
	if same.DedupeKey != msg.DedupeKey {
		t.Fatal("expected sender case and whitespace not to change the dedupe key")
	}
}
