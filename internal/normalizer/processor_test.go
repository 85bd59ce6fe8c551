package normalizer

import (
	"testing"

	"especulai/internal/models"
)

func TestProcessor_Process(t *testing.T) {
	p := NewProcessor(nil)

	raws := []models.RawListing{
		{
			Source: "OLX", BusinessType: "venda", Price: "300.000",
			Area: "100", Rooms: "3", Bathrooms: "2",
			PropertyType: "casa", Neighborhood: "Centro", City: "Teresina",
		},
		{
			Source: "OLX", BusinessType: "venda", Price: "",
			Area: "90", PropertyType: "casa",
		},
		{
			Source: "OLX", BusinessType: "venda", Price: "abc",
			Area: "90", PropertyType: "casa",
		},
	}

	result := p.Process(raws)

	if len(result.Listings) != 1 {
		t.Fatalf("Listings = %d, want 1", len(result.Listings))
	}

	if result.Rejected[ReasonMissingPrice] != 1 {
		t.Errorf("Rejected[%s] = %d, want 1", ReasonMissingPrice, result.Rejected[ReasonMissingPrice])
	}

	if result.Rejected[ReasonBadPrice] != 1 {
		t.Errorf("Rejected[%s] = %d, want 1", ReasonBadPrice, result.Rejected[ReasonBadPrice])
	}

	if result.RejectedTotal() != 2 {
		t.Errorf("RejectedTotal = %d, want 2", result.RejectedTotal())
	}
}

// Every numeric field of an accepted row must be non-negative; rows
// violating that are rejected, never coerced to zero silently.
func TestProcessor_NoSilentZeroCoercion(t *testing.T) {
	p := NewProcessor(nil)

	result := p.Process([]models.RawListing{
		{
			BusinessType: "venda", Price: "sob consulta", Area: "80",
			PropertyType: "apartamento",
		},
	})

	if len(result.Listings) != 0 {
		t.Fatalf("Listings = %d, want 0", len(result.Listings))
	}

	if result.RejectedTotal() != 1 {
		t.Errorf("RejectedTotal = %d, want 1", result.RejectedTotal())
	}

	for _, l := range result.Listings {
		if l.Price < 0 || l.Area < 0 || l.Rooms < 0 || l.Bathrooms < 0 {
			t.Errorf("accepted listing has negative field: %+v", l)
		}
	}
}
