package normalizer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"especulai/internal/models"
)

// numberPattern captures a numeric value with optional Brazilian
// thousand separators and decimal comma, e.g. "450.000,50" or "85.5".
var numberPattern = regexp.MustCompile(`-?[\d.,]*\d`)

// intPattern captures the first integer in a string.
var intPattern = regexp.MustCompile(`\d+`)

// defaultPropertyTypes are the recognized property types when none are
// configured.
var defaultPropertyTypes = []string{
	"apartamento", "casa", "sobrado", "kitnet", "terreno", "comercial",
}

// businessTypeAliases maps source-specific spellings onto the canonical
// business types.
var businessTypeAliases = map[string]models.BusinessType{
	"venda":   models.BusinessSale,
	"compra":  models.BusinessSale,
	"sale":    models.BusinessSale,
	"aluguel": models.BusinessRental,
	"locacao": models.BusinessRental,
	"rent":    models.BusinessRental,
	"rental":  models.BusinessRental,
}

// sourcePatterns maps URL substrings onto source labels, used when the
// collector left the source field empty.
var sourcePatterns = []struct {
	substr string
	source string
}{
	{"olx.com.br", "OLX"},
	{"rochaerocha.com.br", "RochaRocha"},
	{"imovelweb.com", "ImovelWeb"},
}

// Transformer coerces the free-text fields of a raw listing into the
// canonical typed schema.
type Transformer struct {
	propertyTypes map[string]bool
}

// NewTransformer creates a transformer recognizing the given property
// types; an empty list falls back to the default set.
func NewTransformer(propertyTypes []string) *Transformer {
	if len(propertyTypes) == 0 {
		propertyTypes = defaultPropertyTypes
	}

	known := make(map[string]bool, len(propertyTypes))
	for _, pt := range propertyTypes {
		known[strings.ToLower(NormalizeText(pt))] = true
	}

	return &Transformer{propertyTypes: known}
}

// Transform converts a raw listing into its canonical form, or returns
// the rejection reason when a coercion fails.
func (t *Transformer) Transform(raw models.RawListing) (models.CanonicalListing, Reason, error) {
	price, err := parseDecimal(raw.Price)
	if err != nil || price <= 0 {
		return models.CanonicalListing{}, ReasonBadPrice, fmt.Errorf("price %q: %w", raw.Price, errOrInvalid(err))
	}

	area, err := parseDecimal(raw.Area)
	if err != nil || area <= 0 {
		return models.CanonicalListing{}, ReasonBadArea, fmt.Errorf("area %q: %w", raw.Area, errOrInvalid(err))
	}

	rooms, err := parseCount(raw.Rooms)
	if err != nil {
		return models.CanonicalListing{}, ReasonBadCount, fmt.Errorf("rooms %q: %w", raw.Rooms, err)
	}

	bathrooms, err := parseCount(raw.Bathrooms)
	if err != nil {
		return models.CanonicalListing{}, ReasonBadCount, fmt.Errorf("bathrooms %q: %w", raw.Bathrooms, err)
	}

	business, ok := businessTypeAliases[strings.ToLower(NormalizeText(raw.BusinessType))]
	if !ok {
		return models.CanonicalListing{}, ReasonUnknownBusinessType, fmt.Errorf("business type %q not recognized", raw.BusinessType)
	}

	propertyType := strings.ToLower(NormalizeText(raw.PropertyType))
	if !t.propertyTypes[propertyType] {
		return models.CanonicalListing{}, ReasonUnknownPropertyType, fmt.Errorf("property type %q not recognized", raw.PropertyType)
	}

	neighborhood, city := t.resolveLocation(raw)

	return models.CanonicalListing{
		Source:       t.resolveSource(raw),
		BusinessType: business,
		Price:        price,
		Area:         area,
		Rooms:        rooms,
		Bathrooms:    bathrooms,
		PropertyType: propertyType,
		Neighborhood: neighborhood,
		City:         city,
		CollectedAt:  raw.CollectedAt,
	}, "", nil
}

// resolveLocation prefers the dedicated neighborhood/city fields and
// falls back to splitting a combined location string.
func (t *Transformer) resolveLocation(raw models.RawListing) (string, string) {
	neighborhood := NormalizeText(raw.Neighborhood)
	city := NormalizeText(raw.City)

	if neighborhood == "" && raw.Location != "" {
		combined, splitCity := SplitCombinedLocation(raw.Location)
		if city == "" {
			city = splitCity
		}

		return TitleLocation(combined), titleOrEmpty(city)
	}

	return titleOrEmpty(neighborhood), titleOrEmpty(city)
}

// resolveSource uses the declared source, falling back to URL
// detection the way the collector labels its own output.
func (t *Transformer) resolveSource(raw models.RawListing) string {
	source := NormalizeText(raw.Source)
	if source != "" && !strings.EqualFold(source, "desconhecida") {
		return source
	}

	url := strings.ToLower(raw.URL)
	for _, sp := range sourcePatterns {
		if strings.Contains(url, sp.substr) {
			return sp.source
		}
	}

	return "desconhecida"
}

func titleOrEmpty(s string) string {
	if s == "" {
		return ""
	}

	return TitleLocation(s)
}

// parseDecimal parses a currency or measurement string in Brazilian
// format: dots as thousand separators, comma as the decimal mark.
func parseDecimal(s string) (float64, error) {
	match := numberPattern.FindString(s)
	if match == "" {
		return 0, fmt.Errorf("no numeric value in %q", s)
	}

	hasComma := strings.Contains(match, ",")
	hasDot := strings.Contains(match, ".")

	switch {
	case hasComma:
		// "450.000,50" or "85,5": dots are thousand separators.
		match = strings.ReplaceAll(match, ".", "")
		match = strings.Replace(match, ",", ".", 1)
	case hasDot:
		// A single dot followed by one or two digits is a decimal
		// mark; anything else is thousand separation.
		if i := strings.LastIndex(match, "."); !(strings.Count(match, ".") == 1 && len(match)-i-1 <= 2) {
			match = strings.ReplaceAll(match, ".", "")
		}
	}

	return strconv.ParseFloat(match, 64)
}

// parseCount extracts a non-negative integer count. Empty input counts
// as zero ("not informed" means none, as the collector does).
func parseCount(s string) (int, error) {
	if NormalizeText(s) == "" {
		return 0, nil
	}

	match := intPattern.FindString(s)
	if match == "" {
		return 0, fmt.Errorf("no integer value in %q", s)
	}

	return strconv.Atoi(match)
}

func errOrInvalid(err error) error {
	if err != nil {
		return err
	}

	return fmt.Errorf("non-positive value")
}
