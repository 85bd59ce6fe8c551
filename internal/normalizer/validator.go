package normalizer

import "especulai/internal/models"

// Reason identifies why a raw listing was rejected. Rejections are
// counted and reported, never silently dropped.
type Reason string

// Rejection reasons.
const (
	ReasonMissingPrice        Reason = "preco_ausente"
	ReasonMissingArea         Reason = "area_ausente"
	ReasonMissingBusinessType Reason = "tipo_negocio_ausente"
	ReasonBadPrice            Reason = "preco_invalido"
	ReasonBadArea             Reason = "area_invalida"
	ReasonBadCount            Reason = "contagem_invalida"
	ReasonUnknownBusinessType Reason = "tipo_negocio_desconhecido"
	ReasonUnknownPropertyType Reason = "tipo_imovel_desconhecido"
)

// Validator checks that a raw listing carries its mandatory fields
// before any coercion is attempted.
type Validator struct{}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate returns the first missing mandatory field, or ("", true)
// when the record may proceed to transformation.
func (v *Validator) Validate(raw models.RawListing) (Reason, bool) {
	if NormalizeText(raw.Price) == "" {
		return ReasonMissingPrice, false
	}

	if NormalizeText(raw.Area) == "" {
		return ReasonMissingArea, false
	}

	if NormalizeText(raw.BusinessType) == "" {
		return ReasonMissingBusinessType, false
	}

	return "", true
}
