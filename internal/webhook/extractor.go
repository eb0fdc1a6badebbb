package webhook

import (
	"encoding/json"
	"strconv"
	"strings"

	"hipotecas_portal_backend/internal/leads/repository"
	"hipotecas_portal_backend/platform/phone"
)

const (
	sourceValorador = "bkchome_valorador"
	sourceWeb       = "web"
)

// valoradorEnvelope is the multi-step valuation wizard payload. Field types
// vary by widget version (numbers arrive as strings or numbers, booleans as
// "si"/"no" or real booleans), so everything is coerced leniently: invalid
// or missing values become NULL instead of erroring.
type valoradorEnvelope struct {
	Step1  map[string]interface{} `json:"step1"`
	Step2  map[string]interface{} `json:"step2"`
	Result map[string]interface{} `json:"result"`
	Geo    map[string]interface{} `json:"geo"`
	UTM    json.RawMessage        `json:"utm"`
}

func (e valoradorEnvelope) isEmpty() bool {
	return len(e.Step1) == 0 && len(e.Step2) == 0 && len(e.Result) == 0
}

// extractValoradorLead normalizes the wizard payload into lead params.
// The raw payload is retained verbatim alongside the projection.
func extractValoradorLead(envelope valoradorEnvelope, raw json.RawMessage) repository.CreateLeadParams {
	params := repository.CreateLeadParams{
		Source: sourceValorador,
		Raw:    raw,

		Nombre:   strField(envelope.Step2, "name", "nombre"),
		Telefono: normalizedPhone(strField(envelope.Step2, "phone", "telefono")),
		Email:    strField(envelope.Step2, "email"),

		Direccion:      strField(envelope.Step1, "address", "direccion"),
		Ciudad:         strField(envelope.Step1, "city", "ciudad"),
		Tipo:           strField(envelope.Step1, "type", "tipo"),
		SizeM2:         intField(envelope.Step1, "size", "size_m2"),
		Habitaciones:   intField(envelope.Step1, "bedrooms", "habitaciones"),
		Banos:          intField(envelope.Step1, "bathrooms", "banos"),
		HasGarage:      boolField(envelope.Step1, "hasGarage", "garaje"),
		HasTerrace:     boolField(envelope.Step1, "hasTerrace", "terraza"),
		EstadoInmueble: strField(envelope.Step1, "condition", "estado"),

		ResultMin: floatField(envelope.Result, "minPrice", "min"),
		ResultMax: floatField(envelope.Result, "maxPrice", "max"),
		Lat:       floatField(envelope.Geo, "lat", "latitude"),
		Lng:       floatField(envelope.Geo, "lng", "longitude"),
	}
	return params
}

// genericLeadRequest is the generic contact-form payload.
type genericLeadRequest struct {
	Nombre   string `json:"nombre"`
	Telefono string `json:"telefono"`
	Email    string `json:"email"`
	Ciudad   string `json:"ciudad"`
	Mensaje  string `json:"mensaje"`
	Source   string `json:"source"`
}

func extractGenericLead(req genericLeadRequest, raw json.RawMessage) repository.CreateLeadParams {
	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = sourceWeb
	}

	return repository.CreateLeadParams{
		Source:   source,
		Raw:      raw,
		Nombre:   optStr(req.Nombre),
		Telefono: normalizedPhone(optStr(req.Telefono)),
		Email:    optStr(req.Email),
		Ciudad:   optStr(req.Ciudad),
	}
}

// ---- lenient coercion helpers ----

func strField(m map[string]interface{}, keys ...string) *string {
	for _, key := range keys {
		value, ok := m[key]
		if !ok {
			continue
		}
		switch typed := value.(type) {
		case string:
			return optStr(typed)
		case float64:
			s := strconv.FormatFloat(typed, 'f', -1, 64)
			return &s
		}
	}
	return nil
}

func intField(m map[string]interface{}, keys ...string) *int {
	for _, key := range keys {
		value, ok := m[key]
		if !ok {
			continue
		}
		switch typed := value.(type) {
		case float64:
			n := int(typed)
			return &n
		case string:
			parsed, err := strconv.Atoi(strings.TrimSpace(typed))
			if err != nil {
				return nil
			}
			return &parsed
		}
	}
	return nil
}

func floatField(m map[string]interface{}, keys ...string) *float64 {
	for _, key := range keys {
		value, ok := m[key]
		if !ok {
			continue
		}
		switch typed := value.(type) {
		case float64:
			f := typed
			return &f
		case string:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
			if err != nil {
				return nil
			}
			return &parsed
		}
	}
	return nil
}

func boolField(m map[string]interface{}, keys ...string) *bool {
	for _, key := range keys {
		value, ok := m[key]
		if !ok {
			continue
		}
		switch typed := value.(type) {
		case bool:
			b := typed
			return &b
		case string:
			switch strings.ToLower(strings.TrimSpace(typed)) {
			case "si", "sí", "true", "yes", "1":
				b := true
				return &b
			case "no", "false", "0":
				b := false
				return &b
			}
			return nil
		case float64:
			b := typed != 0
			return &b
		}
	}
	return nil
}

func optStr(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func normalizedPhone(raw *string) *string {
	if raw == nil {
		return nil
	}
	normalized := phone.NormalizeE164(*raw)
	return &normalized
}
