package webhook

import (
	"encoding/json"
	"testing"
)

func TestExtractValoradorLead(t *testing.T) {
	raw := json.RawMessage(`{
		"step1": {"address": "Calle 1", "city": "Madrid", "type": "flat", "size": "80", "hasGarage": "si"},
		"step2": {"name": "Ana", "phone": "600111222"},
		"result": {"minPrice": 150000, "maxPrice": 170000}
	}`)

	var envelope valoradorEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	params := extractValoradorLead(envelope, raw)

	if params.Source != "bkchome_valorador" {
		t.Errorf("source = %q", params.Source)
	}
	if params.SizeM2 == nil || *params.SizeM2 != 80 {
		t.Errorf("size_m2 = %v, want 80", params.SizeM2)
	}
	if params.HasGarage == nil || !*params.HasGarage {
		t.Errorf("has_garage = %v, want true", params.HasGarage)
	}
	if params.ResultMin == nil || *params.ResultMin != 150000 {
		t.Errorf("result_min = %v, want 150000", params.ResultMin)
	}
	if params.ResultMax == nil || *params.ResultMax != 170000 {
		t.Errorf("result_max = %v, want 170000", params.ResultMax)
	}
	if params.Nombre == nil || *params.Nombre != "Ana" {
		t.Errorf("nombre = %v, want Ana", params.Nombre)
	}
	if params.Ciudad == nil || *params.Ciudad != "Madrid" {
		t.Errorf("ciudad = %v, want Madrid", params.Ciudad)
	}
	if string(params.Raw) != string(raw) {
		t.Error("raw payload must be retained verbatim")
	}
}

func TestExtractValoradorLeadCoercesBadNumbersToNull(t *testing.T) {
	raw := json.RawMessage(`{
		"step1": {"size": "eighty", "bedrooms": null},
		"result": {"minPrice": "n/a"}
	}`)

	var envelope valoradorEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	params := extractValoradorLead(envelope, raw)

	if params.SizeM2 != nil {
		t.Errorf("size_m2 = %v, want nil for non-numeric input", *params.SizeM2)
	}
	if params.Habitaciones != nil {
		t.Errorf("habitaciones = %v, want nil", *params.Habitaciones)
	}
	if params.ResultMin != nil {
		t.Errorf("result_min = %v, want nil", *params.ResultMin)
	}
}

func TestBoolFieldVariants(t *testing.T) {
	cases := []struct {
		value interface{}
		want  *bool
	}{
		{"si", boolPtr(true)},
		{"sí", boolPtr(true)},
		{"Si", boolPtr(true)},
		{"no", boolPtr(false)},
		{true, boolPtr(true)},
		{float64(1), boolPtr(true)},
		{float64(0), boolPtr(false)},
		{"maybe", nil},
	}

	for _, tc := range cases {
		got := boolField(map[string]interface{}{"k": tc.value}, "k")
		switch {
		case tc.want == nil && got != nil:
			t.Errorf("boolField(%v) = %v, want nil", tc.value, *got)
		case tc.want != nil && (got == nil || *got != *tc.want):
			t.Errorf("boolField(%v) = %v, want %v", tc.value, got, *tc.want)
		}
	}
}

func TestExtractGenericLeadDefaultsSource(t *testing.T) {
	params := extractGenericLead(genericLeadRequest{
		Nombre: "Luis", Email: "luis@example.com", Ciudad: "Sevilla",
	}, json.RawMessage(`{}`))

	if params.Source != "web" {
		t.Errorf("source = %q, want web", params.Source)
	}
	if params.Telefono != nil {
		t.Errorf("telefono = %v, want nil", *params.Telefono)
	}
	if params.Email == nil || *params.Email != "luis@example.com" {
		t.Errorf("email = %v", params.Email)
	}
}

func boolPtr(b bool) *bool { return &b }
