package domain

import "testing"

func TestParseEstado(t *testing.T) {
	tests := []struct {
		raw     string
		want    Estado
		wantErr bool
	}{
		{raw: "en_estudio", want: EstadoEnEstudio},
		{raw: "tasacion", want: EstadoTasacion},
		{raw: "fein", want: EstadoFein},
		{raw: "notaria", want: EstadoNotaria},
		{raw: "compraventa", want: EstadoCompraventa},
		{raw: "fin", want: EstadoFin},
		{raw: "denegado", want: EstadoDenegado},
		{raw: "aprobado", wantErr: true},
		{raw: "EN_ESTUDIO", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseEstado(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseEstado(%q): expected error, got %q", tt.raw, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseEstado(%q): unexpected error: %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseEstado(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestParseSender(t *testing.T) {
	if _, err := ParseSender("cliente"); err != nil {
		t.Errorf("cliente should parse: %v", err)
	}
	if _, err := ParseSender("gestor"); err != nil {
		t.Errorf("gestor should parse: %v", err)
	}
	for _, raw := range []string{"admin", "Cliente", ""} {
		if _, err := ParseSender(raw); err == nil {
			t.Errorf("ParseSender(%q): expected error", raw)
		}
	}
}

func TestClampProgreso(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{in: -5, want: 0},
		{in: 0, want: 0},
		{in: 42, want: 42},
		{in: 100, want: 100},
		{in: 180, want: 100},
	}
	for _, tt := range tests {
		if got := ClampProgreso(tt.in); got != tt.want {
			t.Errorf("ClampProgreso(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestNewTrackingToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok, err := NewTrackingToken()
		if err != nil {
			t.Fatalf("NewTrackingToken: %v", err)
		}
		if len(tok) < 40 {
			t.Fatalf("token %q too short", tok)
		}
		if seen[tok] {
			t.Fatalf("duplicate token after %d generations", i)
		}
		seen[tok] = true
	}
}
