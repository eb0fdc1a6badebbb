package repository

import "testing"

func TestEscapeLike(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"madrid", "madrid"},
		{"100%", `100\%`},
		{"ana_garcia", `ana\_garcia`},
		{`c:\tmp`, `c:\\tmp`},
		{`%_\`, `\%\_\\`},
		{"", ""},
	}

	for _, tc := range cases {
		if got := EscapeLike(tc.in); got != tc.want {
			t.Errorf("EscapeLike(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBuildLeadListWhereSearchUsesEscapedPattern(t *testing.T) {
	where, args := buildLeadListWhere(ListLeadsParams{Search: "50%"})

	if len(args) != 1 {
		t.Fatalf("expected 1 arg, got %d", len(args))
	}
	if args[0] != `%50\%%` {
		t.Errorf("search pattern = %q, want %q", args[0], `%50\%%`)
	}
	if where == "TRUE" {
		t.Error("expected search clause in WHERE")
	}
}
