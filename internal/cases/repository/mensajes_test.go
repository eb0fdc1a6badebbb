package repository

import (
	"strings"
	"testing"
)

func TestListMensajesQueryOrdersAscending(t *testing.T) {
	if !strings.Contains(listMensajesQuery, "ORDER BY created_at ASC, id ASC") {
		t.Fatalf("conversation query must retrieve oldest first with a stable tiebreak, got:\n%s", listMensajesQuery)
	}
}
