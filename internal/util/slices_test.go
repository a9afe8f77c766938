package util

import (
	"strings"
	"testing"
)

type option struct {
	name  string
	value string
}

func TestFindFirst(t *testing.T) {
	options := []option{
		{name: "action_type", value: "Spy"},
		{name: "target", value: "Alpha"},
		{name: "note", value: "first"},
		{name: "note", value: "second"},
	}

	tests := []struct {
		name      string
		slice     []option
		predicate func(option) bool
		want      option
		wantFound bool
	}{
		{
			name:      "matches by name",
			slice:     options,
			predicate: func(o option) bool { return o.name == "target" },
			want:      option{name: "target", value: "Alpha"},
			wantFound: true,
		},
		{
			name:      "returns earliest of duplicates",
			slice:     options,
			predicate: func(o option) bool { return o.name == "note" },
			want:      option{name: "note", value: "first"},
			wantFound: true,
		},
		{
			name:      "missing name yields zero value",
			slice:     options,
			predicate: func(o option) bool { return o.name == "channel" },
		},
		{
			name:      "nil slice",
			predicate: func(option) bool { return true },
		},
		{
			name:      "predicate on value",
			slice:     options,
			predicate: func(o option) bool { return strings.HasPrefix(o.value, "sec") },
			want:      option{name: "note", value: "second"},
			wantFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := FindFirst(tt.slice, tt.predicate)
			if got != tt.want || found != tt.wantFound {
				t.Errorf("FindFirst() = (%+v, %v), want (%+v, %v)", got, found, tt.want, tt.wantFound)
			}
		})
	}
}

func TestFindFirstStopsAtMatch(t *testing.T) {
	var visited int
	_, found := FindFirst([]int{3, 8, 5, 9}, func(n int) bool {
		visited++
		return n > 4
	})
	if !found {
		t.Fatal("expected a match")
	}
	if visited != 2 {
		t.Errorf("predicate called %d times, want 2", visited)
	}
}
