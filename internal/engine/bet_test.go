package engine

import "testing"

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  Address
		valid bool
	}{
		{"lowercase", "0xabcdef0123456789abcdef0123456789abcdef01", "0xabcdef0123456789abcdef0123456789abcdef01", true},
		{"mixed case is canonicalized", "0xABCdef0123456789ABCDEF0123456789abcdef01", "0xabcdef0123456789abcdef0123456789abcdef01", true},
		{"too short", "0xabc", "", false},
		{"too long", "0xabcdef0123456789abcdef0123456789abcdef0123", "", false},
		{"missing prefix", "abcdef0123456789abcdef0123456789abcdef0101", "", false},
		{"non-hex char", "0xzbcdef0123456789abcdef0123456789abcdef01", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAddress(tt.in)
			if tt.valid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tt.valid && err == nil {
				t.Fatalf("expected parse error for %q", tt.in)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusPending.Terminal() || StatusActive.Terminal() {
		t.Fatal("pending/active must not be terminal")
	}
	if !StatusResolved.Terminal() || !StatusCancelled.Terminal() {
		t.Fatal("resolved/cancelled must be terminal")
	}
}

func TestBetCloneIsIndependent(t *testing.T) {
	b := &Bet{
		ID:     7,
		Judges: []Address{"0xaa", "0xbb"},
		Votes:  map[Address]Address{"0xaa": "0xcc"},
	}
	cp := b.Clone()
	cp.Judges[0] = "0xdd"
	cp.Votes["0xbb"] = "0xcc"

	if b.Judges[0] != "0xaa" {
		t.Fatalf("clone mutation leaked into judges: %v", b.Judges)
	}
	if len(b.Votes) != 1 {
		t.Fatalf("clone mutation leaked into votes: %v", b.Votes)
	}
}
