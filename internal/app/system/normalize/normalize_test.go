package normalize

import "testing"

func TestEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"user@example.com", "user@example.com"},
		{"  User@Example.Com  ", "user@example.com"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Email(tt.input); got != tt.want {
				t.Errorf("Email(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Mirza   Ghalib ", "Mirza Ghalib"},
		{"e\u0301", "\u00e9"}, // decomposed e + acute becomes precomposed
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Name(tt.input); got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestUsername(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"zara_k", "zara_k", false},
		{"  ghalib-fan  ", "ghalib-fan", false},
		{"شاعر", "شاعر", false},
		{"ab", "", true},
		{"has.dot", "", true},
		{"dollar$", "", true},
		{"with space", "", true},
		{"abcdefghijklmnopqrstuvwxyz12345", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Username(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Username(%q) err = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Username(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestUsernameFromEmail(t *testing.T) {
	if got := UsernameFromEmail("Sana.Khan+poetry@example.com"); got != "sanakhanpoetry" {
		t.Errorf("UsernameFromEmail() = %q", got)
	}
}

func TestPoetDisplayName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"faiz-ahmed-faiz", "Faiz Ahmed Faiz"},
		{"mirza_ghalib", "Mirza Ghalib"},
		{"iqbal", "Iqbal"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := PoetDisplayName(tt.input); got != tt.want {
				t.Errorf("PoetDisplayName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLines(t *testing.T) {
	got := Lines("  dil hi to hai \r\n\n na sang-o-khisht\n")
	want := []string{"dil hi to hai", "na sang-o-khisht"}
	if len(got) != len(want) {
		t.Fatalf("Lines: got %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, got[i], want[i])
		}
	}
	if n := len(Lines("   \n")); n != 0 {
		t.Errorf("blank content: got %d lines", n)
	}
}
