package termhost

import "testing"

func TestTranslate(t *testing.T) {
	tests := []struct {
		in   byte
		want rune
	}{
		{'\r', '\n'},
		{0x7f, 0x08},
		{'3', '3'},
		{' ', ' '},
		{0x03, KeyInterrupt},
	}
	for _, tt := range tests {
		if got := Translate(tt.in); got != tt.want {
			t.Fatalf("Translate(%#x) = %q want %q", tt.in, got, tt.want)
		}
	}
}
