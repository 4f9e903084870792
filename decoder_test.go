package fecparse

import "testing"

func TestDecodeLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		in          []byte
		wantOut     string
		wantASCII28 bool
	}{
		{
			name:    "plainASCII",
			in:      []byte("SA11A1,John Smith,100.00"),
			wantOut: "SA11A1,John Smith,100.00",
		},
		{
			name:    "validUTF8Unchanged",
			in:      []byte("caf\xc3\xa9"),
			wantOut: "caf\xc3\xa9",
		},
		{
			name:        "ascii28Detected",
			in:          []byte("SA11A1\x1cJohn Smith\x1c100.00"),
			wantOut:     "SA11A1\x1cJohn Smith\x1c100.00",
			wantASCII28: true,
		},
		{
			name:    "iso8859_1Transliterated",
			in:      []byte("caf\xe9"),
			wantOut: "caf\xc3\xa9",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			out, hasASCII28, err := decodeLine(tc.in)
			if err != nil {
				t.Fatalf("decodeLine() error = %v", err)
			}
			if string(out) != tc.wantOut {
				t.Fatalf("decodeLine() out = %q, want %q", out, tc.wantOut)
			}
			if hasASCII28 != tc.wantASCII28 {
				t.Fatalf("decodeLine() hasASCII28 = %v, want %v", hasASCII28, tc.wantASCII28)
			}
		})
	}
}
