package redact

import "testing"

func TestEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "john@x.com", want: "jo***@x.com"},
		{in: "jo@x.com", want: "***@x.com"},
		{in: "no-at-sign", want: "***"},
		{in: "a@b@c", want: "***"},
		{in: "trailing@", want: "***"},
	}
	for _, tt := range tests {
		if got := Email(tt.in); got != tt.want {
			t.Fatalf("Email(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
