package core

import "testing"

func TestFormatIndianPhoneNumber(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		want  string
	}{
		{name: "bare 10 digits", phone: "9876543210", want: "+919876543210"},
		{name: "spaced 10 digits", phone: "98765 43210", want: "+919876543210"},
		{name: "dashed 10 digits", phone: "987-654-3210", want: "+919876543210"},
		{name: "already formatted", phone: "+919876543210", want: "+919876543210"},
		{name: "formatted with spaces", phone: "+91 98765 43210", want: "+91 98765 43210"},
		{name: "other length", phone: "12345", want: "+9112345"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatIndianPhoneNumber(tt.phone); got != tt.want {
				t.Errorf("FormatIndianPhoneNumber(%q) = %q, want %q", tt.phone, got, tt.want)
			}
		})
	}
}

func TestFormatIndianPhoneNumber_Idempotent(t *testing.T) {
	for _, phone := range []string{"9876543210", "+919876543210", "98765-43210", "+91 98765 43210"} {
		once := FormatIndianPhoneNumber(phone)
		if twice := FormatIndianPhoneNumber(once); twice != once {
			t.Errorf("FormatIndianPhoneNumber not idempotent for %q: %q then %q", phone, once, twice)
		}
	}
}

func TestValidIndianPhoneNumber(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"9876543210", true},
		{"+919876543210", true},
		{"+91 98765 43210", true},
		{"", false},
		{"12345", false},
		{"+9198765432101", false},
	}
	for _, tt := range tests {
		if got := ValidIndianPhoneNumber(tt.phone); got != tt.want {
			t.Errorf("ValidIndianPhoneNumber(%q) = %v, want %v", tt.phone, got, tt.want)
		}
	}
}
