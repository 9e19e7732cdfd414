package core

import "testing"

func TestPtr(t *testing.T) {
	value := 42
	ptr := Ptr(value)
	if *ptr != value {
		t.Errorf("Expected *ptr to be %d, got %d", value, *ptr)
	}
	if ptr == &value {
		t.Error("Expected different memory address from original variable")
	}

	if b := Ptr(false); *b != false {
		t.Errorf("Expected *b to be false, got %v", *b)
	}
	if Ptr(1) == Ptr(1) {
		t.Error("Expected different pointers from multiple Ptr calls")
	}
}

func TestSHA256(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"abc", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SHA256([]byte(tt.input)); got != tt.expected {
				t.Errorf("SHA256(%q) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}
