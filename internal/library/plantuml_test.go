package library_test

import (
	"testing"

	"github.com/markvista/markvista/internal/library"
)

func TestEncodePlantUMLBytes(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"empty", nil, ""},
		{"single zero byte", []byte{0x00}, "00"},
		{"all ones", []byte{0xFF, 0xFF, 0xFF}, "____"},
		{"two bytes", []byte{0x00, 0x01}, "004"},
		{"three zero bytes", []byte{0x00, 0x00, 0x00}, "0000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := library.EncodePlantUMLBytes(tt.data); got != tt.want {
				t.Errorf("EncodePlantUMLBytes(%v) = %q, want %q", tt.data, got, tt.want)
			}
		})
	}
}

func TestEncodePlantUMLDeterministic(t *testing.T) {
	source := "@startuml\nAlice -> Bob: hello\n@enduml"

	first := library.EncodePlantUML(source)
	second := library.EncodePlantUML(source)

	if first == "" {
		t.Fatal("EncodePlantUML() returned empty output")
	}

	if first != second {
		t.Error("EncodePlantUML() is not deterministic")
	}
}
