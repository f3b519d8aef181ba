package core

import (
	"errors"
	"reflect"
	"testing"
)

func TestFormatInputText(t *testing.T) {
	if got := FormatInputText(Sequence{1, 2.5, -3, 1e-7}); got != "1,2.5,-3,0.0000001" {
		t.Errorf("FormatInputText() = %q", got)
	}
	if got := FormatInputText(nil); got != "" {
		t.Errorf("FormatInputText(nil) = %q, want empty", got)
	}
}

func TestFormatGridText(t *testing.T) {
	g := Grid{{1, 2, 3}, {4, 5, 0}}
	if got := FormatGridText(g); got != "1,2,3;4,5,0" {
		t.Errorf("FormatGridText() = %q, want %q", got, "1,2,3;4,5,0")
	}
}

func TestParseInputText(t *testing.T) {
	tests := []struct {
		text string
		want Grid
	}{
		{"1,2,3", Grid{{1, 2, 3}}},
		{"1,2,3;4,5,0", Grid{{1, 2, 3}, {4, 5, 0}}},
		{" 1, 2 ; 3, 4 ", Grid{{1, 2}, {3, 4}}},
	}

	for _, tt := range tests {
		got, err := ParseInputText(tt.text)
		if err != nil {
			t.Errorf("ParseInputText(%q) error = %v", tt.text, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseInputText(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestParseInputText_RoundTrip(t *testing.T) {
	g := Reshape(Sequence{0.1, -2, 3.25, 4, 5e10})
	got, err := ParseInputText(FormatGridText(g))
	if err != nil {
		t.Fatalf("ParseInputText() error = %v", err)
	}
	if !reflect.DeepEqual(got, g) {
		t.Errorf("round trip = %v, want %v", got, g)
	}
}

func TestParseInputText_Errors(t *testing.T) {
	tests := []struct {
		text    string
		wantErr error
	}{
		{"", ErrEmptyOrInvalidInput},
		{"   ", ErrEmptyOrInvalidInput},
		{"1,x", ErrInvalidToken},
		{"1,,2", ErrInvalidToken},
		{"1,2;3", ErrInvalidToken},
	}

	for _, tt := range tests {
		_, err := ParseInputText(tt.text)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("ParseInputText(%q) error = %v, want %v", tt.text, err, tt.wantErr)
		}
	}
}
