package errors

import (
	"testing"
)

func TestValidatePageName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid uuid", "3f0c1a7e-9b2d-4c55-8f10-2a6b5b7d9e01", false},
		{"valid simple", "page_001", false},
		{"valid with dot", "page.v2", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 200)), true},
		{"path traversal", "..", true},
		{"slash", "a/b", true},
		{"backslash", "a\\b", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePageName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePageName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidMetadata) {
				t.Errorf("ValidatePageName(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidMetadata)
			}
		})
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"json", "json", false},
		{"bson", "bson", false},
		{"yaml", "yaml", true},
		{"empty", "", true},
		{"case sensitive", "JSON", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFormat("metadata format", tt.value, "json", "bson")
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidFormat) {
				t.Errorf("code = %v, want %v", GetCode(err), ErrCodeInvalidFormat)
			}
		})
	}
}

func TestValidateProbability(t *testing.T) {
	tests := []struct {
		p       float64
		wantErr bool
	}{
		{0, false},
		{0.5, false},
		{1, false},
		{-0.01, true},
		{1.01, true},
	}

	for _, tt := range tests {
		err := ValidateProbability("chance", tt.p)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateProbability(%g) error = %v, wantErr %v", tt.p, err, tt.wantErr)
		}
	}
}

func TestValidateRange(t *testing.T) {
	if err := ValidateRange("shrink", -24, 0); err != nil {
		t.Errorf("ValidateRange(-24, 0) = %v", err)
	}
	if err := ValidateRange("font size", 24, 24); err != nil {
		t.Errorf("ValidateRange(24, 24) = %v", err)
	}
	err := ValidateRange("font size", 48, 24)
	if !Is(err, ErrCodeInvalidConfig) {
		t.Errorf("ValidateRange(48, 24) = %v, want %v", err, ErrCodeInvalidConfig)
	}
}

func TestValidatePositive(t *testing.T) {
	if err := ValidatePositive("width", 1600); err != nil {
		t.Errorf("ValidatePositive(1600) = %v", err)
	}
	for _, v := range []float64{0, -1} {
		if err := ValidatePositive("width", v); err == nil {
			t.Errorf("ValidatePositive(%g) = nil, want error", v)
		}
	}
}
