package directory

import (
	"errors"
	"testing"
)

func floatPtr(f float64) *float64 { return &f }

func TestValidateValue(t *testing.T) {
	tests := []struct {
		name    string
		prop    Property
		value   any
		wantErr bool
	}{
		{
			name:  "bool accepts bool",
			prop:  Property{ID: "p", DataType: TypeBool},
			value: true,
		},
		{
			name:    "bool rejects string",
			prop:    Property{ID: "p", DataType: TypeBool},
			value:   "true",
			wantErr: true,
		},
		{
			name:  "float within range",
			prop:  Property{ID: "p", DataType: TypeFloat, Format: &Format{Min: floatPtr(0), Max: floatPtr(100)}},
			value: 55.5,
		},
		{
			name:    "float above max",
			prop:    Property{ID: "p", DataType: TypeFloat, Format: &Format{Min: floatPtr(0), Max: floatPtr(100)}},
			value:   120.0,
			wantErr: true,
		},
		{
			name:    "float below min",
			prop:    Property{ID: "p", DataType: TypeFloat, Format: &Format{Min: floatPtr(0)}},
			value:   -1.0,
			wantErr: true,
		},
		{
			name:  "int accepts whole float from json",
			prop:  Property{ID: "p", DataType: TypeInt},
			value: 42.0,
		},
		{
			name:    "int rejects fractional",
			prop:    Property{ID: "p", DataType: TypeInt},
			value:   42.5,
			wantErr: true,
		},
		{
			name:    "uint rejects negative",
			prop:    Property{ID: "p", DataType: TypeUint},
			value:   -3.0,
			wantErr: true,
		},
		{
			name:  "enum accepts member",
			prop:  Property{ID: "p", DataType: TypeEnum, Format: &Format{Enum: []string{"heat", "cool", "off"}}},
			value: "cool",
		},
		{
			name:    "enum rejects non-member",
			prop:    Property{ID: "p", DataType: TypeEnum, Format: &Format{Enum: []string{"heat", "cool", "off"}}},
			value:   "defrost",
			wantErr: true,
		},
		{
			name:    "enum without value set",
			prop:    Property{ID: "p", DataType: TypeEnum},
			value:   "heat",
			wantErr: true,
		},
		{
			name:  "string accepts string",
			prop:  Property{ID: "p", DataType: TypeString},
			value: "hdmi1",
		},
		{
			name:    "nil value rejected",
			prop:    Property{ID: "p", DataType: TypeBool},
			value:   nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateValue(&tt.prop, tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateValue() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidValue) {
				t.Errorf("ValidateValue() error = %v, want wrapped ErrInvalidValue", err)
			}
		})
	}
}

func TestNumericValue(t *testing.T) {
	if n, ok := NumericValue(3.5); !ok || n != 3.5 {
		t.Errorf("NumericValue(3.5) = %v, %v", n, ok)
	}
	if n, ok := NumericValue(7); !ok || n != 7 {
		t.Errorf("NumericValue(7) = %v, %v", n, ok)
	}
	if _, ok := NumericValue("7"); ok {
		t.Error("NumericValue(string) should not be ok")
	}
	if _, ok := NumericValue(true); ok {
		t.Error("NumericValue(bool) should not be ok")
	}
}

func TestIsOn(t *testing.T) {
	if !IsOn(true) {
		t.Error("IsOn(true) = false")
	}
	if IsOn(false) || IsOn(1) || IsOn("on") || IsOn(nil) {
		t.Error("IsOn should only be true for boolean true")
	}
}
