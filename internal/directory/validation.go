package directory

import (
	"fmt"
	"math"
)

// NumericValue extracts a float64 from any numeric wire representation.
// JSON decoding yields float64; directly constructed values may be Go ints.
func NumericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	default:
		return 0, false
	}
}

// IsOn interprets a property value as a boolean power state.
func IsOn(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

// ValidateValue checks a candidate value against a property's declared data
// type and format constraint. Returned errors wrap ErrInvalidValue.
func ValidateValue(p *Property, v any) error {
	if v == nil {
		return fmt.Errorf("%w: property %q: value is required", ErrInvalidValue, p.ID)
	}

	switch p.DataType {
	case TypeBool:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("%w: property %q expects bool, got %T", ErrInvalidValue, p.ID, v)
		}

	case TypeInt, TypeUint, TypeFloat:
		n, ok := NumericValue(v)
		if !ok {
			return fmt.Errorf("%w: property %q expects %s, got %T", ErrInvalidValue, p.ID, p.DataType, v)
		}
		if p.DataType != TypeFloat && n != math.Trunc(n) {
			return fmt.Errorf("%w: property %q expects %s, got fractional %v", ErrInvalidValue, p.ID, p.DataType, n)
		}
		if p.DataType == TypeUint && n < 0 {
			return fmt.Errorf("%w: property %q expects non-negative value, got %v", ErrInvalidValue, p.ID, n)
		}
		if err := validateRange(p, n); err != nil {
			return err
		}

	case TypeString:
		if _, ok := v.(string); !ok {
			return fmt.Errorf("%w: property %q expects string, got %T", ErrInvalidValue, p.ID, v)
		}

	case TypeEnum:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("%w: property %q expects enum string, got %T", ErrInvalidValue, p.ID, v)
		}
		if p.Format == nil || len(p.Format.Enum) == 0 {
			return fmt.Errorf("%w: property %q declares enum type without value set", ErrInvalidValue, p.ID)
		}
		for _, allowed := range p.Format.Enum {
			if s == allowed {
				return nil
			}
		}
		return fmt.Errorf("%w: property %q: %q is not in the declared value set", ErrInvalidValue, p.ID, s)

	default:
		return fmt.Errorf("%w: property %q has unknown data type %q", ErrInvalidValue, p.ID, p.DataType)
	}

	return nil
}

// validateRange checks a numeric value against the property's format bounds.
func validateRange(p *Property, n float64) error {
	if p.Format == nil {
		return nil
	}
	if p.Format.Min != nil && n < *p.Format.Min {
		return fmt.Errorf("%w: property %q: %v is below minimum %v", ErrInvalidValue, p.ID, n, *p.Format.Min)
	}
	if p.Format.Max != nil && n > *p.Format.Max {
		return fmt.Errorf("%w: property %q: %v is above maximum %v", ErrInvalidValue, p.ID, n, *p.Format.Max)
	}
	return nil
}
