// internal/domain/product/resolver.go
package product

import "strings"

// ResolveVariant selects the variant matching the given option selection.
//
// A variant matches when, for every axis present in selected, its attribute
// map holds the identical value for that axis. Axes missing from selected are
// ignored, so a partial selection can still resolve. Axis names are compared
// case-insensitively to absorb spelling variants ("Colour" vs "color");
// values are compared by exact string equality.
//
// When nothing matches the first declared variant is returned. That keeps the
// storefront on a purchasable price even for an inconsistent partial
// selection; it is a deliberate fallback, not an error. Products without
// variants resolve to nil.
func ResolveVariant(p *Product, selected map[string]string) *ProductVariant {
	if len(p.Variants) == 0 {
		return nil
	}

	if len(selected) > 0 {
		for i := range p.Variants {
			if variantMatches(&p.Variants[i], selected) {
				return &p.Variants[i]
			}
		}
	}

	// Permissive default: first declared variant
	return &p.Variants[0]
}

func variantMatches(v *ProductVariant, selected map[string]string) bool {
	for axis, want := range selected {
		got, ok := attributeForAxis(v.Attributes, axis)
		if !ok || got != want {
			return false
		}
	}
	return true
}

func attributeForAxis(attrs OptionMap, axis string) (string, bool) {
	if value, ok := attrs[axis]; ok {
		return value, true
	}
	for name, value := range attrs {
		if strings.EqualFold(name, axis) {
			return value, true
		}
	}
	return "", false
}
