package internal

import (
	"fmt"
	"sort"
)

// Availability values accepted by SellableFilter
const (
	AvailabilityAny        = ""
	AvailabilityInStock    = "in-stock"
	AvailabilityOutOfStock = "out-of-stock"
)

// BusinessFilter selects businesses by exact category, province and city.
// Empty fields match everything.
type BusinessFilter struct {
	Category string
	Province string
	City     string
}

// SellableFilter selects sellables by availability and an open-ended price range
type SellableFilter struct {
	Availability string
	MinPrice     *float64
	MaxPrice     *float64
}

// Validate rejects unknown availability values and inverted price bounds
func (f SellableFilter) Validate() error {
	switch f.Availability {
	case AvailabilityAny, AvailabilityInStock, AvailabilityOutOfStock:
	default:
		return &ValidationError{Field: "availability", Reason: fmt.Sprintf("unknown value %q", f.Availability)}
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return &ValidationError{Field: "price", Reason: "minimum is greater than maximum"}
	}
	return nil
}

// VerifiedBusinesses keeps only businesses that passed verification
func VerifiedBusinesses(businesses []Business) []Business {
	out := make([]Business, 0, len(businesses))
	for _, b := range businesses {
		if b.IsVerified {
			out = append(out, b)
		}
	}
	return out
}

// FilterBusinesses applies f to the verified businesses
func FilterBusinesses(businesses []Business, f BusinessFilter) []Business {
	out := make([]Business, 0, len(businesses))
	for _, b := range VerifiedBusinesses(businesses) {
		if f.Category != "" && b.Category.CategoryName != f.Category {
			continue
		}
		if f.Province != "" && !hasLocation(b, func(l Location) bool { return l.Province == f.Province }) {
			continue
		}
		if f.City != "" && !hasLocation(b, func(l Location) bool { return l.City == f.City }) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func hasLocation(b Business, match func(Location) bool) bool {
	for _, l := range b.Locations {
		if match(l) {
			return true
		}
	}
	return false
}

// ExtractSellables flattens the sellables of verified businesses, annotating
// each with the business it belongs to
func ExtractSellables(businesses []Business) []Sellable {
	var out []Sellable
	for _, b := range VerifiedBusinesses(businesses) {
		for _, s := range b.Sellables {
			s.BusinessName = b.BusinessName
			s.BusinessID = b.BusinessID
			out = append(out, s)
		}
	}
	return out
}

// FilterSellables applies f to sellables
func FilterSellables(sellables []Sellable, f SellableFilter) []Sellable {
	out := make([]Sellable, 0, len(sellables))
	for _, s := range sellables {
		switch f.Availability {
		case AvailabilityInStock:
			if !s.IsActive {
				continue
			}
		case AvailabilityOutOfStock:
			if s.IsActive {
				continue
			}
		}
		if f.MinPrice != nil && s.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && s.Price > *f.MaxPrice {
			continue
		}
		out = append(out, s)
	}
	return out
}

// DistinctCategories lists the category names of verified businesses
func DistinctCategories(businesses []Business) []string {
	var names []string
	for _, b := range VerifiedBusinesses(businesses) {
		names = append(names, b.Category.CategoryName)
	}
	return distinct(names)
}

// DistinctProvinces lists the provinces of verified businesses' locations
func DistinctProvinces(businesses []Business) []string {
	var names []string
	for _, b := range VerifiedBusinesses(businesses) {
		for _, l := range b.Locations {
			names = append(names, l.Province)
		}
	}
	return distinct(names)
}

// DistinctCities lists the cities of verified businesses' locations
func DistinctCities(businesses []Business) []string {
	var names []string
	for _, b := range VerifiedBusinesses(businesses) {
		for _, l := range b.Locations {
			names = append(names, l.City)
		}
	}
	return distinct(names)
}

func distinct(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
