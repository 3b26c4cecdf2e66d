package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/iksnae/trompo-cli/internal"
)

const businessesJSON = `[
  {
    "business_id": 10, "business_name": "Lola's Kakanin", "is_verified": true, "user_id": 2,
    "Category": {"category_id": 1, "category_name": "Food"},
    "Locations": [{"location_id": 1, "city": "Cebu City", "province": "Cebu"}],
    "sellables": [
      {"sellable_id": 31, "name": "Puto", "type": "PRODUCT", "price": 45, "is_active": true},
      {"sellable_id": 32, "name": "Bibingka", "type": "PRODUCT", "price": 120, "is_active": false}
    ]
  },
  {
    "business_id": 11, "business_name": "Davao Repair Shop", "is_verified": true, "user_id": 3,
    "Category": {"category_id": 2, "category_name": "Services"},
    "Locations": [{"location_id": 2, "city": "Davao City", "province": "Davao del Sur"}],
    "sellables": [
      {"sellable_id": 40, "name": "Phone repair", "type": "SERVICE", "price": 800, "is_active": true}
    ]
  },
  {
    "business_id": 12, "business_name": "Unverified Store", "is_verified": false, "user_id": 4,
    "Category": {"category_id": 1, "category_name": "Food"},
    "Locations": [{"location_id": 3, "city": "Cebu City", "province": "Cebu"}],
    "sellables": [
      {"sellable_id": 50, "name": "Hidden item", "type": "PRODUCT", "price": 10, "is_active": true}
    ]
  }
]`

func TestBusinessesList(t *testing.T) {
	h := newHarness(t)
	h.backend.SetBusinesses(businessesJSON)

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{
			name:    "verified only",
			args:    []string{"businesses", "list"},
			want:    []string{"Found 2 business(es)", "Lola's Kakanin", "Davao Repair Shop"},
			notWant: []string{"Unverified Store"},
		},
		{
			name:    "by city",
			args:    []string{"businesses", "list", "--city", "Cebu City"},
			want:    []string{"Found 1 business(es)", "Lola's Kakanin", "Cebu City, Cebu"},
			notWant: []string{"Davao Repair Shop", "Unverified Store"},
		},
		{
			name:    "by category",
			args:    []string{"businesses", "list", "--category", "Services"},
			want:    []string{"Davao Repair Shop"},
			notWant: []string{"Lola's Kakanin"},
		},
		{
			name: "no match",
			args: []string{"businesses", "list", "--province", "Bohol"},
			want: []string{"No businesses found"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := h.mustRun(t, tt.args...)
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out, w) {
					t.Errorf("output should not contain %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestSellablesList(t *testing.T) {
	h := newHarness(t)
	h.backend.SetBusinesses(businessesJSON)

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{
			name:    "all from verified businesses",
			args:    []string{"sellables", "list"},
			want:    []string{"3 sellable(s)", "Puto", "Bibingka", "Phone repair", "₱45.00"},
			notWant: []string{"Hidden item"},
		},
		{
			name:    "in stock",
			args:    []string{"sellables", "list", "--in-stock"},
			want:    []string{"Puto", "Phone repair"},
			notWant: []string{"Bibingka"},
		},
		{
			name:    "out of stock",
			args:    []string{"sellables", "list", "--out-of-stock"},
			want:    []string{"Bibingka"},
			notWant: []string{"Puto"},
		},
		{
			name:    "min only",
			args:    []string{"sellables", "list", "--min", "100"},
			want:    []string{"Bibingka", "Phone repair"},
			notWant: []string{"Puto"},
		},
		{
			name:    "bounded range",
			args:    []string{"sellables", "list", "--min", "0", "--max", "100"},
			want:    []string{"Puto", "Lola's Kakanin"},
			notWant: []string{"Bibingka", "Phone repair"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := h.mustRun(t, tt.args...)
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out, w) {
					t.Errorf("output should not contain %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestSellablesList_InvalidFilters(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name  string
		args  []string
		field string
	}{
		{"both availabilities", []string{"sellables", "list", "--in-stock", "--out-of-stock"}, "availability"},
		{"inverted range", []string{"sellables", "list", "--min", "50", "--max", "10"}, "price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.run(t, tt.args...)
			var vErr *internal.ValidationError
			if !errors.As(err, &vErr) || vErr.Field != tt.field {
				t.Errorf("error = %v, want ValidationError on %s", err, tt.field)
			}
		})
	}
}

func TestBusinessesFilters(t *testing.T) {
	h := newHarness(t)
	h.backend.SetBusinesses(businessesJSON)

	out := h.mustRun(t, "businesses", "filters")
	for _, w := range []string{"Categories", "Food", "Services", "Cebu", "Davao del Sur", "Davao City"} {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q:\n%s", w, out)
		}
	}
}
