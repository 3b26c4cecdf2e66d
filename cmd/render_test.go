package cmd

import (
	"errors"
	"reflect"
	"testing"

	"github.com/iksnae/trompo-cli/internal"
)

func TestParseItems(t *testing.T) {
	tests := []struct {
		name    string
		specs   []string
		want    []internal.TransactionItem
		wantErr bool
	}{
		{"with quantities", []string{"31:2", "40:1"}, []internal.TransactionItem{{SellableID: "31", Quantity: 2}, {SellableID: "40", Quantity: 1}}, false},
		{"bare id", []string{"31"}, []internal.TransactionItem{{SellableID: "31", Quantity: 1}}, false},
		{"bad quantity", []string{"31:two"}, nil, true},
		{"missing id", []string{":3"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseItems(tt.specs)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseItems() error = %v, wantErr %v", err, tt.wantErr)
			}
			var vErr *internal.ValidationError
			if err != nil && !errors.As(err, &vErr) {
				t.Errorf("error type = %T", err)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseItems() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"a longer name here", 10, "a longe..."},
		{"ñañañañañaña", 6, "ñañ..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestStars(t *testing.T) {
	if got := stars(3); got != "★★★☆☆" {
		t.Errorf("stars(3) = %q", got)
	}
	if got := stars(9); got != "★★★★★" {
		t.Errorf("stars(9) = %q", got)
	}
}

func TestProductFromFlags(t *testing.T) {
	defer func() { productID, productName, productPrice = "", "", 0 }()

	productID, productName, productPrice = "", "", 0
	if p, err := productFromFlags(); p != nil || err != nil {
		t.Errorf("no flags = %+v, %v", p, err)
	}

	productID, productName, productPrice = "31", "Puto", 45
	p, err := productFromFlags()
	if err != nil || p == nil || p.SellableID != "31" || p.Price != 45 {
		t.Errorf("product = %+v, %v", p, err)
	}

	productPrice = -1
	if _, err := productFromFlags(); err == nil {
		t.Error("negative price should be rejected")
	}
}
