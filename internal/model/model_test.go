package model

import "testing"

func TestParseListingStatus(t *testing.T) {
	for _, s := range []string{"AVAILABLE", "SOLD", "REMOVED"} {
		st, err := ParseListingStatus(s)
		if err != nil {
			t.Fatalf("ParseListingStatus(%q): %v", s, err)
		}
		if string(st) != s {
			t.Fatalf("ParseListingStatus(%q) = %s", s, st)
		}
	}

	for _, s := range []string{"", "available", "DELETED"} {
		if _, err := ParseListingStatus(s); err == nil {
			t.Fatalf("ParseListingStatus(%q) must fail", s)
		}
	}
}

func TestParseOrderStatus(t *testing.T) {
	for _, s := range []string{"PENDING", "COMPLETED", "CANCELLED"} {
		st, err := ParseOrderStatus(s)
		if err != nil {
			t.Fatalf("ParseOrderStatus(%q): %v", s, err)
		}
		if string(st) != s {
			t.Fatalf("ParseOrderStatus(%q) = %s", s, st)
		}
	}

	for _, s := range []string{"", "pending", "DONE"} {
		if _, err := ParseOrderStatus(s); err == nil {
			t.Fatalf("ParseOrderStatus(%q) must fail", s)
		}
	}
}
