package domain

import "testing"

func TestParseOrderStatus(t *testing.T) {
	valid := []string{"pending", "processing", "shipped", "delivered", "cancelled"}
	for _, s := range valid {
		status, ok := ParseOrderStatus(s)
		if !ok {
			t.Errorf("expected %q to parse", s)
		}
		if string(status) != s {
			t.Errorf("expected %q, got %q", s, status)
		}
	}

	invalid := []string{"", "PENDING", "returned", "confirmed", "shipped "}
	for _, s := range invalid {
		if _, ok := ParseOrderStatus(s); ok {
			t.Errorf("expected %q to be rejected", s)
		}
	}
}

func TestParseRole(t *testing.T) {
	if _, ok := ParseRole("user"); !ok {
		t.Error("expected user role to parse")
	}
	if _, ok := ParseRole("admin"); !ok {
		t.Error("expected admin role to parse")
	}
	if _, ok := ParseRole("superuser"); ok {
		t.Error("expected unknown role to be rejected")
	}
	if _, ok := ParseRole(""); ok {
		t.Error("expected empty role to be rejected")
	}
}
