package enums

import "testing"

func TestParseRole(t *testing.T) {
	for _, raw := range []string{"client", "manager", "admin"} {
		role, err := ParseRole(raw)
		if err != nil {
			t.Fatalf("ParseRole(%q) returned error: %v", raw, err)
		}
		if !role.IsValid() {
			t.Fatalf("expected %q to be valid", raw)
		}
	}
	if _, err := ParseRole("owner"); err == nil {
		t.Fatalf("expected unknown role to fail")
	}
}

func TestParseCategoryType(t *testing.T) {
	if _, err := ParseCategoryType("perceptual"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseCategoryType("suggested"); err == nil {
		t.Fatalf("expected suggested to be rejected")
	}
}

func TestParseReportStatus(t *testing.T) {
	status, err := ParseReportStatus("dismissed")
	if err != nil || status != ReportStatusDismissed {
		t.Fatalf("expected dismissed, got %q (%v)", status, err)
	}
	if ReportStatus("archived").IsValid() {
		t.Fatalf("archived should be invalid")
	}
}
