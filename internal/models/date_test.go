package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate_DottedLayout(t *testing.T) {
	d, err := ParseDate("2006.01.02", "2024.01.10")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d != (Date{Year: 2024, Month: time.January, Day: 10}) {
		t.Errorf("unexpected date: %+v", d)
	}
	if d.String() != "2024-01-10" {
		t.Errorf("String: got %q", d.String())
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, s := range []string{"", "bad", "2024.13.01", "2024-01-10"} {
		if _, err := ParseDate("2006.01.02", s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}

func TestDate_JSON(t *testing.T) {
	rec := IPOSchedule{
		CompanyName: "Foo Inc",
		StartDate:   Date{2024, time.January, 10},
		EndDate:     Date{2024, time.January, 12},
	}
	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out["start_date"] != "2024-01-10" || out["end_date"] != "2024-01-12" {
		t.Errorf("unexpected dates: %v", out)
	}
	if v, ok := out["listing_date"]; !ok || v != nil {
		t.Errorf("listing_date should be null, got %v (present=%v)", v, ok)
	}
}

func TestDate_Scan(t *testing.T) {
	want := Date{2024, time.February, 1}
	cases := []interface{}{
		"2024-02-01",
		[]byte("2024-02-01"),
		"2024-02-01T00:00:00Z",
		time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, src := range cases {
		var d Date
		if err := d.Scan(src); err != nil {
			t.Errorf("Scan(%v): %v", src, err)
			continue
		}
		if d != want {
			t.Errorf("Scan(%v): got %+v", src, d)
		}
	}
}

func TestNullDate_Scan(t *testing.T) {
	var n NullDate
	if err := n.Scan(nil); err != nil {
		t.Fatalf("Scan(nil): %v", err)
	}
	if n.Valid || n.Ptr() != nil {
		t.Errorf("expected invalid NullDate, got %+v", n)
	}
	if err := n.Scan("2024-01-20"); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if p := n.Ptr(); p == nil || p.String() != "2024-01-20" {
		t.Errorf("unexpected Ptr: %v", p)
	}
}
