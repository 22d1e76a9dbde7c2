package schedules

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func runCmd(t *testing.T, srvURL string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("IPO_API_URL", srvURL)

	var cmd = listSchedulesCmd()
	if len(args) > 0 && args[0] == "status" {
		cmd = statusCmd()
		args = args[1:]
	}
	if args == nil {
		args = []string{}
	}
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestListSchedules_TableOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/schedules" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[
			{"company_name":"Foo","start_date":"2024-03-04","end_date":"2024-03-05","listing_date":"2024-03-15"},
			{"company_name":"Bar","start_date":"2024-04-01","end_date":"2024-04-02","listing_date":null}
		]`))
	}))
	defer srv.Close()

	out, err := runCmd(t, srv.URL)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	for _, want := range []string{"Foo", "Bar", "2024-03-15", "LISTING"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got: %s", want, out)
		}
	}
}

func TestListSchedules_CompanyAndJSON(t *testing.T) {
	var gotCompany string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCompany = r.URL.Query().Get("company")
		_, _ = w.Write([]byte(`[{"company_name":"Foo","start_date":"2024-03-04","end_date":"2024-03-05","listing_date":null}]`))
	}))
	defer srv.Close()

	out, err := runCmd(t, srv.URL, "--company", "Fo", "--json")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if gotCompany != "Fo" {
		t.Errorf("company param: got %q, want Fo", gotCompany)
	}
	var decoded []Schedule
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(decoded) != 1 || decoded[0].ListingDate != nil || decoded[0].StartDate.String() != "2024-03-04" {
		t.Errorf("unexpected decoded output: %+v", decoded)
	}
}

func TestListSchedules_MalformedDate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"company_name":"Foo","start_date":"2024.03.04","end_date":"2024-03-05","listing_date":null}]`))
	}))
	defer srv.Close()

	if _, err := runCmd(t, srv.URL); err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestListSchedules_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	out, err := runCmd(t, srv.URL)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "No schedules found.") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestListSchedules_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
	}))
	defer srv.Close()

	_, err := runCmd(t, srv.URL)
	if err == nil || !strings.Contains(err.Error(), "internal server error") {
		t.Fatalf("expected API error, got %v", err)
	}
}

func TestStatus_Output(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"runs":2,"snapshot_records":5,"last_run":{"started_at":"2024-03-04T09:00:00Z","finished_at":"2024-03-04T09:00:01Z","records":0,"stage":"fetch","error":"fetch: timeout"}}`))
	}))
	defer srv.Close()

	out, err := runCmd(t, srv.URL, "status")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	for _, want := range []string{"snapshot records", "5", "failed at fetch"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got: %s", want, out)
		}
	}
}
