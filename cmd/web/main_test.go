package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSchedulesPage(t *testing.T) {
	var gotCompany string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/schedules":
			gotCompany = r.URL.Query().Get("company")
			_, _ = w.Write([]byte(`[{"company_name":"Foo <b>","start_date":"2024-03-04","end_date":"2024-03-05","listing_date":null}]`))
		case "/status":
			_, _ = w.Write([]byte(`{"runs":1,"snapshot_records":1}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer api.Close()

	web := httptest.NewServer(newRouter(api.URL))
	defer web.Close()

	resp, err := http.Get(web.URL + "/?company=Fo")
	if err != nil {
		t.Fatalf("page request: %v", err)
	}
	defer resp.Body.Close()
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, resp.Body); err != nil {
		t.Fatalf("read page: %v", err)
	}
	page := buf.String()

	if gotCompany != "Fo" {
		t.Errorf("company forwarded: got %q", gotCompany)
	}
	for _, want := range []string{"Foo &lt;b&gt;", "2024-03-04 ~ 2024-03-05", `value="Fo"`, "Runs: 1"} {
		if !strings.Contains(page, want) {
			t.Errorf("expected %q in page:\n%s", want, page)
		}
	}
}

func TestSchedulesPage_APIDown(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
	}))
	defer api.Close()

	web := httptest.NewServer(newRouter(api.URL))
	defer web.Close()

	resp, err := http.Get(web.URL + "/")
	if err != nil {
		t.Fatalf("page request: %v", err)
	}
	defer resp.Body.Close()
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, resp.Body); err != nil {
		t.Fatalf("read page: %v", err)
	}
	if !strings.Contains(buf.String(), "API error (500)") {
		t.Errorf("expected API error in page, got:\n%s", buf.String())
	}
}
