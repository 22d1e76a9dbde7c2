package main

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

//go:embed templates
var templatesFS embed.FS

const (
	defaultPort = "3000"
	defaultAPI  = "http://localhost:8000"
	envWebPort  = "IPO_WEB_PORT"
	envAPIURL   = "IPO_API_URL"
)

var apiClient = &http.Client{Timeout: 15 * time.Second}

type schedule struct {
	CompanyName string  `json:"company_name"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	ListingDate *string `json:"listing_date"`
}

type runStatus struct {
	Runs            int        `json:"runs"`
	SnapshotRecords int        `json:"snapshot_records"`
	NextRun         *time.Time `json:"next_run"`
	LastRun         *struct {
		FinishedAt time.Time `json:"finished_at"`
		Records    int       `json:"records"`
		Stage      string    `json:"stage"`
		Error      string    `json:"error"`
	} `json:"last_run"`
}

func main() {
	_ = godotenv.Load()
	port := getEnv(envWebPort, defaultPort)
	apiBase := strings.TrimRight(getEnv(envAPIURL, defaultAPI), "/")

	slog.Info("web UI running", "url", "http://localhost:"+port, "api", apiBase)
	if err := http.ListenAndServe(":"+port, newRouter(apiBase)); err != nil {
		slog.Error("web UI exited", "error", err)
		os.Exit(1)
	}
}

func newRouter(apiBase string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/", schedulesPage(apiBase))
	return r
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// apiGet performs a GET against the API and returns the body and status.
func apiGet(apiBase, path string) ([]byte, int, error) {
	resp, err := apiClient.Get(apiBase + path)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return data, resp.StatusCode, nil
}

func schedulesPage(apiBase string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		company := r.URL.Query().Get("company")
		data := map[string]interface{}{"Company": company}

		path := "/schedules"
		if company != "" {
			path += "?company=" + url.QueryEscape(company)
		}
		body, status, err := apiGet(apiBase, path)
		switch {
		case err != nil:
			data["Error"] = err.Error()
		case status != http.StatusOK:
			data["Error"] = fmt.Sprintf("API error (%d): %s", status, strings.TrimSpace(string(body)))
		default:
			var items []schedule
			if err := json.Unmarshal(body, &items); err != nil {
				data["Error"] = "Invalid schedules response"
			} else {
				data["Schedules"] = items
			}
		}

		// Status is informational; the page renders without it.
		if body, status, err := apiGet(apiBase, "/status"); err == nil && status == http.StatusOK {
			var st runStatus
			if json.Unmarshal(body, &st) == nil {
				data["Status"] = st
			}
		}

		renderTemplate(w, "schedules.html", data)
	}
}

func renderTemplate(w http.ResponseWriter, name string, data interface{}) {
	funcs := template.FuncMap{
		"formatTime": func(t time.Time) string { return t.Local().Format("2006-01-02 15:04") },
	}
	layout, err := templatesFS.ReadFile("templates/layout.html")
	if err != nil {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}
	content, err := templatesFS.ReadFile("templates/" + name)
	if err != nil {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	t := template.Must(template.New("").Funcs(funcs).Parse(string(layout)))
	t = template.Must(t.New("").Parse(string(content)))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("template execute", "template", name, "error", err)
	}
}
