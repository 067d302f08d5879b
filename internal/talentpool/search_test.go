package talentpool

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/talent-sourcer/internal/criteria"
)

func TestBuildParams(t *testing.T) {
	params := &SearchParams{
		Keywords:      "backend engineer",
		Skills:        []string{"go", "postgres"},
		Location:      "Berlin",
		Remote:        true,
		MinExperience: 4,
		PerPage:       "100",
		MaxResults:    20,
	}

	q := buildParams(params)

	if got := q.Get("keywords"); got != "backend engineer" {
		t.Fatalf("unexpected keywords: %q", got)
	}
	if got := q["skill"]; len(got) != 2 || got[0] != "go" || got[1] != "postgres" {
		t.Fatalf("unexpected skill params: %v", got)
	}
	if got := q.Get("remote"); got != "true" {
		t.Fatalf("unexpected remote: %q", got)
	}
	if got := q.Get("experience_min"); got != "4" {
		t.Fatalf("unexpected experience_min: %q", got)
	}
	if got := q.Get("max_results"); got != "20" {
		t.Fatalf("unexpected max_results: %q", got)
	}
}

func TestBuildParamsSkipsZeroValues(t *testing.T) {
	q := buildParams(&SearchParams{Keywords: "dev"})

	if _, ok := q["experience_min"]; ok {
		t.Fatalf("did not expect experience_min for zero value")
	}
	if _, ok := q["remote"]; ok {
		t.Fatalf("did not expect remote for false value")
	}
	if _, ok := q["location"]; ok {
		t.Fatalf("did not expect empty location")
	}
}

func TestSearchDecodesPagedItems(t *testing.T) {
	pages := [][]map[string]any{
		{
			{"id": "p1", "name": "Jane Doe", "profile_url": "https://pool.example.com/in/jane", "skills": []string{"go"}},
			{"id": "p2", "name": "John Roe", "email": "john@example.com"},
		},
		{
			{"id": "p3", "name": "Ada L", "years_experience": 7.5},
		},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-token" {
			t.Errorf("unexpected authorization header: %q", auth)
		}

		page := 0
		if p := r.URL.Query().Get("page"); p != "" {
			page = 1
		}

		w.Header().Set("Content-Type", contentType)
		json.NewEncoder(w).Encode(map[string]any{
			"items":    pages[page],
			"found":    3,
			"pages":    2,
			"page":     page,
			"per_page": 2,
		})
	}))
	defer server.Close()

	client := New(zap.NewNop(), "test-token")
	client.APIURL = server.URL

	result, err := client.Search(context.Background(), criteria.Criteria{Keywords: "engineer"}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Candidates) != 3 {
		t.Fatalf("expected 3 candidates across pages, got %d", len(result.Candidates))
	}
	if result.TotalFound != 3 {
		t.Fatalf("expected total found 3, got %d", result.TotalFound)
	}
	if result.Candidates[0].ProfileURL != "https://pool.example.com/in/jane" {
		t.Fatalf("unexpected profile url: %q", result.Candidates[0].ProfileURL)
	}
	if result.Candidates[2].YearsExperience == nil || *result.Candidates[2].YearsExperience != 7.5 {
		t.Fatalf("expected years_experience decoded")
	}
}

func TestSearchGzipResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		defer gz.Close()
		json.NewEncoder(gz).Encode(map[string]any{
			"items": []map[string]any{{"id": "p1", "name": "Jane"}},
			"found": 1,
			"pages": 1,
			"page":  0,
		})
	}))
	defer server.Close()

	client := New(zap.NewNop(), "test-token")
	client.APIURL = server.URL

	result, err := client.Search(context.Background(), criteria.Criteria{}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Candidates) != 1 || result.Candidates[0].Name != "Jane" {
		t.Fatalf("unexpected result: %+v", result.Candidates)
	}
}

func TestEnrichDecodesProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/profiles/p1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "p1",
			"summary": "Senior backend engineer",
			"email":   "jane@example.com",
			"skills":  []map[string]any{{"name": "Go"}, {"name": "Postgres"}},
		})
	}))
	defer server.Close()

	client := New(zap.NewNop(), "test-token")
	client.APIURL = server.URL

	data, err := client.Enrich(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.Summary != "Senior backend engineer" {
		t.Fatalf("unexpected summary: %q", data.Summary)
	}
	if len(data.Skills) != 2 || data.Skills[0] != "Go" {
		t.Fatalf("unexpected skills: %v", data.Skills)
	}
}

func TestEnrichRequiresRef(t *testing.T) {
	client := New(zap.NewNop(), "test-token")
	if _, err := client.Enrich(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for empty profile ref")
	}
}
