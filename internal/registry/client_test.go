package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// newDepositionServer fakes the deposition API: POST creates a draft
// with a prereserved DOI, PUT accepts bucket uploads.
func newDepositionServer(t *testing.T, doi string) (*httptest.Server, *[]string) {
	t.Helper()

	var uploads []string
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/deposit/depositions":
			if got := r.Header.Get("Authorization"); !strings.HasPrefix(got, "Bearer ") {
				t.Errorf("Authorization header = %q, want Bearer token", got)
			}
			var payload map[string]interface{}
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Errorf("decode payload: %v", err)
			}
			w.WriteHeader(http.StatusCreated)
			fmt.Fprintf(w, `{
				"id": 4242,
				"metadata": {"prereserve_doi": {"doi": %q}},
				"links": {"bucket": %q}
			}`, doi, srv.URL+"/files/bucket-1")

		case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/files/bucket-1/"):
			body, _ := io.ReadAll(r.Body)
			if len(body) == 0 {
				t.Errorf("PUT %s: empty body", r.URL.Path)
			}
			uploads = append(uploads, filepath.Base(r.URL.Path))
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{}`)

		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	return srv, &uploads
}

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDeposit_ReservesDOI(t *testing.T) {
	srv, uploads := newDepositionServer(t, "10.5281/zenodo.4242")
	defer srv.Close()

	dir := t.TempDir()
	manifest := writeTestFile(t, dir, "uha-manifest-1.0.0.json", `{"version":"1.0.0"}`)
	checksums := writeTestFile(t, dir, "uha-checksums-1.0.0.sha256", "sha256:abc  a.whl\n")

	client := NewClient(srv.URL, "test-token")
	result := client.Deposit(context.Background(), Metadata{
		Title:       "UHA Official 1.0.0",
		Description: "Integrity metadata",
		Creators:    []Creator{{Name: "All Your Baseline LLC"}},
	}, manifest, checksums)

	if result.Outcome != OutcomeReserved {
		t.Fatalf("Outcome = %q (detail %q), want %q", result.Outcome, result.Detail, OutcomeReserved)
	}
	if result.DOI != "10.5281/zenodo.4242" {
		t.Errorf("DOI = %q, want 10.5281/zenodo.4242", result.DOI)
	}
	if result.DepositionID != 4242 {
		t.Errorf("DepositionID = %d, want 4242", result.DepositionID)
	}
	if len(*uploads) != 2 {
		t.Fatalf("uploads = %v, want 2 files", *uploads)
	}
	if (*uploads)[0] != "uha-manifest-1.0.0.json" || (*uploads)[1] != "uha-checksums-1.0.0.sha256" {
		t.Errorf("uploads = %v, want manifest then checksums", *uploads)
	}
}

func TestDeposit_NoToken(t *testing.T) {
	client := NewClient("http://unused.invalid", "")
	result := client.Deposit(context.Background(), Metadata{Title: "x"})

	if result.Outcome != OutcomeNotConfigured {
		t.Errorf("Outcome = %q, want %q", result.Outcome, OutcomeNotConfigured)
	}
	if client.Configured() {
		t.Error("Configured() = true with empty token")
	}
}

func TestDeposit_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-token")
	result := client.Deposit(context.Background(), Metadata{Title: "x"})

	if result.Outcome != OutcomePending {
		t.Errorf("Outcome = %q, want %q", result.Outcome, OutcomePending)
	}
	if result.Detail == "" {
		t.Error("Detail is empty, want error description")
	}
}

func TestDeposit_MissingDOI(t *testing.T) {
	srv, _ := newDepositionServer(t, "")
	defer srv.Close()

	client := NewClient(srv.URL, "test-token")
	result := client.Deposit(context.Background(), Metadata{Title: "x"})

	if result.Outcome != OutcomePending {
		t.Errorf("Outcome = %q, want %q", result.Outcome, OutcomePending)
	}
	if result.DepositionID != 4242 {
		t.Errorf("DepositionID = %d, want 4242 even when pending", result.DepositionID)
	}
}

func TestDeposit_UploadFailure(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
			fmt.Fprintf(w, `{"id": 1, "metadata": {"prereserve_doi": {"doi": "10.1/x"}}, "links": {"bucket": %q}}`,
				srv.URL+"/files/b")
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	file := writeTestFile(t, t.TempDir(), "m.json", "{}")

	client := NewClient(srv.URL, "test-token")
	result := client.Deposit(context.Background(), Metadata{Title: "x"}, file)

	if result.Outcome != OutcomePending {
		t.Errorf("Outcome = %q, want %q", result.Outcome, OutcomePending)
	}
}

func TestPublish(t *testing.T) {
	var published bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/deposit/depositions/7/actions/publish" {
			published = true
			w.WriteHeader(http.StatusAccepted)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-token")
	if err := client.Publish(context.Background(), 7); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if !published {
		t.Error("publish action was not invoked")
	}
}

func TestNewClient_DefaultBaseURL(t *testing.T) {
	client := NewClient("", "tok")
	if client.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q, want %q", client.baseURL, DefaultBaseURL)
	}
}
