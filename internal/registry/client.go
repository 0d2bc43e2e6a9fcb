// Package registry implements a Zenodo deposition client used to reserve
// a DOI for each release and attach the integrity metadata files.
//
// The client is best-effort by design: the git store is the load-bearing
// half of a release, so any network or API failure degrades the registry
// outcome to "pending" instead of failing the publish.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultBaseURL is the Zenodo production API base
	DefaultBaseURL = "https://zenodo.org/api"
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 2 * time.Minute
	// DefaultUserAgent is the User-Agent header sent with requests
	DefaultUserAgent = "uha-release/1.0"
)

// Outcome classifies how far a deposition got.
type Outcome string

const (
	// OutcomeNotConfigured means no registry token was available.
	OutcomeNotConfigured Outcome = "not_configured"
	// OutcomePending means the deposition was attempted but did not
	// yield a DOI; the release proceeds without one.
	OutcomePending Outcome = "pending"
	// OutcomeReserved means a deposition exists with a prereserved DOI.
	OutcomeReserved Outcome = "reserved"
)

// Metadata describes the deposition sent to the registry.
type Metadata struct {
	Title       string
	Description string
	Creators    []Creator
}

// Creator is a deposition author entry.
type Creator struct {
	Name        string `json:"name"`
	Affiliation string `json:"affiliation,omitempty"`
}

// Result reports the deposition state after a publish attempt.
type Result struct {
	Outcome      Outcome
	DOI          string
	DepositionID int
	Detail       string
}

// Client talks to a Zenodo-compatible deposition API.
type Client struct {
	baseURL   string
	token     string
	client    *http.Client
	userAgent string
}

// NewClient creates a registry client. An empty baseURL selects the
// production Zenodo API.
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		client: &http.Client{
			Timeout: DefaultTimeout,
		},
		userAgent: DefaultUserAgent,
	}
}

// Configured reports whether a registry token is available.
func (c *Client) Configured() bool {
	return c.token != ""
}

// deposition mirrors the fields of the Zenodo deposition response we use.
type deposition struct {
	ID       int `json:"id"`
	Metadata struct {
		PrereserveDOI struct {
			DOI string `json:"doi"`
		} `json:"prereserve_doi"`
	} `json:"metadata"`
	Links struct {
		Bucket string `json:"bucket"`
	} `json:"links"`
}

// Deposit creates a deposition, uploads the given files to its bucket,
// and returns the prereserved DOI. The deposition is left in draft
// state: finalizing it on the registry side is a manual step.
func (c *Client) Deposit(ctx context.Context, meta Metadata, files ...string) Result {
	if !c.Configured() {
		return Result{Outcome: OutcomeNotConfigured}
	}

	dep, err := c.createDeposition(ctx, meta)
	if err != nil {
		return Result{Outcome: OutcomePending, Detail: err.Error()}
	}

	for _, file := range files {
		if err := c.uploadFile(ctx, dep.Links.Bucket, file); err != nil {
			return Result{
				Outcome:      OutcomePending,
				DepositionID: dep.ID,
				Detail:       err.Error(),
			}
		}
	}

	doi := dep.Metadata.PrereserveDOI.DOI
	if doi == "" {
		return Result{
			Outcome:      OutcomePending,
			DepositionID: dep.ID,
			Detail:       "deposition created but no DOI prereserved",
		}
	}

	return Result{
		Outcome:      OutcomeReserved,
		DOI:          doi,
		DepositionID: dep.ID,
	}
}

// createDeposition POSTs a new draft deposition with the given metadata.
func (c *Client) createDeposition(ctx context.Context, meta Metadata) (*deposition, error) {
	payload := map[string]interface{}{
		"metadata": map[string]interface{}{
			"title":       meta.Title,
			"upload_type": "software",
			"description": meta.Description,
			"creators":    meta.Creators,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode deposition metadata: %w", err)
	}

	url := c.baseURL + "/deposit/depositions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setCommonHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("create deposition: unexpected status code: %d", resp.StatusCode)
	}

	var dep deposition
	if err := json.NewDecoder(resp.Body).Decode(&dep); err != nil {
		return nil, fmt.Errorf("decode deposition response: %w", err)
	}
	if dep.Links.Bucket == "" {
		return nil, fmt.Errorf("deposition response missing bucket link")
	}

	return &dep, nil
}

// uploadFile PUTs a local file into the deposition's bucket under its
// base name.
func (c *Client) uploadFile(ctx context.Context, bucket, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	url := bucket + "/" + filepath.Base(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, f)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", "application/octet-stream")
	c.setCommonHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("upload %s: %w", filepath.Base(path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upload %s: unexpected status code: %d", filepath.Base(path), resp.StatusCode)
	}
	io.Copy(io.Discard, resp.Body)

	return nil
}

// Publish finalizes a draft deposition on the registry side, making the
// DOI resolvable. The release pipeline never calls this: finalization is
// irreversible on Zenodo, so it stays a manual operator action.
func (c *Client) Publish(ctx context.Context, depositionID int) error {
	url := fmt.Sprintf("%s/deposit/depositions/%d/actions/publish", c.baseURL, depositionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setCommonHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("publish deposition %d: unexpected status code: %d", depositionID, resp.StatusCode)
	}
	return nil
}

func (c *Client) setCommonHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Authorization", "Bearer "+c.token)
}
