// Package bridge talks to the IBM Quantum cloud: IAM token exchange, Qiskit
// Runtime instance discovery, backend listing and sampler job submission.
// The flow is best-effort from the app's point of view; failures surface as
// wrapped errors for the caller to log, never retried beyond result polling.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/swiftquantum/qubitlab/internal/config"
)

// Resource ID of the Qiskit Runtime service in the IBM resource controller.
const qiskitRuntimeResourceID = "b6049020-80f4-11eb-a0f7-e35ec9b4054f"

const apiVersion = "2025-05-01"

// tokenSlack renews the IAM token this long before its reported expiry.
const tokenSlack = 60 * time.Second

// Client is an authenticated IBM Quantum API client.
type Client struct {
	cfg  config.BridgeConfig
	http *http.Client
	log  *zap.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(cfg config.BridgeConfig, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
		log:  log,
	}
}

// Backend describes one QPU visible to the account.
type Backend struct {
	Name        string `json:"name"`
	Qubits      int    `json:"qubits"`
	Operational bool   `json:"operational"`
	PendingJobs int    `json:"pendingJobs"`
}

// Job is the submission/status record for a runtime job.
type Job struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Backend      string `json:"backend"`
	ErrorMessage string `json:"error_message"`
}

// Terminal reports whether the job has finished, successfully or not.
func (j *Job) Terminal() bool {
	switch strings.ToUpper(j.Status) {
	case "COMPLETED", "FAILED", "CANCELLED":
		return true
	}
	return false
}

// Token exchanges the configured API key for an IAM bearer token, reusing a
// cached token until shortly before expiry.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExpiry.Add(-tokenSlack)) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "urn:ibm:params:oauth:grant-type:apikey")
	form.Set("apikey", c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.IAMTokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("iam token request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("iam token request returned status %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode iam token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("iam token response contained no access token")
	}

	c.token = payload.AccessToken
	if payload.ExpiresIn <= 0 {
		payload.ExpiresIn = 3600
	}
	c.tokenExpiry = time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	c.log.Debug("IAM token refreshed", zap.Time("expiry", c.tokenExpiry))
	return c.token, nil
}

// InstanceCRN finds the account's first Qiskit Runtime instance.
func (c *Client) InstanceCRN(ctx context.Context) (string, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s?resource_id=%s", c.cfg.ResourceControllerURL, qiskitRuntimeResourceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("resource controller request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("resource controller returned status %d", resp.StatusCode)
	}

	var payload struct {
		Resources []struct {
			CRN      string `json:"crn"`
			Name     string `json:"name"`
			RegionID string `json:"region_id"`
		} `json:"resources"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode resource list: %w", err)
	}
	if len(payload.Resources) == 0 {
		return "", fmt.Errorf("no Qiskit Runtime instances found for this account")
	}

	instance := payload.Resources[0]
	c.log.Info("Resolved Qiskit Runtime instance",
		zap.String("name", instance.Name),
		zap.String("region", instance.RegionID),
	)
	return instance.CRN, nil
}

// Backends lists the QPUs visible through a service instance.
func (c *Client) Backends(ctx context.Context, crn string) ([]Backend, error) {
	var payload struct {
		Devices []struct {
			Name   string `json:"name"`
			Qubits int    `json:"n_qubits"`
			Status struct {
				Operational bool `json:"operational"`
				PendingJobs int  `json:"pending_jobs"`
			} `json:"status"`
		} `json:"devices"`
	}
	if err := c.quantumGet(ctx, crn, "/backends", &payload); err != nil {
		return nil, err
	}

	backends := make([]Backend, 0, len(payload.Devices))
	for _, d := range payload.Devices {
		backends = append(backends, Backend{
			Name:        d.Name,
			Qubits:      d.Qubits,
			Operational: d.Status.Operational,
			PendingJobs: d.Status.PendingJobs,
		})
	}
	return backends, nil
}

// SubmitJob posts a sampler job with the given OpenQASM program.
func (c *Client) SubmitJob(ctx context.Context, crn, backend, qasm string, shots int) (*Job, error) {
	if shots <= 0 {
		shots = 1024
	}
	body := map[string]interface{}{
		"program_id": "sampler",
		"backend":    backend,
		"params": map[string]interface{}{
			"version": 2,
			"pubs":    [][]string{{qasm}},
			"options": map[string]interface{}{
				"default_shots": shots,
			},
		},
	}

	var job Job
	if err := c.quantumPost(ctx, crn, "/jobs", body, &job); err != nil {
		return nil, err
	}
	c.log.Info("Runtime job submitted",
		zap.String("jobID", job.ID),
		zap.String("backend", backend),
		zap.Int("shots", shots),
	)
	return &job, nil
}

// JobStatus fetches the current state of a job.
func (c *Client) JobStatus(ctx context.Context, crn, jobID string) (*Job, error) {
	var job Job
	if err := c.quantumGet(ctx, crn, "/jobs/"+jobID, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// WaitForJob polls until the job reaches a terminal state or ctx expires.
func (c *Client) WaitForJob(ctx context.Context, crn, jobID string, pollInterval time.Duration) (*Job, error) {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		job, err := c.JobStatus(ctx, crn, jobID)
		if err != nil {
			c.log.Warn("Job status poll failed", zap.Error(err), zap.String("jobID", jobID))
		} else if job.Terminal() {
			return job, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("gave up waiting for job %s: %w", jobID, ctx.Err())
		case <-ticker.C:
		}
	}
}

// JobResults fetches raw results for a completed job.
func (c *Client) JobResults(ctx context.Context, crn, jobID string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.quantumGet(ctx, crn, "/jobs/"+jobID+"/results", &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) quantumGet(ctx context.Context, crn, path string, out interface{}) error {
	return c.quantumDo(ctx, http.MethodGet, crn, path, nil, out)
}

func (c *Client) quantumPost(ctx context.Context, crn, path string, body, out interface{}) error {
	return c.quantumDo(ctx, http.MethodPost, crn, path, body, out)
}

func (c *Client) quantumDo(ctx context.Context, method, crn, path string, body, out interface{}) error {
	token, err := c.Token(ctx)
	if err != nil {
		return err
	}

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.QuantumAPIURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Service-CRN", crn)
	req.Header.Set("IBM-API-Version", apiVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("quantum api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Code    interface{} `json:"code"`
			Message string      `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Message != "" {
			return fmt.Errorf("quantum api %s %s: status %d: %s", method, path, resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("quantum api %s %s: status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
