// Package transport is the dispatch transport between BatchScheduler
// and an executor: an HTTP client the scheduler uses to hand off task
// groups and poll their status, and the HTTP handlers an executor agent
// serves (see cmd/executoragent). This transport is owned by the repo,
// not by the scheduling policy core.
package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/haesookim/incubator-nemo/internal/executor"
	"github.com/haesookim/incubator-nemo/internal/taskgroup"
)

// Client is the BatchScheduler-side view of an executor's HTTP API.
type Client interface {
	Dispatch(address string, stg taskgroup.ScheduledTaskGroup) error
	Stop(address string, id taskgroup.Id) error
	ListStatuses(address string) ([]taskgroup.Status, error)
	GetStats(address string) (*executor.Stats, error)
}

// HTTPClient is the real Client, used by cmd/scheduler.
type HTTPClient struct {
	httpClient *http.Client
}

func NewHTTPClient() *HTTPClient {
	return &HTTPClient{httpClient: &http.Client{}}
}

func (c *HTTPClient) Dispatch(address string, stg taskgroup.ScheduledTaskGroup) error {
	body, err := json.Marshal(stg)
	if err != nil {
		return fmt.Errorf("marshalling task group %s: %w", stg.TaskGroup.TaskGroupId, err)
	}

	url := fmt.Sprintf("http://%s/taskgroups", address)
	resp, err := c.httpClient.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("dispatching to %s: %w", address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("dispatch to %s: unexpected status %d", address, resp.StatusCode)
	}

	return nil
}

func (c *HTTPClient) Stop(address string, id taskgroup.Id) error {
	url := fmt.Sprintf("http://%s/taskgroups/%s", address, id)
	req, err := http.NewRequest(http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("building stop request for %s: %w", id, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("stopping %s on %s: %w", id, address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("stop %s on %s: unexpected status %d", id, address, resp.StatusCode)
	}

	return nil
}

func (c *HTTPClient) ListStatuses(address string) ([]taskgroup.Status, error) {
	url := fmt.Sprintf("http://%s/taskgroups", address)
	resp, err := c.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("listing task groups on %s: %w", address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("listing task groups: unexpected status " + resp.Status)
	}

	var statuses []taskgroup.Status
	if err := json.NewDecoder(resp.Body).Decode(&statuses); err != nil {
		return nil, fmt.Errorf("decoding task group statuses from %s: %w", address, err)
	}

	return statuses, nil
}

// GetStats polls an executor's self-reported resource snapshot, the
// counterpart of the teacher's Node.GetStats.
func (c *HTTPClient) GetStats(address string) (*executor.Stats, error) {
	url := fmt.Sprintf("http://%s/stats", address)
	resp, err := c.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetching stats from %s: %w", address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("fetching stats: unexpected status " + resp.Status)
	}

	var stats executor.Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, fmt.Errorf("decoding stats from %s: %w", address, err)
	}

	return &stats, nil
}
