// Package client is a thin HTTP client for the missiond API, used by the
// CLI commands.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/opsdeck/missiond/internal/journal"
	"github.com/opsdeck/missiond/internal/loadout"
	"github.com/opsdeck/missiond/internal/mission"
	"github.com/opsdeck/missiond/internal/missionctx"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// apiError is the JSON error body the server produces.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (c *Client) CreateMission(ctx context.Context, spec *mission.CreateSpec) (*mission.Mission, error) {
	var m mission.Mission
	if err := c.doJSON(ctx, http.MethodPost, "/api/missions", spec, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) ListMissions(ctx context.Context, archived bool) ([]*mission.Mission, error) {
	path := "/api/missions"
	if archived {
		path += "?archived=true"
	}
	var missions []*mission.Mission
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &missions); err != nil {
		return nil, err
	}
	return missions, nil
}

func (c *Client) GetMission(ctx context.Context, id string) (*mission.Mission, error) {
	var m mission.Mission
	if err := c.doJSON(ctx, http.MethodGet, "/api/missions/"+url.PathEscape(id), nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) GetContext(ctx context.Context, id string) (*missionctx.MissionContext, error) {
	var mc missionctx.MissionContext
	if err := c.doJSON(ctx, http.MethodGet, "/api/missions/"+url.PathEscape(id)+"/context", nil, &mc); err != nil {
		return nil, err
	}
	return &mc, nil
}

func (c *Client) UpdateContext(ctx context.Context, id string, patch *missionctx.Patch) (*missionctx.MissionContext, error) {
	var mc missionctx.MissionContext
	if err := c.doJSON(ctx, http.MethodPost, "/api/missions/"+url.PathEscape(id)+"/context", patch, &mc); err != nil {
		return nil, err
	}
	return &mc, nil
}

func (c *Client) UpdateStatus(ctx context.Context, id string, status mission.Status, stage mission.Stage, patch *missionctx.Patch, actor string) (*mission.Mission, error) {
	body := map[string]any{"status": status}
	if stage != "" {
		body["stage"] = stage
	}
	if patch != nil {
		body["context"] = patch
	}
	if actor != "" {
		body["actor"] = actor
	}
	var m mission.Mission
	if err := c.doJSON(ctx, http.MethodPost, "/api/missions/"+url.PathEscape(id)+"/status", body, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) AssignLoadout(ctx context.Context, id, loadoutID string) error {
	body := map[string]string{"loadout_id": loadoutID}
	return c.doJSON(ctx, http.MethodPost, "/api/missions/"+url.PathEscape(id)+"/loadout", body, nil)
}

func (c *Client) RecordToolUsage(ctx context.Context, id, tool, operation string, data map[string]any) error {
	body := map[string]any{"tool": tool, "operation": operation}
	if data != nil {
		body["data"] = data
	}
	return c.doJSON(ctx, http.MethodPost, "/api/missions/"+url.PathEscape(id)+"/tool-usage", body, nil)
}

func (c *Client) AddLogEntry(ctx context.Context, id string, level journal.Level, msg string) error {
	body := map[string]any{"message": msg}
	if level != "" {
		body["level"] = level
	}
	return c.doJSON(ctx, http.MethodPost, "/api/missions/"+url.PathEscape(id)+"/log", body, nil)
}

func (c *Client) CompleteMission(ctx context.Context, id string, completion map[string]any, actor string) (*mission.Mission, error) {
	body := map[string]any{}
	if completion != nil {
		body["completion"] = completion
	}
	if actor != "" {
		body["actor"] = actor
	}
	var m mission.Mission
	if err := c.doJSON(ctx, http.MethodPost, "/api/missions/"+url.PathEscape(id)+"/complete", body, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) Briefing(ctx context.Context, id string) (string, error) {
	return c.doText(ctx, http.MethodGet, "/api/missions/"+url.PathEscape(id)+"/briefing", nil)
}

func (c *Client) ExecutionPlan(ctx context.Context, id, phaseID string) (string, error) {
	path := "/api/missions/" + url.PathEscape(id) + "/execution-plan"
	if phaseID != "" {
		path += "?phase=" + url.QueryEscape(phaseID)
	}
	return c.doText(ctx, http.MethodGet, path, nil)
}

func (c *Client) InterimDebriefing(ctx context.Context, id string) (string, error) {
	return c.doText(ctx, http.MethodGet, "/api/missions/"+url.PathEscape(id)+"/interim-debriefing", nil)
}

func (c *Client) Debriefing(ctx context.Context, id string) (string, error) {
	return c.doText(ctx, http.MethodGet, "/api/missions/"+url.PathEscape(id)+"/debriefing", nil)
}

func (c *Client) StatusReport(ctx context.Context, id string) (string, error) {
	return c.doText(ctx, http.MethodGet, "/api/missions/"+url.PathEscape(id)+"/status-report", nil)
}

func (c *Client) Rebriefing(ctx context.Context, id string, patch *missionctx.Patch) (string, error) {
	if patch == nil {
		patch = &missionctx.Patch{}
	}
	return c.doText(ctx, http.MethodPost, "/api/missions/"+url.PathEscape(id)+"/rebriefing", patch)
}

func (c *Client) ListLoadouts(ctx context.Context, capability string) ([]*loadout.ToolLoadout, error) {
	path := "/api/loadouts"
	if capability != "" {
		path += "?capability=" + url.QueryEscape(capability)
	}
	var loadouts []*loadout.ToolLoadout
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &loadouts); err != nil {
		return nil, err
	}
	return loadouts, nil
}

func (c *Client) ReloadLoadouts(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/loadouts/reload", nil, nil)
}

func (c *Client) ReadLog(ctx context.Context, ch journal.Channel) ([]*journal.Entry, error) {
	var entries []*journal.Entry
	if err := c.doJSON(ctx, http.MethodGet, "/api/logs/"+url.PathEscape(string(ch)), nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) doText(ctx context.Context, method, path string, body any) (string, error) {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", decodeError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return string(data), nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.http.Do(req)
}

func decodeError(resp *http.Response) error {
	var apiErr apiError
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Message == "" {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	return &apiErr
}
