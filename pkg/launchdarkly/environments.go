package launchdarkly

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

func (c *Client) ListEnvironments(projectKey string) ([]Environment, error) {
	projectKey = strings.ToLower(projectKey)
	responseBody, err := c.do(
		http.MethodGet,
		fmt.Sprintf("/projects/%s/environments", projectKey),
		contentTypeJson,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list environments of project[%s]: %w", projectKey, err)
	}
	var page environmentItems
	if err := json.Unmarshal(responseBody, &page); err != nil {
		return nil, fmt.Errorf("failed to parse environments listing of project[%s]: %s", projectKey, err)
	}
	return page.Items, nil
}

func (c *Client) GetEnvironment(projectKey, environmentKey string) (*Environment, error) {
	projectKey = strings.ToLower(projectKey)
	environmentKey = strings.ToLower(environmentKey)
	responseBody, err := c.do(
		http.MethodGet,
		fmt.Sprintf("/projects/%s/environments/%s", projectKey, environmentKey),
		contentTypeJson,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get environment[%s/%s]: %w", projectKey, environmentKey, err)
	}
	var environment Environment
	if err := json.Unmarshal(responseBody, &environment); err != nil {
		return nil, fmt.Errorf("failed to parse environment[%s/%s]: %s", projectKey, environmentKey, err)
	}
	return &environment, nil
}

func (c *Client) CreateEnvironment(projectKey string, input CreateEnvironmentInput) (*Environment, error) {
	projectKey = strings.ToLower(projectKey)
	input.Key = strings.ToLower(input.Key)
	responseBody, err := c.do(
		http.MethodPost,
		fmt.Sprintf("/projects/%s/environments", projectKey),
		contentTypeJson,
		input,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create environment[%s/%s]: %w", projectKey, input.Key, err)
	}
	var environment Environment
	if err := json.Unmarshal(responseBody, &environment); err != nil {
		return nil, fmt.Errorf("failed to parse created environment[%s/%s]: %s", projectKey, input.Key, err)
	}
	return &environment, nil
}

// PatchEnvironment submits an ordered JSON-Patch document against
// an environment, the raw response body is returned so callers can
// distinguish a no-op (empty body) from a full representation
func (c *Client) PatchEnvironment(projectKey, environmentKey string, ops []PatchOp) ([]byte, error) {
	projectKey = strings.ToLower(projectKey)
	environmentKey = strings.ToLower(environmentKey)
	responseBody, err := c.do(
		http.MethodPatch,
		fmt.Sprintf("/projects/%s/environments/%s", projectKey, environmentKey),
		contentTypeJsonPatch,
		ops,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to patch environment[%s/%s]: %w", projectKey, environmentKey, err)
	}
	return responseBody, nil
}

// DeleteEnvironment removes an environment, the API responds with
// 204 and an empty body on success
func (c *Client) DeleteEnvironment(projectKey, environmentKey string) error {
	projectKey = strings.ToLower(projectKey)
	environmentKey = strings.ToLower(environmentKey)
	if _, err := c.do(
		http.MethodDelete,
		fmt.Sprintf("/projects/%s/environments/%s", projectKey, environmentKey),
		contentTypeJson,
		nil,
	); err != nil {
		return fmt.Errorf("failed to delete environment[%s/%s]: %w", projectKey, environmentKey, err)
	}
	return nil
}
