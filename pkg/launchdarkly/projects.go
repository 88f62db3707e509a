package launchdarkly

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"flagops/internal/common"
)

// projectPageLimit is the provider's default page size
const projectPageLimit = 20

// ListProjects pages through all projects in ascending offset
// order, stopping at the first empty page
func (c *Client) ListProjects() ([]Project, error) {
	allProjects := []Project{}
	offset := 0
	for {
		responseBody, err := c.do(
			http.MethodGet,
			fmt.Sprintf("/projects?limit=%v&offset=%v", projectPageLimit, offset),
			contentTypeJson,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to list projects (offset: %v): %w", offset, err)
		}
		var page paginatedProjects
		if err := json.Unmarshal(responseBody, &page); err != nil {
			return nil, fmt.Errorf("failed to parse projects listing: %s", err)
		}
		if len(page.Items) == 0 {
			break
		}
		allProjects = append(allProjects, page.Items...)
		offset += projectPageLimit
		c.ServiceLogs <- common.ServiceLogf(string(common.LogLevelDebug), "found %v projects so far...", len(allProjects))
	}
	return allProjects, nil
}

func (c *Client) GetProject(projectKey string) (*Project, error) {
	projectKey = strings.ToLower(projectKey)
	responseBody, err := c.do(
		http.MethodGet,
		fmt.Sprintf("/projects/%s", projectKey),
		contentTypeJson,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get project[%s]: %w", projectKey, err)
	}
	var project Project
	if err := json.Unmarshal(responseBody, &project); err != nil {
		return nil, fmt.Errorf("failed to parse project[%s]: %s", projectKey, err)
	}
	return &project, nil
}

func (c *Client) CreateProject(input CreateProjectInput) (*Project, error) {
	input.Key = strings.ToLower(input.Key)
	responseBody, err := c.do(
		http.MethodPost,
		"/projects",
		contentTypeJson,
		input,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create project[%s]: %w", input.Key, err)
	}
	var project Project
	if err := json.Unmarshal(responseBody, &project); err != nil {
		return nil, fmt.Errorf("failed to parse created project[%s]: %s", input.Key, err)
	}
	return &project, nil
}
