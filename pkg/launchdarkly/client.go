package launchdarkly

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"flagops/internal/common"
)

const (
	// DefaultApiUrl is the base url of the management API
	DefaultApiUrl = "https://app.launchdarkly.com/api/v2"

	// DefaultRequestInterval is slept after every call to stay
	// within the provider's rate limit
	DefaultRequestInterval = 1 * time.Second

	contentTypeJson      = "application/json"
	contentTypeJsonPatch = "application/json-patch+json"
)

type NewClientOpts struct {
	// ApiUrl is the base url of the management API, falls back to
	// DefaultApiUrl when empty
	ApiUrl string

	// ApiToken is sent as-is in the Authorization header
	ApiToken string

	// Id will be included in the user-agent for identification
	Id string

	// RequestInterval is slept after every remote call, zero
	// disables the delay
	RequestInterval time.Duration

	// ServiceLogs receives request traces when specified
	ServiceLogs chan common.ServiceLog
}

func NewClient(opts NewClientOpts) (*Client, error) {
	if opts.ApiToken == "" {
		return nil, fmt.Errorf("failed to receive an api token")
	}
	apiUrlInput := opts.ApiUrl
	if apiUrlInput == "" {
		apiUrlInput = DefaultApiUrl
	}
	apiUrl, err := url.Parse(apiUrlInput)
	if err != nil {
		return nil, fmt.Errorf("failed to parse provided apiUrl[%s]: %s", apiUrlInput, err)
	}
	if apiUrl.Scheme == "" {
		return nil, fmt.Errorf("failed to determine url scheme of apiUrl[%s]", apiUrlInput)
	}
	serviceLogs := opts.ServiceLogs
	if serviceLogs == nil {
		serviceLogs = common.GetNoopServiceLog()
	}
	return &Client{
		ApiUrl:          apiUrl,
		ApiToken:        opts.ApiToken,
		HttpClient:      &http.Client{},
		Id:              opts.Id,
		RequestInterval: opts.RequestInterval,
		ServiceLogs:     serviceLogs,
	}, nil
}

type Client struct {
	// ApiUrl is the base url where the management API is
	// accessible at
	ApiUrl   *url.URL
	ApiToken string

	// HttpClient is the HTTP client
	HttpClient *http.Client

	// Id will be included in the user-agent for identification
	Id string

	// RequestInterval is slept after every remote call
	RequestInterval time.Duration

	// ServiceLogs receives request traces
	ServiceLogs chan common.ServiceLog
}

// do executes one request against the management API, applies the
// rate-limit delay, and maps 404 and other non-2xx responses onto
// the package's error types
func (c *Client) do(method, path, contentType string, body any) ([]byte, error) {
	apiUrl := *c.ApiUrl
	apiUrl.Path = strings.TrimSuffix(apiUrl.Path, "/") + path
	var requestBody io.Reader
	if body != nil {
		requestBodyData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %s", err)
		}
		requestBody = bytes.NewBuffer(requestBodyData)
	}
	httpRequest, err := http.NewRequest(method, apiUrl.String(), requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %s", err)
	}
	httpRequest.Header.Add("Authorization", c.ApiToken)
	httpRequest.Header.Add("User-Agent", fmt.Sprintf("flagops-sdk/client-%s", c.Id))
	if body != nil {
		httpRequest.Header.Add("Content-Type", contentType)
	}
	c.ServiceLogs <- common.ServiceLogf(string(common.LogLevelTrace), "launchdarkly: %s %s", method, apiUrl.String())
	httpResponse, err := c.HttpClient.Do(httpRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to execute http request: %s", err)
	}
	defer httpResponse.Body.Close()
	responseBody, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %s", err)
	}
	if c.RequestInterval > 0 {
		time.Sleep(c.RequestInterval)
	}
	if httpResponse.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s %s returned 404: %w", method, path, ErrorNotFound)
	}
	if httpResponse.StatusCode < 200 || httpResponse.StatusCode > 299 {
		return nil, &ApiError{
			StatusCode: httpResponse.StatusCode,
			Body:       string(responseBody),
		}
	}
	return responseBody, nil
}
