package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/opensendlabs/dashboard_svc/internal/model"
)

const (
	loginPath       = "/auth/login"
	profilePath     = "/self/profile"
	storePathFormat = "/store/%s"

	headerAccessToken  = "Access-Token"
	headerClientToken  = "Client-Token"
	headerContentType  = "Content-Type"
	contentTypeJSON    = "application/json"
	bearerPrefixFormat = "Bearer %s"

	defaultRequestTimeout = 15 * time.Second

	errorMessageMissingBaseURL = "apiclient: missing base url"
	errorMessageBuildRequest   = "apiclient: build request"
	errorMessageExecuteRequest = "apiclient: execute request"
	errorMessageDecodeResponse = "apiclient: decode response"
	errorMessageEncodeRequest  = "apiclient: encode request"

	logEventUpstreamRequest = "upstream_request"
	logFieldMethod          = "method"
	logFieldPath            = "path"
	logFieldStatus          = "status"
)

// ErrMissingBaseURL indicates the client was constructed without an upstream base URL.
var ErrMissingBaseURL = errors.New(errorMessageMissingBaseURL)

// LoginResult is the payload of a successful login.
type LoginResult struct {
	Message  string         `json:"message"`
	User     model.User     `json:"user"`
	View     model.View     `json:"view"`
	Accesses []model.Access `json:"accesses"`
	Tokens   model.Tokens   `json:"tokens"`
}

// ProfileResult is the payload of a successful profile fetch.
type ProfileResult struct {
	User     model.User     `json:"user"`
	View     model.View     `json:"view"`
	Accesses []model.Access `json:"accesses"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Client consumes the upstream dashboard backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Config captures the dependencies for building a Client.
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
	HTTPClient     *http.Client
	Logger         *zap.Logger
}

// NewClient constructs a Client against the configured upstream base URL.
func NewClient(configuration Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(configuration.BaseURL), "/")
	if baseURL == "" {
		return nil, ErrMissingBaseURL
	}

	logger := configuration.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := configuration.HTTPClient
	if httpClient == nil {
		requestTimeout := configuration.RequestTimeout
		if requestTimeout <= 0 {
			requestTimeout = defaultRequestTimeout
		}
		httpClient = &http.Client{Timeout: requestTimeout}
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Login exchanges credentials for tokens and the resolved user view.
func (client *Client) Login(ctx context.Context, email string, password string) (*LoginResult, error) {
	var result LoginResult
	requestErr := client.doJSON(ctx, http.MethodPost, loginPath, model.Tokens{}, loginRequest{Email: email, Password: password}, &result)
	if requestErr != nil {
		return nil, requestErr
	}
	return &result, nil
}

// GetUserProfile fetches the profile of the user owning the tokens.
func (client *Client) GetUserProfile(ctx context.Context, tokens model.Tokens) (*ProfileResult, error) {
	var result ProfileResult
	requestErr := client.doJSON(ctx, http.MethodGet, profilePath, tokens, nil, &result)
	if requestErr != nil {
		return nil, requestErr
	}
	return &result, nil
}

// GetStoreInfo fetches the onboarding/status snapshot of a store.
func (client *Client) GetStoreInfo(ctx context.Context, tokens model.Tokens, storeID string) (*model.StoreInfo, error) {
	var result model.StoreInfo
	requestErr := client.doJSON(ctx, http.MethodGet, fmt.Sprintf(storePathFormat, storeID), tokens, nil, &result)
	if requestErr != nil {
		return nil, requestErr
	}
	return &result, nil
}

func (client *Client) doJSON(ctx context.Context, method string, path string, tokens model.Tokens, requestBody any, responseBody any) error {
	var bodyReader io.Reader
	if requestBody != nil {
		encoded, encodeErr := json.Marshal(requestBody)
		if encodeErr != nil {
			return fmt.Errorf("%s: %w", errorMessageEncodeRequest, encodeErr)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, buildErr := http.NewRequestWithContext(ctx, method, client.baseURL+path, bodyReader)
	if buildErr != nil {
		return fmt.Errorf("%s: %w", errorMessageBuildRequest, buildErr)
	}

	if requestBody != nil {
		request.Header.Set(headerContentType, contentTypeJSON)
	}
	if tokens.AccessToken != "" {
		request.Header.Set(headerAccessToken, fmt.Sprintf(bearerPrefixFormat, tokens.AccessToken))
	}
	if tokens.ClientToken != "" {
		request.Header.Set(headerClientToken, tokens.ClientToken)
	}

	response, executeErr := client.httpClient.Do(request)
	if executeErr != nil {
		return fmt.Errorf("%s: %w", errorMessageExecuteRequest, executeErr)
	}
	defer func() {
		_ = response.Body.Close()
	}()

	client.logger.Debug(logEventUpstreamRequest,
		zap.String(logFieldMethod, method),
		zap.String(logFieldPath, path),
		zap.Int(logFieldStatus, response.StatusCode),
	)

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return decodeAPIError(response)
	}

	if responseBody == nil {
		return nil
	}
	if decodeErr := json.NewDecoder(response.Body).Decode(responseBody); decodeErr != nil {
		return fmt.Errorf("%s: %w", errorMessageDecodeResponse, decodeErr)
	}
	return nil
}

func decodeAPIError(response *http.Response) error {
	apiError := &APIError{Status: response.StatusCode}
	rawBody, readErr := io.ReadAll(io.LimitReader(response.Body, 1<<16))
	if readErr == nil && len(rawBody) > 0 {
		// Best effort: error bodies are expected to carry {code, message}
		// but malformed bodies still yield a status-only APIError.
		_ = json.Unmarshal(rawBody, apiError)
		apiError.Status = response.StatusCode
	}
	return apiError
}
