// Package sui implements the package source port against a Sui fullnode's
// JSON-RPC API. One fetch issues two calls: sui_getObject with content to
// obtain the per-module bytecode disassembly, and
// sui_getNormalizedMoveModulesByPackage for the typed function interface.
package sui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	llmhttp "github.com/movesec/auditor/internal/adapter/llm/http"
	"github.com/movesec/auditor/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	jsonrpcVersion = "2.0"
)

// Client is a JSON-RPC client for a Sui fullnode.
type Client struct {
	endpoint string
	client   *http.Client
	retry    llmhttp.RetryConfig
}

// NewClient creates a client for the given fullnode endpoint, e.g.
// https://fullnode.mainnet.sui.io:443.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: defaultTimeout},
		retry:    llmhttp.DefaultRetryConfig(),
	}
}

// SetRetryConfig overrides the default retry behaviour (for testing).
func (c *Client) SetRetryConfig(config llmhttp.RetryConfig) {
	c.retry = config
}

// SetTimeout sets the HTTP timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.client.Timeout = timeout
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// call performs one JSON-RPC call with retry on transport-level failures.
// RPC-level errors (bad package ID, pruned object) are not retryable.
func (c *Client) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: jsonrpcVersion,
		ID:      1,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	var body []byte
	err = llmhttp.RetryWithBackoff(ctx, func(ctx context.Context) error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
		if reqErr != nil {
			return &llmhttp.Error{Type: llmhttp.ErrTypeUnknown, Message: reqErr.Error(), Provider: "sui"}
		}
		req.Header.Set("Content-Type", "application/json")

		resp, callErr := c.client.Do(req)
		if callErr != nil {
			return llmhttp.NewTimeoutError("sui", callErr.Error())
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			return llmhttp.NewRateLimitError("sui", "fullnode rate limit")
		}
		if resp.StatusCode >= 500 {
			return llmhttp.NewServiceUnavailableError("sui", fmt.Sprintf("HTTP %d", resp.StatusCode))
		}
		if resp.StatusCode >= 400 {
			return llmhttp.NewInvalidRequestError("sui", fmt.Sprintf("HTTP %d", resp.StatusCode))
		}

		var readErr error
		body, readErr = io.ReadAll(resp.Body)
		if readErr != nil {
			return llmhttp.NewTimeoutError("sui", readErr.Error())
		}
		return nil
	}, c.retry)
	if err != nil {
		return err
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return fmt.Errorf("parse %s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("%s: %w", method, rpcResp.Error)
	}
	if err := json.Unmarshal(rpcResp.Result, result); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}

// objectResponse mirrors the slice of sui_getObject output we consume.
type objectResponse struct {
	Data struct {
		ObjectID string `json:"objectId"`
		Content  struct {
			DataType     string            `json:"dataType"`
			Disassembled map[string]string `json:"disassembled"`
		} `json:"content"`
	} `json:"data"`
}

// FetchPackage retrieves a package's disassembled modules and public
// functions, implementing the audit PackageSource port.
func (c *Client) FetchPackage(ctx context.Context, packageID string) (domain.ContractPackage, error) {
	var object objectResponse
	err := c.call(ctx, "sui_getObject", []interface{}{
		packageID,
		map[string]bool{"showContent": true},
	}, &object)
	if err != nil {
		return domain.ContractPackage{}, fmt.Errorf("fetch package object: %w", err)
	}
	if object.Data.Content.DataType != "package" {
		return domain.ContractPackage{}, fmt.Errorf("object %s is not a package (dataType %q)",
			packageID, object.Data.Content.DataType)
	}

	var normalized map[string]normalizedModule
	err = c.call(ctx, "sui_getNormalizedMoveModulesByPackage", []interface{}{packageID}, &normalized)
	if err != nil {
		return domain.ContractPackage{}, fmt.Errorf("fetch normalized modules: %w", err)
	}

	return domain.ContractPackage{
		PackageID:  packageID,
		ModuleCode: object.Data.Content.Disassembled,
		Functions:  normalizeFunctions(normalized),
	}, nil
}
