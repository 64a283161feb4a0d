package sui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmhttp "github.com/movesec/auditor/internal/adapter/llm/http"
)

func fastRetry() llmhttp.RetryConfig {
	return llmhttp.RetryConfig{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func rpcResult(t *testing.T, result interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"result":  result,
	})
	require.NoError(t, err)
	return raw
}

func packageObjectResult() map[string]interface{} {
	return map[string]interface{}{
		"data": map[string]interface{}{
			"objectId": "0xabc",
			"content": map[string]interface{}{
				"dataType": "package",
				"disassembled": map[string]string{
					"vault": "module vault { public fun withdraw_all }",
				},
			},
		},
	}
}

func normalizedModulesResult() map[string]interface{} {
	return map[string]interface{}{
		"vault": map[string]interface{}{
			"name": "vault",
			"exposedFunctions": map[string]interface{}{
				"withdraw_all": map[string]interface{}{
					"visibility": "Public",
					"isEntry":    true,
					"parameters": []interface{}{
						map[string]interface{}{
							"MutableReference": map[string]interface{}{
								"Struct": map[string]interface{}{
									"address":       "0x2",
									"module":        "coin",
									"name":          "Coin",
									"typeArguments": []interface{}{},
								},
							},
						},
						"U64",
						map[string]interface{}{
							"MutableReference": map[string]interface{}{
								"Struct": map[string]interface{}{
									"address":       "0x2",
									"module":        "tx_context",
									"name":          "TxContext",
									"typeArguments": []interface{}{},
								},
							},
						},
					},
				},
				"internal_only": map[string]interface{}{
					"visibility": "Private",
					"parameters": []interface{}{},
				},
			},
		},
	}
}

func newTestServer(t *testing.T) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		switch req.Method {
		case "sui_getObject":
			w.Write(rpcResult(t, packageObjectResult()))
		case "sui_getNormalizedMoveModulesByPackage":
			w.Write(rpcResult(t, normalizedModulesResult()))
		default:
			t.Fatalf("unexpected method %s", req.Method)
		}
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL)
	client.SetRetryConfig(fastRetry())
	return client
}

func TestFetchPackage(t *testing.T) {
	client := newTestServer(t)

	pkg, err := client.FetchPackage(context.Background(), "0xabc")
	require.NoError(t, err)

	assert.Equal(t, "0xabc", pkg.PackageID)
	assert.Equal(t, "module vault { public fun withdraw_all }", pkg.ModuleCode["vault"])

	require.Len(t, pkg.Functions, 1, "private functions and TxContext are filtered")
	fn := pkg.Functions[0]
	assert.Equal(t, "vault", fn.Module)
	assert.Equal(t, "withdraw_all", fn.Name)
	require.Len(t, fn.Params, 2, "trailing TxContext param dropped")
	assert.Equal(t, "&mut 0x2::coin::Coin", fn.Params[0].String())
	assert.Equal(t, "u64", fn.Params[1].String())
}

func TestFetchPackageNotAPackage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(rpcResult(t, map[string]interface{}{
			"data": map[string]interface{}{
				"objectId": "0xdef",
				"content":  map[string]interface{}{"dataType": "moveObject"},
			},
		}))
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL)
	client.SetRetryConfig(fastRetry())

	_, err := client.FetchPackage(context.Background(), "0xdef")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a package")
}

func TestFetchPackageRPCError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      1,
			"error":   map[string]interface{}{"code": -32602, "message": "Package object does not exist"},
		})
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL)
	client.SetRetryConfig(fastRetry())

	_, err := client.FetchPackage(context.Background(), "0xmissing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestCallRetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Method == "sui_getObject" {
			w.Write(rpcResult(t, packageObjectResult()))
		} else {
			w.Write(rpcResult(t, normalizedModulesResult()))
		}
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL)
	client.SetRetryConfig(fastRetry())

	_, err := client.FetchPackage(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, attempts, 3)
}
