package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"tokenvest/native/bank"
	"tokenvest/native/vesting"
	statevesting "tokenvest/state/vesting"
	"tokenvest/storage"
)

const (
	testToken = "test-secret"
	adminHex  = "00000000000000000000000000000000000000ad"
	aliceHex  = "0000000000000000000000000000000000000001"
)

func testAddr(fill byte) [20]byte {
	var addr [20]byte
	addr[19] = fill
	return addr
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	t.Setenv(authTokenEnv, testToken)

	db := storage.NewMemDB()
	vault := testAddr(0x0F)
	token := bank.NewLedger(db, "VST", testAddr(0xEE))
	if err := token.Generate(vault, big.NewInt(1_000_000)); err != nil {
		t.Fatalf("generate supply: %v", err)
	}

	engine := vesting.NewEngine()
	engine.SetState(statevesting.NewManager(db))
	engine.SetToken(token)
	engine.SetVault(vault)
	engine.SetAdmin(testAddr(0xAD))

	srv := NewServer(engine, token, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func call(t *testing.T, url, method string, params interface{}, bearer string) *RPCResponse {
	t.Helper()
	req := map[string]interface{}{
		"jsonrpc": jsonRPCVersion,
		"id":      1,
		"method":  method,
	}
	if params != nil {
		req["params"] = []interface{}{params}
	}
	payload, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	httpReq, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		httpReq.Header.Set("Authorization", "Bearer "+bearer)
	}
	httpResp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer httpResp.Body.Close()
	resp := &RPCResponse{}
	if err := json.NewDecoder(httpResp.Body).Decode(resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func resultField(t *testing.T, resp *RPCResponse, key string) string {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("rpc error: %+v", resp.Error)
	}
	fields, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected result shape: %T", resp.Result)
	}
	return fmt.Sprintf("%v", fields[key])
}

func TestAdminMethodsRequireAuth(t *testing.T) {
	_, ts := newTestServer(t)

	resp := call(t, ts.URL, "vesting_start", map[string]string{"caller": adminHex}, "")
	if resp.Error == nil || resp.Error.Code != codeUnauthorized {
		t.Fatalf("unauthenticated start: got %+v, want code %d", resp.Error, codeUnauthorized)
	}
	resp = call(t, ts.URL, "vesting_start", map[string]string{"caller": adminHex}, "wrong")
	if resp.Error == nil || resp.Error.Code != codeUnauthorized {
		t.Fatalf("bad token: got %+v, want code %d", resp.Error, codeUnauthorized)
	}
}

func TestVestingLifecycleOverRPC(t *testing.T) {
	_, ts := newTestServer(t)

	resp := call(t, ts.URL, "vesting_start", map[string]string{"caller": adminHex}, testToken)
	if resp.Error != nil {
		t.Fatalf("start: %+v", resp.Error)
	}

	resp = call(t, ts.URL, "vesting_setVestFor", map[string]interface{}{
		"caller":    adminHex,
		"direction": "publicRound",
		"accounts":  []string{aliceHex},
		"amounts":   []string{"100"},
	}, testToken)
	if got := resultField(t, resp, "written"); got != "1" {
		t.Fatalf("written %s, want 1", got)
	}

	resp = call(t, ts.URL, "vesting_committedTotal", nil, "")
	if got := resultField(t, resp, "committedTotal"); got != "100" {
		t.Fatalf("committed total %s, want 100", got)
	}

	resp = call(t, ts.URL, "vesting_claim", map[string]string{"caller": aliceHex}, "")
	if got := resultField(t, resp, "claimed"); got != "100" {
		t.Fatalf("claimed %s, want 100", got)
	}

	resp = call(t, ts.URL, "token_balanceOf", map[string]string{"account": aliceHex}, "")
	if got := resultField(t, resp, "balance"); got != "100" {
		t.Fatalf("balance %s, want 100", got)
	}

	resp = call(t, ts.URL, "vesting_claim", map[string]string{"caller": aliceHex}, "")
	if resp.Error == nil || resp.Error.Code != codeServerError {
		t.Fatalf("repeat claim: got %+v, want server error", resp.Error)
	}
}

func TestUnknownMethod(t *testing.T) {
	_, ts := newTestServer(t)
	resp := call(t, ts.URL, "vesting_unknown", nil, "")
	if resp.Error == nil || resp.Error.Code != codeMethodNotFound {
		t.Fatalf("got %+v, want code %d", resp.Error, codeMethodNotFound)
	}
}

func TestSetVestForRejectsUnknownDirection(t *testing.T) {
	_, ts := newTestServer(t)
	resp := call(t, ts.URL, "vesting_setVestFor", map[string]interface{}{
		"caller":    adminHex,
		"direction": "sideways",
		"accounts":  []string{aliceHex},
		"amounts":   []string{"100"},
	}, testToken)
	if resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Fatalf("got %+v, want code %d", resp.Error, codeInvalidParams)
	}
}
