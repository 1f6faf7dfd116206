package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/google/uuid"

	"commitcoord/pkg/coordinator"
)

func decodeResp(t *testing.T, rr *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response JSON: %v, body=%s", err, rr.Body.String())
	}
	return resp
}

func decodeGetCommitsResp(t *testing.T, rr *httptest.ResponseRecorder) GetCommitsResponseDTO {
	t.Helper()
	var resp GetCommitsResponseDTO
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response JSON: %v, body=%s", err, rr.Body.String())
	}
	return resp
}

func postCommit(t *testing.T, s *Server, tableID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/tables/"+tableID+"/commits", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.createRouter().ServeHTTP(rr, req)
	return rr
}

func TestHealthHandler(t *testing.T) {
	s := NewServer(coordinator.New(0), "")
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	s.createRouter().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if resp := decodeResp(t, rr); resp.Status != StatusOK {
		t.Fatalf("expected status %s, got %s", StatusOK, resp.Status)
	}
}

func TestCommitAndGetCommitsFlow(t *testing.T) {
	s := NewServer(coordinator.New(0), "")
	tableID := uuid.NewString()
	tableURI := "mem://t/" + tableID

	body := `{
		"table_uri": "` + tableURI + `",
		"file_name": "00000000000000000000.json",
		"version": 0,
		"file_size": 128,
		"file_mod_time_unix_ms": 0,
		"commit_timestamp": 1
	}`

	rr := postCommit(t, s, tableID, body)
	if rr.Code != http.StatusOK {
		t.Fatalf("commit: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if resp := decodeResp(t, rr); resp.Status != StatusSuccess {
		t.Fatalf("commit: expected status %s, got %s", StatusSuccess, resp.Status)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/tables/"+tableID+"/commits?table_uri="+tableURI, nil)
	rr = httptest.NewRecorder()
	s.createRouter().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("get_commits: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	resp := decodeGetCommitsResp(t, rr)
	if resp.LastRatifiedVersion != 0 {
		t.Fatalf("expected last_ratified_version 0, got %d", resp.LastRatifiedVersion)
	}
	if len(resp.Commits) != 1 || resp.Commits[0].Version != 0 {
		t.Fatalf("expected one commit at version 0, got %+v", resp.Commits)
	}
}

func TestCommitURIMismatchOnGet(t *testing.T) {
	s := NewServer(coordinator.New(0), "")
	tableID := uuid.NewString()
	tableURI := "mem://t/" + tableID

	body := `{
		"table_uri": "` + tableURI + `",
		"file_name": "00000000000000000000.json",
		"version": 0,
		"file_size": 128,
		"file_mod_time_unix_ms": 0,
		"commit_timestamp": 1
	}`
	if rr := postCommit(t, s, tableID, body); rr.Code != http.StatusOK {
		t.Fatalf("commit: expected 200, got %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/tables/"+tableID+"/commits?table_uri=mem://t/other", nil)
	rr := httptest.NewRecorder()
	s.createRouter().ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("uri-mismatch: expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestGetCommitsUnknownTable(t *testing.T) {
	s := NewServer(coordinator.New(0), "")
	tableID := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/v1/tables/"+tableID+"/commits?table_uri=mem://t/x", nil)
	rr := httptest.NewRecorder()
	s.createRouter().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unknown table: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	resp := decodeGetCommitsResp(t, rr)
	if resp.LastRatifiedVersion != -1 || len(resp.Commits) != 0 {
		t.Fatalf("unknown table: expected empty response, got %+v", resp)
	}
}

func TestCommitInvalidTableID(t *testing.T) {
	s := NewServer(coordinator.New(0), "")
	req := httptest.NewRequest(http.MethodPost, "/v1/tables/not-a-uuid/commits", bytes.NewReader([]byte("{}")))
	rr := httptest.NewRecorder()
	s.createRouter().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCommitMissingPayloadAndBackfill(t *testing.T) {
	s := NewServer(coordinator.New(0), "")
	tableID := uuid.NewString()

	rr := postCommit(t, s, tableID, `{"table_uri": "mem://t/`+tableID+`"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for commit request with neither payload nor backfill, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestAtCapacityHandler(t *testing.T) {
	s := NewServer(coordinator.New(1), "")
	tableID := uuid.NewString()
	tableURI := "mem://t/" + tableID

	for v := int64(0); v < 2; v++ {
		body := `{
			"table_uri": "` + tableURI + `",
			"file_name": "x.json",
			"version": ` + strconv.FormatInt(v, 10) + `,
			"file_size": 1,
			"file_mod_time_unix_ms": 0,
			"commit_timestamp": 1
		}`
		postCommit(t, s, tableID, body)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/at-capacity", nil)
	rr := httptest.NewRecorder()
	s.createRouter().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp AtCapacityResponseDTO
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	found := false
	for _, id := range resp.TableIDs {
		if id == tableID {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s in at-capacity list, got %v", tableID, resp.TableIDs)
	}
}
