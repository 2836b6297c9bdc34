package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createDecision(t *testing.T, srv *Server, id string) {
	t.Helper()
	body := `{"id":"` + id + `","objective":"Launch ` + id + `","recommendation":"PROCEED: ship it",
		"confidence":"HIGH","signals":{"financial":"ok","risk":"low","complexity":"low"}}`
	w := do(t, srv, http.MethodPost, "/api/decisions", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestCreateDecision(t *testing.T) {
	srv := testServer(t)

	w := do(t, srv, http.MethodPost, "/api/decisions",
		`{"objective":"Migrate billing","recommendation":"defer until Q3","confidence":"medium"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decode(t, w)
	assert.NotEmpty(t, body["id"])
	assert.Equal(t, "DEFER", body["recommendation_type"])
	assert.Equal(t, "MEDIUM", body["confidence"])
	assert.NotContains(t, body, "weight")
}

func TestCreateDecisionErrors(t *testing.T) {
	srv := testServer(t)
	createDecision(t, srv, "d1")

	w := do(t, srv, http.MethodPost, "/api/decisions", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, http.MethodPost, "/api/decisions", `{"objective":"x","recommendation":"PROCEED","confidence":"SURE"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "confidence", decode(t, w)["field"])

	w = do(t, srv, http.MethodPost, "/api/decisions", `{"id":"d1","objective":"x","recommendation":"PROCEED","confidence":"LOW"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetDecision(t *testing.T) {
	srv := testServer(t)
	createDecision(t, srv, "d1")

	w := do(t, srv, http.MethodGet, "/api/decisions/d1", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "d1", body["id"])
	assert.Equal(t, map[string]any{"financial": "ok", "risk": "low", "complexity": "low"}, body["signals"])

	w = do(t, srv, http.MethodGet, "/api/decisions/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecordApproval(t *testing.T) {
	srv := testServer(t)
	createDecision(t, srv, "d1")

	w := do(t, srv, http.MethodPost, "/api/approvals", `{"decision_id":"d1","approved":true,"confidence_adjustment":0.5}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, "d1", body["decision_id"])
	assert.InDelta(t, 1.5, body["reward"], 1e-9)
	assert.EqualValues(t, 6, body["weights_updated"])
	assert.Equal(t, true, body["learning_applied"])

	id, _ := body["id"].(string)
	w = do(t, srv, http.MethodGet, "/api/approvals/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["approved"])

	w = do(t, srv, http.MethodGet, "/api/decisions/d1/approvals", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])
}

func TestRecordApprovalZeroReward(t *testing.T) {
	srv := testServer(t)
	createDecision(t, srv, "d1")

	w := do(t, srv, http.MethodPost, "/api/approvals", `{"decision_id":"d1","approved":false,"confidence_adjustment":-1}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"reward":0,`)
}

func TestRecordApprovalErrors(t *testing.T) {
	srv := testServer(t)
	createDecision(t, srv, "d1")

	cases := []struct {
		name  string
		body  string
		code  int
		field string
	}{
		{"malformed", `{"decision_id":`, http.StatusBadRequest, "body"},
		{"missing approved", `{"decision_id":"d1"}`, http.StatusBadRequest, "approved"},
		{"missing decision", `{"approved":true}`, http.StatusBadRequest, "decision_id"},
		{"adjustment range", `{"decision_id":"d1","approved":true,"confidence_adjustment":1.5}`, http.StatusBadRequest, "confidence_adjustment"},
		{"unknown decision", `{"decision_id":"nope","approved":true}`, http.StatusNotFound, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := do(t, srv, http.MethodPost, "/api/approvals", c.body)
			require.Equal(t, c.code, w.Code, w.Body.String())
			if c.field != "" {
				assert.Equal(t, c.field, decode(t, w)["field"])
			}
		})
	}

	w := do(t, srv, http.MethodGet, "/api/weights", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w)["count"])
}

func TestListDecisionsRanked(t *testing.T) {
	srv := testServer(t)
	createDecision(t, srv, "a")
	createDecision(t, srv, "b")
	createDecision(t, srv, "c")

	w := do(t, srv, http.MethodPost, "/api/approvals", `{"decision_id":"a","approved":true}`)
	require.Equal(t, http.StatusCreated, w.Code)
	w = do(t, srv, http.MethodPost, "/api/approvals", `{"decision_id":"c","approved":false}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, srv, http.MethodGet, "/api/decisions", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 3, body["total"])
	assert.EqualValues(t, 50, body["limit"])
	assert.EqualValues(t, 0, body["offset"])

	data, _ := body["data"].([]any)
	require.Len(t, data, 3)
	ids := make([]string, len(data))
	for i, item := range data {
		ids[i] = item.(map[string]any)["id"].(string)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
	assert.InDelta(t, 1.0, data[0].(map[string]any)["weight"], 1e-9)

	w = do(t, srv, http.MethodGet, "/api/decisions?objective=LAUNCH%20B&limit=5000", "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.EqualValues(t, 1, body["total"])
	assert.EqualValues(t, 1000, body["limit"])

	w = do(t, srv, http.MethodGet, "/api/decisions?limit=ten", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "limit", decode(t, w)["field"])
}

func TestListWeightsFilter(t *testing.T) {
	srv := testServer(t)
	createDecision(t, srv, "d1")
	w := do(t, srv, http.MethodPost, "/api/approvals", `{"decision_id":"d1","approved":true}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, srv, http.MethodGet, "/api/weights?source_type=signal", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, decode(t, w)["count"])

	w = do(t, srv, http.MethodGet, "/api/weights?source_type=decision&source_id=d1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = do(t, srv, http.MethodGet, "/api/weights?limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 2, body["count"])
	assert.EqualValues(t, 6, body["total"])
}

func TestPlansAndDeployments(t *testing.T) {
	srv := testServer(t)
	createDecision(t, srv, "d1")

	w := do(t, srv, http.MethodPost, "/api/plans", `{"id":"p1","decision_id":"d1","name":"rollout"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, srv, http.MethodPost, "/api/plans", `{"description":"no name"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, http.MethodPost, "/api/deployments", `{"id":"dep1","plan_id":"p1","environment":"staging"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "pending", decode(t, w)["status"])

	w = do(t, srv, http.MethodPost, "/api/deployments", `{"plan_id":"missing","environment":"prod"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, srv, http.MethodPost, "/api/deployments", `{"plan_id":"p1","environment":"prod","status":"exploded"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, http.MethodGet, "/api/deployments?plan_id=p1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = do(t, srv, http.MethodGet, "/api/plans", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = do(t, srv, http.MethodDelete, "/api/plans/p1", "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, srv, http.MethodGet, "/api/deployments/dep1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, srv, http.MethodDelete, "/api/plans/p1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
