package handler

import (
	"net/http"
	"testing"

	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/sse"
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTopics(t *testing.T) {
	topics, err := parseTopics("")
	require.NoError(t, err)
	assert.Empty(t, topics)

	topics, err = parseTopics(" stage_update, ,deal_update")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{sse.EventStageUpdate: true, sse.EventDealUpdate: true}, topics)

	_, err = parseTopics("stage_update,approval_update")
	assert.Error(t, err)
}

func TestStreamRejectsUnknownTopic(t *testing.T) {
	env, _ := setupAPI(t)

	w := testutil.DoRequest(env.Router, http.MethodGet,
		"/api/v1/sse/events?events=approval_update&token="+testutil.DefaultTestToken(), nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.EqualValues(t, 40000, testutil.ParseResponse(w)["code"])
	assert.Equal(t, 0, sse.GlobalHub.ClientCount())
}
