package tracking

import (
	"testing"

	"github.com/matst80/jobboard/pkg/common/jsoncompat"
	"github.com/matst80/jobboard/pkg/messaging"
	"github.com/matst80/jobboard/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchEventPayload(t *testing.T) {
	params := types.FetchParams{Title: "go", Location: "Hanoi", Levels: []string{"senior"}, Page: 2, PageSize: 10}
	event := NewSearchEvent("s1", "web", params, types.Pagination{Page: 2, PageSize: 10, Total: 25})

	msg, err := messaging.Encode(event)
	require.NoError(t, err)
	assert.Equal(t, "application/json", msg.ContentType)

	var decoded map[string]any
	require.NoError(t, jsoncompat.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, "s1", decoded["session_id"])
	assert.Equal(t, "web", decoded["context"])
	assert.EqualValues(t, EventSearch, decoded["event"])
	assert.Equal(t, "go", decoded["title"])
	assert.EqualValues(t, 25, decoded["noi"])
	assert.EqualValues(t, 3, decoded["total_pages"])
}

func TestBookmarkEventPayload(t *testing.T) {
	msg, err := messaging.Encode(NewBookmarkEvent("s1", "", "job-7", true))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, jsoncompat.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, "job-7", decoded["job_id"])
	assert.Equal(t, true, decoded["saved"])
	assert.NotContains(t, decoded, "context")
}

func TestNewSessionIdIsUnique(t *testing.T) {
	assert.NotEqual(t, NewSessionId(), NewSessionId())
}
