package job

import (
	"encoding/json"
	"testing"

	"github.com/lossyrob/arturo-stac-api/internal/stac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBulkIngestTask(t *testing.T) {
	items := []*stac.Item{
		{ID: "item-1", Properties: map[string]any{"datetime": "2020-06-01T00:00:00Z"}},
		{ID: "item-2", Properties: map[string]any{"datetime": "2020-06-02T00:00:00Z"}},
	}

	task, err := NewBulkIngestTask("joplin", items)
	require.NoError(t, err)

	assert.Equal(t, TaskBulkIngest, task.Type())

	var payload BulkIngestPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "joplin", payload.CollectionID)
	require.Len(t, payload.Items, 2)
	assert.Equal(t, "item-1", payload.Items[0].ID)
	assert.Equal(t, "2020-06-02T00:00:00Z", payload.Items[1].Datetime())
}
