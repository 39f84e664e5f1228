package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/audit"
)

func TestEncodeRecord(t *testing.T) {
	event := audit.Event{
		Timestamp: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		UserID:    "user-1",
		Subject:   "project-1",
		Action:    audit.EventProjectShared,
		Reason:    "",
	}

	record, err := EncodeRecord("atelier.audit", event)
	require.NoError(t, err)

	assert.Equal(t, "atelier.audit", record.Topic)
	// Keyed by user so a user's trail stays ordered within one partition.
	assert.Equal(t, []byte("user-1"), record.Key)

	var decoded audit.Event
	require.NoError(t, json.Unmarshal(record.Value, &decoded))
	assert.Equal(t, event, decoded)
}

func TestEncodeRecordOmitsEmptyReason(t *testing.T) {
	record, err := EncodeRecord("atelier.audit", audit.Event{Action: audit.EventUserLogin})
	require.NoError(t, err)
	assert.NotContains(t, string(record.Value), "reason")
}
