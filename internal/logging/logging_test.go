package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := SetupTo(&buf, "debug", "json")
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = SetupTo(&bytes.Buffer{}, "info", "text") })

	logger.WithField("group_id", "g1").Debug("loaded")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "g1", line["group_id"])
	assert.Equal(t, "loaded", line["msg"])
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
}

func TestSetupRejectsUnknownValues(t *testing.T) {
	_, err := SetupTo(&bytes.Buffer{}, "loud", "text")
	assert.Error(t, err)
	_, err = SetupTo(&bytes.Buffer{}, "info", "xml")
	assert.Error(t, err)
}
