package logsvc

import (
	"bytes"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/campusgate/outpass/core"
)

func TestRollbarLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewRollbarLogger(log.New(&buf, "", 0), &core.Config{Env: "TEST", TestMode: true})
	logger.Enable(false)

	tests := []struct {
		name  string
		log   func(msg string, args ...interface{})
		level string
	}{
		{"debug", logger.Debug, "DEBUG"},
		{"info", logger.Info, "INFO"},
		{"warn", logger.Warn, "WARN"},
		{"error", logger.Error, "ERROR"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf.Reset()
			tc.log("something happened", errors.New("boom"), core.Person{ID: "ST-1", Name: "Asha"})

			out := buf.String()
			assert.Contains(t, out, tc.level+": something happened")
			assert.Contains(t, out, "boom")
			assert.NotContains(t, out, "Asha", "the person is attached to the report, not printed")
		})
	}
}

func TestRollbarLogger_prepare(t *testing.T) {
	logger := RollbarLogger{std: log.New(&bytes.Buffer{}, "", 0)}
	extra := map[string]interface{}{"outpass_id": "OP-CS1"}

	args := logger.prepare("msg", []interface{}{core.Person{ID: "1"}, extra, core.Person{ID: "2"}})
	assert.Equal(t, []interface{}{"msg", extra}, args)
}
