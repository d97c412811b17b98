package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinkEvent_IsTerminal(t *testing.T) {
	tests := []struct {
		status   string
		terminal bool
	}{
		{LinkEventStatusStarted, false},
		{LinkEventStatusInfo, false},
		{LinkEventStatusSucceeded, true},
		{LinkEventStatusCancelled, true},
		{LinkEventStatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			event := LinkEvent{Status: tt.status}
			assert.Equal(t, tt.terminal, event.IsTerminal())
		})
	}
}
