package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCallSession_CanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    CallStatus
		to      CallStatus
		allowed bool
	}{
		{"ringing can connect", CallRinging, CallConnected, true},
		{"ringing can be missed", CallRinging, CallMissed, true},
		{"ringing can be rejected", CallRinging, CallRejected, true},
		{"ringing can be cancelled", CallRinging, CallCancelled, true},
		{"ringing cannot end directly", CallRinging, CallEnded, false},
		{"connected can end", CallConnected, CallEnded, true},
		{"connected cannot revisit ringing", CallConnected, CallRinging, false},
		{"connected cannot be missed", CallConnected, CallMissed, false},
		{"ended is terminal", CallEnded, CallConnected, false},
		{"rejected is terminal", CallRejected, CallConnected, false},
		{"missed is terminal", CallMissed, CallEnded, false},
		{"cancelled is terminal", CallCancelled, CallRinging, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			call := CallSession{Status: tt.from}
			req.Equal(tt.allowed, call.CanTransition(tt.to))
		})
	}
}

func TestCallSession_No_Transition_Revisits_Ringing(t *testing.T) {
	req := require.New(t)
	statuses := []CallStatus{CallRinging, CallConnected, CallMissed, CallRejected, CallCancelled, CallEnded}

	for _, from := range statuses {
		call := CallSession{Status: from}
		req.False(call.CanTransition(CallRinging), "from %s", from)
	}
}
