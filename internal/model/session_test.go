package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanSessionTransitionTo(t *testing.T) {
	assert.True(t, CanSessionTransitionTo(SessionStatusPending, SessionStatusCompleted))
	assert.True(t, CanSessionTransitionTo(SessionStatusPending, SessionStatusCancelled))
	assert.False(t, CanSessionTransitionTo(SessionStatusCompleted, SessionStatusCompleted))
	assert.False(t, CanSessionTransitionTo(SessionStatusCompleted, SessionStatusPending))
	assert.False(t, CanSessionTransitionTo(SessionStatusCancelled, SessionStatusCompleted))
	assert.False(t, CanSessionTransitionTo("unknown", SessionStatusCompleted))
}

func TestIsCreditType(t *testing.T) {
	for _, tt := range []string{TxTypePurchase, TxTypeEarned, TxTypeEscrowRelease, TxTypeEscrowRefund} {
		assert.True(t, IsCreditType(tt), tt)
	}
	assert.False(t, IsCreditType(TxTypeEscrowHold))
}
