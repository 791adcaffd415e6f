// internal/catalog/domain_test.go
package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestTransitionAllowed(t *testing.T) {
	cases := []struct {
		name string
		from Status
		to   Status
	}{
		{"available to issued", StatusAvailable, StatusIssued},
		{"available to reserved", StatusAvailable, StatusReserved},
		{"available to withdrawn", StatusAvailable, StatusWithdrawn},
		{"reserved to issued", StatusReserved, StatusIssued},
		{"reserved to available", StatusReserved, StatusAvailable},
		{"reserved to withdrawn", StatusReserved, StatusWithdrawn},
		{"issued to available", StatusIssued, StatusAvailable},
		{"issued to reserved", StatusIssued, StatusReserved},
		{"issued to withdrawn", StatusIssued, StatusWithdrawn},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.NoError(t, Transition(tc.from, tc.to))
		})
	}
}

func TestTransitionRejected(t *testing.T) {
	cases := []struct {
		name string
		from Status
		to   Status
		want error
	}{
		{"withdrawn to available", StatusWithdrawn, StatusAvailable, ErrInvalidTransition},
		{"withdrawn to issued", StatusWithdrawn, StatusIssued, ErrInvalidTransition},
		{"withdrawn to reserved", StatusWithdrawn, StatusReserved, ErrInvalidTransition},
		{"unknown target", StatusAvailable, Status("lost"), ErrInvalidStatus},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Transition(tc.from, tc.to)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestTransitionSameStatusIsNoOp(t *testing.T) {
	for _, s := range []Status{StatusAvailable, StatusIssued, StatusReserved, StatusWithdrawn} {
		assert.NoError(t, Transition(s, s), "status %q", s)
	}
}

func TestWithdrawnIsTerminal(t *testing.T) {
	statuses := []Status{StatusAvailable, StatusIssued, StatusReserved, StatusWithdrawn}
	rapid.Check(t, func(t *rapid.T) {
		to := rapid.SampledFrom(statuses).Draw(t, "to")
		err := Transition(StatusWithdrawn, to)
		if to == StatusWithdrawn {
			if err != nil {
				t.Fatalf("withdrawn -> withdrawn must be a no-op, got %v", err)
			}
			return
		}
		if err == nil {
			t.Fatalf("withdrawn -> %s must be rejected", to)
		}
	})
}

func TestStatusAndConditionValidation(t *testing.T) {
	assert.True(t, StatusAvailable.Valid())
	assert.False(t, Status("misplaced").Valid())
	assert.True(t, ConditionPoor.Valid())
	assert.False(t, Condition("destroyed").Valid())
}
