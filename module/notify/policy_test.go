package notify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"JProject/tools/errs"
)

func TestDefaultPolicyIsDisabledButUsable(t *testing.T) {
	p := DefaultPolicy()
	require.False(t, p.Enabled)
	require.NoError(t, p.Validate())
}

func TestPolicyValidate(t *testing.T) {
	p := DefaultPolicy()
	p.Delayed.DelayMinutes = 0
	err := p.Validate()
	require.Error(t, err)
	require.ErrorIs(t, err, errs.ErrPolicyInvalid)

	p = DefaultPolicy()
	p.Delayed.Enabled = false
	p.Delayed.DelayMinutes = 0
	require.NoError(t, p.Validate(), "delay bound only applies when the delayed path is on")

	p = DefaultPolicy()
	p.Throttle.WindowMinutes = 0
	require.Error(t, p.Validate())

	p = DefaultPolicy()
	p.Throttle.MaxPerWindow = 0
	require.Error(t, p.Validate())
}
