package dut

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePorts_Defaults(t *testing.T) {
	ports, err := ResolvePorts(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultPorts(), ports)

	ports, err = ResolvePorts(map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, "a", ports.A)
	assert.Equal(t, "c_out", ports.COut)
}

func TestResolvePorts_Remap(t *testing.T) {
	ports, err := ResolvePorts(map[string]string{
		"a":     "op_a",
		"sum":   "result",
		"c_out": "carry",
	})
	require.NoError(t, err)
	assert.Equal(t, "op_a", ports.A)
	assert.Equal(t, "b", ports.B) // unmapped roles keep logical names
	assert.Equal(t, "c_in", ports.CIn)
	assert.Equal(t, "result", ports.Sum)
	assert.Equal(t, "carry", ports.COut)
}

func TestResolvePorts_UnknownRole(t *testing.T) {
	_, err := ResolvePorts(map[string]string{"carry_in": "cin"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown signal role")
}

func TestResolvePorts_EmptyName(t *testing.T) {
	_, err := ResolvePorts(map[string]string{"a": ""})
	assert.Error(t, err)
}

func TestResolvePorts_DuplicateName(t *testing.T) {
	_, err := ResolvePorts(map[string]string{"a": "x", "b": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both mapped to port")
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "a", RoleA.String())
	assert.Equal(t, "c_in", RoleCIn.String())
	assert.Equal(t, "c_out", RoleCOut.String())
}
