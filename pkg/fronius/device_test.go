package fronius

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDeviceID(t *testing.T) {
	for raw := 0; raw <= MaxDeviceID; raw++ {
		id, err := ParseDeviceID(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, id.Int())
	}

	for _, raw := range []int{100, 101, 255, 256, 1000, -1} {
		_, err := ParseDeviceID(raw)
		var idErr *InvalidDeviceIDError
		require.True(t, errors.As(err, &idErr), "expected InvalidDeviceIDError for %d", raw)
		assert.Equal(t, raw, idErr.Value)
	}
}

func TestParseDeviceIDString(t *testing.T) {
	id, err := ParseDeviceIDString(" 42 ")
	require.NoError(t, err)
	assert.Equal(t, 42, id.Int())
	assert.Equal(t, "42", id.String())

	_, err = ParseDeviceIDString("abc")
	assert.Error(t, err)

	_, err = ParseDeviceIDString("100")
	var idErr *InvalidDeviceIDError
	require.ErrorAs(t, err, &idErr)
	assert.Equal(t, 100, idErr.Value)
}

func TestMustDeviceID(t *testing.T) {
	assert.Equal(t, 7, MustDeviceID(7).Int())
	assert.Panics(t, func() { MustDeviceID(100) })
}

func TestDeviceInfoDevices(t *testing.T) {
	info := DeviceInfo{
		DeviceTypeMeter: {
			"10": &ActiveDevice{},
			"0":  &ActiveDevice{},
			"x":  &ActiveDevice{},
		},
	}
	ids := info.Devices(DeviceTypeMeter)
	require.Len(t, ids, 2)
	assert.Equal(t, 0, ids[0].Int())
	assert.Equal(t, 10, ids[1].Int())
	assert.Empty(t, info.Devices(DeviceTypeStorage))
}
