package kernel

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		DataType:      dtypes.Float32,
		DestType:      dtypes.Float32,
		ComputeType:   dtypes.Float32,
		GlobalSplitU:  1,
		BufferStore:   true,
		WavefrontSize: 64,
	}
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	c := validConfig()
	c.WavefrontSize = 48
	require.ErrorContains(t, c.Validate(), "WavefrontSize")

	c = validConfig()
	c.DestType = dtypes.Uint64
	require.ErrorContains(t, c.Validate(), "not a supported storage type")

	c = validConfig()
	c.Accum = AccumSingleBuffer
	require.ErrorContains(t, c.Validate(), "GlobalSplitU")
	c.GlobalSplitU = 4
	require.NoError(t, c.Validate())

	c = validConfig()
	c.StoreRemapVectorWidth = 4
	c.BufferStore = false
	require.ErrorContains(t, c.Validate(), "store remap")

	c = validConfig()
	c.Gradient = true
	c.Activation = ActivationRelu
	require.ErrorContains(t, c.Validate(), "E tensor")
	c.UseE = true
	require.ErrorContains(t, c.Validate(), "DataTypeE")
	c.DataTypeE = dtypes.Float32
	c.Bias = BiasWriteReduced
	require.NoError(t, c.Validate())

	c = validConfig()
	c.Bias = BiasWriteReduced
	require.ErrorContains(t, c.Validate(), "gradient feature")
}

func TestRegCount(t *testing.T) {
	assert.Equal(t, 1, RegCount(dtypes.Float32, 1))
	assert.Equal(t, 4, RegCount(dtypes.Float32, 4))
	assert.Equal(t, 1, RegCount(dtypes.Float16, 2))
	assert.Equal(t, 2, RegCount(dtypes.Float16, 4))
	assert.Equal(t, 1, RegCount(dtypes.Int8, 4))
	assert.Equal(t, 8, RegCount(dtypes.Float64, 4))
	assert.Equal(t, 1, RegCount(dtypes.F8E4M3FNUZ, 2), "sub-register values still occupy one register")
}

func TestConfig_LaneSGPRCount(t *testing.T) {
	c := validConfig()
	assert.Equal(t, 2, c.LaneSGPRCount())
	c.WavefrontSize = 32
	assert.Equal(t, 1, c.LaneSGPRCount())
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "WriteReduced", BiasWriteReduced.String())
	assert.Equal(t, "MultipleBuffer", AccumMultipleBuffer.String())
	assert.Equal(t, "GeluScaling", ActivationGeluScaling.String())

	kind, err := ActivationKindString("Relu")
	require.NoError(t, err)
	assert.Equal(t, ActivationRelu, kind)
}
