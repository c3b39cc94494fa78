package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/codd/internal/model"
)

func TestRound(t *testing.T) {
	tests := []struct {
		args []model.Value
		want string
	}{
		{[]model.Value{model.Int(7)}, "7"},
		{[]model.Value{model.Int(7), model.Int(2)}, "7"},
		{[]model.Value{model.Int(1234), model.Int(-2)}, "1200"},
		{[]model.Value{model.Int(1250), model.Int(-2)}, "1200"},
		{[]model.Value{model.Int(1350), model.Int(-2)}, "1400"},
		{[]model.Value{model.Int(-1260), model.Int(-1)}, "-1260"},
		{[]model.Value{model.Int(-1265), model.Int(-1)}, "-1260"},
		{[]model.Value{model.MustDecimal("1234.5"), model.Int(-2)}, "1200"},
		{[]model.Value{model.MustDecimal("2.5")}, "2"},
		{[]model.Value{model.MustDecimal("3.5")}, "4"},
		{[]model.Value{model.MustDecimal("1.005"), model.Int(2)}, "1.00"},
		{[]model.Value{model.MustDecimal("76666.6667"), model.Int(1)}, "76666.7"},
		{[]model.Value{model.String("2.75"), model.Int(1)}, "2.8"},
	}

	for _, tt := range tests {
		got, err := round(tt.args)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.String(), "round(%v)", tt.args)
	}
}

func TestRound_NegativePlacesKeepsInt(t *testing.T) {
	got, err := round([]model.Value{model.Int(1234), model.Int(-2)})
	require.NoError(t, err)
	assert.Equal(t, model.Int(1200), got)

	_, err = round([]model.Value{model.Int(math.MaxInt64), model.Int(-1)})
	assert.True(t, HasCode(err, ErrCodeOverflow))
}

func TestRound_Errors(t *testing.T) {
	_, err := round(nil)
	assert.True(t, HasCode(err, ErrCodeInvalid))

	_, err = round([]model.Value{model.String("x")})
	assert.True(t, HasCode(err, ErrCodeTypeMismatch))

	_, err = round([]model.Value{model.MustDecimal("1.5"), model.MustDecimal("0.5")})
	assert.True(t, HasCode(err, ErrCodeTypeMismatch))
}

func TestAbs(t *testing.T) {
	got, err := abs([]model.Value{model.Int(-3)})
	require.NoError(t, err)
	assert.Equal(t, model.Int(3), got)

	got, err = abs([]model.Value{model.MustDecimal("-2.50")})
	require.NoError(t, err)
	assert.Equal(t, "2.50", got.String())

	_, err = abs([]model.Value{model.Int(1), model.Int(2)})
	assert.True(t, HasCode(err, ErrCodeInvalid))
}

func TestBuiltinFunctions(t *testing.T) {
	funcs := builtinFunctions()
	assert.Contains(t, funcs, "round")
	assert.Contains(t, funcs, "abs")
}
