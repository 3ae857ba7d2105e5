package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mergeflow/doc-format/go-doc/ir"
)

func TestRoundTrip(t *testing.T) {
	docs := []string{
		`null`,
		`true`,
		`42`,
		`1.5`,
		`18446744073709551616`,
		`"hello"`,
		`[]`,
		`{}`,
		`{"a": [1, "two", null], "b": {"c": false}}`,
	}
	for _, doc := range docs {
		t.Run(doc, func(t *testing.T) {
			n, err := ir.FromJSON([]byte(doc))
			require.NoError(t, err)

			buf := Build(n)
			view, err := At(buf)
			require.NoError(t, err)

			assert.Equal(t, n.Type, view.Type())
			assert.Equal(t, n.TapeLength(), view.TapeLength())
			assert.Zero(t, ir.Compare(n, view.Decode()))
		})
	}
}

func TestFieldLookup(t *testing.T) {
	n, err := ir.FromJSON([]byte(`{"a": 1, "m": 2, "z": 3}`))
	require.NoError(t, err)

	view, err := At(Build(n))
	require.NoError(t, err)

	for field, want := range map[string]int64{"a": 1, "m": 2, "z": 3} {
		v, ok := view.Field(field)
		require.True(t, ok, field)
		assert.Equal(t, want, *v.Decode().Int64)
	}
	_, ok := view.Field("q")
	assert.False(t, ok)
}

func TestBadBuffers(t *testing.T) {
	_, err := At(nil)
	assert.Error(t, err)

	buf := Build(ir.Null())
	buf[0] ^= 0xff
	_, err = At(buf)
	assert.Error(t, err, "corrupt magic")
}

func TestOwned(t *testing.T) {
	n, err := ir.FromJSON([]byte(`{"x": [true]}`))
	require.NoError(t, err)

	o := Own(n)
	assert.Zero(t, ir.Compare(n, o.Root().Decode()))

	o2, err := OwnBuffer(o.Bytes())
	require.NoError(t, err)
	assert.Zero(t, ir.Compare(n, o2.Root().Decode()))
}
