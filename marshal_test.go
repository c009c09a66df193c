package tinybits

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

type person struct {
	Name    string `tinybits:"name"`
	Age     int64  `tinybits:"age"`
	Hidden  string `tinybits:"-"`
	private string
}

func TestMarshalUnmarshalStruct(t *testing.T) {
	in := person{Name: "Ada", Age: 36, Hidden: "dropped"}
	data, err := Marshal(in)
	require.NoError(t, err)

	var out person
	require.NoError(t, Unmarshal(data, &out))
	require.Equal(t, "Ada", out.Name)
	require.Equal(t, int64(36), out.Age)
	require.Empty(t, out.Hidden)
}

func TestMarshalUnmarshalSlice(t *testing.T) {
	in := []int{1, 2, 3, 4}
	data, err := Marshal(in)
	require.NoError(t, err)

	var out []int64
	require.NoError(t, Unmarshal(data, &out))
	require.Equal(t, []int64{1, 2, 3, 4}, out)
}

func TestMarshalUnmarshalMap(t *testing.T) {
	in := map[string]int{"a": 1, "b": 2}
	data, err := Marshal(in)
	require.NoError(t, err)

	var out map[string]int64
	require.NoError(t, Unmarshal(data, &out))
	require.Equal(t, map[string]int64{"a": 1, "b": 2}, out)
}

func TestMarshalUnmarshalNestedStruct(t *testing.T) {
	type address struct {
		City string `tinybits:"city"`
	}
	type employee struct {
		Name string  `tinybits:"name"`
		Addr address `tinybits:"addr"`
	}
	in := employee{Name: "Grace", Addr: address{City: "NYC"}}
	data, err := Marshal(in)
	require.NoError(t, err)

	var out employee
	require.NoError(t, Unmarshal(data, &out))
	require.Equal(t, in, out)
}

func TestMarshalPrimitives(t *testing.T) {
	cases := []interface{}{nil, true, false, "hi", []byte{1, 2, 3}, int64(-42), 3.25, math.NaN()}
	for _, v := range cases {
		data, err := Marshal(v)
		require.NoError(t, err, "%v", v)
		require.NotEmpty(t, data)
	}
}

func TestMarshalIntoSharesDedupAcrossValues(t *testing.T) {
	p := NewPacker(64, FeatureStringDedupe)
	require.NoError(t, MarshalInto(p, "shared"))
	require.NoError(t, MarshalInto(p, "shared"))

	u := NewUnpacker()
	u.SetBuffer(p.Bytes())
	var val Value
	require.Equal(t, KindStr, u.UnpackValue(&val))
	require.True(t, val.StrID < 0)
	require.Equal(t, KindStr, u.UnpackValue(&val))
	require.True(t, val.StrID > 0, "second MarshalInto call should see the first call's dedup entry")
}

func TestUnmarshalRejectsNonPointer(t *testing.T) {
	data, err := Marshal(5)
	require.NoError(t, err)
	var out int64
	err = Unmarshal(data, out)
	require.Error(t, err)
}

type customCodec struct {
	val int64
}

func (c *customCodec) MarshalTinybits(p *Packer) error {
	_, err := p.PackInt(c.val * 2)
	return err
}

func (c *customCodec) UnmarshalTinybits(u *Unpacker) error {
	var val Value
	if kind := u.UnpackValue(&val); kind != KindInt {
		return u.LastError()
	}
	c.val = val.Int / 2
	return nil
}

func TestMarshalUnmarshalCustomCodec(t *testing.T) {
	in := &customCodec{val: 21}
	data, err := Marshal(in)
	require.NoError(t, err)

	out := &customCodec{}
	require.NoError(t, Unmarshal(data, out))
	require.Equal(t, int64(21), out.val)
}
