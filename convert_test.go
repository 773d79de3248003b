package recordgen_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/recordgen"
)

func TestConvert(t *testing.T) {
	t.Run("String", func(t *testing.T) {
		s, ok := recordgen.Convert[string]([]byte("ann"))
		assert.True(t, ok)
		assert.Equal(t, "ann", s)

		s, ok = recordgen.Convert[string](42)
		assert.True(t, ok)
		assert.Equal(t, "42", s)

		_, ok = recordgen.Convert[string](map[string]any{})
		assert.False(t, ok)
	})

	t.Run("Int64", func(t *testing.T) {
		n, ok := recordgen.Convert[int64](float64(3))
		assert.True(t, ok)
		assert.Equal(t, int64(3), n)

		n, ok = recordgen.Convert[int64](json.Number("17"))
		assert.True(t, ok)
		assert.Equal(t, int64(17), n)

		_, ok = recordgen.Convert[int64](3.5)
		assert.False(t, ok)
		_, ok = recordgen.Convert[int64]("x")
		assert.False(t, ok)
	})

	t.Run("Int32Overflow", func(t *testing.T) {
		_, ok := recordgen.Convert[int32](int64(1) << 40)
		assert.False(t, ok)
	})

	t.Run("Bool", func(t *testing.T) {
		b, ok := recordgen.Convert[bool](int64(1))
		assert.True(t, ok)
		assert.True(t, b)
		_, ok = recordgen.Convert[bool](int64(2))
		assert.False(t, ok)
	})

	t.Run("Time", func(t *testing.T) {
		want := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
		for _, in := range []any{"2024-03-01 12:30:00", "2024-03-01T12:30:00Z", []byte("2024-03-01T12:30:00"), want} {
			got, ok := recordgen.Convert[time.Time](in)
			assert.True(t, ok, "%v", in)
			assert.True(t, want.Equal(got), "%v", in)
		}
		_, ok := recordgen.Convert[time.Time]("yesterday")
		assert.False(t, ok)
	})

	t.Run("Nil", func(t *testing.T) {
		_, ok := recordgen.Convert[string](nil)
		assert.False(t, ok)
	})

	t.Run("EmptyString", func(t *testing.T) {
		_, ok := recordgen.Convert[int64]("")
		assert.False(t, ok)
		_, ok = recordgen.Convert[time.Time]("")
		assert.False(t, ok)
		s, ok := recordgen.Convert[string]("")
		assert.True(t, ok)
		assert.Equal(t, "", s)
	})

	t.Run("DriverBytes", func(t *testing.T) {
		n, ok := recordgen.Convert[int64]([]byte("12"))
		assert.True(t, ok)
		assert.Equal(t, int64(12), n)

		f, ok := recordgen.Convert[float64]([]byte("1.25"))
		assert.True(t, ok)
		assert.Equal(t, 1.25, f)

		b, ok := recordgen.Convert[bool]([]byte("true"))
		assert.True(t, ok)
		assert.True(t, b)
	})

	t.Run("NumbersAreNotTimes", func(t *testing.T) {
		_, ok := recordgen.Convert[time.Time](int64(1700000000))
		assert.False(t, ok)
	})

	t.Run("BoolIsNotNumber", func(t *testing.T) {
		_, ok := recordgen.Convert[int64](true)
		assert.False(t, ok)
		_, ok = recordgen.Convert[string](true)
		assert.False(t, ok)
	})
}

func TestConvertPtr(t *testing.T) {
	p, ok := recordgen.ConvertPtr[string](nil)
	assert.True(t, ok)
	assert.Nil(t, p)

	p, ok = recordgen.ConvertPtr[string]("a")
	assert.True(t, ok)
	assert.Equal(t, "a", *p)

	_, ok = recordgen.ConvertPtr[int64]("a")
	assert.False(t, ok)
}
