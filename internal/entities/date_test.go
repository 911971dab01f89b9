package entities

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"calendar date", "2024-06-01", "2024-06-01"},
		{"utc timestamp", "2024-06-01T23:30:00Z", "2024-06-01"},
		{"offset timestamp normalised to utc", "2024-06-01T23:30:00-05:00", "2024-06-02"},
		{"local timestamp without zone", "2024-06-01T08:00:00", "2024-06-01"},
		{"surrounding whitespace", " 2024-06-01 ", "2024-06-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDate(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.String())
		})
	}

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := ParseDate("next tuesday")
		assert.Error(t, err)
	})

	t.Run("rejects impossible dates", func(t *testing.T) {
		_, err := ParseDate("2024-02-30")
		assert.Error(t, err)
	})
}

func TestDateJSON(t *testing.T) {
	type payload struct {
		Due    Date  `json:"dueDate"`
		Return *Date `json:"returnDate"`
	}

	t.Run("marshals as calendar date and null", func(t *testing.T) {
		due, _ := ParseDate("2024-06-01")
		out, err := json.Marshal(payload{Due: due})
		require.NoError(t, err)
		assert.JSONEq(t, `{"dueDate":"2024-06-01","returnDate":null}`, string(out))
	})

	t.Run("unmarshals timestamps into dates", func(t *testing.T) {
		var p payload
		require.NoError(t, json.Unmarshal([]byte(`{"dueDate":"2024-06-01T10:00:00Z","returnDate":"2024-06-03"}`), &p))
		assert.Equal(t, "2024-06-01", p.Due.String())
		require.NotNil(t, p.Return)
		assert.Equal(t, "2024-06-03", p.Return.String())
	})

	t.Run("empty string is the zero date", func(t *testing.T) {
		var p payload
		require.NoError(t, json.Unmarshal([]byte(`{"dueDate":""}`), &p))
		assert.True(t, p.Due.IsZero())
	})

	t.Run("rejects invalid strings", func(t *testing.T) {
		var p payload
		assert.Error(t, json.Unmarshal([]byte(`{"dueDate":"soon"}`), &p))
		assert.Error(t, json.Unmarshal([]byte(`{"dueDate":42}`), &p))
	})
}

func TestDateScan(t *testing.T) {
	var d Date

	require.NoError(t, d.Scan(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-06-01", d.String())

	require.NoError(t, d.Scan("2024-07-04"))
	assert.Equal(t, "2024-07-04", d.String())

	require.NoError(t, d.Scan([]byte("2024-08-09 00:00:00+00:00")))
	assert.Equal(t, "2024-08-09", d.String())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan(42))
	assert.Error(t, d.Scan("20240809"))
}

func TestDateValue(t *testing.T) {
	d, _ := ParseDate("2024-06-01")
	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", v)

	v, err = Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestDateBefore(t *testing.T) {
	a, _ := ParseDate("2024-06-01")
	b, _ := ParseDate("2024-06-02")
	assert.True(t, a.Before(b))
	assert.False(t, b.Before(a))
	assert.False(t, a.Before(a))
}
