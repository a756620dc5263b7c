package translation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeEmptyMapIsDistinctFromEmptyFile(t *testing.T) {
	data, err := encode(nil)
	require.NoError(t, err)
	require.False(t, isBlank(data))
	require.JSONEq(t, `{"Translations": {}}`, string(data))

	decoded, err := decode(data)
	require.NoError(t, err)
	require.NotNil(t, decoded)
	require.Empty(t, decoded)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[string]string
		corrupt bool
	}{
		{name: "translations", input: `{"Translations":{"a":"b"}}`, want: map[string]string{"a": "b"}},
		{name: "field name is case insensitive", input: `{"translations":{"a":"b"}}`, want: map[string]string{"a": "b"}},
		{name: "unknown fields are ignored", input: `{"Version":2,"Translations":{}}`, want: map[string]string{}},
		{name: "missing translations", input: `{}`, corrupt: true},
		{name: "null translations", input: `{"Translations":null}`, corrupt: true},
		{name: "array", input: `[]`, corrupt: true},
		{name: "non string values", input: `{"Translations":{"a":1}}`, corrupt: true},
		{name: "garbage", input: `Translations = a`, corrupt: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decode([]byte(tt.input))
			if tt.corrupt {
				require.True(t, errors.Is(err, ErrResourceCorrupt), "expected corrupt error, got %v", err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestIsBlank(t *testing.T) {
	require.True(t, isBlank(nil))
	require.True(t, isBlank([]byte(" \n\t")))
	require.False(t, isBlank([]byte("{}")))
}
