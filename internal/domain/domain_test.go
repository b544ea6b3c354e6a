package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordKey(t *testing.T) {
	t.Parallel()

	expected := uuid.UUID{
		0x8e, 0xd2, 0xd3, 0x5f, 0x29, 0x11, 0x4c, 0x10,
		0xad, 0x68, 0x58, 0x7c, 0x96, 0xb4, 0x68, 0x6e,
	}

	tests := []struct {
		name    string
		id      string
		want    *uuid.UUID
		wantKey bool
	}{
		{
			name:    "hyphenated uuid",
			id:      "8ed2d35f-2911-4c10-ad68-587c96b4686e",
			want:    &expected,
			wantKey: true,
		},
		{
			name:    "bare hex",
			id:      "8ed2d35f29114c10ad68587c96b4686e",
			want:    &expected,
			wantKey: true,
		},
		{
			name:    "upper case with noise",
			id:      " {8ED2D35F-2911-4C10-AD68-587C96B4686E} ",
			want:    &expected,
			wantKey: true,
		},
		{
			name:    "urn form",
			id:      "urn:uuid:8ed2d35f-2911-4c10-ad68-587c96b4686e",
			want:    &expected,
			wantKey: true,
		},
		{
			name:    "non uuid identifier is hashed",
			id:      "dr359|Falco hypoleucos|136446",
			wantKey: true,
		},
		{
			name:    "empty identifier",
			id:      "",
			wantKey: false,
		},
		{
			name:    "whitespace identifier",
			id:      "   ",
			wantKey: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			key, ok := RecordKey(tt.id)
			assert.Equal(t, tt.wantKey, ok)
			if tt.want != nil {
				assert.Equal(t, *tt.want, key)
			}
			if !tt.wantKey {
				assert.Equal(t, uuid.Nil, key)
			}
		})
	}
}

func TestRecordKey_HashedIsDeterministic(t *testing.T) {
	t.Parallel()

	a, ok := RecordKey("dr359|Falco hypoleucos|136446")
	require.True(t, ok)
	b, ok := RecordKey("dr359|Falco hypoleucos|136446")
	require.True(t, ok)
	c, ok := RecordKey("dr359|Falco hypoleucos|136447")
	require.True(t, ok)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestRecordKey_PrefixedHexIsNotAUUID(t *testing.T) {
	t.Parallel()

	const hex = "0123456789abcdef0123456789abcdef"
	bare, ok := RecordKey(hex)
	require.True(t, ok)
	x, ok := RecordKey("x-" + hex)
	require.True(t, ok)
	y, ok := RecordKey("y-" + hex)
	require.True(t, ok)

	assert.NotEqual(t, x, y, "ids sharing a hex suffix keep distinct keys")
	assert.NotEqual(t, bare, x)
	assert.Equal(t, uuid.NewSHA1(recordKeyNamespace, []byte("x-"+hex)), x)
}

func TestParseRating(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"good", "suspect", "bad"} {
		r, err := ParseRating(valid)
		require.NoError(t, err)
		assert.Equal(t, Rating(valid), r)
	}

	_, err := ParseRating("assumed valid")
	assert.Error(t, err)
}

func TestErrorTypes(t *testing.T) {
	t.Parallel()

	cfgErr := fmt.Errorf("wrapped: %w", NewConfigurationError("retry.attempts", "must be >= 1, got %d", 0))
	assert.True(t, IsConfigurationError(cfgErr))
	assert.Contains(t, cfgErr.Error(), "retry.attempts: must be >= 1, got 0")

	emptyErr := fmt.Errorf("wrapped: %w", &EmptyResponseError{URL: "http://example.com"})
	assert.True(t, IsEmptyResponse(emptyErr))
	assert.False(t, IsEmptyResponse(cfgErr))

	cause := errors.New("connection reset")
	netErr := &TransientNetworkError{URL: "http://example.com", Attempts: 3, Err: cause}
	assert.ErrorIs(t, netErr, cause)
	assert.Equal(t, "fetch http://example.com failed after 3 attempt(s): connection reset", netErr.Error())

	schemaErr := &UnexpectedSchemaError{Expected: []string{"lat_long", "Count"}, Got: []string{"lat_long", "WrongLabel"}}
	assert.Equal(t, "unexpected schema: expected columns [lat_long,Count], got [lat_long,WrongLabel]", schemaErr.Error())
}
