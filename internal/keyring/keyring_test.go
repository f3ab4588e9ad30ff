package keyring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uexgo/pkg/core"
)

func testEntry(id string) *Entry {
	return &Entry{
		ID: id,
		Credentials: core.Credentials{
			APIKey:        "key-" + id,
			SecretKey:     "secret",
			TradePassword: "pass",
			CountryCode:   "86",
			PhoneNumber:   "13800000000",
		},
	}
}

func TestKeyRing_Current(t *testing.T) {
	ring := New([]*Entry{testEntry("a"), testEntry("b")}, RotationRoundRobin)

	creds := ring.Current()
	require.NotNil(t, creds)
	assert.Equal(t, "key-a", creds.APIKey)

	ring.Rotate()
	assert.Equal(t, "key-b", ring.Current().APIKey)

	ring.Rotate()
	assert.Equal(t, "key-a", ring.Current().APIKey)
}

func TestKeyRing_SkipsIncompleteEntries(t *testing.T) {
	incomplete := testEntry("a")
	incomplete.Credentials.TradePassword = ""
	ring := New([]*Entry{incomplete, testEntry("b")}, RotationRoundRobin)

	creds := ring.Current()
	require.NotNil(t, creds)
	assert.Equal(t, "key-b", creds.APIKey, "entries missing required fields are never handed out")
}

func TestKeyRing_RotationOnError(t *testing.T) {
	ring := New([]*Entry{testEntry("a"), testEntry("b")}, RotationOnError)

	assert.Equal(t, "key-a", ring.Current().APIKey)
	ring.OnError(errors.New("signature mismatch"))
	assert.Equal(t, "key-b", ring.Current().APIKey)

	ring.OnError(nil)
	assert.Equal(t, "key-b", ring.Current().APIKey, "nil error must not rotate")
}

func TestKeyRing_DisableEnable(t *testing.T) {
	ring := New([]*Entry{testEntry("a"), testEntry("b")}, RotationRoundRobin)

	ring.Disable("a")
	assert.Equal(t, "key-b", ring.Current().APIKey)

	ring.Disable("b")
	assert.Nil(t, ring.Current())

	ring.Enable("a")
	assert.Equal(t, "key-a", ring.Current().APIKey)
}

func TestKeyRing_Empty(t *testing.T) {
	ring := New(nil, RotationRoundRobin)

	assert.Nil(t, ring.Current())
	assert.Zero(t, ring.Len())
	ring.Rotate()
	ring.OnError(errors.New("x"))
	ring.MarkUsed()
}

func TestEntry_MasksKey(t *testing.T) {
	e := testEntry("a")
	assert.NotContains(t, e.String(), "key-a")

	long := testEntry("b")
	long.Credentials.APIKey = "abcdefghijklmnop"
	assert.Contains(t, long.String(), "abcd****mnop")
}
