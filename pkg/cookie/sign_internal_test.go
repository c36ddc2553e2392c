package cookie

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSign_NodeCompatible(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "hello.DGDUkGlIkCzPz+C0B064FNgHdEjox7ch8tOBGslZ5QI", sign("hello", "tobiiscool"))
}

func TestEncodeValue(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "s%3Aa%20b%2Bc%2Fd", encodeValue("s:a b+c/d"))
	assert.Equal(t, "s:a b+c/d", decodeValue("s%3Aa%20b%2Bc%2Fd"))
	assert.Equal(t, "plain+value", decodeValue("plain+value"))
	assert.Equal(t, "%zz", decodeValue("%zz"))
}
