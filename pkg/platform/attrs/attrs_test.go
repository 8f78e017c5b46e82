package attrs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractString(t *testing.T) {
	list := []any{"identity", "abc", "amount", uint64(7), 3, "ignored", "reason"}

	assert.Equal(t, "abc", ExtractString(list, "identity"))
	assert.Empty(t, ExtractString(list, "amount"), "non-string value")
	assert.Empty(t, ExtractString(list, "reason"), "dangling key")
	assert.Empty(t, ExtractString(list, "missing"))
}

func TestExtractUint64(t *testing.T) {
	list := []any{"amount", uint64(1_249_980), "identity", "abc"}

	assert.Equal(t, uint64(1_249_980), ExtractUint64(list, "amount"))
	assert.Zero(t, ExtractUint64(list, "identity"))
}
