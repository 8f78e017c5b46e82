package redisgateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drip/pkg/domain"
)

var (
	owner   = domain.MustParseAddress("uniqobk8oGh4XBLMqM68K8M2zNu3CdYX7q5go7whQiv")
	network = domain.MustParseAddress("BYJtTQxe8F1Zi41bzWRStVPf57knpst3JqvZ7P5EMjex")
)

func TestRecordCodec(t *testing.T) {
	rec := Record{Owner: owner, Network: network, State: StateActive, ExpiresAt: 1_800_000_000}
	fields := make(map[string]string)
	for k, v := range encode(rec) {
		fields[k] = v.(string)
	}
	got, err := decode(fields)
	require.NoError(t, err)
	assert.Equal(t, rec, *got)
}

func TestDecodeRejectsMalformedFields(t *testing.T) {
	base := map[string]string{
		"owner":      owner.String(),
		"network":    network.String(),
		"state":      StateActive,
		"expires_at": "0",
	}
	for _, field := range []string{"owner", "network", "expires_at"} {
		t.Run(field, func(t *testing.T) {
			fields := make(map[string]string, len(base))
			for k, v := range base {
				fields[k] = v
			}
			fields[field] = "0OIl"
			_, err := decode(fields)
			assert.Error(t, err)
		})
	}
}
