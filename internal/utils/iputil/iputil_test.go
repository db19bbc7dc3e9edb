package iputil

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrefix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10.0.0.0/8", "10.0.0.0/8"},
		{"10.1.2.3/8", "10.0.0.0/8"},
		{"192.168.1.1", "192.168.1.1/32"},
		{"2001:db8::1", "2001:db8::1/128"},
		{"2001:db8::/32", "2001:db8::/32"},
		{"::ffff:10.0.0.1", "10.0.0.1/32"},
		{"::ffff:10.0.0.0/104", "10.0.0.0/8"},
		{" 172.16.0.0/12 ", "172.16.0.0/12"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, err := ParsePrefix(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.String())
		})
	}

	for _, bad := range []string{"", "10.0.0.0/33", "not-an-ip", "1.2.3"} {
		_, err := ParsePrefix(bad)
		assert.Error(t, err, bad)
	}
}

func TestContains(t *testing.T) {
	v4 := netip.MustParseAddr("10.20.30.40")
	assert.True(t, Contains("10.0.0.0/8", v4))
	assert.True(t, Contains("10.20.30.40", v4))
	assert.False(t, Contains("192.168.0.0/16", v4))
	assert.True(t, Contains("10.0.0.0/8", netip.MustParseAddr("::ffff:10.20.30.40")))
	assert.False(t, Contains("bogus", v4))
	assert.False(t, Contains("10.0.0.0/8", netip.Addr{}))

	assert.True(t, IsValidCIDR("fe80::/10"))
	assert.False(t, IsValidCIDR("fe80::/129"))
}
