package netblock

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{
			name:     "canonical network address",
			input:    "10.0.0.0/24",
			expected: "10.0.0.0/24",
		},
		{
			name:     "host bits are masked away",
			input:    "10.0.0.7/24",
			expected: "10.0.0.0/24",
		},
		{
			name:     "single host",
			input:    "192.168.1.1/32",
			expected: "192.168.1.1/32",
		},
		{
			name:     "whole address space",
			input:    "0.0.0.0/0",
			expected: "0.0.0.0/0",
		},
		{
			name:    "missing prefix length",
			input:   "10.0.0.0",
			wantErr: true,
		},
		{
			name:    "prefix length out of range",
			input:   "10.0.0.0/33",
			wantErr: true,
		},
		{
			name:    "IPv6 rejected",
			input:   "2001:db8::/32",
			wantErr: true,
		},
		{
			name:    "garbage",
			input:   "not-a-cidr",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.False(t, b.IsValid())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, b.String())
		})
	}
}

func TestBlockEquality(t *testing.T) {
	t.Parallel()

	a := MustParse("10.0.0.0/24")
	b := MustParse("10.0.0.200/24")
	assert.Equal(t, a, b, "blocks covering the same range compare equal")
	assert.NotEqual(t, a, MustParse("10.0.0.0/25"))
}

func TestBlockContains(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		outer    string
		inner    string
		expected bool
	}{
		{name: "strict subset", outer: "10.0.0.0/8", inner: "10.1.0.0/16", expected: true},
		{name: "identical block", outer: "10.0.0.0/24", inner: "10.0.0.0/24", expected: true},
		{name: "larger block not contained", outer: "10.0.0.0/24", inner: "10.0.0.0/16", expected: false},
		{name: "disjoint", outer: "10.0.0.0/24", inner: "10.0.1.0/24", expected: false},
		{name: "single host inside", outer: "10.0.0.0/30", inner: "10.0.0.3/32", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			outer := MustParse(tt.outer)
			inner := MustParse(tt.inner)
			assert.Equal(t, tt.expected, outer.Contains(inner))
		})
	}
}

func TestBlockOverlaps(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		a        string
		b        string
		expected bool
	}{
		{name: "identical", a: "10.0.0.0/24", b: "10.0.0.0/24", expected: true},
		{name: "containment counts as overlap", a: "10.0.0.0/16", b: "10.0.5.0/24", expected: true},
		{name: "adjacent blocks do not overlap", a: "10.0.0.0/28", b: "10.0.0.16/28", expected: false},
		{name: "disjoint", a: "10.0.0.0/24", b: "192.168.0.0/24", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a := MustParse(tt.a)
			b := MustParse(tt.b)
			assert.Equal(t, tt.expected, a.Overlaps(b))
			assert.Equal(t, tt.expected, b.Overlaps(a), "overlap is symmetric")
		})
	}
}

func TestBlockCompare(t *testing.T) {
	t.Parallel()

	lower := MustParse("10.0.0.0/24")
	higher := MustParse("10.0.1.0/24")
	assert.Equal(t, -1, lower.Compare(higher))
	assert.Equal(t, 1, higher.Compare(lower))
	assert.Equal(t, 0, lower.Compare(lower))

	// Same base address: the larger block sorts first.
	big := MustParse("10.0.0.0/16")
	small := MustParse("10.0.0.0/24")
	assert.Equal(t, -1, big.Compare(small))
}

func TestBlockSize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint64(16), MustParse("10.0.0.0/28").Size())
	assert.Equal(t, uint64(1), MustParse("10.0.0.1/32").Size())
	assert.Equal(t, uint64(1)<<32, MustParse("0.0.0.0/0").Size())
	assert.Equal(t, uint64(0), Block{}.Size())
}

func TestBlockJSONRoundTrip(t *testing.T) {
	t.Parallel()

	type wrapper struct {
		Supernet Block `json:"supernet"`
	}

	data, err := json.Marshal(wrapper{Supernet: MustParse("172.16.0.0/12")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"supernet":"172.16.0.0/12"}`, string(data))

	var decoded wrapper
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, MustParse("172.16.0.0/12"), decoded.Supernet)

	var broken wrapper
	err = json.Unmarshal([]byte(`{"supernet":"fe80::/64"}`), &broken)
	require.Error(t, err)
}

func TestMustParsePanicsOnInvalid(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { MustParse("10.0.0.0/99") })
}
