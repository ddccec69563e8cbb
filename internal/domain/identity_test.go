package domain_test

import (
	"testing"

	"github.com/Amund211/riftlight/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitCompoundName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		rawName   string
		name      string
		suffix    string
		hasSuffix bool
	}{
		{rawName: "Ashe#NA1", name: "Ashe", suffix: "NA1", hasSuffix: true},
		{rawName: "Ashe", name: "Ashe", suffix: "", hasSuffix: false},
		{rawName: "Ashe#", name: "Ashe", suffix: "", hasSuffix: true},
		{rawName: "#NA1", name: "", suffix: "NA1", hasSuffix: true},
		{rawName: "a#b#c", name: "a", suffix: "b#c", hasSuffix: true},
		{rawName: "", name: "", suffix: "", hasSuffix: false},
	}

	for _, c := range cases {
		t.Run(c.rawName, func(t *testing.T) {
			t.Parallel()
			name, suffix, hasSuffix := domain.SplitCompoundName(c.rawName)
			assert.Equal(t, c.name, name)
			assert.Equal(t, c.suffix, suffix)
			assert.Equal(t, c.hasSuffix, hasSuffix)
		})
	}
}

func TestCompoundName(t *testing.T) {
	t.Parallel()

	identity := domain.PlayerIdentity{Name: "Ashe", Suffix: "NA1", StableID: "abc"}
	require.Equal(t, "Ashe#NA1", identity.CompoundName())
}

func TestRecordKey(t *testing.T) {
	t.Parallel()

	t.Run("uses a fixed-length prefix of the stable id", func(t *testing.T) {
		t.Parallel()
		key := domain.RecordKey("NA1", "abcdefgh-rest-of-the-stable-id")
		require.Equal(t, "NA1#abcdefgh", key)
	})

	t.Run("short stable ids are used in full", func(t *testing.T) {
		t.Parallel()
		key := domain.RecordKey("NA1", "abc")
		require.Equal(t, "NA1#abc", key)
	})

	t.Run("is deterministic", func(t *testing.T) {
		t.Parallel()
		require.Equal(t,
			domain.RecordKey("EUW1", "0123456789"),
			domain.RecordKey("EUW1", "0123456789"),
		)
	})
}

func TestClampedMaxMatches(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		requested int
		expected  int
	}{
		{name: "within limit", requested: 5, expected: 5},
		{name: "at limit", requested: 100, expected: 100},
		{name: "above limit", requested: 250, expected: 100},
		{name: "zero", requested: 0, expected: 0},
		{name: "negative", requested: -1, expected: 0},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			req := domain.IngestionRequest{RawName: "Ashe", Region: "NA1", MaxMatches: c.requested}
			assert.Equal(t, c.expected, req.ClampedMaxMatches())
		})
	}
}
