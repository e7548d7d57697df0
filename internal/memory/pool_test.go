package memory

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocateWithinCapacity(t *testing.T) {
	p := New(1024)
	tok, ok := p.Allocate(512, 7)
	require.True(t, ok)
	require.NotEqual(t, Nil, tok)
	require.Equal(t, 512, p.Used())
	require.Equal(t, 512, p.Free())
}

func TestAllocateExceedsCapacityFails(t *testing.T) {
	p := New(100)
	_, ok := p.Allocate(50, 1)
	require.True(t, ok)
	_, ok = p.Allocate(51, 1)
	require.False(t, ok)
	require.Equal(t, 50, p.Used())
}

func TestDeallocateUnknownTokenFails(t *testing.T) {
	p := New(100)
	require.False(t, p.Deallocate(Token{}))
}

func TestDeallocateReleasesAccounting(t *testing.T) {
	p := New(100)
	tok, ok := p.Allocate(40, 1)
	require.True(t, ok)
	require.True(t, p.Deallocate(tok))
	require.Equal(t, 0, p.Used())
	require.False(t, p.Deallocate(tok))
}

func TestFreeOwnerReleasesOnlyThatOwner(t *testing.T) {
	p := New(100)
	_, _ = p.Allocate(10, 1)
	_, _ = p.Allocate(10, 2)
	_, _ = p.Allocate(10, 1)

	freed := p.FreeOwner(1)
	require.Equal(t, 2, freed)
	require.Equal(t, 10, p.Used())
	for _, a := range p.Allocations() {
		require.Equal(t, 2, a.Owner)
	}
}

func TestInvariantSumOfAllocationsEqualsUsed(t *testing.T) {
	p := New(1000)
	_, _ = p.Allocate(100, 1)
	_, _ = p.Allocate(200, 2)
	_, _ = p.Allocate(50, 3)

	sum := 0
	for _, a := range p.Allocations() {
		sum += a.Size
	}
	require.Equal(t, sum, p.Used())
}
