package parallel

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idelchi/dutree/internal/du"
)

func TestOutboxFIFO(t *testing.T) {
	t.Parallel()

	var out outbox

	_, ok := out.poll()
	require.False(t, ok)

	errBoom := errors.New("boom")

	out.push(result{entry: du.NewEntry(du.Root, du.NewInfo("a", du.KindFile, 1), "a")})
	out.push(result{err: errBoom})
	assert.Equal(t, 2, out.size())

	first, ok := out.poll()
	require.True(t, ok)
	assert.Equal(t, "a", first.entry.Info.Name)

	second, ok := out.poll()
	require.True(t, ok)
	require.ErrorIs(t, second.err, errBoom)

	_, ok = out.poll()
	assert.False(t, ok)
	assert.Zero(t, out.size())
}

func TestOutboxConcurrentProducers(t *testing.T) {
	t.Parallel()

	const producers, each = 8, 500

	var (
		out outbox
		wg  sync.WaitGroup
	)

	for range producers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range each {
				out.push(result{})
			}
		}()
	}

	received := 0

	for received < producers*each {
		if _, ok := out.poll(); ok {
			received++
		}
	}

	wg.Wait()

	assert.Zero(t, out.size())
}
