package model

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversation_ConcurrentAppend(t *testing.T) {
	t.Parallel()

	c := NewConversation("system prompt")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Append(Entry{Role: RoleUser, Source: fmt.Sprintf("https://acme.test/%d", i), Content: "x"})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, c.Len())
	assert.Equal(t, "system prompt", c.System())
}

func TestConversation_EntriesIsCopy(t *testing.T) {
	t.Parallel()

	c := NewConversation("")
	c.Append(Entry{Role: RoleUser, Content: "first"})

	entries := c.Entries()
	require.Len(t, entries, 1)
	entries[0].Content = "mutated"

	assert.Equal(t, "first", c.Entries()[0].Content)
}
