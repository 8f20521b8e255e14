package user_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ketanwani/Trading-System/pkg/exchange/user"
)

func TestRegisterAndGet(t *testing.T) {
	r := user.NewRegistry()

	id := r.Register("Alice", "5550100", "alice@example.com")
	require.NotEmpty(t, id)
	assert.True(t, r.Exists(id))

	u, ok := r.Get(id)
	require.True(t, ok)
	assert.Equal(t, "Alice", u.Name)
	assert.Equal(t, "alice@example.com", u.Email)

	_, ok = r.Get("no-such-user")
	assert.False(t, ok)
	assert.False(t, r.Exists("no-such-user"))
}

func TestRegisterGeneratesUniqueIDs(t *testing.T) {
	r := user.NewRegistry()

	a := r.Register("Alice", "5550100", "alice@example.com")
	b := r.Register("Alice", "5550100", "alice@example.com")
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, r.Count())
}

func TestConcurrentRegistration(t *testing.T) {
	r := user.NewRegistry()

	const workers = 32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Register(fmt.Sprintf("user_%d", i), "5550100", "user@example.com")
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, r.Count())
}
