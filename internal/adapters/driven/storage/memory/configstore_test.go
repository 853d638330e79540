package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore(t *testing.T) {
	store := NewConfigStore()
	require.NotNil(t, store)
	assert.Empty(t, store.Keys())
	assert.Equal(t, ":memory:", store.Path())
}

func TestNewConfigStore_Seeded(t *testing.T) {
	seed := map[string]any{"llm.provider": "groq", "pipeline.top_k": 4}
	store := NewConfigStore(seed)

	assert.Equal(t, "groq", store.GetString("llm.provider"))
	assert.Equal(t, 4, store.GetInt("pipeline.top_k"))

	seed["llm.provider"] = "changed"
	assert.Equal(t, "groq", store.GetString("llm.provider"))
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("llm.model", "gemma2-9b-it"))
	require.NoError(t, store.Set("llm.model", "llama3.2"))

	val, ok := store.Get("llm.model")
	assert.True(t, ok)
	assert.Equal(t, "llama3.2", val)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore(map[string]any{
		"str":    "value",
		"int":    42,
		"int64":  int64(7),
		"float":  2.5,
		"bool":   true,
		"slice":  []any{"a", 1, "b"},
		"strs":   []string{"x"},
		"number": 3,
	})

	tests := []struct {
		name     string
		actual   any
		expected any
	}{
		{"string", store.GetString("str"), "value"},
		{"string wrong type", store.GetString("int"), ""},
		{"int", store.GetInt("int"), 42},
		{"int from int64", store.GetInt("int64"), 7},
		{"int from float", store.GetInt("float"), 2},
		{"int wrong type", store.GetInt("str"), 0},
		{"float", store.GetFloat("float"), 2.5},
		{"float from int", store.GetFloat("number"), 3.0},
		{"float wrong type", store.GetFloat("bool"), 0.0},
		{"bool", store.GetBool("bool"), true},
		{"bool missing", store.GetBool("missing"), false},
		{"slice filters non-strings", store.GetStringSlice("slice"), []string{"a", "b"}},
		{"string slice", store.GetStringSlice("strs"), []string{"x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.actual)
		})
	}
	assert.Nil(t, store.GetStringSlice("missing"))
}

func TestConfigStore_Keys_Sorted(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("pipeline.top_k", 4)
	_ = store.Set("embedding.model", "m")
	_ = store.Set("llm.provider", "groq")

	assert.Equal(t, []string{"embedding.model", "llm.provider", "pipeline.top_k"}, store.Keys())
}

func TestConfigStore_SaveLoad_NoOp(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("k", "v")

	require.NoError(t, store.Save())
	require.NoError(t, store.Load())
	assert.Equal(t, "v", store.GetString("k"))
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("key", n)
		}(i)
		go func() {
			defer wg.Done()
			_ = store.GetInt("key")
			_ = store.Keys()
		}()
	}
	wg.Wait()

	_, ok := store.Get("key")
	assert.True(t, ok)
}
