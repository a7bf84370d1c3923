package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Register(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantName string
	}{
		{name: "plain", payload: "name=alice", wantName: "alice"},
		{name: "leading question mark", payload: "?name=alice", wantName: "alice"},
		{name: "extra keys", payload: "?seat=2&name=bob", wantName: "bob"},
		{name: "escaped", payload: "?name=mary%20jane", wantName: "mary jane"},
		{name: "first wins", payload: "?name=alice&name=bob", wantName: "alice"},
		{name: "blank skipped", payload: "?name=&name=carol", wantName: "carol"},
		{name: "empty", payload: "", wantName: "conn-1"},
		{name: "garbage", payload: "?garbage", wantName: "conn-1"},
		{name: "blank name", payload: "?name=", wantName: "conn-1"},
		{name: "bad escape", payload: "?name=%zz", wantName: "conn-1"},
		{name: "bad pair kept name", payload: "?x=%zz&name=dave", wantName: "dave"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New()

			got := r.Register("conn-1", tt.payload)

			assert.Equal(t, tt.wantName, got)
			name, ok := r.ResolveName("conn-1")
			require.True(t, ok)
			assert.Equal(t, tt.wantName, name)
		})
	}
}

func TestRegistry_Overwrite(t *testing.T) {
	r := New()
	r.Register("A", "?name=alice")
	r.Register("B", "?name=alice")

	assert.Equal(t, 1, r.Len())
	h, ok := r.Handle("alice")
	require.True(t, ok)
	assert.Equal(t, "B", h)

	_, ok = r.ResolveName("A")
	assert.False(t, ok)
	assert.Equal(t, []string{"B"}, r.OtherHandles("A"))
}

func TestRegistry_Rename(t *testing.T) {
	r := New()
	r.Register("A", "?name=alice")
	r.Register("A", "?name=alicia")

	assert.Equal(t, 1, r.Len())
	_, ok := r.Handle("alice")
	assert.False(t, ok)
	name, _ := r.ResolveName("A")
	assert.Equal(t, "alicia", name)
	assert.Equal(t, []string{"A"}, r.OtherHandles("X"))
}

func TestRegistry_OtherHandles(t *testing.T) {
	r := New()
	r.Register("A", "?name=alice")
	r.Register("B", "?name=bob")
	r.Register("C", "?name=carol")

	assert.ElementsMatch(t, []string{"B", "C"}, r.OtherHandles("A"))
	assert.ElementsMatch(t, []string{"A", "B", "C"}, r.OtherHandles("unknown"))

	r.Deregister("B")
	assert.ElementsMatch(t, []string{"C"}, r.OtherHandles("A"))
}

func TestRegistry_Deregister(t *testing.T) {
	r := New()
	r.Register("A", "?name=alice")

	name, ok := r.Deregister("A")
	require.True(t, ok)
	assert.Equal(t, "alice", name)

	_, ok = r.ResolveName("A")
	assert.False(t, ok)
	_, ok = r.Handle("alice")
	assert.False(t, ok)
	assert.Zero(t, r.Len())

	_, ok = r.Deregister("A")
	assert.False(t, ok)
}

func TestRegistry_ResolveUnknown(t *testing.T) {
	r := New()
	_, ok := r.ResolveName("nobody")
	assert.False(t, ok)
}
