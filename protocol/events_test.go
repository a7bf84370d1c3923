package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c-oreills/ringoffire/domain"
)

func TestHandlers_Targets(t *testing.T) {
	tests := []struct {
		event      string
		data       string
		wantEvent  string
		wantTarget targetKind
	}{
		{event: domain.EventClientCursor, data: `{"x":1}`, wantEvent: domain.EventServerCursor, wantTarget: toPeers},
		{event: domain.EventClientCard, data: `{"suit":"H","face":"K"}`, wantEvent: domain.EventServerCard, wantTarget: toPeers},
		{event: domain.EventClientCards, data: `[]`, wantEvent: domain.EventServerCards, wantTarget: toEveryone},
		{event: domain.EventDisconnect, wantEvent: domain.EventDeregister, wantTarget: toEveryoneElse},
	}

	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			tbl := NewTable()
			tbl.Registry.Register("A", "?name=alice")
			tbl.Registry.Register("B", "?name=bob")

			out, err := handlers[tt.event](tbl, "A", json.RawMessage(tt.data))

			require.NoError(t, err)
			require.Len(t, out, 1)
			assert.Equal(t, tt.wantEvent, out[0].Event)
			assert.Equal(t, tt.wantTarget, out[0].Target.kind)
			if tt.wantTarget == toPeers {
				assert.Equal(t, []string{"B"}, out[0].Target.handles)
			}
		})
	}
}

func TestHandleRegister_CatchUpTargetsOrigin(t *testing.T) {
	tbl := NewTable()
	tbl.Cards.ApplyFullUpdate([]json.RawMessage{json.RawMessage(`{"suit":"H","face":"K"}`)})

	out, err := handleRegister(tbl, "D", json.RawMessage(`"?name=dave"`))

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, domain.EventServerCards, out[0].Event)
	assert.Equal(t, toOrigin, out[0].Target.kind)
	name, _ := tbl.Registry.ResolveName("D")
	assert.Equal(t, "dave", name)
}

func TestHandleConnect_NoEffect(t *testing.T) {
	tbl := NewTable()

	out, err := handleConnect(tbl, "A", nil)

	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Zero(t, tbl.Registry.Len())
}

func TestEncode(t *testing.T) {
	name := "alice"
	data, err := encode(domain.EventDeregister, &name)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"deregister","data":"alice"}`, string(data))

	data, err = encode(domain.EventDeregister, (*string)(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"deregister","data":null}`, string(data))
}
