package protocol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tilecraft.ai/internal/protocol"
)

func TestValidateHello(t *testing.T) {
	assert.NoError(t, protocol.ValidateHello([]byte(`{"type":"HELLO","protocol_version":"1.0","player_name":"Knight Alia"}`)))
	assert.Error(t, protocol.ValidateHello([]byte(`{"type":"HELLO","protocol_version":"1.0"}`)))
	assert.Error(t, protocol.ValidateHello([]byte(`{"type":"HELLO","protocol_version":"1.0","player_name":"1bad"}`)))
	assert.Error(t, protocol.ValidateHello([]byte(`{"type":"HELLO","protocol_version":"1.0","player_name":"x","extra":1}`)))
}

func TestValidateAct(t *testing.T) {
	ok := []string{
		`{"type":"ACT","protocol_version":"1.0","id":"a1","action":"MOVE_ITEM","from":[100,100,7],"from_stack":1,"item_type":201,"to":[101,100,7],"count":5}`,
		`{"type":"ACT","protocol_version":"1.0","id":"a2","action":"MOVE_ITEM","from":[65535,3,0],"item_type":301,"to":[100,100,7]}`,
		`{"type":"ACT","protocol_version":"1.0","id":"a3","action":"TRADE_OFFER","from":[65535,5,0],"item_type":701,"target":268435457}`,
		`{"type":"ACT","protocol_version":"1.0","id":"a4","action":"TRADE_CLOSE"}`,
		`{"type":"ACT","protocol_version":"1.0","id":"a5","action":"ATTACK","target":7}`,
	}
	for _, s := range ok {
		assert.NoError(t, protocol.ValidateAct([]byte(s)), s)
	}
	bad := []string{
		`{"type":"ACT","protocol_version":"1.0","id":"b1","action":"MOVE_ITEM","from":[1,2,3]}`,
		`{"type":"ACT","protocol_version":"1.0","id":"b2","action":"FLY"}`,
		`{"type":"ACT","protocol_version":"1.0","id":"b3","action":"MOVE_ITEM","from":[1,2],"to":[1,2,3],"item_type":1}`,
		`{"type":"ACT","protocol_version":"1.0","id":"b4","action":"ATTACK"}`,
		`{"type":"ACT","protocol_version":"1.0","action":"TRADE_CLOSE"}`,
		`not json`,
	}
	for _, s := range bad {
		assert.Error(t, protocol.ValidateAct([]byte(s)), s)
	}
}

func TestDecodeBase(t *testing.T) {
	m, err := protocol.DecodeBase([]byte(`{"type":"ACT","protocol_version":"1.0"}`))
	assert.NoError(t, err)
	assert.Equal(t, protocol.TypeAct, m.Type)
}
