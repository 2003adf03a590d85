// Package mochi binds the authorization engine to a mochi-mqtt server:
// connect attempts, ACL checks, publishes and disconnects are forwarded
// to the engine and its decisions translated to the hook contract.
package mochi

import (
	"bytes"
	"context"

	mqtt "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/packets"

	"github.com/mqguard/mqguard/engine"
)

type Hook struct {
	mqtt.HookBase
	engine *engine.Engine
}

func New(e *engine.Engine) *Hook {
	return &Hook{engine: e}
}

func (h *Hook) ID() string {
	return "mqguard"
}

func (h *Hook) Provides(b byte) bool {
	return bytes.Contains([]byte{
		mqtt.OnConnectAuthenticate,
		mqtt.OnACLCheck,
		mqtt.OnPublish,
		mqtt.OnDisconnect,
	}, []byte{b})
}

func (h *Hook) OnConnectAuthenticate(cl *mqtt.Client, pk packets.Packet) bool {
	decision := h.engine.OnConnect(context.Background(), engine.ConnectRequest{
		ClientID:     cl.ID,
		Username:     string(pk.Connect.Username),
		Password:     string(pk.Connect.Password),
		Endpoint:     cl.Net.Remote,
		CleanSession: pk.Connect.Clean,
	})
	return decision.Accepted()
}

func (h *Hook) OnACLCheck(cl *mqtt.Client, topic string, write bool) bool {
	if write {
		// Publishes carry a payload size; they are decided in OnPublish.
		return true
	}
	return h.engine.OnSubscribe(context.Background(), cl.ID, topic)
}

func (h *Hook) OnPublish(cl *mqtt.Client, pk packets.Packet) (packets.Packet, error) {
	if h.engine.OnPublish(context.Background(), cl.ID, pk.TopicName, int64(len(pk.Payload))) {
		return pk, nil
	}
	return pk, packets.ErrRejectPacket
}

func (h *Hook) OnDisconnect(cl *mqtt.Client, err error, expire bool) {
	h.engine.OnDisconnect(cl.ID)
}
