package ws

// MessageHeartbeat refreshes the session's presence liveness.
type MessageHeartbeat struct {
}

func (msg *MessageHeartbeat) GetType() string {
	return "heartbeat"
}

func (msg *MessageHeartbeat) Process(ctx *MessageContext) error {
	if ctx.Presence != nil {
		ctx.Presence.Heartbeat(ctx.UserID, ctx.DeviceID)
	}
	return nil
}
