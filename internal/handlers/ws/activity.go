package ws

// MessageActivity starts or ends an ephemeral activity (typing, viewing).
// Activities implicitly mark the user online; typing auto-expires even
// without an explicit end frame.
type MessageActivity struct {
	Type     string `json:"activity_type"`
	TargetID *uint  `json:"target_id,omitempty"`
	Ended    bool   `json:"ended,omitempty"`
}

func (msg *MessageActivity) GetType() string {
	return "activity"
}

func (msg *MessageActivity) Process(ctx *MessageContext) error {
	if ctx.Presence == nil {
		return nil
	}
	if msg.Ended {
		ctx.Presence.EndActivity(ctx.UserID, msg.Type)
	} else {
		ctx.Presence.Touch(ctx.UserID, msg.Type, msg.TargetID)
	}
	return nil
}
