package ws

// MessageChat sends a chat message over the live session. Semantics match
// the HTTP send endpoint: client_nonce dedup, per-match ordering, dispatcher
// fallback when the receiver has no live session.
type MessageChat struct {
	MatchID     uint   `json:"match_id"`
	Content     string `json:"content"`
	ClientNonce string `json:"client_nonce"`
	ParentID    *uint  `json:"parent_id,omitempty"`
}

func (msg *MessageChat) GetType() string {
	return "chat"
}

func (msg *MessageChat) Process(ctx *MessageContext) error {
	message, err := ctx.Messages.Send(msg.MatchID, ctx.UserID, msg.Content, msg.ClientNonce, msg.ParentID)
	if err != nil {
		return err
	}

	// Echo the persisted message back so the sender learns id/seq/status.
	return ctx.Conn.WriteJSON(map[string]interface{}{
		"type":    "message_sent",
		"payload": message.ToResponse(),
	})
}
