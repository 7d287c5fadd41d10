package ws

import "fmt"

// MessageAck is the receiving client's acknowledgment that it accepted a
// pushed message ("delivered") or displayed it ("read"). Both transitions
// are monotonic; a repeat ack is a no-op.
type MessageAck struct {
	MessageID uint   `json:"message_id"`
	Status    string `json:"status"`
}

func (msg *MessageAck) GetType() string {
	return "ack"
}

func (msg *MessageAck) Process(ctx *MessageContext) error {
	switch msg.Status {
	case "delivered":
		_, err := ctx.Messages.Ack(msg.MessageID, ctx.UserID)
		return err
	case "read":
		_, err := ctx.Messages.MarkRead(msg.MessageID, ctx.UserID)
		return err
	default:
		return fmt.Errorf("unknown ack status: %s", msg.Status)
	}
}
