package service

// LiveDeliverer is the connection registry's deliver-if-online surface.
// Implemented by ws.Hub.
type LiveDeliverer interface {
	Deliver(userID uint, event interface{}) bool
}

// NotificationQueue is the dispatcher's enqueue surface: the offline path
// for events that could not be delivered live. Implemented by
// dispatch.Dispatcher.
type NotificationQueue interface {
	Enqueue(userID uint, kind string, payload map[string]interface{}) error
	EnqueueTopic(topic, kind string, payload map[string]interface{}) error
}
