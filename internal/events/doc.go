// Package events provides the in-process publish/subscribe channel that
// carries operation status updates and equipment change notifications
// between the data layer and its consumers.
//
// Delivery is synchronous and totally ordered per topic: Publish runs every
// handler on the caller's goroutine before returning, so a consumer that
// subscribes before an operation starts observes that operation's status
// events in emission order. Handlers must therefore be fast and must not
// block; a consumer needing buffering should hand events off to its own
// channel.
package events
