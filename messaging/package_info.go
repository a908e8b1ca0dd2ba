// Package messaging is the client side of the service's message bus.
//
// A Connection holds two ZeroMQ style sockets: an inbound SUB socket subscribed to every
// topic, and an outbound PUSH socket. While a Connection is started, a single receiver
// goroutine drains the inbound socket into the Connection's Mailbox, where test logic can
// look for expected replies and acknowledge them.
//
// The reserved payload "!" (Sentinel) is used only by Handshake, which confirms that the
// service's sockets are live end to end. It is never stored in the Mailbox.
//
// A Connection is meant to be driven from one goroutine, as a test runner does. Mailbox
// reads and acknowledgements are safe to call concurrently with the receiver.
package messaging
