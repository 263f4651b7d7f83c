// Package messaging publishes and consumes broker messages behind one
// interface so the verification flow does not depend on NSQ, NATS or Kafka
// directly. The driver is chosen at startup with NewFromDriver.
package messaging
