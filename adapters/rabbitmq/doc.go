// Package rabbitmq relays dispatch records to a RabbitMQ topic exchange.
// Records are routed as "records.<path>" on the "dispatch" exchange unless overridden.
package rabbitmq
