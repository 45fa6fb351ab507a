/*
Package dispatcher is the public entry point of the task dispatch registry.
It resolves a published request to a registered broker and runs it, either waiting for the
outcome (Publish, Call) or handing it to a callback (PublishAsync).
*/
package dispatcher
