// Package app is the application layer, the only component that references
// both the store and the bus. It sequences every create: persist first, then
// publish.
package app
