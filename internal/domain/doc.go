// Package domain contains the core types shared across the service.
// It has no dependencies on storage, transport, or HTTP concerns.
package domain
