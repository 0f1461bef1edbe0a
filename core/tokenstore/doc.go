// Package tokenstore provides reference implementations of the
// session.TokenStore contract.
//
//   - Memory: process-local, gone on restart. Useful for tests and for
//     ephemeral sessions that should not survive the process.
//   - File: a single JSON record on disk, the durable local storage a
//     client application rebuilds its session from after a restart.
//
// A Redis-backed store for sessions shared across processes lives in
// integration/store/redis.
package tokenstore
