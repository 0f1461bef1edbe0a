// Package redis provides a Redis-backed session.TokenStore for deployments
// where one persisted session is shared across process restarts or instances.
//
// The token record is stored as a single JSON value under a caller-chosen
// key. When the persisted token carries a readable expiry, the key's TTL is
// pinned to it so Redis forgets the record at the same moment the token dies.
//
// # Usage
//
//	client, err := redis.Connect(ctx, redis.Config{
//		ConnectionURL: "redis://localhost:6379/0",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	store, err := redis.NewStore(client, "session:workstation-1")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	manager, err := session.New(store, identityClient)
//
// Connection URLs use the standard redis:// and rediss:// schemes.
package redis
