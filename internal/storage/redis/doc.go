// Package redisstore is the connection and command runner every other
// package talks to the store through. It wraps a go-redis UniversalClient
// with labelled command execution, pipelines, pinned connections and a
// minimal metrics hook.
//
// Usage:
//
//	st, err := redisstore.Open(ctx, redisstore.Options{Addrs: []string{"127.0.0.1:6379"}})
//	if err != nil { /* handle */ }
//	defer st.Close()
//
//	// One labelled command; driver failures come back as *TechnicalError.
//	var n int64
//	err = st.Run(ctx, "xlen", func(c redis.Cmdable) error {
//	    var err error
//	    n, err = c.XLen(ctx, "orders:stream").Result()
//	    return err
//	})
//
//	// A pinned connection for a sequence of commands.
//	conn, _ := st.Conn(ctx)
//	defer conn.Close()
//
// redis.Nil is never wrapped: it is the "absent" signal and callers test it
// with IsNotFound.
package redisstore
