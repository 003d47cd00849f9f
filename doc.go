// Package carbon sends measurements to a Graphite carbon backend using the plaintext
// line protocol:
//
//	<prefix>.<name> <value> <unix-seconds> \n
//
// A Client owns one transport (TCP or UDP), dials lazily on the first send and keeps
// the connection for later sends. Values are numbers, bools, durations, or flat records
// (structs, maps with string keys, or types implementing encoding.Flattener) that expand
// into one line per member:
//
//	client, err := carbon.New(ctx, carbon.Options{Address: "graphite:2003", Prefix: "web01"})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	err = client.Send(ctx, "requests", 42)
//	err = client.Send(ctx, "cpu", struct{ User, System float64 }{0.25, 0.05})
//
// Sends are serialized per client. Close may be called from any goroutine; it
// interrupts pending sends and makes every later send fail with
// obserr.ErrUseAfterDispose.
package carbon
