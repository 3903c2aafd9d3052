// Package asyncx holds the goroutine helpers used for fire-and-forget work,
// such as dispatching analytics events off the request path.
//
// Every goroutine started here recovers panics and reports them through logx,
// so a misbehaving collaborator can never take the process down.
//
//	var g asyncx.Group
//	g.Go(func() { sink.ValidationSucceeded(ctx, "a@b.com") })
//	g.Wait()
package asyncx
