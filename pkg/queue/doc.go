// Package queue provides a fixed-concurrency join over deferred units of work.
//
// A Queue collects units with Defer and runs them with Await. At most the configured number of
// units run at once; with a concurrency of 1 they run strictly in registration order. The first
// unit that fails wins: Await returns its error and units that have not started yet are skipped.
//
// Example:
//
//	q := queue.New(1)
//	q.Defer(func(ctx context.Context) error {
//	    remote, err = gateway.CreateCustomer(ctx, req)
//	    return err
//	})
//	q.Defer(func(ctx context.Context) error {
//	    return customers.Save(ctx, &entity.StripeCustomer{OwnerID: ownerID, StripeID: remote.ID})
//	})
//	if err := q.Await(ctx); err != nil {
//	    return err
//	}
package queue
