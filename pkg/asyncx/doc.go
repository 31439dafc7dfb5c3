// Package asyncx provides the small set of concurrency helpers the service
// layers share, all with first-class context support.
//
// # Fan-out
//
// [AllSettled] runs functions concurrently and returns one [Result] per
// function in input order, never short-circuiting. The health endpoint uses
// it to check every dependency at once:
//
//	results := asyncx.AllSettled(ctx,
//	    func(ctx context.Context) (string, error) { return "postgres", db.PingContext(ctx) },
//	    func(ctx context.Context) (string, error) { return "redis", rdb.Ping(ctx).Err() },
//	)
//
// # Retry
//
// [RetryWithBackoff] retries with exponentially growing delays and stops as
// soon as the context is cancelled:
//
//	_, err := asyncx.RetryWithBackoff(ctx, 3, 200*time.Millisecond, func(ctx context.Context) (struct{}, error) {
//	    return struct{}{}, mailer.SendEmail(ctx, msg)
//	})
//
// # Timeout
//
// [WithTimeout] bounds a single call; it returns context.DeadlineExceeded
// when fn does not finish in time.
package asyncx
