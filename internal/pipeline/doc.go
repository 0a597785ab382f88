// Package pipeline runs country crawls as a batch.
//
// A BatchRunner calls one CrawlFunc per country with an errgroup limit on
// how many crawls run at once. A failed country is recorded in its Result
// and never cancels the others; only cancellation of the parent context
// stops the batch. Results come back in input order.
package pipeline
