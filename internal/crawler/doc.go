// Package crawler implements the page classification and traversal logic
// for hierarchical nonprofit directories.
//
// # Architecture
//
// A directory is organised as country page -> city pages (paginated) ->
// nonprofit detail pages. The package is built around four pieces:
//
//   - Layout: the URL templates of the directory, parameterised by country
//   - Classifier: decides the PageKind of a fetched response. The content
//     stage (nonprofit marker present) runs first; the URL stage
//     (ClassifyURL) runs only when the content stage says no.
//   - Handlers: one handler per PageKind, looked up in a dispatch table.
//     Each handler returns follow-up targets or a single record.
//   - Spider: the traversal driver. It owns a FIFO work queue, fetches each
//     target through a Fetcher, classifies, dispatches and emits records to
//     a Sink until the queue is empty.
//
// # Failure model
//
// Nothing that happens to a single target stops the run: fetch failures,
// unknown pages and records with missing required fields are logged, counted
// in model.RunStats and dropped. Only a failing Sink or a cancelled context
// ends a run early.
//
// # Usage
//
//	spider := crawler.NewSpider(fetch, crawler.DefaultLayout(), crawler.DefaultSelectors(),
//	    crawler.WithLogger(logger))
//	for record, err := range spider.Records(ctx, "Thailand") {
//	    ...
//	}
package crawler
