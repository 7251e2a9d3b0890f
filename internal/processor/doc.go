// Package processor contains the core card generation logic. It runs the
// content aggregator and the media fetcher for each word, hands the merged
// record to the note reconciler and turns every word into exactly one
// outcome. It is the only coordinator between the other components.
package processor
