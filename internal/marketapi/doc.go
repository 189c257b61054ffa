// Package marketapi provides access to the external card marketplace REST
// API. It is the ingestion boundary: jobs fetch a card's current listing
// (prices and recent completed orders) here and append the result to the
// event log. The client retries transient failures with jittered backoff.
package marketapi
