// Package youtube talks to the public YouTube web endpoints playscribe needs:
// playlist search and playlist membership through the innertube JSON API, and
// caption track discovery through the watch page.
//
// Only the fields the scheduler consumes are modelled. Responses missing the
// expected structure surface as ErrMalformedPage so callers can retry or
// degrade instead of misreading a partial page.
package youtube
