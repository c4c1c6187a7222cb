// Package fetcher retrieves sitemap documents.
//
// The crawl engine depends only on the Fetcher interface, so any function of
// the form func(context.Context, *url.URL) ([]byte, error) can be plugged in
// through FetchFunc. HTTPFetcher is the network implementation:
//
//   - 2xx responses return the body, gunzipped when the URL path ends in
//     ".gz" and the transport has not already decoded the content
//   - 3xx responses are followed manually, resolving relative Location
//     headers against the current URL, up to a fixed number of redirects
//   - every other status fails with a *FetchError carrying the status code
//
// FileFetcher reads file:// locations on the local host, and Mux routes by URL
// scheme. A Mux serves file locations only after WithFiles.
package fetcher
