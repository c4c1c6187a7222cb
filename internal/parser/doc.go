// Package parser turns sitemaps.org XML documents into model.Sitemap values.
//
// Parse is total: it never returns an error. A document that is not
// well-formed XML, or whose root element is neither <urlset> nor
// <sitemapindex>, yields an empty sitemap. Inside a well-formed document each
// <url> or <sitemap> element is extracted on a best-effort basis:
//
//   - an element without a usable absolute <loc> is dropped
//   - <lastmod> is parsed as a W3C datetime; anything else is treated as absent
//   - <changefreq> must be one of the seven sitemaps.org tokens, matched exactly
//   - <priority> must be a decimal in [0, 1]; anything else becomes 0.5
//
// Documents that declare a non UTF-8 encoding in their XML prolog are decoded
// with golang.org/x/net/html/charset.
package parser
