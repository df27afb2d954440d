// Package seoaudit provides a website SEO and UX auditing tool.
// It crawls a site from a start URL, extracts SEO-relevant facts from every
// HTML page, scores pages with rule-based metrics, aggregates site-wide
// issues, and optionally asks a language model for page recommendations.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, goquery/, openai/).
package seoaudit
