// Package deadline turns user supplied deadlines into absolute UTC expiry times.
//
// Two syntaxes are accepted and tried in order: an absolute date/time
// (interpreted as UTC when it carries no zone) and a compact relative
// duration such as "8h", "45m" or "1d2h30m".
package deadline
