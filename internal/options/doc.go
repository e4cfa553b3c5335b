// Package options validates string-keyed option overlays supplied by remote
// callers and the configuration file.
//
// Two contexts exist. Task options may be given when a job is added or changed
// later; global options tune process-wide limits. Each context owns a fixed
// allow-list. Validation covers the whole input before anything is returned,
// so callers apply a result only when every key and value is acceptable.
// Values are canonicalized (size literals become byte counts) so readers never
// re-parse suffixes.
package options
