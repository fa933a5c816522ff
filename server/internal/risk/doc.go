// Package risk buckets a failure probability into an ordinal risk band.
//
// Band thresholds: Green < 0.10 ≤ Yellow < 0.50 ≤ Red. A value sitting exactly
// on a threshold belongs to the higher band.
package risk
