// Package scrape reads the /metrics endpoint of a running wearguard
// instance and condenses it into a Stats summary for the `stats` command.
//
// Fetch performs the HTTP GET and parses the Prometheus text exposition with
// prometheus/common/expfmt. Families absent from the scrape read as zero.
package scrape
