// Package prometheus exposes goAccount counters through client_golang.
//
// [Collector] reads [goAccount.Engine.MetricsSnapshot] on every scrape and
// never registers itself globally; callers register it on their own
// registry or use [Handler].
package prometheus
