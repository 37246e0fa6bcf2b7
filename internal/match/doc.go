// Package match folds the decoded scoring event stream into a live view of
// the bout currently on the mat. The tracker is an event sink, so it observes
// exactly what the dispatcher publishes and exposes a copy-on-read snapshot
// for monitoring APIs.
package match
