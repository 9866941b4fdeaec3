// Package job holds the data model shared by the dispatcher, the workers and
// the status readers: job identifiers, validated parameters, queued tasks and
// the closed set of states a job can be observed in.
package job
