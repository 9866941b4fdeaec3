// Package worker executes pi jobs. A Runner runs one job and is the only
// writer of its status once the job left the queue. A Pool feeds a Runner
// from an in-process queue and a Reaper drops terminal statuses past their
// retention.
package worker
