// Package orchestration manages the lifecycle of the service under test: as a container, as
// a systemd unit on the local machine, or as something started by someone else.
package orchestration
