// Package servicedef describes how the service under test is configured: the LAKE_*
// environment it reads at start and the metrics file it writes.
package servicedef
