// Package lakecontract contains the contract tests of the lake message relay and their
// supporting API.
//
// Infrastructure that is not specific to the relay, such as running tests and collecting
// results, is in the lower-level framework package. Talking to the relay over its message
// bus is done by the messaging package, and starting and stopping it by orchestration.
package lakecontract
