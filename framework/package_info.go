// Package framework contains the low-level implementation of test harness infrastructure
// that can be reused for different kinds of tests.
//
// The general model is:
//
// 1. The test harness drives a service that runs outside of this process. It can probe
// the service's HTTP health resource, and domain packages add whatever other channels
// they need to talk to it.
//
// 2. There is a general notion of a test context which is similar to Go's *testing.T,
// allowing pieces of test logic to be associated with a test identifier and to accumulate
// success/failure results.
//
// 3. Anything asynchronous is awaited with the polling helpers in this package, which
// return a result instead of failing the test themselves.
//
// The domain-specific code that knows what is being tested is responsible for starting
// the service, exchanging messages with it, and providing a domain-specific test API on
// top of the test context.
package framework
