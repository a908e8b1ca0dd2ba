// Package servicedouble is an in-process stand-in for the service, used to exercise the
// harness without a real deployment.
//
// It binds the same two sockets the service does, a PULL socket for input and a PUB
// socket for output, and relays every payload it pulls to its subscribers. A Responder can
// replace the plain echo. It can also serve the /health resource and keep a metrics file
// in the service's format.
package servicedouble
