// Package resilience keeps the image prober away from origins that keep
// failing.
//
// A Breaker counts call outcomes while closed and opens once ReadyToTrip
// says so. While open every call fails fast with ErrCircuitOpen. After
// Timeout it lets MaxRequests trial calls through; enough trial successes
// close it, one trial failure opens it again.
//
// Group keys breakers by remote host:
//
//	group := resilience.NewGroup(resilience.Settings{Timeout: time.Minute})
//	data, err := resilience.Execute(group.Get(u.Host), fetch)
//
// IsSuccessful decides which errors count against a host. The prober treats
// 4xx responses as successes so a missing image does not trip the breaker.
package resilience
