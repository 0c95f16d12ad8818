// Package instagram is the direct web-API collection strategy: an
// authenticated client that resolves profiles and pages through follower
// lists using session cookies. It is slower than the batch backend but
// needs no third-party service, only valid cookies.
package instagram
