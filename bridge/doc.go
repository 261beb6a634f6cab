// Package bridge assembles the Tess agent bridge: it wires the upstream API
// client, the tool registry, the execution monitor and the session manager
// behind the protocol server, and exposes the runner used by the standalone
// binary.
package bridge
