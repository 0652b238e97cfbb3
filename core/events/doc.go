// Package events publishes import lifecycle events.
//
// When a NATS URL is configured, each finished import and each recorded grade is
// published as a JSON envelope on "<subject>.<event>". Downstream consumers use
// these to refresh dashboards without polling the stats endpoint.
package events
