// Package service serves the stats of running nodes over HTTP.
//
// Three endpoints are registered on the service's own mux:
//
//  /stats   // GetStats of every registered node, keyed by name
//  /nodes   // registered names with node ids and states
//  /metrics // Prometheus metrics, labelled by node name
package service
