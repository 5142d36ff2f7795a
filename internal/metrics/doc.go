// Package metrics holds the Prometheus collectors recorded during a scan.
//
// The tool is a one-shot CLI, so nothing is served over HTTP. Instead the
// collectors live in a dedicated Registry that can be dumped in the text
// exposition format with WriteTextfile, for example into the directory read
// by node_exporter's textfile collector.
package metrics
