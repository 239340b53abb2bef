// Command flowlog queries Loki for pipeline run logs, prints workflow
// definitions, and serves both as tools for an external agent.
package main

func main() {
	Execute()
}
