// Command agentcore runs the security agent's core subsystem: the fog
// messaging client, the policy compiler, and the keyword pattern-matching
// engine.
package main

import "github.com/openappsec-go/agentcore/cmd/agentcore/cmd"

func main() {
	cmd.Execute()
}
