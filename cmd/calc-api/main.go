// Command calc-api synthesizes the calculate API stacks into CloudFormation
// templates.
//
// Usage:
//
//	calc-api build api                 Generate CloudFormation template
//	calc-api list api                  Show routes and resources
//	calc-api validate api              Check wiring, cfn-lint and artifacts
//	calc-api diff api api-variants     Compare two stacks or templates
//	calc-api outputs api               Show deployed stack outputs
//	calc-api version                   Show version
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
