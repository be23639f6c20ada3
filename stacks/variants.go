package stacks

import (
	"github.com/lex00/calc-api-go/internal/stack"
)

// APIVariants declares the same calculate route as API plus two container
// variants of the handler: the container build of the function and the
// container Dart runtime.
func APIVariants(s *stack.Stack) error {
	_, err := declareCalculate(s, map[string]stack.RouteTarget{
		"GET /calculate/container": stack.InlineTarget(stack.FunctionProps{
			Runtime: stack.RuntimeContainer,
			Handler: "calculate",
			Code:    imageCode(s, SettingContainerImage, DefaultContainerContext),
			Tracing: stack.TracingActive,
		}),
		"GET /calculate/dart": stack.InlineTarget(stack.FunctionProps{
			Runtime: stack.RuntimeContainer,
			Handler: "calculate",
			Code:    imageCode(s, SettingDartImage, DefaultDartContext),
			Tracing: stack.TracingActive,
		}),
	})
	return err
}

// imageCode uses a pushed image when one is configured, otherwise the local
// build context whose image URI is supplied at deploy time.
func imageCode(s *stack.Stack, setting, context string) stack.Code {
	if uri := s.Setting(setting, ""); uri != "" {
		return stack.FromImage(uri)
	}
	return stack.FromImageAsset(context)
}
