package constants

// Method is the extraction path that produced a run's (or a response's) data.
type Method string

const (
	MethodLLM         Method = "llm"
	MethodHeuristic   Method = "heuristic"
	MethodPlaceholder Method = "placeholder"
)

// ResponseSource records which input a response was read from.
type ResponseSource string

const (
	SourceText      ResponseSource = "text"
	SourceVision    ResponseSource = "vision"
	SourceHeuristic ResponseSource = "heuristic"
)

// TextStrategy names a raw text recovery strategy.
type TextStrategy string

const (
	StrategyStructural  TextStrategy = "structural"
	StrategyPatternScan TextStrategy = "pattern-scan"
	StrategyRawDecode   TextStrategy = "raw-decode"
)
