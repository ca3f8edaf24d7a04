package rpc

// These are the values carried over the wire. Each one is encoded as a
// google.protobuf.Struct; see codec.go.

type DispatchResult struct {
	IsCommand bool
	Executed  bool
	Success   bool
	Code      int
	Error     string
	Output    []string
}

type Suggestion struct {
	Text    string
	Tooltip string
	Start   int
	End     int
}

// Completion mirrors commands.Completion. ErrorCursor is -1 when Error is
// empty.
type Completion struct {
	Start       int
	End         int
	Suggestions []Suggestion
	Usage       []string
	Error       string
	ErrorCursor int
}

type Detection struct {
	Name   string
	Handle string
	Text   string
	Start  int
	End    int
}

type Observation struct {
	IsMessage  bool
	Name       string
	Tag        string
	Message    string
	Ignored    bool
	Detections []Detection
}
