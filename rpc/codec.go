package rpc

import (
	"google.golang.org/protobuf/types/known/structpb"
)

type fields map[string]*structpb.Value

func (f fields) toStruct() *structpb.Struct {
	return &structpb.Struct{Fields: f}
}

func str(s string) *structpb.Value {
	return structpb.NewStringValue(s)
}

func num(n int) *structpb.Value {
	return structpb.NewNumberValue(float64(n))
}

func boolean(b bool) *structpb.Value {
	return structpb.NewBoolValue(b)
}

func strs(ss []string) *structpb.Value {
	values := make([]*structpb.Value, len(ss))
	for i, s := range ss {
		values[i] = str(s)
	}

	return structpb.NewListValue(&structpb.ListValue{Values: values})
}

func list(structs []*structpb.Struct) *structpb.Value {
	values := make([]*structpb.Value, len(structs))
	for i, s := range structs {
		values[i] = structpb.NewStructValue(s)
	}

	return structpb.NewListValue(&structpb.ListValue{Values: values})
}

// The getters below return zero values for missing fields, matching proto3
// semantics.

func getString(s *structpb.Struct, name string) string {
	return s.GetFields()[name].GetStringValue()
}

func getInt(s *structpb.Struct, name string) int {
	return int(s.GetFields()[name].GetNumberValue())
}

func getBool(s *structpb.Struct, name string) bool {
	return s.GetFields()[name].GetBoolValue()
}

func getStrings(s *structpb.Struct, name string) []string {
	values := s.GetFields()[name].GetListValue().GetValues()
	if len(values) == 0 {
		return nil
	}

	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.GetStringValue()
	}

	return out
}

func getStructs(s *structpb.Struct, name string) []*structpb.Struct {
	values := s.GetFields()[name].GetListValue().GetValues()
	if len(values) == 0 {
		return nil
	}

	out := make([]*structpb.Struct, len(values))
	for i, v := range values {
		out[i] = v.GetStructValue()
	}

	return out
}

func (r DispatchResult) toStruct() *structpb.Struct {
	return fields{
		"is_command": boolean(r.IsCommand),
		"executed":   boolean(r.Executed),
		"success":    boolean(r.Success),
		"code":       num(r.Code),
		"error":      str(r.Error),
		"output":     strs(r.Output),
	}.toStruct()
}

func dispatchResultFromStruct(s *structpb.Struct) DispatchResult {
	return DispatchResult{
		IsCommand: getBool(s, "is_command"),
		Executed:  getBool(s, "executed"),
		Success:   getBool(s, "success"),
		Code:      getInt(s, "code"),
		Error:     getString(s, "error"),
		Output:    getStrings(s, "output"),
	}
}

func (c Completion) toStruct() *structpb.Struct {
	suggestions := make([]*structpb.Struct, len(c.Suggestions))
	for i, s := range c.Suggestions {
		suggestions[i] = fields{
			"text":    str(s.Text),
			"tooltip": str(s.Tooltip),
			"start":   num(s.Start),
			"end":     num(s.End),
		}.toStruct()
	}

	return fields{
		"start":        num(c.Start),
		"end":          num(c.End),
		"suggestions":  list(suggestions),
		"usage":        strs(c.Usage),
		"error":        str(c.Error),
		"error_cursor": num(c.ErrorCursor),
	}.toStruct()
}

func completionFromStruct(s *structpb.Struct) Completion {
	c := Completion{
		Start:       getInt(s, "start"),
		End:         getInt(s, "end"),
		Usage:       getStrings(s, "usage"),
		Error:       getString(s, "error"),
		ErrorCursor: getInt(s, "error_cursor"),
	}

	for _, sugg := range getStructs(s, "suggestions") {
		c.Suggestions = append(c.Suggestions, Suggestion{
			Text:    getString(sugg, "text"),
			Tooltip: getString(sugg, "tooltip"),
			Start:   getInt(sugg, "start"),
			End:     getInt(sugg, "end"),
		})
	}

	return c
}

func detectionsToStructs(detections []Detection) []*structpb.Struct {
	out := make([]*structpb.Struct, len(detections))
	for i, d := range detections {
		out[i] = fields{
			"name":   str(d.Name),
			"handle": str(d.Handle),
			"text":   str(d.Text),
			"start":  num(d.Start),
			"end":    num(d.End),
		}.toStruct()
	}

	return out
}

func detectionsFromStructs(structs []*structpb.Struct) []Detection {
	var out []Detection
	for _, s := range structs {
		out = append(out, Detection{
			Name:   getString(s, "name"),
			Handle: getString(s, "handle"),
			Text:   getString(s, "text"),
			Start:  getInt(s, "start"),
			End:    getInt(s, "end"),
		})
	}

	return out
}

func (o Observation) toStruct() *structpb.Struct {
	return fields{
		"is_message": boolean(o.IsMessage),
		"name":       str(o.Name),
		"tag":        str(o.Tag),
		"message":    str(o.Message),
		"ignored":    boolean(o.Ignored),
		"detections": list(detectionsToStructs(o.Detections)),
	}.toStruct()
}

func observationFromStruct(s *structpb.Struct) Observation {
	return Observation{
		IsMessage:  getBool(s, "is_message"),
		Name:       getString(s, "name"),
		Tag:        getString(s, "tag"),
		Message:    getString(s, "message"),
		Ignored:    getBool(s, "ignored"),
		Detections: detectionsFromStructs(getStructs(s, "detections")),
	}
}
