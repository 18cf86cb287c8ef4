// Package llmutils provides small helpers for preparing and cleaning up
// LLM inputs and outputs: JSON encoding, backtick fencing, and content
// accounting used by the assistant loop limits.
package llmutils

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ToJSON returns the compact JSON encoding of v, or an empty string on failure.
func ToJSON(v any) string {
	bs, _ := json.Marshal(v)
	return string(bs)
}

// ToJSONIndent returns the indented JSON encoding of v.
func ToJSONIndent(v any) string {
	bs, _ := json.MarshalIndent(v, "", "  ")
	return string(bs)
}

// BackticksJSON wraps a JSON string in a ```json fence for prompts.
func BackticksJSON(js string) string {
	var sb strings.Builder
	sb.WriteString("```json\n")
	sb.WriteString(js)
	sb.WriteString("\n```\n")
	return sb.String()
}

// CleanJSON trims any prose an LLM wrapped around a JSON value,
// e.g. `Sure, here you go: {...}`.
func CleanJSON(bs []byte) []byte {
	return trimAfterJSON(trimBeforeJSON(bs))
}

func trimBeforeJSON(bs []byte) []byte {
	startObject := bytes.IndexByte(bs, '{')
	startArray := bytes.IndexByte(bs, '[')

	var start int
	switch {
	case startObject == -1 && startArray == -1:
		return bs
	case startObject == -1:
		start = startArray
	case startArray == -1:
		start = startObject
	default:
		start = min(startObject, startArray)
	}
	return bs[start:]
}

func trimAfterJSON(bs []byte) []byte {
	endObject := bytes.LastIndexByte(bs, '}')
	endArray := bytes.LastIndexByte(bs, ']')

	var end int
	switch {
	case endObject == -1 && endArray == -1:
		return bs
	case endObject == -1:
		end = endArray
	case endArray == -1:
		end = endObject
	default:
		end = max(endObject, endArray)
	}
	return bs[:end+1]
}

var backtick = []byte("```")

// TrimBackticks removes a ```json or ``` fence around text.
func TrimBackticks(text string) string {
	return string(BytesTrimBackticks([]byte(text)))
}

// BytesTrimBackticks removes a ```json or ``` fence around bs.
func BytesTrimBackticks(bs []byte) []byte {
	size := len(bs)
	startIndex := bytes.Index(bs, backtick)
	if startIndex == -1 {
		return bs
	}
	startIndex += len(backtick)

	for i := startIndex; i < size && bs[i] != '{' && bs[i] != '['; i++ {
		if bs[i] == '\n' {
			startIndex = i + 1
			break
		}
	}

	contentAfterStart := bs[startIndex:]
	endIndex := bytes.LastIndex(contentAfterStart, backtick)
	if endIndex == -1 {
		return contentAfterStart
	}
	return bytes.TrimSpace(contentAfterStart[:endIndex])
}
