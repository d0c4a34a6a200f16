package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// DisplayRecord is one image's metadata ready for rendering.
// Records are built per request and never mutated afterwards.
type DisplayRecord struct {
	URL          string
	Name         string
	Labels       string
	SafeAdult    Score
	SafeRacy     Score
	SafeViolence Score
}

// Score is a moderation score in the textual form it was delivered in.
// No validation is applied.
type Score string

func (s Score) String() string {
	return string(s)
}

// ScoreFromValue formats a value scanned from the catalog database.
func ScoreFromValue(v interface{}) Score {
	switch val := v.(type) {
	case nil:
		return ""
	case float64:
		return Score(strconv.FormatFloat(val, 'f', -1, 64))
	case float32:
		return Score(strconv.FormatFloat(float64(val), 'f', -1, 32))
	case int64:
		return Score(strconv.FormatInt(val, 10))
	case []byte:
		return Score(string(val))
	case string:
		return Score(val)
	default:
		return Score(fmt.Sprint(val))
	}
}

// ScoreFromJSON returns the verbatim literal of a JSON number, or the contents
// of a JSON string.
func ScoreFromJSON(raw json.RawMessage) Score {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return Score(s)
		}
	}
	return Score(trimmed)
}

// ImageRow is a raw row of the image catalog table:
// [id, name, labels_json, safe_adult, safe_racy, safe_violence].
type ImageRow struct {
	ID           interface{}
	Name         string
	Labels       LabelSource
	SafeAdult    Score
	SafeRacy     Score
	SafeViolence Score
}

// LabelSourceKind tags the representation held by a LabelSource.
type LabelSourceKind int

const (
	// LabelsAlreadyList holds an already decoded list of labels.
	LabelsAlreadyList LabelSourceKind = iota + 1
	// LabelsSerialized holds a serialized (JSON array) list of labels.
	LabelsSerialized
)

// LabelSource is either an already parsed list of labels or its serialized
// encoding. The zero value is neither and fails normalization.
type LabelSource struct {
	kind       LabelSourceKind
	list       []string
	serialized string
}

// AlreadyList wraps a decoded list of labels.
func AlreadyList(labels []string) LabelSource {
	return LabelSource{kind: LabelsAlreadyList, list: labels}
}

// Serialized wraps the serialized form of a list of labels.
func Serialized(raw string) LabelSource {
	return LabelSource{kind: LabelsSerialized, serialized: raw}
}

// Kind returns the representation tag.
func (s LabelSource) Kind() LabelSourceKind {
	return s.kind
}

// List returns the labels of an AlreadyList source.
func (s LabelSource) List() []string {
	return s.list
}

// Raw returns the text of a Serialized source.
func (s LabelSource) Raw() string {
	return s.serialized
}

// LabelSourceFromJSON classifies a raw JSON value as returned by the search
// service: an array becomes AlreadyList, a string becomes Serialized.
// Every other JSON type is rejected.
func LabelSourceFromJSON(raw json.RawMessage) (LabelSource, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return LabelSource{}, &MalformedLabelDataError{Raw: string(raw), Err: ErrLabelsMissing}
	}

	switch trimmed[0] {
	case '[':
		labels, err := DecodeLabelList(trimmed)
		if err != nil {
			return LabelSource{}, err
		}
		return AlreadyList(labels), nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return LabelSource{}, &MalformedLabelDataError{Raw: string(trimmed), Err: err}
		}
		return Serialized(s), nil
	default:
		return LabelSource{}, &MalformedLabelDataError{Raw: string(trimmed), Err: ErrLabelsNotList}
	}
}

// DecodeLabelList decodes a JSON array of strings. A null member is rejected
// rather than read as an empty label.
func DecodeLabelList(raw []byte) ([]string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &MalformedLabelDataError{Raw: string(raw), Err: ErrLabelsNotList}
	}

	var members []*string
	if err := json.Unmarshal(trimmed, &members); err != nil {
		return nil, &MalformedLabelDataError{Raw: string(raw), Err: err}
	}

	labels := make([]string, len(members))
	for i, m := range members {
		if m == nil {
			return nil, &MalformedLabelDataError{Raw: string(raw), Err: ErrLabelsNotList}
		}
		labels[i] = *m
	}
	return labels, nil
}
